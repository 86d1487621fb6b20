package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func withValue(v string) *fakeAPI {
	return &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}}
}

func mustNew(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := New(api, "/ai-chatbot/")
	require.NoError(t, err)
	return c
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "/ai-chatbot")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")

	_, err = New(&fakeAPI{}, " / ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}

func TestName(t *testing.T) {
	c := mustNew(t, &fakeAPI{})
	require.Equal(t, "/ai-chatbot/config/model", c.Name("config/model"))
	require.Equal(t, "/ai-chatbot/config/model", c.Name("/config/model"))
}

func TestGet_HappyPath(t *testing.T) {
	api := withValue(" llama3.2:3b \n")
	c := mustNew(t, api)
	v, err := c.Get(context.Background(), "config/model")
	require.NoError(t, err)
	require.Equal(t, "llama3.2:3b", v)
	require.Equal(t, "/ai-chatbot/config/model", aws.ToString(api.lastIn.Name))
	require.True(t, aws.ToBool(api.lastIn.WithDecryption))
}

func TestGet_EmptyKey(t *testing.T) {
	c := mustNew(t, &fakeAPI{})
	_, err := c.Get(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestGet_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p")}}}
	c := mustNew(t, api)
	_, err := c.Get(context.Background(), "config/model")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestGet_NotFound(t *testing.T) {
	api := &fakeAPI{getErr: &types.ParameterNotFound{}}
	c := mustNew(t, api)
	_, err := c.Get(context.Background(), "config/model")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("boom")}
	c := mustNew(t, api)
	_, err := c.Get(context.Background(), "config/model")
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGetOr(t *testing.T) {
	v, err := mustNew(t, withValue("mistral")).GetOr(context.Background(), "config/model", "llama3.2:1b")
	require.NoError(t, err)
	require.Equal(t, "mistral", v)

	v, err = mustNew(t, withValue("  ")).GetOr(context.Background(), "config/model", "llama3.2:1b")
	require.NoError(t, err)
	require.Equal(t, "llama3.2:1b", v)

	v, err = mustNew(t, &fakeAPI{getErr: &types.ParameterNotFound{}}).GetOr(context.Background(), "config/model", "llama3.2:1b")
	require.NoError(t, err)
	require.Equal(t, "llama3.2:1b", v)

	_, err = mustNew(t, &fakeAPI{getErr: errors.New("throttled")}).GetOr(context.Background(), "config/model", "llama3.2:1b")
	require.Error(t, err)
}
