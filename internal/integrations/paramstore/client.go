package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ErrNotFound is returned when the named parameter does not exist.
var ErrNotFound = errors.New("paramstore: parameter not found")

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Client reads runtime overrides stored under a parameter prefix.
type Client struct {
	api    ssmAPI
	prefix string
}

// New creates a Client for parameters below prefix (e.g. "/ai-chatbot").
func New(api ssmAPI, prefix string) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("paramstore: prefix must not be empty")
	}
	return &Client{api: api, prefix: prefix}, nil
}

// Name returns the full parameter name for key.
func (c *Client) Name(key string) string {
	return c.prefix + "/" + strings.TrimLeft(strings.TrimSpace(key), "/")
}

// Get returns the decrypted value of key below the client's prefix.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("paramstore: key is required")
	}
	name := c.Name(key)

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return strings.TrimSpace(*out.Parameter.Value), nil
}

// GetOr returns the value of key, or fallback when the parameter does not exist
// or is blank. Other failures are returned.
func (c *Client) GetOr(ctx context.Context, key, fallback string) (string, error) {
	v, err := c.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	if v == "" {
		return fallback, nil
	}
	return v, nil
}
