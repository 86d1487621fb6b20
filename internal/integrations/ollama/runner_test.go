package ollama

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const helperEnv = "OLLAMA_RUNNER_HELPER"

// TestMain lets the test binary stand in for the ollama executable. When
// helperEnv is set the binary behaves like `ollama run <model> <prompt>`.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(helperMain(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

func helperMain(mode string, args []string) int {
	if len(args) != 3 || args[0] != "run" {
		fmt.Fprintf(os.Stderr, "unexpected args: %q", args)
		return 2
	}
	switch mode {
	case "echo":
		fmt.Printf("\n  - model=%s\n  - prompt=%s  \n\n", args[1], args[2])
		return 0
	case "fail":
		fmt.Fprint(os.Stderr, "no model")
		return 1
	case "sleep":
		time.Sleep(30 * time.Second)
		return 0
	default:
		return 3
	}
}

func helperRunner(t *testing.T, mode string, opts ...Option) *Runner {
	t.Helper()
	t.Setenv(helperEnv, mode)
	exe, err := os.Executable()
	require.NoError(t, err)
	r, err := NewRunner(append([]Option{WithBinary(exe), WithModel("test-model")}, opts...)...)
	require.NoError(t, err)
	return r
}

func TestNewRunner_Defaults(t *testing.T) {
	r, err := NewRunner()
	require.NoError(t, err)
	require.Equal(t, DefaultBinary, r.binary)
	require.Equal(t, DefaultModel, r.Model())
	require.Equal(t, DefaultTimeout, r.timeout)
	require.NotNil(t, r.log)
}

func TestNewRunner_Validates(t *testing.T) {
	_, err := NewRunner(WithBinary(" "))
	require.Error(t, err)

	_, err = NewRunner(WithModel(""))
	require.Error(t, err)

	_, err = NewRunner(WithTimeout(-time.Second))
	require.Error(t, err)
}

func TestGenerate_ReturnsTrimmedStdout(t *testing.T) {
	r := helperRunner(t, "echo")
	out, err := r.Generate(context.Background(), "user: Hello")
	require.NoError(t, err)
	require.Equal(t, "- model=test-model\n  - prompt=user: Hello", out)
}

func TestGenerate_PassesPromptAsSingleArgument(t *testing.T) {
	r := helperRunner(t, "echo")
	prompt := "user: a b c\nbot (respond in English using bullet points, start each point with '-'):"
	out, err := r.Generate(context.Background(), prompt)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, prompt))
}

func TestGenerate_NonZeroExit(t *testing.T) {
	r := helperRunner(t, "fail")
	_, err := r.Generate(context.Background(), "hi")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.Code)
	require.Equal(t, "no model", exitErr.Stderr)
	require.Equal(t, "no model", err.Error())
}

func TestGenerate_MissingBinary(t *testing.T) {
	r, err := NewRunner(WithBinary("/nonexistent/path/to/ollama"))
	require.NoError(t, err)

	_, err = r.Generate(context.Background(), "hi")
	require.Error(t, err)

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	require.Contains(t, err.Error(), "/nonexistent/path/to/ollama")
}

func TestGenerate_Timeout(t *testing.T) {
	r := helperRunner(t, "sleep", WithTimeout(200*time.Millisecond))
	start := time.Now()
	_, err := r.Generate(context.Background(), "hi")
	require.Error(t, err)
	require.Less(t, time.Since(start), 10*time.Second)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 200*time.Millisecond, timeoutErr.After)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Contains(t, err.Error(), "200ms")
}

func TestGenerate_CallerCancellation(t *testing.T) {
	r := helperRunner(t, "sleep", WithTimeout(0))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Generate(ctx, "hi")
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Zero(t, timeoutErr.After)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "exit_error", outcome(&ExitError{}))
	require.Equal(t, "timeout", outcome(&TimeoutError{}))
	require.Equal(t, "launch_error", outcome(&LaunchError{Err: errors.New("x")}))
}
