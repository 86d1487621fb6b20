package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"ollama-chatbot/pkg/logger"
	"ollama-chatbot/pkg/metrics"
)

const (
	DefaultBinary  = "ollama"
	DefaultModel   = "llama3.2:1b"
	DefaultTimeout = 120 * time.Second

	// waitDelay caps how long Run waits on output pipes after the process is killed.
	waitDelay = 2 * time.Second
)

// ExitError reports a model process that ran but exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return e.Stderr
}

// LaunchError reports a model process that could not be started.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return e.Err.Error()
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a model process killed for exceeding its deadline or
// because the caller's context ended.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("model did not respond within %s", e.After)
	}
	return fmt.Sprintf("model run cancelled: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Runner invokes `<binary> run <model> <prompt>` once per call.
type Runner struct {
	binary  string
	model   string
	timeout time.Duration
	log     *zap.Logger
}

type Option func(*Runner)

func WithBinary(binary string) Option {
	return func(r *Runner) {
		r.binary = strings.TrimSpace(binary)
	}
}

func WithModel(model string) Option {
	return func(r *Runner) {
		r.model = strings.TrimSpace(model)
	}
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner creates a Runner with the ollama defaults overridden by opts.
func NewRunner(opts ...Option) (*Runner, error) {
	r := &Runner{
		binary:  DefaultBinary,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.binary == "" {
		return nil, errors.New("ollama: binary must not be empty")
	}
	if r.model == "" {
		return nil, errors.New("ollama: model must not be empty")
	}
	if r.timeout < 0 {
		return nil, errors.New("ollama: timeout must not be negative")
	}
	r.log = logger.OrNop(r.log)
	return r, nil
}

// Model returns the model identifier passed to the binary.
func (r *Runner) Model() string {
	return r.model
}

// Generate runs the model with prompt as a single argument and returns its
// trimmed standard output.
func (r *Runner) Generate(ctx context.Context, prompt string) (string, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.binary, "run", r.model, prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		genErr := r.classify(ctx, runCtx, err, stderr.String())
		metrics.RecordModel(r.model, outcome(genErr), elapsed.Seconds())
		r.log.Warn("model run failed",
			zap.String("model", r.model),
			zap.Duration("duration", elapsed),
			zap.Error(genErr),
		)
		return "", genErr
	}

	metrics.RecordModel(r.model, "ok", elapsed.Seconds())
	r.log.Debug("model run completed",
		zap.String("model", r.model),
		zap.Duration("duration", elapsed),
		zap.Int("stdout_bytes", stdout.Len()),
	)
	return strings.TrimSpace(stdout.String()), nil
}

func (r *Runner) classify(parent, runCtx context.Context, err error, stderr string) error {
	if ctxErr := runCtx.Err(); ctxErr != nil {
		if parent.Err() == nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return &TimeoutError{After: r.timeout, Err: ctxErr}
		}
		return &TimeoutError{Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return &LaunchError{Err: err}
}

func outcome(err error) string {
	var (
		exitErr    *ExitError
		timeoutErr *TimeoutError
	)
	switch {
	case errors.As(err, &exitErr):
		return "exit_error"
	case errors.As(err, &timeoutErr):
		return "timeout"
	default:
		return "launch_error"
	}
}
