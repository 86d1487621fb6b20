package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorModel        ErrorCode = "MODEL_ERROR"
	ErrorSubprocess   ErrorCode = "SUBPROCESS_ERROR"
	ErrorTimeout      ErrorCode = "MODEL_TIMEOUT"
	ErrorStore        ErrorCode = "STORE_ERROR"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// EmptyMessageReply is returned to callers that send a blank message.
const EmptyMessageReply = "Please enter a message."

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) detail() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Err.Error()
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code carried by err, or ErrorInternal.
func CodeOf(err error) ErrorCode {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.Code
	}
	return ErrorInternal
}

// ReplyText renders a chat failure as the text placed in the "response" field.
// Model failures carry the raw diagnostic so callers can see what went wrong.
func ReplyText(err error) string {
	var ucErr *Error
	if !errors.As(err, &ucErr) {
		return "Error: " + err.Error()
	}
	switch ucErr.Code {
	case ErrorInvalidInput:
		return EmptyMessageReply
	case ErrorModel:
		return "Error in Ollama: " + ucErr.detail()
	case ErrorSubprocess:
		return "Subprocess error: " + ucErr.detail()
	case ErrorTimeout:
		return "Model timeout: " + ucErr.detail()
	default:
		return "Error: " + ucErr.detail()
	}
}
