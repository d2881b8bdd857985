// Package clierr maps command errors to process exit codes.
package clierr

import (
	"errors"
	"fmt"
)

const (
	// ExitFailure is reported for errors that carry no code of their own.
	ExitFailure = 1
	// ExitUsage is reported for bad flags, arguments, configuration or
	// pipeline definitions.
	ExitUsage = 2
)

// ExitCoder is an error that knows its process exit code. A failed
// pipeline step satisfies it with the step's own exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError carries an explicit exit code and an optional cause.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap attaches an exit code to cause. A nil cause yields New(code, msg).
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Usage wraps err as a usage error, or returns nil for a nil err.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{code: ExitUsage, cause: err}
}

// ExitCodeOf extracts an exit code from any error: 0 for nil, the code of
// the outermost ExitCoder in the chain, otherwise ExitFailure.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return normalize(ec.ExitCode())
	}
	return ExitFailure
}

func normalize(code int) int {
	if code <= 0 {
		return ExitFailure
	}
	return code
}
