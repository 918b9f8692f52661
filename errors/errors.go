package errors

import (
	"errors"
	"fmt"
)

// Error is a pipeline error carrying a classification code alongside the
// wrapped cause. The zero code is CodeUnknown.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Msg is the operation-level context for the failure.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without an underlying cause.
func New(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification code and context to an existing error while
// preserving the ability to check the cause with errors.Is().
func Wrap(code ErrorCode, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: msg, Err: err}
}

// Wrapf attaches a classification code and formatted context to an existing
// error while preserving the ability to check the cause with errors.Is().
func Wrapf(code ErrorCode, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Code returns the classification of err. Wrapping is traversed until a
// pipeline error is found; plain errors report CodeUnknown, nil reports an
// empty code.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == "" {
			return CodeUnknown
		}
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given classification code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
