// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     apperr
// Description: Coded error type with optional reason and cause
// Author:      Mike Stoffels with Claude
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package apperr

import (
	"errors"
	"fmt"
)

// Error represents a structured error with a code, an optional reason
// (e.g. a server message) and an optional cause.
type Error struct {
	code    Code
	message string
	reason  string
	cause   error
}

// New creates a new Error
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates a new Error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. Returns nil for a nil err.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// WithReason returns a copy carrying the given reason
func (e *Error) WithReason(reason string) *Error {
	clone := *e
	clone.reason = reason
	return &clone
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.code.DefaultMessage()
	}
	if e.reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.reason)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Reason returns the reason, if any
func (e *Error) Reason() string {
	return e.reason
}

// Message returns the message without cause or reason
func (e *Error) Message() string {
	return e.message
}

// Is matches another *Error by code, so errors.Is(err, apperr.New(code, ""))
// works as a code check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the outermost *Error in the chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ReasonOf returns the first non-empty reason in the chain.
func ReasonOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.reason != "" {
			return e.reason
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage renders err for display: the code's message, followed by the
// reason when one exists.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	code := CodeOf(err)
	if code == CodeUnknown {
		return err.Error()
	}
	msg := code.DefaultMessage()
	if reason := ReasonOf(err); reason != "" {
		msg += ": " + reason
	}
	return msg
}
