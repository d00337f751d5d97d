// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     apperr
// Description: Error codes for the recording and upload pipeline
// Author:      Mike Stoffels with Claude
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package apperr

// Code represents a structured error code for categorizing errors
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"

	// Capture and decode
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeCaptureFailed    Code = "CAPTURE_FAILED"
	CodeDecodeFailed     Code = "DECODE_FAILED"
	CodePlaybackFailed   Code = "PLAYBACK_FAILED"

	// Transcription service
	CodeNetworkUnavailable    Code = "NETWORK_UNAVAILABLE"
	CodeTranscriptionTimedOut Code = "TRANSCRIPTION_TIMED_OUT"
	CodeTranscriptionRejected Code = "TRANSCRIPTION_REJECTED"
	CodeCanceled              Code = "CANCELED"

	// Session state
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeInvalidInput           Code = "INVALID_INPUT"

	// Persistence and configuration
	CodeSaveFailed  Code = "SAVE_FAILED"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConfigError Code = "CONFIG_ERROR"
)

// String returns the code value
func (c Code) String() string {
	return string(c)
}

// IsProgrammingError reports whether the code signals a caller bug rather
// than a user or environment failure.
func (c Code) IsProgrammingError() bool {
	return c == CodeInvalidStateTransition
}

// IsRetryable reports whether repeating the same operation may succeed.
func (c Code) IsRetryable() bool {
	switch c {
	case CodeNetworkUnavailable, CodeTranscriptionTimedOut, CodeSaveFailed:
		return true
	default:
		return false
	}
}

// DefaultMessage returns a short human-readable message for the code.
func (c Code) DefaultMessage() string {
	switch c {
	case CodePermissionDenied:
		return "microphone access was denied"
	case CodeCaptureFailed:
		return "recording could not be captured"
	case CodeDecodeFailed:
		return "recording could not be decoded"
	case CodePlaybackFailed:
		return "playback failed"
	case CodeNetworkUnavailable:
		return "transcription service is unreachable"
	case CodeTranscriptionTimedOut:
		return "transcription timed out"
	case CodeTranscriptionRejected:
		return "transcription failed"
	case CodeCanceled:
		return "operation was canceled"
	case CodeInvalidStateTransition:
		return "operation not allowed in the current state"
	case CodeInvalidInput:
		return "invalid input"
	case CodeSaveFailed:
		return "recording could not be saved"
	case CodeNotFound:
		return "not found"
	case CodeConfigError:
		return "invalid configuration"
	default:
		return "unexpected error"
	}
}
