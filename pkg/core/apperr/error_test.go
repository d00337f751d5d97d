package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(CodeCaptureFailed, "stop failed"), "stop failed"},
		{"default", New(CodeNetworkUnavailable, ""), "transcription service is unreachable"},
		{"reason", New(CodeTranscriptionRejected, "server refused").WithReason("bad audio"), "server refused (bad audio)"},
		{"cause", Wrap(errors.New("disk full"), CodeSaveFailed, "write audio"), "write audio: disk full"},
		{"formatted", Newf(CodeInvalidStateTransition, "cannot %s while %s", "stop", "idle"), "cannot stop while idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, CodeInternal, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	inner := New(CodeDecodeFailed, "bad header")
	outer := Wrap(inner, CodeCaptureFailed, "finalize clip")
	wrapped := fmt.Errorf("stop: %w", outer)

	if got := CodeOf(wrapped); got != CodeCaptureFailed {
		t.Errorf("CodeOf() = %v, want %v", got, CodeCaptureFailed)
	}
	if !HasCode(wrapped, CodeDecodeFailed) {
		t.Error("HasCode should find the inner decode code")
	}
	if HasCode(wrapped, CodeSaveFailed) {
		t.Error("HasCode should not match an absent code")
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Errorf("CodeOf(plain) = %v, want %v", got, CodeUnknown)
	}
}

func TestErrorsIsByCode(t *testing.T) {
	err := fmt.Errorf("upload: %w", New(CodeTranscriptionTimedOut, "deadline"))

	if !errors.Is(err, New(CodeTranscriptionTimedOut, "")) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, New(CodeNetworkUnavailable, "")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestReasonOfAndUserMessage(t *testing.T) {
	err := Wrap(New(CodeTranscriptionRejected, "").WithReason("quota exceeded"), CodeTranscriptionRejected, "upload")

	if got := ReasonOf(err); got != "quota exceeded" {
		t.Errorf("ReasonOf() = %q, want quota exceeded", got)
	}
	if got := UserMessage(err); got != "transcription failed: quota exceeded" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("raw")); got != "raw" {
		t.Errorf("UserMessage(raw) = %q", got)
	}
	if UserMessage(nil) != "" {
		t.Error("UserMessage(nil) should be empty")
	}
}

func TestCode_Classification(t *testing.T) {
	if !CodeInvalidStateTransition.IsProgrammingError() {
		t.Error("invalid state transition should be a programming error")
	}
	if CodeNetworkUnavailable.IsProgrammingError() {
		t.Error("network failure is not a programming error")
	}
	if !CodeTranscriptionTimedOut.IsRetryable() {
		t.Error("timeout should be retryable")
	}
	if CodePermissionDenied.IsRetryable() {
		t.Error("permission denial should not be retryable")
	}
}
