package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestFlowError_Error(t *testing.T) {
	err := &FlowError{
		Code: CodeRunNotFound,
		What: "no active run",
		Why:  "nothing is running",
	}
	want := "no active run: nothing is running"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFlowError_ErrorWithCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := ErrStoreUnavailable(cause)
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
}

func TestFlowError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := ErrStepFault(2, "extractor", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestFlowError_IsMatchesByCode(t *testing.T) {
	a := ErrRunNotFound()
	b := ErrRunNotFound()
	if !stderrors.Is(a, b) {
		t.Error("two errors with the same code should match via Is")
	}

	c := ErrGateNotPending()
	if stderrors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestFlowError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *FlowError
		want int
	}{
		{ErrRunNotFound(), 404},
		{ErrNoArtifacts("CASE-1"), 400},
		{ErrRunActive("run-1"), 409},
		{ErrApprovalDenied("viewer", "sanitizer"), 403},
		{ErrStoreUnavailable(nil), 503},
		{ErrStepFault(1, "extractor", nil), 500},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestAsFlowError(t *testing.T) {
	fe := ErrGateNotPending()
	wrapped := fmt.Errorf("handling approval: %w", fe)

	got := AsFlowError(wrapped)
	if got == nil {
		t.Fatal("AsFlowError should unwrap through fmt.Errorf")
	}
	if got.Code != CodeGateNotPending {
		t.Errorf("code = %s, want %s", got.Code, CodeGateNotPending)
	}

	if AsFlowError(stderrors.New("plain")) != nil {
		t.Error("AsFlowError on a plain error should return nil")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, "loading snapshot")
	if err.Code != Code("UNKNOWN") {
		t.Errorf("code = %s, want UNKNOWN", err.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to cause")
	}
}

func TestUserMessage(t *testing.T) {
	err := ErrNoArtifacts("CASE-9")
	msg := err.UserMessage()
	for _, part := range []string{"Error:", "Why:", "Fix:"} {
		if !strings.Contains(msg, part) {
			t.Errorf("UserMessage missing %q section:\n%s", part, msg)
		}
	}
}
