package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(stderrors.New("display gone"), CodeCaptureFailed, "capture region").
		WithMetadata("region", "caerleon")

	msg := err.Error()
	for _, want := range []string{"[CAPTURE_FAILED]", "capture region", "caerleon", "display gone"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeOCRFailed, "engine crashed")
	wrapped := fmt.Errorf("cycle: %w", base)

	if !IsCode(wrapped, CodeOCRFailed) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, CodeParseFailed) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(stderrors.New("plain"), CodeOCRFailed) {
		t.Error("plain errors carry no code")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeUnavailable, "x"), true},
		{New(CodeTimeout, "x"), true},
		{New(CodePublishFailed, "x"), true},
		{New(CodePublishFailed, "x").AsPermanent(), false},
		{fmt.Errorf("sink 0: %w", New(CodeUnavailable, "x").AsPermanent()), false},
		{New(CodeConfigInvalid, "x"), false},
		{New(CodeParseFailed, "x"), false},
		{stderrors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsPermanent(t *testing.T) {
	rejected := New(CodePublishFailed, "sink rejected payload").AsPermanent()
	if !IsPermanent(fmt.Errorf("publish: %w", rejected)) {
		t.Error("IsPermanent should see through fmt.Errorf wrapping")
	}
	if IsPermanent(New(CodePublishFailed, "x")) || IsPermanent(stderrors.New("plain")) {
		t.Error("errors are not permanent unless marked")
	}
	if !IsCode(rejected, CodePublishFailed) {
		t.Error("AsPermanent should keep the code")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	if got := New(CodeConfigMissing, "x").GRPCCode(); got != codes.FailedPrecondition {
		t.Errorf("GRPCCode() = %v, want FailedPrecondition", got)
	}
	st, ok := status.FromError(New(CodeOCRUnavailable, "down"))
	if !ok || st.Code() != codes.Unavailable {
		t.Errorf("status.FromError = %v/%v, want Unavailable", st.Code(), ok)
	}
}

func TestFromGRPCError(t *testing.T) {
	err := FromGRPCError(status.Error(codes.DeadlineExceeded, "slow"), CodeOCRFailed)
	if err.Code != CodeTimeout {
		t.Errorf("Code = %v, want TIMEOUT", err.Code)
	}
	err = FromGRPCError(status.Error(codes.Internal, "boom"), CodeOCRFailed)
	if err.Code != CodeOCRFailed {
		t.Errorf("Code = %v, want fallback OCR_FAILED", err.Code)
	}
	if FromGRPCError(nil, CodeOCRFailed) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestCodeString(t *testing.T) {
	if CodePublishFailed.String() != "PUBLISH_FAILED" {
		t.Errorf("String() = %q", CodePublishFailed.String())
	}
	if Code(999).String() != "UNKNOWN" {
		t.Errorf("unknown code String() = %q", Code(999).String())
	}
}
