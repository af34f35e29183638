// Package errors provides the typed error kinds used across the capture-analyze-decide pipeline.
// Codes map onto gRPC status codes so OCR engine failures round-trip through the transport.
package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code identifies an error kind.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeUnavailable
	CodeTimeout
	CodeCancelled
	CodeCaptureFailed
	CodeCaptureMalformed
	CodeOCRFailed
	CodeOCRUnavailable
	CodeParseFailed
	CodePublishFailed
	CodeRecordFailed
	CodeConfigInvalid
	CodeConfigMissing
)

var codeNames = map[Code]string{
	CodeUnknown:          "UNKNOWN",
	CodeInternal:         "INTERNAL",
	CodeUnavailable:      "UNAVAILABLE",
	CodeTimeout:          "TIMEOUT",
	CodeCancelled:        "CANCELLED",
	CodeCaptureFailed:    "CAPTURE_FAILED",
	CodeCaptureMalformed: "CAPTURE_MALFORMED",
	CodeOCRFailed:        "OCR_FAILED",
	CodeOCRUnavailable:   "OCR_UNAVAILABLE",
	CodeParseFailed:      "PARSE_FAILED",
	CodePublishFailed:    "PUBLISH_FAILED",
	CodeRecordFailed:     "RECORD_FAILED",
	CodeConfigInvalid:    "CONFIG_INVALID",
	CodeConfigMissing:    "CONFIG_MISSING",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return codeNames[CodeUnknown]
}

// grpcCodeMap maps error codes to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:          codes.Unknown,
	CodeInternal:         codes.Internal,
	CodeUnavailable:      codes.Unavailable,
	CodeTimeout:          codes.DeadlineExceeded,
	CodeCancelled:        codes.Canceled,
	CodeCaptureFailed:    codes.Unavailable,
	CodeCaptureMalformed: codes.DataLoss,
	CodeOCRFailed:        codes.Internal,
	CodeOCRUnavailable:   codes.Unavailable,
	CodeParseFailed:      codes.InvalidArgument,
	CodePublishFailed:    codes.Unavailable,
	CodeRecordFailed:     codes.Internal,
	CodeConfigInvalid:    codes.InvalidArgument,
	CodeConfigMissing:    codes.FailedPrecondition,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error

	// Permanent errors are never retried and do not count against a
	// circuit breaker: the remote side answered and refused.
	Permanent bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// GRPCStatus lets status.FromError recognise an AppError returned by a gRPC handler.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Error())
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// AsPermanent marks e as a refusal that will not change on retry.
func (e *AppError) AsPermanent() *AppError {
	e.Permanent = true
	return e
}

// FromGRPCError converts a gRPC client error into an AppError carrying the given
// fallback code when the status code has no closer match.
func FromGRPCError(err error, fallback Code) *AppError {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: fallback, Message: err.Error(), Cause: err}
	}
	code := fallback
	switch st.Code() {
	case codes.Unavailable:
		code = CodeUnavailable
	case codes.DeadlineExceeded:
		code = CodeTimeout
	case codes.Canceled:
		code = CodeCancelled
	case codes.InvalidArgument, codes.FailedPrecondition:
		code = CodeConfigInvalid
	}
	return &AppError{Code: code, Message: st.Message(), Cause: err}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error chain carries a specific error code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// IsPermanent reports whether the first AppError in err's chain is permanent.
func IsPermanent(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Permanent
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	if IsPermanent(err) {
		return false
	}
	switch CodeOf(err) {
	case CodeUnavailable, CodeTimeout, CodeOCRUnavailable, CodePublishFailed:
		return true
	default:
		return false
	}
}
