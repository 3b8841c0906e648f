package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindDomain    Kind = "domain"
	KindTransport Kind = "transport"
	KindPlatform  Kind = "platform"
	KindBootstrap Kind = "bootstrap"
	KindStorage   Kind = "storage"
	KindImage     Kind = "image"
	KindUnknown   Kind = "unknown"
)

// Code identifies a rejection or failure class of the resize service.
// Codes are stable strings surfaced to callers alongside the HTTP status.
type Code string

const (
	CodeNone                 Code = ""
	CodeUnsupportedMediaType Code = "unsupported_media_type"
	CodePayloadTooLarge      Code = "payload_too_large"
	CodeEmptyPayload         Code = "empty_payload"
	CodeUnsupportedFormat    Code = "unsupported_format"
	CodeInvalidDimensions    Code = "invalid_dimensions"
	CodeProcessingFailed     Code = "processing_failed"
	CodeOutOfMemory          Code = "out_of_memory"
)

// HTTPStatus maps a Code to the status the transport layer should answer
// with. Caller-input faults are 400, pipeline-internal faults are 500.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnsupportedMediaType,
		CodePayloadTooLarge,
		CodeEmptyPayload,
		CodeUnsupportedFormat,
		CodeInvalidDimensions:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// NewCoded builds a typed image error carrying a taxonomy code.
func NewCoded(code Code, op, message string) *Error {
	return &Error{
		Kind:    KindImage,
		Code:    code,
		Op:      op,
		Message: message,
	}
}

// WrapCoded attaches a taxonomy code while wrapping an underlying cause.
// Unlike Wrap it never passes an already-typed error through unchanged:
// each pipeline step classifies its own failures.
func WrapCoded(code Code, op, message string, err error) *Error {
	return &Error{
		Kind:    KindImage,
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// CodeOf extracts the taxonomy code from an error chain. Untyped errors
// and typed errors without a code report CodeProcessingFailed so the
// transport layer never surfaces an unstructured fault.
func CodeOf(err error) Code {
	var target *Error
	if errors.As(err, &target) && target.Code != CodeNone {
		return target.Code
	}
	return CodeProcessingFailed
}
