// Package errors provides the typed error taxonomy shared by the API client
// and the screen controllers. An error's kind is assigned once at the client
// boundary and never re-derived from message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies where in the request lifecycle an error occurred.
type Kind string

const (
	// KindValidation: input rejected locally, before any network call.
	KindValidation Kind = "validation"
	// KindTransport: the network call itself failed (refused, DNS, timeout).
	KindTransport Kind = "transport"
	// KindHTTP: the backend answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindApplication: 2xx response whose embedded status field was not "success".
	KindApplication Kind = "application"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoFileSelected      ErrorCode = "NO_FILE_SELECTED"
	ErrCodeNotAnImage          ErrorCode = "NOT_AN_IMAGE"
	ErrCodeUnsupportedFileType ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	ErrCodeInvalidPreferences  ErrorCode = "INVALID_PREFERENCES"

	ErrCodeBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"

	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeServerError     ErrorCode = "SERVER_ERROR"
	ErrCodeHTTPFailure     ErrorCode = "HTTP_FAILURE"

	ErrCodeApplicationError ErrorCode = "APPLICATION_ERROR"
	ErrCodeAnalysisFailed   ErrorCode = "ANALYSIS_FAILED"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
)

// RequestError is the single error type crossing the API client boundary.
type RequestError struct {
	Kind       Kind      `json:"kind"`
	Code       ErrorCode `json:"code"`
	StatusCode int       `json:"statusCode,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("RequestError[%s/%s]: %s", e.Kind, e.Code, e.Message)
}

// ==========================
// Constructors
// ==========================

// NewValidationError creates a client-side input rejection. No network call
// was made.
func NewValidationError(code ErrorCode, message string) *RequestError {
	return &RequestError{
		Kind:      KindValidation,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError wraps a failed network call.
func NewTransportError(err error) *RequestError {
	return &RequestError{
		Kind:      KindTransport,
		Code:      ErrCodeBackendUnreachable,
		Message:   "backend is unreachable",
		Detail:    err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPError creates an error for a non-2xx response. The code is derived
// from the status once, here, so callers never inspect message text.
func NewHTTPError(statusCode int, detail string) *RequestError {
	code := ErrCodeHTTPFailure
	switch {
	case statusCode == http.StatusBadRequest:
		code = ErrCodeBadRequest
	case statusCode == http.StatusNotFound:
		code = ErrCodeNotFound
	case statusCode == http.StatusRequestEntityTooLarge:
		code = ErrCodePayloadTooLarge
	case statusCode >= 500:
		code = ErrCodeServerError
	}

	message := detail
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}

	return &RequestError{
		Kind:       KindHTTP,
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
		Detail:     detail,
		Timestamp:  time.Now().UTC(),
	}
}

// NewApplicationError creates an error for a 2xx response whose embedded
// status field signalled failure.
func NewApplicationError(code ErrorCode, message string) *RequestError {
	if message == "" {
		message = "the request could not be completed"
	}
	return &RequestError{
		Kind:      KindApplication,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Inspection helpers
// ==========================

// AsRequestError unwraps err into a *RequestError, or nil.
func AsRequestError(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return nil
}

// KindOf returns the taxonomy kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	if reqErr := AsRequestError(err); reqErr != nil {
		return reqErr.Kind
	}
	return ""
}

// CodeOf returns the error code of err, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if reqErr := AsRequestError(err); reqErr != nil {
		return reqErr.Code
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsTransport(err error) bool  { return KindOf(err) == KindTransport }

// UserMessage maps an error to the copy shown to the patient. The mapping
// keys off kind and code only.
func UserMessage(err error) string {
	reqErr := AsRequestError(err)
	if reqErr == nil {
		return "Something went wrong. Please try again."
	}

	switch reqErr.Kind {
	case KindTransport:
		return "Cannot connect to the backend. Please make sure the server is running."
	case KindValidation:
		switch reqErr.Code {
		case ErrCodeNoFileSelected:
			return "Please select a file first."
		case ErrCodeNotAnImage:
			return "Please select an image file."
		case ErrCodeUnsupportedFileType:
			return "Unsupported file type. Please upload a JPEG or PNG image."
		case ErrCodeFileTooLarge:
			return "File is too large. Maximum size is 5 MB."
		}
		return reqErr.Message
	case KindHTTP:
		switch reqErr.Code {
		case ErrCodeBadRequest:
			return "The image could not be read. Please try a clearer photo."
		case ErrCodePayloadTooLarge:
			return "The image is too large for the server to accept."
		case ErrCodeServerError:
			return "The server ran into a problem. Please try again in a moment."
		}
		return reqErr.Message
	case KindApplication:
		if reqErr.Code == ErrCodeAnalysisFailed {
			return "The prescription could not be analyzed. Please try again."
		}
		return reqErr.Message
	}

	return "Something went wrong. Please try again."
}
