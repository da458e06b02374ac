package netsuite

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a NetSuite proxy failure. The string value is the
// wire-visible error_type emitted in the uniform error body.
type Kind string

const (
	KindAuthentication Kind = "AuthenticationError"
	KindPermission     Kind = "NetSuitePermissionError"
	KindNotFound       Kind = "RecordNotFoundError"
	KindPageBounds     Kind = "PageBoundsError"
	KindValidation     Kind = "ValidationError"
	KindRateLimit      Kind = "RateLimitError"
	KindTimeout        Kind = "NetSuiteTimeoutError"
	KindSOAPFault      Kind = "SOAPFaultError"
	KindRESTletFault   Kind = "RESTletError"
	KindConfiguration  Kind = "ConfigurationError"
	KindGeneric        Kind = "NetSuiteError"
)

// Error is the single error type carried through the proxy. It is created at
// the point of failure and never mutated afterwards.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to the response status code. Anything not
// explicitly listed surfaces as a 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindPageBounds, KindValidation:
		return http.StatusBadRequest
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewAuthentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Details: map[string]any{}}
}

func NewPermission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message, Details: map[string]any{}}
}

func NewNotFound(recordType string, recordID any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", recordType, recordID),
		Details: map[string]any{"record_type": recordType, "record_id": recordID},
	}
}

func NewPageBounds(page, totalPages int) *Error {
	return &Error{
		Kind:    KindPageBounds,
		Message: fmt.Sprintf("Page %d is out of bounds. Total pages: %d", page, totalPages),
		Details: map[string]any{"page": page, "total_pages": totalPages},
	}
}

func NewValidation(field string, value any, reason string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("Validation error for field '%s': %s", field, reason),
		Details: map[string]any{"field": field, "value": value, "reason": reason},
	}
}

// NewRateLimit reports provider throttling. retryAfter is in seconds; zero
// means the provider did not say.
func NewRateLimit(retryAfter int) *Error {
	message := "NetSuite API rate limit exceeded"
	if retryAfter > 0 {
		message += fmt.Sprintf(". Retry after %d seconds", retryAfter)
	}
	return &Error{
		Kind:    KindRateLimit,
		Message: message,
		Details: map[string]any{"retry_after": retryAfter},
	}
}

func NewTimeout(operation string, timeoutSeconds int) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("Operation '%s' timed out after %d seconds", operation, timeoutSeconds),
		Details: map[string]any{"operation": operation, "timeout_seconds": timeoutSeconds},
	}
}

func NewSOAPFault(faultCode, faultString string) *Error {
	return &Error{
		Kind:    KindSOAPFault,
		Message: fmt.Sprintf("SOAP Fault: %s - %s", faultCode, faultString),
		Details: map[string]any{"fault_code": faultCode, "fault_string": faultString},
	}
}

// NewRESTletFault reports a failure surfaced by a RESTlet script, either as a
// non-2xx status or as an embedded error object in a 200 response.
func NewRESTletFault(scriptID, errorCode string, errorDetails map[string]any) *Error {
	message := fmt.Sprintf("RESTlet error in script %s", scriptID)
	if errorCode != "" {
		message += ": " + errorCode
	}
	if errorDetails == nil {
		errorDetails = map[string]any{}
	}
	return &Error{
		Kind:    KindRESTletFault,
		Message: message,
		Details: map[string]any{
			"script_id":     scriptID,
			"error_code":    errorCode,
			"error_details": errorDetails,
		},
	}
}

func NewConfiguration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Details: map[string]any{}}
}

// NewGeneric wraps an unclassified transport or provider failure. cause may
// be nil.
func NewGeneric(message string, cause error) *Error {
	return &Error{Kind: KindGeneric, Message: message, Details: map[string]any{}, cause: cause}
}

// AsError unwraps err into a taxonomy *Error, or wraps it as Generic when it
// is something unclassified.
func AsError(err error) *Error {
	var nsErr *Error
	if errors.As(err, &nsErr) {
		return nsErr
	}
	return NewGeneric(err.Error(), err)
}

// errorBody is the uniform wire shape for all proxy failures.
type errorBody struct {
	Error     string         `json:"error"`
	ErrorType Kind           `json:"error_type"`
	Details   map[string]any `json:"details"`
}

// WriteError renders err as the uniform JSON error body. Unclassified errors
// are reported as a generic 500 without leaking internal detail.
func WriteError(w http.ResponseWriter, err error) {
	var nsErr *Error
	if !errors.As(err, &nsErr) {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:     "Internal server error",
			ErrorType: "InternalError",
			Details:   map[string]any{"message": "An unexpected error occurred"},
		})
		return
	}
	writeJSON(w, nsErr.HTTPStatus(), errorBody{
		Error:     nsErr.Message,
		ErrorType: nsErr.Kind,
		Details:   nsErr.Details,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
