package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/tidwall/gjson"
)

var (
	// ErrSessionInvalidated is matched by every error that tore the session down.
	ErrSessionInvalidated = errs.ErrSessionInvalidated
	// ErrNoRefreshToken is the cause when a 401 arrives and there is nothing to refresh with.
	ErrNoRefreshToken = errs.ErrNoRefreshToken
	// ErrRefreshFailed is the cause when the refresh endpoint errors or is unreachable.
	ErrRefreshFailed = errs.ErrRefreshFailed
	// ErrSessionChanged is the cause when the session was cleared or rotated by
	// someone else while a request was waiting to refresh.
	ErrSessionChanged = errs.ErrSessionChanged
)

// TransportError means no HTTP response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response. Envelope is set when the body was a backend envelope.
type APIError struct {
	StatusCode int
	Body       []byte
	Envelope   *RawEnvelope
}

func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
	if looksLikeEnvelope(resp.Body) {
		var env RawEnvelope
		if err := json.Unmarshal(resp.Body, &env); err == nil {
			apiErr.Envelope = &env
		}
	}
	return apiErr
}

func looksLikeEnvelope(body []byte) bool {
	return gjson.ValidBytes(body) && gjson.GetBytes(body, "exito").Exists()
}

func (e *APIError) Error() string {
	if e.Envelope != nil && e.Envelope.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Envelope.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Message returns the backend's "mensaje", if any.
func (e *APIError) Message() string {
	if e.Envelope == nil {
		return ""
	}
	return e.Envelope.Message
}

// FieldErrors returns the backend's "errores" list, if any.
func (e *APIError) FieldErrors() []string {
	if e.Envelope == nil {
		return nil
	}
	return e.Envelope.Errors
}

// InvalidatedError is returned for a 401 that could not be recovered.
// The session has already been cleared and subscribers notified.
type InvalidatedError struct {
	Cause    error
	Original *APIError
}

func (e *InvalidatedError) Error() string {
	return fmt.Sprintf("%v (original: %v)", e.Cause, e.Original)
}

func (e *InvalidatedError) Unwrap() []error {
	return []error{e.Cause, e.Original}
}

// Message picks what to show a user for err: the envelope "mensaje" when the
// backend sent one, fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errs.As(err, &apiErr) && apiErr.Message() != "" {
		return apiErr.Message()
	}
	var vErr *errs.ValidationError
	if errs.As(err, &vErr) {
		return vErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errs.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
