// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses so that every
// handler sets status, headers and encoding the same way.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

const contentTypeJSON = "application/json"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	hasPayload bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	b.hasPayload = true
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if !b.hasPayload || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error."}`))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// detail is the body of every non-validation error.
type detail struct {
	Detail string `json:"detail"`
}

// ErrorResponse creates a {"detail": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(detail{Detail: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates the 404 response used for unknown transactions.
func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not found.")
}

// InternalServerError creates a 500 response that leaks no details.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error.")
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Request was throttled.")
}

// ValidationErrorResponse renders per-field messages as a 400.
func ValidationErrorResponse(verr *core.ValidationError) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusBadRequest).Body(verr.Fields)
}

// writeError maps err to its HTTP response. Unexpected errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var (
		verr *core.ValidationError
		berr *badRequestError
	)
	switch {
	case errors.As(err, &verr):
		ValidationErrorResponse(verr).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError().Write(w)
	case errors.As(err, &berr):
		BadRequestError(berr.msg).Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context()).WithComponent(applog.ComponentAPI)).
			LogError(r.Context(), "Request failed", err, operation, applog.ErrorTypeInternal)
		InternalServerError().Write(w)
	}
}
