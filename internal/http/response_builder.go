// Package http exposes the ledger as a JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps service errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gagyebu/internal/core"
	"gagyebu/internal/query"
	"gagyebu/internal/services"
)

var (
	errBadRequest        = errors.New("bad request")
	errExportUnavailable = errors.New("sheets export is not configured")
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
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

// Payload sets the value encoded as the response body.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter. A nil payload
// writes no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
// internalErrorMessage replaces the text of every 500 response.
const internalErrorMessage = "internal server error"

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, internalErrorMessage)
}

// StatusFor maps an error returned by the services to a status code.
func StatusFor(err error) int {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, query.ErrInvalidViewMode):
		return http.StatusBadRequest
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRecordNotFound), errors.Is(err, services.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, errExportUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFrom builds the error response for err. Internal errors never leak
// their message.
func ErrorFrom(err error) *JSONResponseBuilder {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return InternalServerError()
	}
	body := errorBody{Error: err.Error()}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	return NewJSONResponse().Status(status).Payload(body)
}
