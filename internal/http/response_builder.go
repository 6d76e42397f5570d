// Package http serves the JSON API over chi.
//
// This file holds the response builder and the two envelope families the
// API speaks: {status, data} on /api/persons and {success, data} everywhere
// else.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fanatitra/internal/core"
	"fanatitra/internal/log"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a builder with a 200 status and no body.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. 204 responses never carry a body.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type statusEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// StatusOK wraps data in the {status:"success"} envelope.
func StatusOK(code int, data any) *ResponseBuilder {
	return NewResponse().Status(code).JSON(statusEnvelope{Status: "success", Data: data})
}

// SuccessOK wraps data in the {success:true} envelope.
func SuccessOK(code int, data any, message string) *ResponseBuilder {
	return NewResponse().Status(code).JSON(successEnvelope{Success: true, Data: data, Message: message})
}

// failure is an error reduced to what a client may see.
type failure struct {
	status  int
	code    core.Code
	field   string
	message string
}

const genericServerMessage = "internal server error"

// StatusFor maps a domain code to an HTTP status.
func StatusFor(code core.Code) int {
	switch code {
	case core.CodeValidation, core.CodeInvalidIdentifier:
		return http.StatusBadRequest
	case core.CodeDuplicateKey:
		return http.StatusConflict
	case core.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// describe logs server failures with their cause and hides it from the
// client; domain failures pass their message through.
func describe(r *http.Request, err error) failure {
	code := core.CodeOf(err)
	f := failure{status: StatusFor(code), code: code}
	var de *core.Error
	if code != core.CodeServer && errors.As(err, &de) {
		f.field, f.message = de.Field, de.Message
		log.FromContext(r.Context()).WarnContext(r.Context(), "Request rejected",
			log.FieldErrorCode, string(code),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, de.Message)
		return f
	}
	f.message = genericServerMessage
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path,
		log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
	return f
}

// StatusFail renders err in the {status:"fail"|"error"} envelope.
func StatusFail(r *http.Request, err error) *ResponseBuilder {
	f := describe(r, err)
	status := "fail"
	if f.status >= http.StatusInternalServerError {
		status = "error"
	}
	return NewResponse().Status(f.status).JSON(statusEnvelope{
		Status:  status,
		Code:    string(f.code),
		Field:   f.field,
		Message: f.message,
	})
}

// SuccessFail renders err in the {success:false} envelope.
func SuccessFail(r *http.Request, err error) *ResponseBuilder {
	f := describe(r, err)
	return NewResponse().Status(f.status).JSON(successEnvelope{
		Code:    string(f.code),
		Field:   f.field,
		Message: f.message,
	})
}

// plainFail is a {success:false} response for failures outside the domain
// taxonomy (auth, throttling, routing).
func plainFail(status int, code, message string) *ResponseBuilder {
	return NewResponse().Status(status).JSON(successEnvelope{Code: code, Message: message})
}
