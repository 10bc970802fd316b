// Package http serves the JSON API.
//
// This file implements the Builder Pattern for constructing API responses.
// Every response is a {data, notification} envelope; toast-style messages
// for the client ride the notification field.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NotificationType classifies the toast shown by the client.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// Notification is the toast payload inside the response envelope.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

type envelope struct {
	Data         any           `json:"data,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	// Generation is a monotonic write counter the client can use to
	// fence stale responses.
	Generation int64 `json:"generation,omitempty"`
}

// ResponseBuilder provides a fluent API for building envelope responses.
type ResponseBuilder struct {
	statusCode int
	data       any
	notif      *Notification
	generation int64
	headers    map[string]string
}

// NewResponse creates a response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the envelope's data payload.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.data = data
	return b
}

// Generation sets the write-counter echo on the envelope.
func (b *ResponseBuilder) Generation(n int64) *ResponseBuilder {
	b.generation = n
	return b
}

// Notify attaches a toast notification to the envelope.
func (b *ResponseBuilder) Notify(typ NotificationType, message string) *ResponseBuilder {
	b.notif = &Notification{Type: typ, Message: message}
	return b
}

// NotifySuccess is a convenience method for success toasts.
func (b *ResponseBuilder) NotifySuccess(message string) *ResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

// NotifyError is a convenience method for error toasts.
func (b *ResponseBuilder) NotifyError(message string) *ResponseBuilder {
	return b.Notify(NotificationError, message)
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	env := envelope{
		Data:         b.data,
		Notification: b.notif,
		Generation:   b.generation,
	}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("Failed encoding response envelope", "error", err)
	}
}

// ErrorResponse creates an error envelope with the given status and toast.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).NotifyError(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnauthorizedError creates a 401 Unauthorized error response.
func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}
