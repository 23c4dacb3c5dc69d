// Package apierror defines the error type rendered at the HTTP boundary.
// Every error carries a taxonomy type and the status code the handler layer
// should respond with; anything that is not an *APIError renders as a bare 500.
package apierror

import (
	"fmt"
	"net/http"
)

const (
	TypeValidation     = "ValidationError"
	TypeAuthentication = "AuthenticationFailure"
	TypeAuthorization  = "AuthorizationDenied"
	TypeNotFound       = "NotFoundError"
	TypeConfig         = "ConfigError"
	TypeKeySource      = "KeySourceError"
	TypePersistence    = "PersistenceFailure"
	TypeInternal       = "InternalServerError"
)

type APIError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Location   string `json:"location"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Path)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func New(errType string, message string, status int) *APIError {
	return &APIError{Type: errType, Message: message, HTTPStatus: status}
}

// NewField reports a validation failure for a single request field, in the
// shape the boundary exposes (path = field name, location = "body").
func NewField(message string, path string) *APIError {
	return &APIError{
		Type:       TypeValidation,
		Message:    message,
		Path:       path,
		Location:   "body",
		HTTPStatus: http.StatusBadRequest,
	}
}

func BadRequest(message string) *APIError {
	return New(TypeValidation, message, http.StatusBadRequest)
}

func Unauthenticated(message string) *APIError {
	return New(TypeAuthentication, message, http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return New(TypeAuthorization, message, http.StatusForbidden)
}

func NotFound(message string) *APIError {
	return New(TypeNotFound, message, http.StatusNotFound)
}

func Internal(errType string, message string) *APIError {
	return New(errType, message, http.StatusInternalServerError)
}
