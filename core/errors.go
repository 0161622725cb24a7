package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// Stable machine-readable error codes serialized at the API boundary.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeSessionAlreadyEnded = "SESSION_ALREADY_ENDED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError is a domain error carrying a stable code, an HTTP status, an
// internal message (operational logging) and a localized user-facing message.
// Internal details never reach UserMessage.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Status      int
}

func (err *AppError) Error() string {
	return err.Message
}

func NewAppError(code, message, userMessage string, status int) *AppError {
	return &AppError{Code: code, Message: message, UserMessage: userMessage, Status: status}
}

// AsAppError unwraps err down to an *AppError, if it is one.
func AsAppError(err error) (*AppError, bool) {
	appErr, ok := errors.Cause(err).(*AppError)
	return appErr, ok
}

func ErrUnauthorized() *AppError {
	return NewAppError(
		CodeUnauthorized,
		"authentication required",
		"Você precisa estar autenticado para realizar esta ação.",
		http.StatusUnauthorized,
	)
}

func ErrForbidden() *AppError {
	return NewAppError(
		CodeForbidden,
		"access denied",
		"Você não tem permissão para realizar esta ação.",
		http.StatusForbidden,
	)
}

func ErrNotFound(resource, userResource string) *AppError {
	return NewAppError(
		CodeNotFound,
		resource+" not found",
		userResource+" não encontrado(a).",
		http.StatusNotFound,
	)
}

func ErrBadRequest(message, userMessage string) *AppError {
	return NewAppError(CodeBadRequest, message, userMessage, http.StatusBadRequest)
}

func ErrSessionAlreadyEnded() *AppError {
	return NewAppError(
		CodeSessionAlreadyEnded,
		"session has already ended",
		"A sessão já foi encerrada.",
		http.StatusBadRequest,
	)
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
