// Package apierrors writes HTTP error responses in a single format:
// {"error": {"code": "...", "message": "..."}}.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeTimeout         = "TIMEOUT"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeStorageError    = "STORAGE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Code: code, Message: message},
	})
}

func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound reports a missing resource by its type, e.g. "file not found".
func NotFound(w http.ResponseWriter, resource string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
}

func Forbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, CodeForbidden, "insufficient permissions")
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

func PayloadTooLarge(w http.ResponseWriter, limit int64) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		fmt.Sprintf("request body exceeds %d bytes", limit))
}

func Internal(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// FromError maps a domain error to its HTTP response. resource names the
// entity used in the not-found message. Causes are never echoed back except
// for validation failures.
func FromError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		Unauthorized(w)
	case errors.Is(err, common.ErrForbidden):
		Forbidden(w)
	case errors.Is(err, common.ErrorNotFound):
		NotFound(w, resource)
	case errors.Is(err, common.ErrConflict):
		Conflict(w, resource+" already exists")
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrInvalidOwner),
		errors.Is(err, common.ErrInvalidRole):
		ValidationError(w, err.Error())
	case errors.Is(err, common.ErrTimeout):
		WriteError(w, http.StatusServiceUnavailable, CodeTimeout, "request timed out")
	case errors.Is(err, common.ErrStorage):
		WriteError(w, http.StatusInternalServerError, CodeStorageError, "file storage failure")
	default:
		Internal(w)
	}
}
