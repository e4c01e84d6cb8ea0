package httpresp

import (
	"errors"
	"net/http"

	"attendance_server/server/common/apperr"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
)

const (
	ErrUnauthorized       = "unauthorized"
	ErrMissingBearerToken = "bearer token is required"
	ErrInvalidToken       = "invalid token"
	ErrForbidden          = "forbidden"
	ErrInsufficientRole   = "insufficient permissions"
	ErrRequestTimeout     = "Request timeout"
	ErrRouteNotFound      = "404 not found!"
	ErrInvalidID          = "Invalid id"
	ErrSomethingWentWrong = "Something went wrong"
)

type SuccessResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func NewSuccessResponse(data any, message string) SuccessResponse {
	if message == "" {
		message = "Success"
	}
	return SuccessResponse{Type: TypeSuccess, Message: message, Data: data}
}

func NewErrorResponse(message string) ErrorResponse {
	if message == "" {
		message = ErrSomethingWentWrong
	}
	return ErrorResponse{Type: TypeError, Message: message}
}

// FromError renders err. For server-side failures the full error chain is
// attached as detail when withDetail is set; without it, errors that carry
// no client-facing message are reported generically.
func FromError(err error, withDetail bool) ErrorResponse {
	if Status(err) < http.StatusInternalServerError {
		return NewErrorResponse(apperr.Message(err))
	}
	var appErr *apperr.Error
	if !withDetail && !errors.As(err, &appErr) {
		return NewErrorResponse(ErrSomethingWentWrong)
	}
	resp := NewErrorResponse(apperr.Message(err))
	if withDetail {
		resp.Error = err.Error()
	}
	return resp
}

// Status maps an error kind to the HTTP status it is reported with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrStorage), errors.Is(err, apperr.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
