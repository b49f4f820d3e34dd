package httpadapter

import (
	"net/http"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

const completionFailedMessage = "Sorry, I couldn't generate a response right now. Please try again."

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapErrorToResponse(err error) errorResponse {
	switch {
	case domain.IsKind(err, domain.ErrCompletion):
		return errorResponse{Error: "completion_failed", Message: completionFailedMessage}
	case domain.IsKind(err, domain.ErrInvalidInput):
		return errorResponse{Error: "invalid_input", Message: err.Error()}
	case domain.IsKind(err, domain.ErrUnauthorized):
		return errorResponse{Error: "unauthorized"}
	case domain.IsKind(err, domain.ErrNotFound):
		return errorResponse{Error: "not_found"}
	case domain.IsKind(err, domain.ErrTemporary):
		return errorResponse{Error: "temporarily_unavailable", Message: "Please try again later."}
	default:
		return errorResponse{Error: "internal_error"}
	}
}
