package handler

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every classified service error keeps its stable code; anything else is
// an internal error.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	msg := err.Error()
	code := service.CodeOf(err)

	switch service.KindOf(err) {
	// ===== 401 =====
	case service.KindUnauthenticated:
		return model.NewUnauthorizedError(msg).WithCode(code)

	// ===== 403 =====
	case service.KindAccessDenied:
		return model.NewForbiddenError(msg).WithCode(code)

	// ===== 404 =====
	case service.KindNotFound:
		p := model.NewNotFoundError("resource").WithCode(code)
		p.Detail = msg
		return p

	// ===== 400 =====
	case service.KindInvalidGuess:
		return model.NewBadRequestError(msg).WithCode(code)

	// ===== 409 =====
	case service.KindInvalidState,
		service.KindLimitReached,
		service.KindNoWordsAvailable,
		service.KindConflict:
		return model.NewConflictError(msg).WithCode(code)

	// ===== 422 =====
	case service.KindInvalid:
		return model.NewValidationError([]model.FieldError{{Field: "request", Message: msg}}).WithCode(code)

	// ===== 429 =====
	case service.KindQuotaExceeded:
		return model.NewQuotaExceededError(msg).WithCode(code)
	case service.KindRateLimited:
		retryAfter := int(math.Ceil(service.RetryAfterOf(err).Seconds()))
		return model.NewRateLimitError(retryAfter).WithCode(code)

	// ===== 500 =====
	default:
		return model.NewInternalError("")
	}
}

// writeServiceError maps err, logging anything that is not a classified
// business failure
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	p := MapServiceError(err)
	if p.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("operation", operation),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.Any("error", err),
		)
		p.Detail = operation + ": an unexpected error occurred"
	}
	WriteError(w, r, p)
}
