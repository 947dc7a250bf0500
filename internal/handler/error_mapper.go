package handler

import (
	"errors"
	"log/slog"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every service failure unwraps to one error kind; the kind picks the
// status and the concrete message is passed through as the detail.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError

	switch {
	// ===== Authentication → 401 =====
	case errors.Is(err, service.ErrNoCaller):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization → 403 =====
	case errors.Is(err, service.ErrUnauthorized):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found → 404 =====
	case errors.Is(err, service.ErrNotFound):
		return model.NewNotFoundError("", err.Error())

	// ===== Conflicts → 409 =====
	case errors.Is(err, service.ErrAlreadyExists):
		return model.NewAlreadyExistsError(err.Error())
	case errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrNotMember):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrInvalidState):
		return model.NewInvalidStateError(err.Error())

	// ===== Limits → 422 =====
	case errors.Is(err, service.ErrTooManyTeams):
		return model.NewLimitExceededError(err.Error(), model.MaxTeamsPerGM, model.MaxTeamsPerGM)
	case errors.Is(err, service.ErrTeamFull):
		return model.NewLimitExceededError(err.Error(), model.MaxMembersPerTeam, model.MaxMembersPerTeam)

	// ===== Validation → 422 =====
	case errors.Is(err, service.ErrInsufficientFee):
		return model.NewValidationError([]model.FieldError{{Field: "value", Message: err.Error()}})
	case errors.As(err, &verr):
		return model.NewValidationError(verr.Fields)
	case errors.Is(err, service.ErrValidation):
		return model.NewValidationError([]model.FieldError{{Field: "request", Message: err.Error()}})

	// ===== Everything else → 500 =====
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}
