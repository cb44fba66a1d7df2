package services

import (
	"errors"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/jql"
)

// criteriaError tags a predicate-building failure with the request field
// that caused it.
func criteriaError(err error) error {
	switch {
	case errors.Is(err, jql.ErrIncompleteDateRange), errors.Is(err, jql.ErrInvalidDateRange):
		return apperrors.NewValidationError(err, "dateRange")
	case errors.Is(err, jql.ErrUnknownAssignee):
		return apperrors.NewValidationError(err, "activeAssigneeFilter")
	case errors.Is(err, domain.ErrInvalidCategory):
		return apperrors.NewValidationError(err, "activeButtonFilter")
	case errors.Is(err, domain.ErrInvalidDateWindow):
		return apperrors.NewValidationError(err, "selectedDateFilter")
	default:
		return apperrors.NewInternalError(err)
	}
}
