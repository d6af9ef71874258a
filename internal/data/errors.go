package data

import apperrors "github.com/eventdesk/eventdesk-api/internal/errors"

// Shared sentinel errors for data-layer repositories. They are AppErrors so
// callers can match either the sentinel or the not_found code.
var (
	ErrEventNotFound        = apperrors.NotFound("event not found")
	ErrRegistrationNotFound = apperrors.NotFound("registration not found")
	ErrEvaluationNotFound   = apperrors.NotFound("evaluation not found")
	ErrNotificationNotFound = apperrors.NotFound("notification not found")
)
