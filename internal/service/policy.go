package service

import (
	"time"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

// CheckEventAdmission decides whether an event accepts a new registration
// at the given instant. Checks run in a fixed order and short-circuit on
// the first failure: active flag, event already occurred, submission
// deadline, then capacity. When no explicit registration deadline is set
// the event date itself is the cutoff. activeCount is the number of
// registrations currently holding a slot.
func CheckEventAdmission(event *models.Event, now time.Time, activeCount int) *appErrors.Error {
	if !event.IsActive {
		return appErrors.Clone(appErrors.ErrInactive, "event is no longer active")
	}
	if now.After(event.Date) {
		return appErrors.Clone(appErrors.ErrAlreadyOccurred, "")
	}
	deadline := event.Date
	if event.RegistrationDeadline != nil {
		deadline = *event.RegistrationDeadline
	}
	if now.After(deadline) {
		return appErrors.Clone(appErrors.ErrDeadlinePassed, "registration deadline has passed")
	}
	if event.MaxParticipants != nil && activeCount >= *event.MaxParticipants {
		return appErrors.Clone(appErrors.ErrCapacityFull, "")
	}
	return nil
}

// CheckRecruitmentAdmission decides whether a recruitment drive accepts a
// new application at the given instant. Drives have no capacity limit,
// only the active flag and the application deadline apply.
func CheckRecruitmentAdmission(rec *models.Recruitment, now time.Time) *appErrors.Error {
	if !rec.IsActive {
		return appErrors.Clone(appErrors.ErrInactive, "recruitment is no longer active")
	}
	if now.After(rec.ApplicationDeadline) {
		return appErrors.Clone(appErrors.ErrDeadlinePassed, "application deadline has passed")
	}
	return nil
}

// strictStatusFlow encodes the forward-only review transitions enforced
// when strict mode is on. Selected and rejected are terminal.
var strictStatusFlow = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationApplied:     {models.ApplicationUnderReview, models.ApplicationShortlisted, models.ApplicationRejected},
	models.ApplicationUnderReview: {models.ApplicationShortlisted, models.ApplicationRejected},
	models.ApplicationShortlisted: {models.ApplicationSelected, models.ApplicationRejected},
}

// CheckStatusTransition validates a review status change. The permissive
// default allows reviewers to move an application between any two known
// statuses, including corrections backwards. Strict mode restricts moves
// to the forward flow.
func CheckStatusTransition(from, to models.ApplicationStatus, strict bool) *appErrors.Error {
	if !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}
	if !strict {
		return nil
	}
	for _, allowed := range strictStatusFlow[from] {
		if allowed == to {
			return nil
		}
	}
	return appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]string{
		"from": string(from),
		"to":   string(to),
	})
}
