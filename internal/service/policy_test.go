package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

func admissionEvent() *models.Event {
	return &models.Event{
		ID:       "event-1",
		IsActive: true,
		Date:     time.Now().Add(72 * time.Hour),
	}
}

func TestCheckEventAdmissionAccepts(t *testing.T) {
	err := CheckEventAdmission(admissionEvent(), time.Now(), 0)
	assert.Nil(t, err)
}

func TestCheckEventAdmissionInactive(t *testing.T) {
	event := admissionEvent()
	event.IsActive = false

	err := CheckEventAdmission(event, time.Now(), 0)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrInactive.Code, err.Code)
}

func TestCheckEventAdmissionAlreadyOccurred(t *testing.T) {
	event := admissionEvent()
	event.Date = time.Now().Add(-time.Hour)

	err := CheckEventAdmission(event, time.Now(), 0)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrAlreadyOccurred.Code, err.Code)
}

func TestCheckEventAdmissionDeadlinePassed(t *testing.T) {
	event := admissionEvent()
	deadline := time.Now().Add(-time.Hour)
	event.RegistrationDeadline = &deadline

	err := CheckEventAdmission(event, time.Now(), 0)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, err.Code)
}

func TestCheckEventAdmissionCapacity(t *testing.T) {
	event := admissionEvent()
	max := 2
	event.MaxParticipants = &max

	assert.Nil(t, CheckEventAdmission(event, time.Now(), 1))

	err := CheckEventAdmission(event, time.Now(), 2)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrCapacityFull.Code, err.Code)
}

func TestCheckEventAdmissionUnlimitedWithoutMax(t *testing.T) {
	err := CheckEventAdmission(admissionEvent(), time.Now(), 100000)
	assert.Nil(t, err)
}

func TestCheckEventAdmissionOrderInactiveBeatsOccurred(t *testing.T) {
	event := admissionEvent()
	event.IsActive = false
	event.Date = time.Now().Add(-time.Hour)

	err := CheckEventAdmission(event, time.Now(), 0)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrInactive.Code, err.Code)
}

func TestCheckEventAdmissionOrderDeadlineBeatsCapacity(t *testing.T) {
	event := admissionEvent()
	deadline := time.Now().Add(-time.Hour)
	event.RegistrationDeadline = &deadline
	max := 0
	event.MaxParticipants = &max

	err := CheckEventAdmission(event, time.Now(), 0)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, err.Code)
}

func TestCheckRecruitmentAdmission(t *testing.T) {
	rec := &models.Recruitment{IsActive: true, ApplicationDeadline: time.Now().Add(time.Hour)}
	assert.Nil(t, CheckRecruitmentAdmission(rec, time.Now()))

	rec.ApplicationDeadline = time.Now().Add(-time.Minute)
	err := CheckRecruitmentAdmission(rec, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, err.Code)

	rec.IsActive = false
	err = CheckRecruitmentAdmission(rec, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrInactive.Code, err.Code)
}

func TestCheckStatusTransitionPermissive(t *testing.T) {
	assert.Nil(t, CheckStatusTransition(models.ApplicationSelected, models.ApplicationApplied, false))
	assert.Nil(t, CheckStatusTransition(models.ApplicationApplied, models.ApplicationSelected, false))

	err := CheckStatusTransition(models.ApplicationApplied, "archived", false)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, err.Code)
}

func TestCheckStatusTransitionStrict(t *testing.T) {
	assert.Nil(t, CheckStatusTransition(models.ApplicationApplied, models.ApplicationUnderReview, true))
	assert.Nil(t, CheckStatusTransition(models.ApplicationShortlisted, models.ApplicationSelected, true))
	assert.Nil(t, CheckStatusTransition(models.ApplicationUnderReview, models.ApplicationRejected, true))

	err := CheckStatusTransition(models.ApplicationSelected, models.ApplicationApplied, true)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, err.Code)

	err = CheckStatusTransition(models.ApplicationShortlisted, models.ApplicationApplied, true)
	require.NotNil(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, err.Code)
}
