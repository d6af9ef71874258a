package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

var validatorNow = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

func passingSnapshot() AccessSnapshot {
	checkedIn := validatorNow.Add(-2 * time.Hour)
	return AccessSnapshot{
		EventID: "evt-1",
		Event: &model.Event{
			ID:       "evt-1",
			Status:   model.EventStatusPublished,
			StartsAt: validatorNow.Add(-3 * time.Hour),
			EndsAt:   validatorNow.Add(3 * time.Hour),
		},
		Registration: &model.Registration{
			EventID:     "evt-1",
			UserID:      "user-1",
			Status:      "registered",
			CheckedInAt: &checkedIn,
		},
		Evaluation: &model.Evaluation{ID: "eval-1", EventID: "evt-1", IsActive: true, IsOpen: true},
		Now:        validatorNow,
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		checkIn    bool
		mutate     func(s *AccessSnapshot)
		wantStage  Stage
		wantReason Reason
	}{
		{name: "all stages pass", mutate: func(*AccessSnapshot) {}},
		{
			name:       "event missing",
			mutate:     func(s *AccessSnapshot) { s.Event = nil },
			wantStage:  StageEvent,
			wantReason: ReasonEventNotFound,
		},
		{
			name:       "event draft",
			mutate:     func(s *AccessSnapshot) { s.Event.Status = model.EventStatusDraft },
			wantStage:  StageEvent,
			wantReason: ReasonEventNotPublished,
		},
		{
			name:       "event cancelled",
			mutate:     func(s *AccessSnapshot) { s.Event.Status = model.EventStatusCancelled },
			wantStage:  StageEvent,
			wantReason: ReasonEventNotPublished,
		},
		{
			name:       "event ended",
			mutate:     func(s *AccessSnapshot) { s.Event.EndsAt = validatorNow },
			wantStage:  StageEvent,
			wantReason: ReasonEventEnded,
		},
		{
			name:       "registration cancelled",
			mutate:     func(s *AccessSnapshot) { s.Registration.Status = model.RegistrationStatusCancelled },
			wantStage:  StageRegistration,
			wantReason: ReasonNotRegistered,
		},
		{
			name:    "not checked in without check-in mode",
			mutate:  func(s *AccessSnapshot) { s.Registration.CheckedInAt = nil },
			checkIn: false,
		},
		{
			name:       "not checked in with check-in mode",
			mutate:     func(s *AccessSnapshot) { s.Registration.CheckedInAt = nil },
			checkIn:    true,
			wantStage:  StageRegistration,
			wantReason: ReasonNotCheckedIn,
		},
		{
			name:       "evaluation missing",
			mutate:     func(s *AccessSnapshot) { s.Evaluation = nil },
			wantStage:  StageEvaluation,
			wantReason: ReasonEvaluationNotFound,
		},
		{
			name:       "evaluation for another event",
			mutate:     func(s *AccessSnapshot) { s.Evaluation.EventID = "evt-2" },
			wantStage:  StageEvaluation,
			wantReason: ReasonEvaluationMismatch,
		},
		{
			name:       "evaluation inactive",
			mutate:     func(s *AccessSnapshot) { s.Evaluation.IsActive = false },
			wantStage:  StageAvailability,
			wantReason: ReasonInactive,
		},
		{
			name: "evaluation past close",
			mutate: func(s *AccessSnapshot) {
				s.Evaluation.ClosesAt = timePtr(validatorNow.Add(-time.Minute))
			},
			wantStage:  StageAvailability,
			wantReason: ReasonAlreadyClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := passingSnapshot()
			tt.mutate(&snap)
			v := NewValidator(ValidatorOptions{RequireCheckIn: tt.checkIn})

			rej := v.Validate(snap)
			if tt.wantStage == "" {
				assert.Nil(t, rej)
				return
			}
			require.NotNil(t, rej)
			assert.Equal(t, tt.wantStage, rej.Stage)
			assert.Equal(t, tt.wantReason, rej.Reason)
			assert.NotEmpty(t, rej.Message)
		})
	}
}

func TestValidator_ClosedByOrganizer(t *testing.T) {
	snap := passingSnapshot()
	snap.Evaluation.IsOpen = false

	rej := NewValidator(ValidatorOptions{}).Validate(snap)

	require.NotNil(t, rej)
	assert.Equal(t, StageAvailability, rej.Stage)
	assert.Equal(t, ReasonClosedByOrganizer, rej.Reason)
}

func TestValidator_ScheduledToOpen(t *testing.T) {
	snap := passingSnapshot()
	opens := validatorNow.Add(time.Hour)
	snap.Evaluation.OpensAt = &opens

	rej := NewValidator(ValidatorOptions{}).Validate(snap)

	require.NotNil(t, rej)
	assert.Equal(t, ReasonScheduledToOpen, rej.Reason)
	assert.Contains(t, rej.Message, opens.Format(time.RFC3339))
}

func TestValidator_UnregisteredRejectedBeforeAvailability(t *testing.T) {
	snap := passingSnapshot()
	snap.Registration = nil
	// An unavailable evaluation must not surface when the user is not registered.
	snap.Evaluation.IsOpen = false
	snap.Evaluation.IsActive = false

	rej := NewValidator(ValidatorOptions{}).Validate(snap)

	require.NotNil(t, rej)
	assert.Equal(t, StageRegistration, rej.Stage)
	assert.Equal(t, ReasonNotRegistered, rej.Reason)
}

func TestRejection_String(t *testing.T) {
	r := &Rejection{Stage: StageEvent, Reason: ReasonEventEnded}
	assert.Equal(t, "event: event-ended", r.String())
}
