package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvaluationRequest_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	valid := func() CreateEvaluationRequest {
		return CreateEvaluationRequest{
			EventID: "evt-1",
			Title:   "Feedback",
			Questions: []Question{
				{ID: "q1", Type: QuestionTypeRating, Prompt: "Overall?", Required: true},
				{ID: "q2", Type: QuestionTypeChoice, Prompt: "Track?", Options: []string{"a", "b"}},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		req := valid()
		require.NoError(t, req.Validate())
	})

	t.Run("duplicate question id", func(t *testing.T) {
		req := valid()
		req.Questions[1].ID = "q1"
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate id")
	})

	t.Run("choice without options", func(t *testing.T) {
		req := valid()
		req.Questions[1].Options = []string{"only"}
		require.Error(t, req.Validate())
	})

	t.Run("unknown question type", func(t *testing.T) {
		req := valid()
		req.Questions[0].Type = "slider"
		require.Error(t, req.Validate())
	})

	t.Run("schedule inverted", func(t *testing.T) {
		req := valid()
		req.OpensAt = &later
		req.ClosesAt = &now
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opens_at must be before closes_at")
	})

	t.Run("no questions", func(t *testing.T) {
		req := valid()
		req.Questions = nil
		require.Error(t, req.Validate())
	})
}

func TestValidateSchedule(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)

	assert.NoError(t, ValidateSchedule(nil, nil))
	assert.NoError(t, ValidateSchedule(&now, nil))
	assert.NoError(t, ValidateSchedule(nil, &now))
	assert.NoError(t, ValidateSchedule(&now, &later))
	assert.Error(t, ValidateSchedule(&now, &now))
}

func TestRegistration_Helpers(t *testing.T) {
	var nilReg *Registration
	assert.False(t, nilReg.Active())
	assert.False(t, nilReg.CheckedIn())

	ts := time.Now()
	reg := &Registration{Status: "registered", CheckedInAt: &ts}
	assert.True(t, reg.Active())
	assert.True(t, reg.CheckedIn())

	reg.Status = RegistrationStatusCancelled
	assert.False(t, reg.Active())
}
