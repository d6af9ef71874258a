package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

func TestCanTransition(t *testing.T) {
	statuses := []model.JobStatus{
		model.JobStatusPending,
		model.JobStatusProcessing,
		model.JobStatusCompleted,
		model.JobStatusFailed,
	}
	valid := map[[2]model.JobStatus]bool{
		{model.JobStatusPending, model.JobStatusProcessing}:   true,
		{model.JobStatusProcessing, model.JobStatusCompleted}: true,
		{model.JobStatusProcessing, model.JobStatusPending}:   true,
		{model.JobStatusProcessing, model.JobStatusFailed}:    true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := valid[[2]model.JobStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed} {
		assert.False(t, CanTransition(terminal, model.JobStatusPending))
		assert.False(t, CanTransition(terminal, model.JobStatusProcessing))
	}
}

func TestFailureOutcome(t *testing.T) {
	tests := []struct {
		attempts, max int
		want          model.JobStatus
	}{
		{1, 3, model.JobStatusPending},
		{2, 3, model.JobStatusPending},
		{3, 3, model.JobStatusFailed},
		{4, 3, model.JobStatusFailed},
		{1, 1, model.JobStatusFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureOutcome(tt.attempts, tt.max), "attempts=%d max=%d", tt.attempts, tt.max)
		assert.Equal(t, tt.want, StaleOutcome(tt.attempts, tt.max))
	}
}
