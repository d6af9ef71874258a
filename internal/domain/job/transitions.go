// Package job holds the job state machine rules shared by the store and the worker.
package job

import "github.com/eventdesk/eventdesk-api/internal/domain/model"

var allowed = map[model.JobStatus][]model.JobStatus{
	model.JobStatusPending:    {model.JobStatusProcessing},
	model.JobStatusProcessing: {model.JobStatusCompleted, model.JobStatusPending, model.JobStatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
// Completed and failed jobs never leave their status.
func CanTransition(from, to model.JobStatus) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FailureOutcome returns the status a processing job moves to when it fails
// after the given number of attempts.
func FailureOutcome(attempts, maxAttempts int) model.JobStatus {
	if attempts < maxAttempts {
		return model.JobStatusPending
	}
	return model.JobStatusFailed
}

// StaleOutcome returns the status a stale processing job is reset to.
// A job whose attempts are already exhausted cannot be retried again.
func StaleOutcome(attempts, maxAttempts int) model.JobStatus {
	return FailureOutcome(attempts, maxAttempts)
}
