// Package model defines the core data types shared by the eventdesk job queue and evaluation services.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the type of job to be executed.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobTypeCertificateGeneration issues an attendance certificate for a checked-in user.
	JobTypeCertificateGeneration JobType = "certificate_generation"
	// JobTypeNotificationDispatch records and delivers a user notification.
	JobTypeNotificationDispatch JobType = "notification_dispatch"

	// JobStatusPending indicates a job is waiting to be claimed.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a worker has claimed the job.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job exhausted its attempts.
	JobStatusFailed JobStatus = "failed"
)

const (
	// DefaultJobPriority is used when the caller does not specify a priority.
	DefaultJobPriority = 5
	// MinJobPriority is the most urgent priority.
	MinJobPriority = 1
	// MaxJobPriority is the least urgent priority.
	MaxJobPriority = 10
	// DefaultJobMaxAttempts is used when the caller does not specify a limit.
	DefaultJobMaxAttempts = 3
	// MaxJobMaxAttempts caps caller supplied attempt limits.
	MaxJobMaxAttempts = 25
)

// ErrNoJobsAvailable is returned when no pending job could be claimed.
var ErrNoJobsAvailable = errors.New("no jobs available")

// UnmarshalText implements encoding.TextUnmarshaler for JobType.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is known to the worker.
func (t JobType) Valid() bool {
	return t == JobTypeCertificateGeneration || t == JobTypeNotificationDispatch
}

// UnmarshalText implements encoding.TextUnmarshaler for JobStatus.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*s = v
		return nil
	}
	return fmt.Errorf("invalid JobStatus: %q", v)
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents a queued unit of background work.
type Job struct {
	ID          string          `json:"id"                     db:"id"`
	Type        JobType         `json:"job_type"               db:"job_type"`
	Payload     json.RawMessage `json:"payload"                db:"payload"`
	Status      JobStatus       `json:"status"                 db:"status"`
	Priority    int             `json:"priority"               db:"priority"`
	Attempts    int             `json:"attempts"               db:"attempts"`
	MaxAttempts int             `json:"max_attempts"           db:"max_attempts"`
	Error       *string         `json:"error,omitempty"        db:"error"`
	Result      json.RawMessage `json:"result,omitempty"       db:"result"`
	CreatedBy   string          `json:"created_by"             db:"created_by"`
	CreatedAt   time.Time       `json:"created_at"             db:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"   db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time       `json:"updated_at"             db:"updated_at"`
}

// CreateJobRequest represents a request to enqueue a new job.
type CreateJobRequest struct {
	Type        JobType         `json:"job_type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
	CreatedBy   string          `json:"-"`
}

// ApplyDefaults fills in zero priority and attempt limits.
func (r *CreateJobRequest) ApplyDefaults() {
	if r.Priority == 0 {
		r.Priority = DefaultJobPriority
	}
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultJobMaxAttempts
	}
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if !json.Valid(r.Payload) {
		return errors.New("payload must be valid JSON")
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("created_by is required")
	}
	if r.Priority < MinJobPriority || r.Priority > MaxJobPriority {
		return fmt.Errorf("priority must be between %d and %d", MinJobPriority, MaxJobPriority)
	}
	if r.MaxAttempts < 1 || r.MaxAttempts > MaxJobMaxAttempts {
		return fmt.Errorf("max attempts must be between 1 and %d", MaxJobMaxAttempts)
	}
	return nil
}

// JobStats represents counts of jobs in each state.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// JobListOptions groups parameters for listing jobs.
type JobListOptions struct {
	CreatedBy string     // Optional owner filter; empty lists all owners (admin view)
	Status    *JobStatus // Optional status filter
	Limit     int
	Offset    int
}

// JobStatusResponse is the polling view of a job.
type JobStatusResponse struct {
	ID          string          `json:"id"`
	Status      JobStatus       `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// StatusView projects the job into its polling response.
func (j *Job) StatusView() JobStatusResponse {
	return JobStatusResponse{
		ID:          j.ID,
		Status:      j.Status,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		Result:      j.Result,
		Error:       j.Error,
		CompletedAt: j.CompletedAt,
	}
}
