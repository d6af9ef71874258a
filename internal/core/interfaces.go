package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on internal/data.

// JobRepository defines the job queue operations.
type JobRepository interface {
	Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	// ClaimNext atomically moves the next pending job of one of types to processing.
	// It returns model.ErrNoJobsAvailable when nothing can be claimed.
	ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error)
	Complete(ctx context.Context, id string, result json.RawMessage) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	Stats(ctx context.Context) (*model.JobStats, error)
}

// DeleteOldJobsParams groups parameters for JobMaintenanceRepository.DeleteOldJobs.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// ResetStaleResult reports what ResetStaleProcessing did with each stale job.
type ResetStaleResult struct {
	Requeued int64
	Failed   int64
}

// Total returns the number of jobs touched.
func (r ResetStaleResult) Total() int64 { return r.Requeued + r.Failed }

// JobMaintenanceRepository defines out-of-band queue maintenance.
type JobMaintenanceRepository interface {
	ResetStaleProcessing(ctx context.Context, maxAge time.Duration, batchSize int) (ResetStaleResult, error)
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}

// EventRepository looks up events and registrations.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)
}

// EvaluationRepository defines evaluation persistence.
type EvaluationRepository interface {
	Create(ctx context.Context, req *model.CreateEvaluationRequest) (*model.Evaluation, error)
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	// GetCurrentForEvent returns the most recently created active evaluation of the event.
	GetCurrentForEvent(ctx context.Context, eventID string) (*model.Evaluation, error)
	SetOpen(ctx context.Context, id string, open bool) (*model.Evaluation, error)
	ToggleActive(ctx context.Context, id string) (*model.Evaluation, error)
	SetSchedule(ctx context.Context, id string, req model.ScheduleRequest) (*model.Evaluation, error)
	InsertResponse(ctx context.Context, resp *model.EvaluationResponse) (*model.EvaluationResponse, error)
}

// CertificateRepository issues attendance certificates.
type CertificateRepository interface {
	// Issue returns the existing certificate for (eventID, userID) or creates one.
	Issue(ctx context.Context, eventID, userID string) (*model.Certificate, error)
}

// NotificationRepository records user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}
