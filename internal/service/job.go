package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo    core.JobRepository // Required: job repository
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink
}

// JobService is the entry point for the job queue: API callers enqueue and
// poll through it and the worker claims, completes and fails through it.
type JobService struct {
	repo    core.JobRepository
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		repo:    opts.Repo,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Enqueue validates req, applies defaults and stores a pending job.
func (s *JobService) Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.repo.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Count("job.enqueued", 1, map[string]string{"job_type": string(job.Type)})
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job enqueued",
			"job_id", job.ID,
			"job_type", job.Type,
			"priority", job.Priority,
			"created_by", job.CreatedBy,
		)
	}
	return job, nil
}

// GetForOwner returns the job when owner created it. Jobs owned by someone
// else are reported as not found.
func (s *JobService) GetForOwner(ctx context.Context, id, owner string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.CreatedBy != owner {
		return nil, apperrors.NotFound("job not found")
	}
	return job, nil
}

// ListForOwner lists the owner's jobs, newest first.
func (s *JobService) ListForOwner(
	ctx context.Context,
	owner string,
	opts model.JobListOptions,
) ([]*model.Job, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperrors.Validation("owner is required")
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, apperrors.ValidationField("status", "invalid job status")
	}
	opts.CreatedBy = owner

	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// List lists jobs across all owners. Used by operator tooling.
func (s *JobService) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Stats returns queue depth per status.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

// ClaimNext claims the next pending job of the given types.
// model.ErrNoJobsAvailable is returned unwrapped.
func (s *JobService) ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error) {
	job, err := s.repo.ClaimNext(ctx, types)
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job claimed",
			"job_id", job.ID,
			"job_type", job.Type,
			"attempt", job.Attempts,
			"max_attempts", job.MaxAttempts,
		)
	}
	return job, nil
}

// Complete marks a processing job completed.
func (s *JobService) Complete(ctx context.Context, id string, result json.RawMessage) (bool, error) {
	ok, err := s.repo.Complete(ctx, id, result)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	if !ok && s.logger != nil {
		s.logger.WarnContext(ctx, "complete ignored; job not processing", "job_id", id)
	}
	return ok, nil
}

// Fail records a failed attempt. errMsg must be non-empty.
func (s *JobService) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	if strings.TrimSpace(errMsg) == "" {
		return false, errors.New("error message required")
	}
	ok, err := s.repo.Fail(ctx, id, errMsg)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	if !ok && s.logger != nil {
		s.logger.WarnContext(ctx, "fail ignored; job not processing", "job_id", id)
	}
	return ok, nil
}
