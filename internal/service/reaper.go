package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	obserrors "github.com/eventdesk/eventdesk-api/internal/observability/errors"
	"github.com/eventdesk/eventdesk-api/internal/observability/metrics"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.JobMaintenanceRepository // Required: maintenance repository
	Config  config.ReaperConfig           // Required: reaper configuration
	Logger  *slog.Logger                  // Optional: structured logger
	Metrics statsd.Sink                   // Optional: metrics sink (StatsD-compatible)
}

// ReaperService performs out-of-band queue maintenance:
// - returning jobs abandoned in processing to pending (or failed once exhausted)
// - deleting old completed and failed jobs.
//
// The claim path never recovers stale jobs itself; this service (opt-in via
// the reaper service mode) and the admin CLI are the only callers.
type ReaperService struct {
	repo    core.JobMaintenanceRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobMaintenanceRepository is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}
	if opts.Config.BatchSize < 1 {
		opts.Config.BatchSize = 1
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"processing_max_age", opts.Config.ProcessingMaxAge,
			"completed_max_age", opts.Config.CompletedMaxAge,
			"failed_max_age", opts.Config.FailedMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Jitter keeps instances started together from sweeping in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(ctx, err, "initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(ctx, err, "cleanup")
			}
		}
	}
}

// RunOnce performs one full maintenance sweep. Step errors are joined; a
// failing step does not prevent the others from running.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := time.Now()
	steps := []struct {
		operation string
		fn        func(context.Context) (int64, error)
	}{
		{"reset_stale", s.resetStale},
		{"delete_completed", s.deleteOld(model.JobStatusCompleted, s.config.CompletedMaxAge)},
		{"delete_failed", s.deleteOld(model.JobStatusFailed, s.config.FailedMaxAge)},
	}

	var (
		errs        []error
		allCanceled = true
		total       int64
	)
	for _, step := range steps {
		count, err := step.fn(ctx)
		total += count
		s.emitOperationMetric(step.operation, count, suppressContextCancellation(err))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.operation, err))
			allCanceled = allCanceled && isContextCancellation(err)
		}
	}

	joined := errors.Join(errs...)
	s.emitSweepMetric(total, suppressContextCancellation(joined), time.Since(start))

	if joined == nil {
		return nil
	}
	if allCanceled {
		return context.Canceled
	}
	return fmt.Errorf("cleanup failed: %w", joined)
}

// ResetStale resets every job stuck in processing for longer than maxAge,
// batch by batch. It backs the admin CLI.
func (s *ReaperService) ResetStale(ctx context.Context, maxAge time.Duration) (core.ResetStaleResult, error) {
	var total core.ResetStaleResult
	for {
		res, err := s.repo.ResetStaleProcessing(ctx, maxAge, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		total.Requeued += res.Requeued
		total.Failed += res.Failed
		if res.Total() < int64(s.config.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	if total.Total() > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "reset stale processing jobs",
			"requeued", total.Requeued,
			"failed", total.Failed,
			"max_age", maxAge,
		)
	}
	return total, nil
}

func (s *ReaperService) resetStale(ctx context.Context) (int64, error) {
	res, err := s.ResetStale(ctx, s.config.ProcessingMaxAge)
	return res.Total(), err
}

// deleteOld loops in batches until a batch comes back short.
func (s *ReaperService) deleteOld(status model.JobStatus, maxAge time.Duration) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		var total int64
		for {
			count, err := s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    status,
				MaxAge:    maxAge,
				BatchSize: s.config.BatchSize,
			})
			if err != nil {
				return total, err
			}
			total += count
			if count < int64(s.config.BatchSize) {
				break
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
		}

		if total > 0 && s.logger != nil {
			s.logger.InfoContext(ctx, "deleted old jobs",
				"status", status,
				"count", total,
				"max_age", maxAge,
			)
		}
		return total, nil
	}
}

// waitWithJitter sleeps for a random delay of up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *ReaperService) emitSweepMetric(total int64, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"result": resultTag(total, err)}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	s.metrics.Count("reaper.cleanup", 1, tags)
	s.metrics.Timing("reaper.cleanup_duration", elapsed, metrics.CloneTags(tags))
	if err == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) emitOperationMetric(operation string, count int64, err error) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{
		"operation": operation,
		"result":    resultTag(count, err),
	}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	s.metrics.Count("reaper.cleanup_operation", 1, tags)
	if err == nil && count > 0 {
		s.metrics.Count("reaper.jobs_processed", count, metrics.CloneTags(tags))
	}
}

func resultTag(count int64, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case count == 0:
		return metrics.ResultNoop
	default:
		return metrics.ResultSuccess
	}
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
