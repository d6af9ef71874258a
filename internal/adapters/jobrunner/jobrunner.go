// Package jobrunner provides the poll worker that drives background jobs through their processors.
package jobrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	domainjob "github.com/eventdesk/eventdesk-api/internal/domain/job"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	"github.com/eventdesk/eventdesk-api/internal/observability/metrics"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

// Processor executes one job type. A returned error fails the attempt.
type Processor interface {
	Type() model.JobType
	Run(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// Queue is the subset of the job service the worker drives.
type Queue interface {
	ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error)
	Complete(ctx context.Context, id string, result json.RawMessage) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
}

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Queue      Queue       // Required
	Processors []Processor // Required: at least one
	Logger     *slog.Logger
	Metrics    statsd.Sink

	PollInterval time.Duration // defaults to 5s
	BatchSize    int           // jobs claimed per tick; defaults to 10
}

// Runner claims jobs on a fixed interval and executes them sequentially.
type Runner struct {
	queue      Queue
	processors map[model.JobType]Processor
	types      []model.JobType
	logger     *slog.Logger
	metrics    statsd.Sink
	interval   time.Duration
	batchSize  int

	running atomic.Bool
}

// NewRunner validates options and constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("job queue is required")
	}
	if len(opts.Processors) == 0 {
		return nil, errors.New("at least one processor is required")
	}

	processors := make(map[model.JobType]Processor, len(opts.Processors))
	for _, p := range opts.Processors {
		if p == nil {
			return nil, errors.New("nil processor")
		}
		if _, dup := processors[p.Type()]; dup {
			return nil, fmt.Errorf("duplicate processor for job type %s", p.Type())
		}
		processors[p.Type()] = p
	}
	types := lo.Keys(processors)
	slices.Sort(types)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 10
	}

	return &Runner{
		queue:      opts.Queue,
		processors: processors,
		types:      types,
		logger:     logger.With("component", "job_runner"),
		metrics:    opts.Metrics,
		interval:   interval,
		batchSize:  batch,
	}, nil
}

// Types returns the job types this runner claims.
func (r *Runner) Types() []model.JobType {
	return slices.Clone(r.types)
}

// Run ticks until ctx is cancelled. An in-flight tick finishes its current
// job before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job runner",
		"types", r.types,
		"interval", r.interval,
		"batch_size", r.batchSize,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "job runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.ErrorContext(ctx, "job runner tick failed", "error", err)
			}
		}
	}
}

// Tick claims and processes up to the batch size of jobs. It returns the
// number of jobs processed. A tick that overlaps a running one is skipped.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.DebugContext(ctx, "previous tick still running; skipping")
		return 0, nil
	}
	defer r.running.Store(false)

	processed := 0
	for processed < r.batchSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		job, err := r.queue.ClaimNext(ctx, r.types)
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return processed, nil
		}
		if err != nil {
			return processed, fmt.Errorf("claim next: %w", err)
		}

		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			JobType:    string(job.Type),
			Transition: metrics.TransitionClaimed,
			Result:     metrics.ResultSuccess,
		})
		// The claimed job is finished even when the runner is stopping.
		r.processJob(context.WithoutCancel(ctx), job)
		processed++
	}
	return processed, nil
}

func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	ctx = WithJobID(ctx, job.ID)
	start := time.Now()
	result, err := r.execute(ctx, job)
	if err != nil {
		r.failJob(ctx, job, err, time.Since(start))
		return
	}

	completed, cerr := r.queue.Complete(ctx, job.ID, result)
	emit := metrics.JobMetric{
		JobType:    string(job.Type),
		Transition: metrics.TransitionCompleted,
		Result:     metrics.ResultSuccess,
		Duration:   time.Since(start),
	}
	switch {
	case cerr != nil:
		r.logger.ErrorContext(ctx, "complete job error", "job_id", job.ID, "error", cerr)
		emit.Result, emit.Err = metrics.ResultError, cerr
	case !completed:
		emit.Result = metrics.ResultNoop
	default:
		r.logger.InfoContext(ctx, "job completed",
			"job_id", job.ID,
			"job_type", job.Type,
			"attempt", job.Attempts,
		)
	}
	metrics.EmitJobLifecycle(r.metrics, emit)
}

// execute runs the processor, converting panics into errors.
func (r *Runner) execute(ctx context.Context, job *model.Job) (result json.RawMessage, err error) {
	p, ok := r.processors[job.Type]
	if !ok {
		return nil, fmt.Errorf("no processor for job type %s", job.Type)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("processor panic: %v", rec)
		}
	}()
	return p.Run(ctx, job.Payload)
}

func (r *Runner) failJob(ctx context.Context, job *model.Job, cause error, elapsed time.Duration) {
	next := domainjob.FailureOutcome(job.Attempts, job.MaxAttempts)
	transition := metrics.TransitionRetried
	if next == model.JobStatusFailed {
		transition = metrics.TransitionFailed
	}

	failed, err := r.queue.Fail(ctx, job.ID, failureMessage(cause))
	emit := metrics.JobMetric{
		JobType:    string(job.Type),
		Transition: transition,
		Result:     metrics.ResultError,
		Duration:   elapsed,
		Err:        cause,
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", job.ID, "error", err, "original_error", cause)
		emit.Err = err
	} else if !failed {
		emit.Result = metrics.ResultNoop
	}
	metrics.EmitJobLifecycle(r.metrics, emit)

	r.logger.WarnContext(ctx, "job attempt failed",
		"job_id", job.ID,
		"job_type", job.Type,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
		"next_status", next,
		"error", cause,
	)
}

// failureMessage returns the text stored on a failed attempt. The queue
// refuses empty messages, so errors without text are described by type.
func failureMessage(cause error) string {
	if msg := strings.TrimSpace(cause.Error()); msg != "" {
		return msg
	}
	return fmt.Sprintf("processor failed without message (%T)", cause)
}

type jobIDKey struct{}

// WithJobID returns a context carrying the id of the job being processed.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

// JobIDFromContext returns the id set by WithJobID, if any.
func JobIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(jobIDKey{}).(string)
	return id, ok && id != ""
}
