package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// claimNextSQL atomically claims the next pending job. Rows locked by a
// concurrent claim are skipped rather than waited on.
const claimNextSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE status = 'pending' AND job_type = ANY($1)
    ORDER BY priority ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'processing',
    attempts = j.attempts + 1,
    started_at = $2,
    updated_at = $2
  FROM cte
  WHERE j.id = cte.id
  RETURNING j.id, j.job_type, j.payload, j.status, j.priority, j.attempts, j.max_attempts,
    j.error, j.result, j.created_by, j.created_at, j.started_at, j.completed_at, j.updated_at`

// Enqueue inserts a new pending job.
func (r *JobRepo) Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (job_type, payload, status, priority, attempts, max_attempts, created_by, created_at, updated_at)
		VALUES ($1, $2::jsonb, 'pending', $3, 0, $4, $5, $6, $6)
		RETURNING `+jobColumns,
		req.Type, string(req.Payload), req.Priority, req.MaxAttempts, req.CreatedBy, now,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// ClaimNext claims the most urgent pending job among types.
func (r *JobRepo) ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error) {
	if len(types) == 0 {
		return nil, model.ErrNoJobsAvailable
	}
	typeNames := lo.Map(types, func(t model.JobType, _ int) string { return string(t) })

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: pgxutil.ReadCommitted,
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, claimNextSQL, typeNames, r.timeProvider.Now())
			if qerr != nil {
				return fmt.Errorf("claim job: %w", qerr)
			}
			defer rows.Close()

			if !rows.Next() {
				if rerr := rows.Err(); rerr != nil {
					return fmt.Errorf("claim job: %w", rerr)
				}
				return model.ErrNoJobsAvailable
			}
			j, serr := scanJob(rows)
			if serr != nil {
				return fmt.Errorf("scan claimed job: %w", serr)
			}
			rows.Close()
			if rerr := rows.Err(); rerr != nil {
				return fmt.Errorf("claim job: %w", rerr)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Complete marks a processing job completed with its result.
// It returns false when the job is not processing.
func (r *JobRepo) Complete(ctx context.Context, id string, result json.RawMessage) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	now := r.timeProvider.Now()

	var updated string
	err := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = 'completed',
		    result = $2::jsonb,
		    error = NULL,
		    completed_at = $3,
		    updated_at = $3
		WHERE id = $1 AND status = 'processing'
		RETURNING id
	`, id, nullableJSON(result), now).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	return true, nil
}

// Fail records a failed attempt on a processing job. Jobs with attempts left
// return to pending with started_at cleared; exhausted jobs become failed with
// errMsg recorded. It returns false when the job is not processing.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	now := r.timeProvider.Now()

	var status string
	err := r.DB.QueryRowContext(ctx, `
		UPDATE jobs
		SET
		  status       = CASE WHEN attempts < max_attempts THEN 'pending' ELSE 'failed' END,
		  started_at   = CASE WHEN attempts < max_attempts THEN NULL ELSE started_at END,
		  error        = CASE WHEN attempts < max_attempts THEN NULL ELSE $2::text END,
		  completed_at = CASE WHEN attempts < max_attempts THEN NULL ELSE $3::timestamptz END,
		  updated_at   = $3
		WHERE id = $1 AND status = 'processing'
		RETURNING status
	`, id, errMsg, now).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}

	r.logger.DebugContext(ctx, "job attempt failed", "job_id", id, "next_status", status)
	return true, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if !validID(id) {
		return nil, ErrJobNotFound
	}
	job, err := scanJob(r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs newest first, optionally filtered by owner and status.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	var status any
	if opts.Status != nil {
		status = string(*opts.Status)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE ($1 = '' OR created_by = $1)
		  AND ($2::text IS NULL OR status = $2::text)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`, opts.CreatedBy, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*model.Job, 0, limit)
	for rows.Next() {
		job, serr := scanJob(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan job: %w", serr)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Stats counts jobs per status.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')    AS pending,
    count(*) FILTER (WHERE status = 'processing') AS processing,
    count(*) FILTER (WHERE status = 'completed')  AS completed,
    count(*) FILTER (WHERE status = 'failed')     AS failed
  FROM jobs
  `).Scan(&s.Pending, &s.Processing, &s.Completed, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &s, nil
}
