package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	domainjob "github.com/eventdesk/eventdesk-api/internal/domain/job"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// Advisory lock namespace for maintenance operations, used with the two-arg
// pg_try_advisory_xact_lock(major, minor).
const (
	advisoryLockMaintenanceMajor = 2000
	advisoryLockResetStale       = 1
	advisoryLockDeleteOld        = 2
)

// StaleProcessingError is recorded on jobs failed by ResetStaleProcessing.
const StaleProcessingError = "job abandoned in processing; attempts exhausted"

// ResetStaleProcessing returns jobs stuck in processing for longer than maxAge
// to pending, or fails them when no attempts remain. At most batchSize jobs are
// touched per call. Concurrent callers are serialised by an advisory lock; a
// caller that cannot take the lock does nothing.
func (r *JobRepo) ResetStaleProcessing(
	ctx context.Context,
	maxAge time.Duration,
	batchSize int,
) (core.ResetStaleResult, error) {
	var res core.ResetStaleResult
	if maxAge <= 0 {
		return res, fmt.Errorf("max age must be positive, got %s", maxAge)
	}
	if batchSize < 1 {
		batchSize = 1
	}

	err := r.withMaintenanceLock(ctx, advisoryLockResetStale, func(tx *sql.Tx) error {
		now := r.timeProvider.Now()
		requeue, fail, err := selectStale(ctx, tx, now.Add(-maxAge), batchSize)
		if err != nil {
			return err
		}

		if len(requeue) > 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'pending', started_at = NULL, error = NULL, completed_at = NULL, updated_at = $2
				WHERE id = ANY($1::uuid[]) AND status = 'processing'
			`, requeue, now); err != nil {
				return fmt.Errorf("requeue stale jobs: %w", err)
			}
		}
		if len(fail) > 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'failed', error = $2, completed_at = $3, updated_at = $3
				WHERE id = ANY($1::uuid[]) AND status = 'processing'
			`, fail, StaleProcessingError, now); err != nil {
				return fmt.Errorf("fail stale jobs: %w", err)
			}
		}
		res.Requeued, res.Failed = int64(len(requeue)), int64(len(fail))
		return nil
	})
	if err != nil {
		return core.ResetStaleResult{}, err
	}
	return res, nil
}

// selectStale locks up to limit stale processing jobs and splits them by the
// status each one is reset to.
func selectStale(ctx context.Context, tx *sql.Tx, cutoff time.Time, limit int) (requeue, fail []string, err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, status, attempts, max_attempts FROM jobs
		WHERE status = 'processing' AND started_at < $1
		ORDER BY started_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("select stale processing jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id                    string
			status                model.JobStatus
			attempts, maxAttempts int
		)
		if err := rows.Scan(&id, &status, &attempts, &maxAttempts); err != nil {
			return nil, nil, fmt.Errorf("scan stale job: %w", err)
		}
		next := domainjob.StaleOutcome(attempts, maxAttempts)
		if !domainjob.CanTransition(status, next) {
			return nil, nil, fmt.Errorf("stale job %s: invalid transition %s -> %s", id, status, next)
		}
		if next == model.JobStatusFailed {
			fail = append(fail, id)
		} else {
			requeue = append(requeue, id)
		}
	}
	return requeue, fail, rows.Err()
}

// DeleteOldJobs deletes terminal jobs with the given status older than MaxAge.
// Processes up to BatchSize jobs per call and returns the number deleted.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Terminal() {
		return 0, fmt.Errorf("only terminal jobs can be deleted, got status %q", params.Status)
	}
	if params.BatchSize < 1 {
		params.BatchSize = 1
	}

	var deleted int64
	err := r.withMaintenanceLock(ctx, advisoryLockDeleteOld, func(tx *sql.Tx) error {
		cutoff := r.timeProvider.Now().Add(-params.MaxAge)
		res, err := tx.ExecContext(ctx, `
			DELETE FROM jobs
			WHERE id IN (
				SELECT id FROM jobs
				WHERE status = $1
				  AND COALESCE(completed_at, updated_at) < $2
				ORDER BY COALESCE(completed_at, updated_at)
				LIMIT $3
			)
		`, params.Status, cutoff, params.BatchSize)
		if err != nil {
			return fmt.Errorf("delete old jobs: %w", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *JobRepo) withMaintenanceLock(ctx context.Context, minor int, fn func(*sql.Tx) error) error {
	return pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx,
				"SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockMaintenanceMajor, minor,
			).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				r.logger.DebugContext(ctx, "maintenance lock held elsewhere; skipping", "lock_minor", minor)
				return nil
			}
			return fn(tx)
		},
	})
}
