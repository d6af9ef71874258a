package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

// NotificationRepo records notifications produced by the dispatch job.
type NotificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *sql.DB, cfg RepoConfig) *NotificationRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &NotificationRepo{DB: db, timeProvider: tp}
}

// Create stores an undelivered notification. When JobID is set and a
// notification already exists for that job, the existing row is returned
// unchanged.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if n == nil {
		return nil, errors.New("notification is required")
	}
	if n.JobID != nil && !validID(*n.JobID) {
		return nil, apperrors.Validation("job_id must be a uuid")
	}

	var out model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO notifications (job_id, user_id, channel, subject, body, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (job_id) DO UPDATE SET job_id = EXCLUDED.job_id
			RETURNING id, job_id, user_id, channel, subject, body, delivered_at, created_at
		`, n.JobID, n.UserID, n.Channel, n.Subject, n.Body, r.timeProvider.Now())
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Notification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// MarkDelivered stamps delivered_at. Already delivered notifications keep
// their first timestamp.
func (r *NotificationRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return ErrNotificationNotFound
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE notifications
		SET delivered_at = COALESCE(delivered_at, $2)
		WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
