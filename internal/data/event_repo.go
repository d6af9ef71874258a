// Package data provides the Postgres and Redis repositories behind the eventdesk services.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// EventRepo reads events and registrations. Both are owned by the event
// management surface; this service never writes them.
type EventRepo struct{ DB *sql.DB }

// NewEventRepo creates a new EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{DB: db}
}

// GetByID returns the event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, ErrEventNotFound
	}

	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, title, organizer_id, status, starts_at, ends_at
			FROM events
			WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &out, nil
}

// GetRegistration returns the user's registration for an event or ErrRegistrationNotFound.
func (r *EventRepo) GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	if !validID(eventID) || userID == "" {
		return nil, ErrRegistrationNotFound
	}

	var out model.Registration
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT event_id, user_id, status, checked_in_at
			FROM registrations
			WHERE event_id = $1 AND user_id = $2
		`, eventID, userID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Registration])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &out, nil
}
