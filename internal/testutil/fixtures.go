package testutil

import (
	"context"
	"database/sql"
	"time"
)

// EventFixture describes an event row to insert.
type EventFixture struct {
	Title       string
	OrganizerID string
	Status      string
	StartsAt    time.Time
	EndsAt      time.Time
}

// SeedEvent inserts an event and returns its id. Zero fields get defaults: a
// published event organised by "organizer-1" running from an hour ago to a
// day from now.
func SeedEvent(t TestingTB, db *sql.DB, f EventFixture) string {
	t.Helper()
	now := time.Now().UTC()
	if f.Title == "" {
		f.Title = "Go meetup"
	}
	if f.OrganizerID == "" {
		f.OrganizerID = "organizer-1"
	}
	if f.Status == "" {
		f.Status = "published"
	}
	if f.StartsAt.IsZero() {
		f.StartsAt = now.Add(-time.Hour)
	}
	if f.EndsAt.IsZero() {
		f.EndsAt = now.Add(24 * time.Hour)
	}

	var id string
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO events (title, organizer_id, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, f.Title, f.OrganizerID, f.Status, f.StartsAt, f.EndsAt).Scan(&id)
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return id
}

// SeedRegistration registers userID for eventID, optionally checked in.
func SeedRegistration(t TestingTB, db *sql.DB, eventID, userID string, checkedIn bool) {
	t.Helper()
	var checkedInAt any
	if checkedIn {
		checkedInAt = time.Now().UTC()
	}
	if _, err := db.ExecContext(context.Background(), `
		INSERT INTO registrations (event_id, user_id, status, checked_in_at)
		VALUES ($1, $2, 'registered', $3)
	`, eventID, userID, checkedInAt); err != nil {
		t.Fatalf("seed registration: %v", err)
	}
}
