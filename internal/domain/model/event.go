package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is the read-only view of an event needed for access checks.
type Event struct {
	ID          string      `json:"id"           db:"id"`
	Title       string      `json:"title"        db:"title"`
	OrganizerID string      `json:"organizer_id" db:"organizer_id"`
	Status      EventStatus `json:"status"       db:"status"`
	StartsAt    time.Time   `json:"starts_at"    db:"starts_at"`
	EndsAt      time.Time   `json:"ends_at"      db:"ends_at"`
}

// RegistrationStatusCancelled marks a withdrawn registration.
const RegistrationStatusCancelled = "cancelled"

// Registration links a user to an event.
type Registration struct {
	EventID     string     `json:"event_id"                db:"event_id"`
	UserID      string     `json:"user_id"                 db:"user_id"`
	Status      string     `json:"status"                  db:"status"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty" db:"checked_in_at"`
}

// CheckedIn reports whether the attendee was scanned in.
func (r *Registration) CheckedIn() bool {
	return r != nil && r.CheckedInAt != nil
}

// Active reports whether the registration still counts toward attendance.
func (r *Registration) Active() bool {
	return r != nil && r.Status != RegistrationStatusCancelled
}

// Certificate is an attendance certificate issued by the certificate job.
type Certificate struct {
	ID               string    `json:"id"                db:"id"`
	EventID          string    `json:"event_id"          db:"event_id"`
	UserID           string    `json:"user_id"           db:"user_id"`
	VerificationCode string    `json:"verification_code" db:"verification_code"`
	IssuedAt         time.Time `json:"issued_at"         db:"issued_at"`
}

// Notification is a message recorded for a user by the dispatch job.
// JobID is set when the dispatch job created it and is unique.
type Notification struct {
	ID          string     `json:"id"                     db:"id"`
	JobID       *string    `json:"job_id,omitempty"       db:"job_id"`
	UserID      string     `json:"user_id"                db:"user_id"`
	Channel     string     `json:"channel"                db:"channel"`
	Subject     string     `json:"subject"                db:"subject"`
	Body        string     `json:"body"                   db:"body"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"             db:"created_at"`
}
