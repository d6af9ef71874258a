package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// QuestionType enumerates supported evaluation question kinds.
type QuestionType string

const (
	// QuestionTypeRating is a 1..5 score.
	QuestionTypeRating QuestionType = "rating"
	// QuestionTypeText is free text.
	QuestionTypeText QuestionType = "text"
	// QuestionTypeChoice is a single selection from Options.
	QuestionTypeChoice QuestionType = "choice"
)

const (
	// MinRating is the lowest accepted rating answer.
	MinRating = 1
	// MaxRating is the highest accepted rating answer.
	MaxRating = 5
	// MaxTextAnswerLength caps free text answers in runes.
	MaxTextAnswerLength = 4000
)

// Valid reports whether the question type is supported.
func (t QuestionType) Valid() bool {
	return t == QuestionTypeRating || t == QuestionTypeText || t == QuestionTypeChoice
}

// Question is one entry of an evaluation's ordered question list.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// Evaluation is a post-event survey attached to an event.
type Evaluation struct {
	ID        string     `json:"id"                  db:"id"`
	EventID   string     `json:"event_id"            db:"event_id"`
	CreatedBy string     `json:"created_by"          db:"created_by"`
	Title     string     `json:"title"               db:"title"`
	Questions []Question `json:"questions"           db:"questions"`
	IsActive  bool       `json:"is_active"           db:"is_active"`
	IsOpen    bool       `json:"is_open"             db:"is_open"`
	OpensAt   *time.Time `json:"opens_at,omitempty"  db:"opens_at"`
	ClosesAt  *time.Time `json:"closes_at,omitempty" db:"closes_at"`
	CreatedAt time.Time  `json:"created_at"          db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"          db:"updated_at"`
}

// EvaluationResponse is a single attendee's immutable set of answers.
type EvaluationResponse struct {
	ID           string          `json:"id"            db:"id"`
	EvaluationID string          `json:"evaluation_id" db:"evaluation_id"`
	UserID       string          `json:"user_id"       db:"user_id"`
	Answers      json.RawMessage `json:"answers"       db:"answers"`
	SubmittedAt  time.Time       `json:"submitted_at"  db:"submitted_at"`
}

// CreateEvaluationRequest is the organizer payload for a new evaluation.
type CreateEvaluationRequest struct {
	EventID   string     `json:"-"`
	CreatedBy string     `json:"-"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	IsOpen    bool       `json:"is_open"`
	OpensAt   *time.Time `json:"opens_at,omitempty"`
	ClosesAt  *time.Time `json:"closes_at,omitempty"`
}

// Validate checks the request shape and question definitions.
func (r *CreateEvaluationRequest) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return errors.New("event_id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if len(r.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	seen := make(map[string]struct{}, len(r.Questions))
	for i, q := range r.Questions {
		if err := q.validate(); err != nil {
			return fmt.Errorf("questions[%d]: %w", i, err)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("questions[%d]: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return ValidateSchedule(r.OpensAt, r.ClosesAt)
}

func (q Question) validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return errors.New("id is required")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("invalid type %q", q.Type)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if q.Type == QuestionTypeChoice && len(q.Options) < 2 {
		return errors.New("choice questions need at least two options")
	}
	return nil
}

// ScheduleRequest sets or clears the evaluation window.
type ScheduleRequest struct {
	OpensAt  *time.Time `json:"opens_at"`
	ClosesAt *time.Time `json:"closes_at"`
}

// ValidateSchedule rejects windows that close before they open.
func ValidateSchedule(opensAt, closesAt *time.Time) error {
	if opensAt != nil && closesAt != nil && !opensAt.Before(*closesAt) {
		return errors.New("opens_at must be before closes_at")
	}
	return nil
}

// SubmitResponseRequest carries an attendee's answers keyed by question id.
type SubmitResponseRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

// EvaluationView is what participants receive: the evaluation plus availability metadata.
type EvaluationView struct {
	Evaluation
	Available bool   `json:"available"`
	Status    string `json:"availability"`
}
