package data

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

// ErrJobNotFound is returned when a job is not found.
var ErrJobNotFound = apperrors.NotFound("job not found")

// RepoConfig holds configuration options shared by repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for the job queue.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

const jobColumns = `
  id,
  job_type,
  payload,
  status,
  priority,
  attempts,
  max_attempts,
  error,
  result,
  created_by,
  created_at,
  started_at,
  completed_at,
  updated_at
`

// jobRowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Rows.
type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	payload, result        []byte
	errMsg                 sql.NullString
	startedAt, completedAt sql.NullTime
}

func scanJob(scanner jobRowScanner) (*model.Job, error) {
	var (
		job model.Job
		d   jobRowData
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Type,
		&d.payload,
		&job.Status,
		&job.Priority,
		&job.Attempts,
		&job.MaxAttempts,
		&d.errMsg,
		&d.result,
		&job.CreatedBy,
		&job.CreatedAt,
		&d.startedAt,
		&d.completedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job.Payload = cloneJSON(d.payload)
	if len(d.result) > 0 {
		job.Result = cloneJSON(d.result)
	}
	job.Error = cloneNullableString(d.errMsg)
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
	return &job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// nullableJSON converts an empty document to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
