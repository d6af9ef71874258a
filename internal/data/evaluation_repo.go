package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

// EvaluationRepo persists evaluations and their responses.
type EvaluationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewEvaluationRepo creates a new EvaluationRepo.
func NewEvaluationRepo(db *sql.DB, cfg RepoConfig) *EvaluationRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "evaluation_repo"),
	}
}

const evaluationColumns = `id, event_id, created_by, title, questions, is_active, is_open, opens_at, closes_at, created_at, updated_at`

// Create inserts a new active evaluation.
func (r *EvaluationRepo) Create(ctx context.Context, req *model.CreateEvaluationRequest) (*model.Evaluation, error) {
	if req == nil {
		return nil, errors.New("create evaluation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	questions, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}

	now := r.timeProvider.Now()
	out, err := r.queryOne(ctx, `
		INSERT INTO evaluations (
			event_id, created_by, title, questions, is_active, is_open, opens_at, closes_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4::jsonb, TRUE, $5, $6, $7, $8, $8)
		RETURNING `+evaluationColumns,
		req.EventID,
		req.CreatedBy,
		strings.TrimSpace(req.Title),
		string(questions),
		req.IsOpen,
		req.OpensAt,
		req.ClosesAt,
		now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID returns the evaluation or ErrEvaluationNotFound.
func (r *EvaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	if !validID(id) {
		return nil, ErrEvaluationNotFound
	}
	return r.get(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id)
}

// GetCurrentForEvent returns the newest active evaluation of the event.
func (r *EvaluationRepo) GetCurrentForEvent(ctx context.Context, eventID string) (*model.Evaluation, error) {
	if !validID(eventID) {
		return nil, ErrEvaluationNotFound
	}
	return r.get(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE event_id = $1 AND is_active
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, eventID)
}

// SetOpen sets the organizer's manual open flag.
func (r *EvaluationRepo) SetOpen(ctx context.Context, id string, open bool) (*model.Evaluation, error) {
	return r.update(ctx, id, `is_open = $2`, open)
}

// ToggleActive flips is_active.
func (r *EvaluationRepo) ToggleActive(ctx context.Context, id string) (*model.Evaluation, error) {
	return r.update(ctx, id, `is_active = NOT is_active`)
}

// SetSchedule replaces the evaluation window. Nil bounds clear it.
func (r *EvaluationRepo) SetSchedule(ctx context.Context, id string, req model.ScheduleRequest) (*model.Evaluation, error) {
	if err := model.ValidateSchedule(req.OpensAt, req.ClosesAt); err != nil {
		return nil, apperrors.ValidationField("closes_at", err.Error())
	}
	return r.update(ctx, id, `opens_at = $2, closes_at = $3`, req.OpensAt, req.ClosesAt)
}

// InsertResponse stores an attendee's answers. A second response from the
// same user maps to a conflict error.
func (r *EvaluationRepo) InsertResponse(
	ctx context.Context,
	resp *model.EvaluationResponse,
) (*model.EvaluationResponse, error) {
	if resp == nil {
		return nil, errors.New("evaluation response is required")
	}
	if !validID(resp.EvaluationID) {
		return nil, ErrEvaluationNotFound
	}

	var out model.EvaluationResponse
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO evaluation_responses (evaluation_id, user_id, answers, submitted_at)
			VALUES ($1, $2, $3::jsonb, $4)
			RETURNING id, evaluation_id, user_id, answers, submitted_at
		`, resp.EvaluationID, resp.UserID, string(resp.Answers), r.timeProvider.Now())
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.EvaluationResponse])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	r.logger.DebugContext(ctx, "evaluation response stored",
		"evaluation_id", out.EvaluationID,
		"user_id", out.UserID,
	)
	return &out, nil
}

func (r *EvaluationRepo) get(ctx context.Context, query string, args ...any) (*model.Evaluation, error) {
	out, err := r.queryOne(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return out, nil
}

func (r *EvaluationRepo) update(ctx context.Context, id, set string, args ...any) (*model.Evaluation, error) {
	if !validID(id) {
		return nil, ErrEvaluationNotFound
	}

	next := len(args) + 2
	query := fmt.Sprintf(`
		UPDATE evaluations
		SET %s, updated_at = $%d
		WHERE id = $1
		RETURNING %s
	`, set, next, evaluationColumns)

	params := make([]any, 0, len(args)+2)
	params = append(params, id)
	params = append(params, args...)
	params = append(params, r.timeProvider.Now())

	out, err := r.queryOne(ctx, query, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

func (r *EvaluationRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Evaluation, error) {
	var out model.Evaluation
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Evaluation])
		return err
	})
	if err != nil {
		return nil, err
	}
	if out.Questions == nil {
		out.Questions = []model.Question{}
	}
	return &out, nil
}
