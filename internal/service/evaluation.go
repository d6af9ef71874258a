package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/evaluation"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
	"github.com/eventdesk/eventdesk-api/internal/observability/metrics"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

// EvaluationRepositories groups the stores EvaluationService reads and writes.
type EvaluationRepositories struct {
	Events      core.EventRepository      // Required
	Evaluations core.EvaluationRepository // Required
}

// EvaluationServiceConfig tunes access checks and caching.
type EvaluationServiceConfig struct {
	RequireCheckIn bool
	CacheTTL       time.Duration    // zero disables caching
	Clock          func() time.Time // defaults to time.Now in UTC
}

// EvaluationServiceDeps holds optional collaborators.
type EvaluationServiceDeps struct {
	Cache   core.CacheRepository
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// EvaluationServiceOptions groups dependencies for EvaluationService.
type EvaluationServiceOptions struct {
	Repos  EvaluationRepositories
	Config EvaluationServiceConfig
	Deps   EvaluationServiceDeps
}

// EvaluationService serves evaluations to attendees behind the access
// validator and lets organizers manage them.
type EvaluationService struct {
	events      core.EventRepository
	evaluations core.EvaluationRepository
	validator   *evaluation.Validator
	cache       core.CacheRepository
	cacheTTL    time.Duration
	clock       func() time.Time
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewEvaluationService constructs a new EvaluationService.
func NewEvaluationService(opts EvaluationServiceOptions) (*EvaluationService, error) {
	if opts.Repos.Events == nil {
		return nil, errors.New("EventRepository is required")
	}
	if opts.Repos.Evaluations == nil {
		return nil, errors.New("EvaluationRepository is required")
	}

	clock := opts.Config.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	var logger *slog.Logger
	if opts.Deps.Logger != nil {
		logger = opts.Deps.Logger.With("component", "evaluation_service")
		logger.Debug("EvaluationService initialized",
			"require_check_in", opts.Config.RequireCheckIn,
			"cache_ttl", opts.Config.CacheTTL,
			"cache_enabled", opts.Deps.Cache != nil,
		)
	}

	return &EvaluationService{
		events:      opts.Repos.Events,
		evaluations: opts.Repos.Evaluations,
		validator:   evaluation.NewValidator(evaluation.ValidatorOptions{RequireCheckIn: opts.Config.RequireCheckIn}),
		cache:       opts.Deps.Cache,
		cacheTTL:    opts.Config.CacheTTL,
		clock:       clock,
		logger:      logger,
		metrics:     opts.Deps.Metrics,
	}, nil
}

// MustNewEvaluationService constructs a new EvaluationService and panics on error.
func MustNewEvaluationService(opts EvaluationServiceOptions) *EvaluationService {
	svc, err := NewEvaluationService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create EvaluationService: %v", err))
	}
	return svc
}

// GetCurrent returns the event's current evaluation for userID.
// A non-nil Rejection means access was refused; err is reserved for failures.
func (s *EvaluationService) GetCurrent(
	ctx context.Context,
	eventID, userID string,
) (*model.EvaluationView, *evaluation.Rejection, error) {
	return s.fetch(ctx, "fetch_current", eventID, userID, s.currentEvaluation)
}

// Get returns a specific evaluation of the event for userID.
func (s *EvaluationService) Get(
	ctx context.Context,
	eventID, evaluationID, userID string,
) (*model.EvaluationView, *evaluation.Rejection, error) {
	return s.fetch(ctx, "fetch", eventID, userID, s.byID(evaluationID))
}

// Submit stores userID's answers after the same checks as Get. Answers are
// validated against the question definitions and a second submission is a conflict.
func (s *EvaluationService) Submit(
	ctx context.Context,
	eventID, evaluationID, userID string,
	req *model.SubmitResponseRequest,
) (*model.EvaluationResponse, *evaluation.Rejection, error) {
	if req == nil {
		return nil, nil, apperrors.Validation("request body is required")
	}

	snap, err := s.snapshot(ctx, eventID, userID, s.byID(evaluationID))
	if err != nil {
		return nil, nil, err
	}
	if rej := s.validate(ctx, "submit", snap); rej != nil {
		return nil, rej, nil
	}

	answers, err := evaluation.ValidateAnswers(snap.Evaluation.Questions, req.Answers)
	if err != nil {
		var ae *evaluation.AnswerError
		if errors.As(err, &ae) {
			return nil, nil, apperrors.ValidationField(ae.QuestionID, ae.Message)
		}
		return nil, nil, err
	}

	stored, err := s.evaluations.InsertResponse(ctx, &model.EvaluationResponse{
		EvaluationID: snap.Evaluation.ID,
		UserID:       userID,
		Answers:      answers,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, nil, apperrors.Conflict("You have already submitted this evaluation.")
		}
		return nil, nil, fmt.Errorf("store evaluation response: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "evaluation response submitted",
			"evaluation_id", stored.EvaluationID,
			"event_id", eventID,
			"user_id", userID,
		)
	}
	return stored, nil, nil
}

// Create adds an evaluation to an event the organizer owns.
func (s *EvaluationService) Create(
	ctx context.Context,
	organizerID string,
	req *model.CreateEvaluationRequest,
) (*model.Evaluation, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if _, err := s.requireOrganizer(ctx, req.EventID, organizerID); err != nil {
		return nil, err
	}

	req.CreatedBy = organizerID
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	created, err := s.evaluations.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	s.invalidate(ctx, created.EventID)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "evaluation created",
			"evaluation_id", created.ID,
			"event_id", created.EventID,
			"questions", len(created.Questions),
		)
	}
	return created, nil
}

// Open sets the manual open flag.
func (s *EvaluationService) Open(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error) {
	return s.administer(ctx, "open", organizerID, evaluationID, func(id string) (*model.Evaluation, error) {
		return s.evaluations.SetOpen(ctx, id, true)
	})
}

// Close clears the manual open flag.
func (s *EvaluationService) Close(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error) {
	return s.administer(ctx, "close", organizerID, evaluationID, func(id string) (*model.Evaluation, error) {
		return s.evaluations.SetOpen(ctx, id, false)
	})
}

// ToggleActive flips is_active.
func (s *EvaluationService) ToggleActive(
	ctx context.Context,
	organizerID, evaluationID string,
) (*model.Evaluation, error) {
	return s.administer(ctx, "toggle", organizerID, evaluationID, func(id string) (*model.Evaluation, error) {
		return s.evaluations.ToggleActive(ctx, id)
	})
}

// SetSchedule replaces the evaluation window.
func (s *EvaluationService) SetSchedule(
	ctx context.Context,
	organizerID, evaluationID string,
	req model.ScheduleRequest,
) (*model.Evaluation, error) {
	if err := model.ValidateSchedule(req.OpensAt, req.ClosesAt); err != nil {
		return nil, apperrors.ValidationField("closes_at", err.Error())
	}
	return s.administer(ctx, "schedule", organizerID, evaluationID, func(id string) (*model.Evaluation, error) {
		return s.evaluations.SetSchedule(ctx, id, req)
	})
}

type evaluationLoader func(ctx context.Context, eventID string) (*model.Evaluation, error)

func (s *EvaluationService) fetch(
	ctx context.Context,
	op, eventID, userID string,
	load evaluationLoader,
) (*model.EvaluationView, *evaluation.Rejection, error) {
	snap, err := s.snapshot(ctx, eventID, userID, load)
	if err != nil {
		return nil, nil, err
	}
	if rej := s.validate(ctx, op, snap); rej != nil {
		return nil, rej, nil
	}

	a := evaluation.Check(snap.Evaluation, snap.Now)
	return &model.EvaluationView{
		Evaluation: *snap.Evaluation,
		Available:  a.Available,
		Status:     a.Status(),
	}, nil, nil
}

// snapshot loads the rows the validator needs. Lookups stop at the first
// missing row because later stages are never consulted past it.
func (s *EvaluationService) snapshot(
	ctx context.Context,
	eventID, userID string,
	load evaluationLoader,
) (evaluation.AccessSnapshot, error) {
	snap := evaluation.AccessSnapshot{EventID: eventID, Now: s.clock()}

	event, err := optional(s.events.GetByID(ctx, eventID))
	if err != nil {
		return snap, fmt.Errorf("load event: %w", err)
	}
	snap.Event = event
	if event == nil {
		return snap, nil
	}

	reg, err := optional(s.events.GetRegistration(ctx, eventID, userID))
	if err != nil {
		return snap, fmt.Errorf("load registration: %w", err)
	}
	snap.Registration = reg
	if reg == nil {
		return snap, nil
	}

	ev, err := optional(load(ctx, eventID))
	if err != nil {
		return snap, fmt.Errorf("load evaluation: %w", err)
	}
	snap.Evaluation = ev
	return snap, nil
}

func (s *EvaluationService) validate(ctx context.Context, op string, snap evaluation.AccessSnapshot) *evaluation.Rejection {
	rej := s.validator.Validate(snap)
	if rej == nil {
		metrics.EmitEvaluationAccess(s.metrics, op, "", "")
		return nil
	}

	metrics.EmitEvaluationAccess(s.metrics, op, string(rej.Stage), string(rej.Reason))
	if s.logger != nil {
		s.logger.DebugContext(ctx, "evaluation access rejected",
			"op", op,
			"event_id", snap.EventID,
			"stage", rej.Stage,
			"reason", rej.Reason,
		)
	}
	return rej
}

func (s *EvaluationService) byID(evaluationID string) evaluationLoader {
	return func(ctx context.Context, _ string) (*model.Evaluation, error) {
		return s.evaluations.GetByID(ctx, evaluationID)
	}
}

func (s *EvaluationService) currentEvaluation(ctx context.Context, eventID string) (*model.Evaluation, error) {
	if cached := s.cachedCurrent(ctx, eventID); cached != nil {
		return cached, nil
	}

	ev, err := s.evaluations.GetCurrentForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.storeCurrent(ctx, ev)
	return ev, nil
}

func currentCacheKey(eventID string) string {
	return "evaluation:current:" + eventID
}

func (s *EvaluationService) cachedCurrent(ctx context.Context, eventID string) *model.Evaluation {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, currentCacheKey(eventID))
	if err != nil {
		s.logCacheError(ctx, "get", eventID, err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var ev model.Evaluation
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.logCacheError(ctx, "decode", eventID, err)
		return nil
	}
	return &ev
}

func (s *EvaluationService) storeCurrent(ctx context.Context, ev *model.Evaluation) {
	if s.cache == nil || s.cacheTTL <= 0 || ev == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		s.logCacheError(ctx, "encode", ev.EventID, err)
		return
	}
	if err := s.cache.Set(ctx, currentCacheKey(ev.EventID), raw, s.cacheTTL); err != nil {
		s.logCacheError(ctx, "set", ev.EventID, err)
	}
}

func (s *EvaluationService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, currentCacheKey(eventID)); err != nil {
		s.logCacheError(ctx, "delete", eventID, err)
	}
}

func (s *EvaluationService) logCacheError(ctx context.Context, op, eventID string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "evaluation cache error", "op", op, "event_id", eventID, "error", err)
	}
}

func (s *EvaluationService) administer(
	ctx context.Context,
	op, organizerID, evaluationID string,
	apply func(id string) (*model.Evaluation, error),
) (*model.Evaluation, error) {
	current, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("load evaluation: %w", err)
	}
	if _, err := s.requireOrganizer(ctx, current.EventID, organizerID); err != nil {
		return nil, err
	}

	updated, err := apply(current.ID)
	if err != nil {
		return nil, fmt.Errorf("%s evaluation: %w", op, err)
	}
	s.invalidate(ctx, updated.EventID)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "evaluation updated",
			"op", op,
			"evaluation_id", updated.ID,
			"is_active", updated.IsActive,
			"is_open", updated.IsOpen,
		)
	}
	return updated, nil
}

func (s *EvaluationService) requireOrganizer(ctx context.Context, eventID, organizerID string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.Forbidden("Only the event organizer can manage its evaluations.")
	}
	return event, nil
}

// optional turns a not-found lookup into a nil row.
func optional[T any](v *T, err error) (*T, error) {
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
