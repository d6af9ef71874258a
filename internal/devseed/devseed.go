// Package devseed loads a small, idempotent data set for local development.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/data"
	"github.com/eventdesk/eventdesk-api/internal/domain/evaluation"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

// Fixed identifiers so repeated runs converge on the same rows.
const (
	EventID     = "7d1c7c3e-3f0b-4a4e-9b1e-6c2d0f5a9e01"
	OrganizerID = "dev-organizer"
	AttendeeID  = "dev-attendee" // registered and checked in
	GuestID     = "dev-guest"    // registered, never checked in
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB          *sql.DB
	evaluations *service.EvaluationService
	jobs        *service.JobService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB: db,
		evaluations: service.MustNewEvaluationService(service.EvaluationServiceOptions{
			Repos: service.EvaluationRepositories{
				Events:      data.NewEventRepo(db),
				Evaluations: data.NewEvaluationRepo(db, data.RepoConfig{}),
			},
		}),
		jobs: service.MustNewJobService(service.JobServiceOptions{
			Repo: data.NewJobRepo(db, data.RepoConfig{}),
		}),
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()

	if err := seedEvent(ctx, svcs.DB, now); err != nil {
		return fmt.Errorf("seed event: %w", err)
	}
	logger.InfoContext(ctx, "seeded event", "event_id", EventID)

	if err := seedRegistrations(ctx, svcs.DB, now); err != nil {
		return fmt.Errorf("seed registrations: %w", err)
	}

	created, err := seedEvaluation(ctx, svcs.evaluations)
	if err != nil {
		return fmt.Errorf("seed evaluation: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "created evaluation", "event_id", EventID)
	} else {
		logger.InfoContext(ctx, "evaluation already exists", "event_id", EventID)
	}

	if err := seedJobs(ctx, svcs.jobs); err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}
	return nil
}

// seedEvent keeps the dev event running so evaluations stay reachable.
func seedEvent(ctx context.Context, db *sql.DB, now time.Time) error {
	const q = `
		INSERT INTO events (id, title, organizer_id, status, starts_at, ends_at)
		VALUES ($1, 'Dev meetup', $2, 'published', $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET status = 'published', starts_at = EXCLUDED.starts_at, ends_at = EXCLUDED.ends_at`
	_, err := db.ExecContext(ctx, q, EventID, OrganizerID, now.Add(-2*time.Hour), now.Add(7*24*time.Hour))
	return err
}

func seedRegistrations(ctx context.Context, db *sql.DB, now time.Time) error {
	const q = `
		INSERT INTO registrations (event_id, user_id, checked_in_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	checkedIn := now.Add(-time.Hour)
	if _, err := db.ExecContext(ctx, q, EventID, AttendeeID, checkedIn); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, q, EventID, GuestID, nil)
	return err
}

func seedEvaluation(ctx context.Context, svc *service.EvaluationService) (bool, error) {
	_, rej, err := svc.GetCurrent(ctx, EventID, AttendeeID)
	if err != nil {
		return false, err
	}
	if rej == nil || rej.Reason != evaluation.ReasonEvaluationNotFound {
		return false, nil
	}

	_, err = svc.Create(ctx, OrganizerID, &model.CreateEvaluationRequest{
		EventID: EventID,
		Title:   "How was the meetup?",
		IsOpen:  true,
		Questions: []model.Question{
			{ID: "overall", Type: model.QuestionTypeRating, Prompt: "Overall rating", Required: true},
			{ID: "track", Type: model.QuestionTypeChoice, Prompt: "Favourite track", Options: []string{"backend", "frontend", "ops"}},
			{ID: "comments", Type: model.QuestionTypeText, Prompt: "Anything else?"},
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func seedJobs(ctx context.Context, svc *service.JobService) error {
	status := model.JobStatusPending
	pending, err := svc.ListForOwner(ctx, OrganizerID, model.JobListOptions{Status: &status, Limit: 1})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return nil
	}
	_, err = svc.Enqueue(ctx, &model.CreateJobRequest{
		Type:      model.JobTypeNotificationDispatch,
		Payload:   []byte(`{"user_id":"` + AttendeeID + `","subject":"Thanks for attending","body":"Tell us how it went."}`),
		CreatedBy: OrganizerID,
	})
	return err
}
