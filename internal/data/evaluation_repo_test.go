package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
	"github.com/eventdesk/eventdesk-api/internal/testutil"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Type: model.QuestionTypeRating, Prompt: "Overall?", Required: true},
		{ID: "q2", Type: model.QuestionTypeText, Prompt: "Comments"},
	}
}

func TestEvaluationRepo_CreateAndCurrent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewEvaluationRepo(db, RepoConfig{TimeProvider: tp})
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{})

		first, err := repo.Create(ctx, &model.CreateEvaluationRequest{
			EventID: eventID, CreatedBy: "organizer-1", Title: "Day one", Questions: sampleQuestions(),
		})
		require.NoError(t, err)
		assert.True(t, first.IsActive)
		assert.False(t, first.IsOpen)
		assert.Len(t, first.Questions, 2)

		tp.AddTime(time.Minute)
		second, err := repo.Create(ctx, &model.CreateEvaluationRequest{
			EventID: eventID, CreatedBy: "organizer-1", Title: "Day two", Questions: sampleQuestions(), IsOpen: true,
		})
		require.NoError(t, err)

		current, err := repo.GetCurrentForEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, current.ID)

		toggled, err := repo.ToggleActive(ctx, second.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)

		current, err = repo.GetCurrentForEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, current.ID)

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, model.QuestionTypeRating, got.Questions[0].Type)
	})
}

func TestEvaluationRepo_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewEvaluationRepo(db, RepoConfig{})
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{})

		_, err := repo.GetCurrentForEvent(ctx, eventID)
		require.ErrorIs(t, err, ErrEvaluationNotFound)

		_, err = repo.GetByID(ctx, "bad-id")
		require.ErrorIs(t, err, ErrEvaluationNotFound)

		_, err = repo.SetOpen(ctx, "00000000-0000-0000-0000-000000000000", true)
		require.ErrorIs(t, err, ErrEvaluationNotFound)
	})
}

func TestEvaluationRepo_SetOpenAndSchedule(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewEvaluationRepo(db, RepoConfig{})
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{})

		ev, err := repo.Create(ctx, &model.CreateEvaluationRequest{
			EventID: eventID, CreatedBy: "organizer-1", Title: "Feedback", Questions: sampleQuestions(),
		})
		require.NoError(t, err)

		opened, err := repo.SetOpen(ctx, ev.ID, true)
		require.NoError(t, err)
		assert.True(t, opened.IsOpen)

		opens := testutil.TestTime()
		closes := opens.Add(2 * time.Hour)
		scheduled, err := repo.SetSchedule(ctx, ev.ID, model.ScheduleRequest{OpensAt: &opens, ClosesAt: &closes})
		require.NoError(t, err)
		require.NotNil(t, scheduled.OpensAt)
		assert.True(t, scheduled.OpensAt.Equal(opens))

		_, err = repo.SetSchedule(ctx, ev.ID, model.ScheduleRequest{OpensAt: &closes, ClosesAt: &opens})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		cleared, err := repo.SetSchedule(ctx, ev.ID, model.ScheduleRequest{})
		require.NoError(t, err)
		assert.Nil(t, cleared.OpensAt)
		assert.Nil(t, cleared.ClosesAt)
	})
}

func TestEvaluationRepo_InsertResponse_Duplicate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewEvaluationRepo(db, RepoConfig{})
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{})

		ev, err := repo.Create(ctx, &model.CreateEvaluationRequest{
			EventID: eventID, CreatedBy: "organizer-1", Title: "Feedback", Questions: sampleQuestions(),
		})
		require.NoError(t, err)

		resp := &model.EvaluationResponse{
			EvaluationID: ev.ID,
			UserID:       "attendee-1",
			Answers:      json.RawMessage(`{"q1":5}`),
		}
		stored, err := repo.InsertResponse(ctx, resp)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.JSONEq(t, `{"q1":5}`, string(stored.Answers))

		_, err = repo.InsertResponse(ctx, resp)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestEventRepo_Lookups(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewEventRepo(db)
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{Title: "GopherCon"})
		testutil.SeedRegistration(t, db, eventID, "attendee-1", true)

		ev, err := repo.GetByID(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, "GopherCon", ev.Title)
		assert.Equal(t, model.EventStatusPublished, ev.Status)

		reg, err := repo.GetRegistration(ctx, eventID, "attendee-1")
		require.NoError(t, err)
		assert.True(t, reg.CheckedIn())
		assert.True(t, reg.Active())

		_, err = repo.GetRegistration(ctx, eventID, "stranger")
		require.ErrorIs(t, err, ErrRegistrationNotFound)

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestCertificateRepo_IssueIsIdempotent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewCertificateRepo(db, RepoConfig{})
		ctx := context.Background()
		eventID := testutil.SeedEvent(t, db, testutil.EventFixture{})

		first, err := repo.Issue(ctx, eventID, "attendee-1")
		require.NoError(t, err)
		assert.Len(t, first.VerificationCode, verificationCodeLen)

		again, err := repo.Issue(ctx, eventID, "attendee-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.VerificationCode, again.VerificationCode)
	})
}

func TestNotificationRepo_CreateAndDeliver(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewNotificationRepo(db, RepoConfig{})
		ctx := context.Background()

		n, err := repo.Create(ctx, &model.Notification{
			UserID: "attendee-1", Channel: "email", Subject: "Thanks", Body: "See you next year",
		})
		require.NoError(t, err)
		assert.Nil(t, n.DeliveredAt)

		require.NoError(t, repo.MarkDelivered(ctx, n.ID, testutil.TestTime()))
		require.ErrorIs(t, repo.MarkDelivered(ctx, "00000000-0000-0000-0000-000000000000", time.Now()), ErrNotificationNotFound)
	})
}

func TestNotificationRepo_CreateIsIdempotentPerJob(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewNotificationRepo(db, RepoConfig{})
		ctx := context.Background()
		jobID := uuid.NewString()
		req := &model.Notification{JobID: &jobID, UserID: "attendee-1", Channel: "email", Subject: "Thanks"}

		first, err := repo.Create(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, first.JobID)
		assert.Equal(t, jobID, *first.JobID)
		require.NoError(t, repo.MarkDelivered(ctx, first.ID, testutil.TestTime()))

		again, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		require.NotNil(t, again.DeliveredAt)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			"SELECT count(*) FROM notifications WHERE job_id = $1", jobID).Scan(&count))
		assert.Equal(t, 1, count)

		bad := "not-a-uuid"
		_, err = repo.Create(ctx, &model.Notification{JobID: &bad, UserID: "attendee-1", Channel: "email"})
		require.Error(t, err)
	})
}
