package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	"github.com/eventdesk/eventdesk-api/internal/testutil"
)

var notificationOnly = []model.JobType{model.JobTypeNotificationDispatch}

func TestJobRepo_Enqueue(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		job, err := repo.Enqueue(ctx, &model.CreateJobRequest{
			Type:      model.JobTypeCertificateGeneration,
			Payload:   json.RawMessage(`{"event_id":"e","user_id":"u"}`),
			CreatedBy: "user-1",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, job.ID)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, model.DefaultJobPriority, job.Priority)
		assert.Equal(t, model.DefaultJobMaxAttempts, job.MaxAttempts)
		assert.Equal(t, 0, job.Attempts)
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.Error)
		assert.JSONEq(t, `{"event_id":"e","user_id":"u"}`, string(job.Payload))
	})
}

func TestJobRepo_Enqueue_Invalid(t *testing.T) {
	repo := NewJobRepo(nil, RepoConfig{})

	_, err := repo.Enqueue(context.Background(), nil)
	require.Error(t, err)

	_, err = repo.Enqueue(context.Background(), &model.CreateJobRequest{
		Type:      "bogus",
		Payload:   json.RawMessage(`{}`),
		CreatedBy: "user-1",
	})
	require.Error(t, err)
}

func TestJobRepo_ClaimNext_PriorityThenAge(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewJobRepo(db, RepoConfig{TimeProvider: tp})
		ctx := context.Background()

		oldLow, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithPriority(7).Build())
		require.NoError(t, err)
		tp.AddTime(time.Second)
		firstUrgent, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithPriority(2).Build())
		require.NoError(t, err)
		tp.AddTime(time.Second)
		secondUrgent, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithPriority(2).Build())
		require.NoError(t, err)

		var order []string
		for range 3 {
			job, claimErr := repo.ClaimNext(ctx, notificationOnly)
			require.NoError(t, claimErr)
			assert.Equal(t, model.JobStatusProcessing, job.Status)
			assert.Equal(t, 1, job.Attempts)
			require.NotNil(t, job.StartedAt)
			order = append(order, job.ID)
		}
		assert.Equal(t, []string{firstUrgent.ID, secondUrgent.ID, oldLow.ID}, order)

		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.ErrorIs(t, err, model.ErrNoJobsAvailable)
	})
}

func TestJobRepo_ClaimNext_FiltersByType(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		_, err := repo.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)

		_, err = repo.ClaimNext(ctx, []model.JobType{model.JobTypeCertificateGeneration})
		require.ErrorIs(t, err, model.ErrNoJobsAvailable)

		_, err = repo.ClaimNext(ctx, nil)
		require.ErrorIs(t, err, model.ErrNoJobsAvailable)
	})
}

func TestJobRepo_ClaimNext_ConcurrentWorkersClaimOnce(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		seed := NewJobRepo(db, RepoConfig{})
		pending, err := seed.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)

		workers := []*JobRepo{NewJobRepo(db, RepoConfig{}), NewJobRepo(db, RepoConfig{})}

		var (
			wg      sync.WaitGroup
			start   = make(chan struct{})
			claimed = make([]*model.Job, len(workers))
			errs    = make([]error, len(workers))
		)
		for i, w := range workers {
			wg.Add(1)
			go func(i int, w *JobRepo) {
				defer wg.Done()
				<-start
				claimed[i], errs[i] = w.ClaimNext(ctx, notificationOnly)
			}(i, w)
		}
		close(start)
		wg.Wait()

		var winners int
		for i := range workers {
			if errs[i] == nil {
				winners++
				assert.Equal(t, pending.ID, claimed[i].ID)
				continue
			}
			require.ErrorIs(t, errs[i], model.ErrNoJobsAvailable)
		}
		assert.Equal(t, 1, winners)
	})
}

func TestJobRepo_Complete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		queued, err := repo.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)

		ok, err := repo.Complete(ctx, queued.ID, nil)
		require.NoError(t, err)
		assert.False(t, ok, "pending jobs cannot be completed")

		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)

		ok, err = repo.Complete(ctx, queued.ID, json.RawMessage(`{"delivered":true}`))
		require.NoError(t, err)
		assert.True(t, ok)

		done, err := repo.GetByID(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)
		assert.JSONEq(t, `{"delivered":true}`, string(done.Result))

		ok, err = repo.Complete(ctx, queued.ID, nil)
		require.NoError(t, err)
		assert.False(t, ok, "completing twice is a no-op")

		ok, err = repo.Complete(ctx, "not-a-uuid", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestJobRepo_Fail_RetriesUntilExhausted(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		queued, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithMaxAttempts(3).Build())
		require.NoError(t, err)

		for attempt := 1; attempt <= 3; attempt++ {
			claimed, claimErr := repo.ClaimNext(ctx, notificationOnly)
			require.NoError(t, claimErr)
			require.Equal(t, queued.ID, claimed.ID)
			assert.Equal(t, attempt, claimed.Attempts)

			ok, failErr := repo.Fail(ctx, queued.ID, "smtp unreachable")
			require.NoError(t, failErr)
			require.True(t, ok)

			after, getErr := repo.GetByID(ctx, queued.ID)
			require.NoError(t, getErr)
			if attempt < 3 {
				assert.Equal(t, model.JobStatusPending, after.Status)
				assert.Nil(t, after.StartedAt)
				assert.Nil(t, after.Error)
			}
		}

		failed, err := repo.GetByID(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, failed.Status)
		assert.Equal(t, 3, failed.Attempts)
		require.NotNil(t, failed.Error)
		assert.Equal(t, "smtp unreachable", *failed.Error)
		assert.NotNil(t, failed.CompletedAt)

		ok, err := repo.Fail(ctx, queued.ID, "again")
		require.NoError(t, err)
		assert.False(t, ok, "failing a terminal job is a no-op")

		unchanged, err := repo.GetByID(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, unchanged.Attempts)
		assert.Equal(t, "smtp unreachable", *unchanged.Error)
	})
}

func TestJobRepo_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})

		_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrJobNotFound)

		_, err = repo.GetByID(context.Background(), "nope")
		require.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestJobRepo_ListAndStats(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		_, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithOwner("alice").Build())
		require.NoError(t, err)
		_, err = repo.Enqueue(ctx, testutil.NewJobRequest().WithOwner("alice").Build())
		require.NoError(t, err)
		_, err = repo.Enqueue(ctx, testutil.NewJobRequest().WithOwner("bob").Build())
		require.NoError(t, err)
		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)

		mine, err := repo.List(ctx, model.JobListOptions{CreatedBy: "alice"})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		pending := model.JobStatusPending
		pendingJobs, err := repo.List(ctx, model.JobListOptions{Status: &pending})
		require.NoError(t, err)
		assert.Len(t, pendingJobs, 2)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.JobStats{Pending: 2, Processing: 1}, *stats)
	})
}

func TestJobRepo_ResetStaleProcessing(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewJobRepo(db, RepoConfig{TimeProvider: tp})
		ctx := context.Background()

		retryable, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithPriority(1).WithMaxAttempts(3).Build())
		require.NoError(t, err)
		exhausted, err := repo.Enqueue(ctx, testutil.NewJobRequest().WithPriority(2).WithMaxAttempts(1).Build())
		require.NoError(t, err)

		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)
		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)

		fresh, err := repo.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)

		tp.AddTime(45 * time.Minute)
		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)

		res, err := repo.ResetStaleProcessing(ctx, 30*time.Minute, 100)
		require.NoError(t, err)
		assert.Equal(t, core.ResetStaleResult{Requeued: 1, Failed: 1}, res)

		got, err := repo.GetByID(ctx, retryable.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, got.Status)
		assert.Nil(t, got.StartedAt)

		got, err = repo.GetByID(ctx, exhausted.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, got.Status)
		require.NotNil(t, got.Error)
		assert.Equal(t, StaleProcessingError, *got.Error)

		got, err = repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusProcessing, got.Status)

		_, err = repo.ResetStaleProcessing(ctx, 0, 10)
		require.Error(t, err)
	})
}

func TestJobRepo_DeleteOldJobs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewJobRepo(db, RepoConfig{TimeProvider: tp})
		ctx := context.Background()

		old, err := repo.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)
		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)
		_, err = repo.Complete(ctx, old.ID, nil)
		require.NoError(t, err)

		tp.AddTime(48 * time.Hour)
		recent, err := repo.Enqueue(ctx, testutil.NewJobRequest().Build())
		require.NoError(t, err)
		_, err = repo.ClaimNext(ctx, notificationOnly)
		require.NoError(t, err)
		_, err = repo.Complete(ctx, recent.ID, nil)
		require.NoError(t, err)

		deleted, err := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
			Status:    model.JobStatusCompleted,
			MaxAge:    24 * time.Hour,
			BatchSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = repo.GetByID(ctx, old.ID)
		require.ErrorIs(t, err, ErrJobNotFound)
		_, err = repo.GetByID(ctx, recent.ID)
		require.NoError(t, err)

		_, err = repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{Status: model.JobStatusPending, MaxAge: time.Hour})
		require.Error(t, err)
	})
}
