package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/mocks"
)

func TestNewRunner_RequiresStore(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Config: config.ReaperConfig{Interval: time.Minute}})
	require.Error(t, err)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewRunner(RunnerOptions{Repo: mocks.NewMockJobMaintenanceRepository(ctrl)})
	require.ErrorContains(t, err, "interval")
}

func TestRunner_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobMaintenanceRepository(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	repo.EXPECT().ResetStaleProcessing(gomock.Any(), 30*time.Minute, 100).
		DoAndReturn(func(context.Context, time.Duration, int) (core.ResetStaleResult, error) {
			cancel()
			return core.ResetStaleResult{Requeued: 1}, nil
		}).MinTimes(1)
	repo.EXPECT().DeleteOldJobs(gomock.Any(), gomock.Any()).Return(int64(0), nil).MinTimes(2)

	r, err := NewRunner(RunnerOptions{
		Repo: repo,
		Config: config.ReaperConfig{
			Interval:         20 * time.Millisecond,
			ProcessingMaxAge: 30 * time.Minute,
			CompletedMaxAge:  time.Hour,
			FailedMaxAge:     time.Hour,
			BatchSize:        100,
		},
	})
	require.NoError(t, err)

	assert.NoError(t, r.Run(ctx))
}
