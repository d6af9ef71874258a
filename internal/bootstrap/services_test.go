package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/service/ratelimit"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGetEnabledServices(t *testing.T) {
	tests := []struct {
		name     string
		services string
		want     []string
	}{
		{name: "http only", services: "http", want: []string{"http"}},
		{name: "sorted", services: "reaper,http,job-worker", want: []string{"http", "job-worker", "reaper"}},
		{name: "invalid", services: "http,rules-engine", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.AppConfig{Services: tt.services}
			assert.Equal(t, tt.want, GetEnabledServices(cfg))
		})
	}
	assert.Empty(t, GetEnabledServices(nil))
}

func TestValidateServiceConfig(t *testing.T) {
	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "job-worker"}))
	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: ""}))
	require.Error(t, ValidateServiceConfig(nil))
}

func TestBuildLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, buildLimiter(config.RateLimitConfig{Enabled: false}, nil, quietLogger()))
	})

	t.Run("local without redis", func(t *testing.T) {
		l := buildLimiter(config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute}, nil, quietLogger())
		require.NotNil(t, l)

		fb, ok := l.(*ratelimit.FallbackLimiter)
		require.True(t, ok)
		assert.Nil(t, fb.Primary)

		d, err := l.Allow(context.Background(), "jobs:user:a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = l.Allow(context.Background(), "jobs:user:a")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})
}

func TestNewServices_WithoutRedis(t *testing.T) {
	cfg := &config.AppConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, Limit: 5, Window: time.Minute},
	}
	svcs := NewServices(&ServiceDeps{Config: cfg, Logger: quietLogger()})

	assert.NotNil(t, svcs.Jobs)
	assert.NotNil(t, svcs.Evaluations)
	assert.NotNil(t, svcs.Limiter)
	require.NotNil(t, svcs.repos)
	assert.Nil(t, svcs.repos.Cache)
	assert.Nil(t, svcs.repos.cache())

	checks := readinessChecks(nil, svcs.repos.Cache)
	assert.Empty(t, checks)
}

func TestNewJobRunner(t *testing.T) {
	svcs := NewServices(&ServiceDeps{Config: &config.AppConfig{}, Logger: quietLogger()})

	runner, err := newJobRunner(jobWorkerDeps{
		Config:   config.JobWorkerConfig{PollInterval: time.Second, BatchSize: 5, WebhookTimeout: time.Second},
		Services: svcs,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	assert.Len(t, runner.Types(), 2)

	_, err = newJobRunner(jobWorkerDeps{Logger: quietLogger()})
	require.Error(t, err)
}

func TestRunServicesWithShutdown_StopsOnCancel(t *testing.T) {
	cfg := &config.AppConfig{
		Services: "http",
		IsDev:    true,
		Auth:     config.AuthConfig{DevUserHeader: "X-User-ID"},
		HTTP:     config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second, MaxBodyBytes: 1024},
	}
	svcs := NewServices(&ServiceDeps{Config: cfg, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServicesWithShutdown(ctx, &ServiceOrchestrationConfig{
			Config:   cfg,
			Services: svcs,
			Logger:   quietLogger(),
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("services did not stop")
	}
}

func TestRunServicesWithShutdown_IdentityRequired(t *testing.T) {
	cfg := &config.AppConfig{Services: "http"}
	err := RunServicesWithShutdown(context.Background(), &ServiceOrchestrationConfig{
		Config:   cfg,
		Services: NewServices(&ServiceDeps{Config: cfg, Logger: quietLogger()}),
		Logger:   quietLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identity source")
}
