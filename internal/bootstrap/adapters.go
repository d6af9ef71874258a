package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/adapters/jobrunner"
	"github.com/eventdesk/eventdesk-api/internal/adapters/reaper"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

type jobWorkerDeps struct {
	Config   config.JobWorkerConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// newJobRunner wires the poll worker with every processor this build ships.
func newJobRunner(deps jobWorkerDeps) (*jobrunner.Runner, error) {
	if deps.Services.Jobs == nil || deps.Services.repos == nil {
		return nil, fmt.Errorf("create job runner: services not initialised")
	}
	repos := deps.Services.repos

	processors := []jobrunner.Processor{
		&jobrunner.CertificateProcessor{
			Events:       repos.Events,
			Certificates: repos.Certificates,
		},
		&jobrunner.NotificationProcessor{
			Notifications: repos.Notifications,
			WebhookURL:    deps.Config.NotificationWebhookURL,
			HTTPClient:    &http.Client{Timeout: deps.Config.WebhookTimeout},
		},
	}

	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Queue:        deps.Services.Jobs,
		Processors:   processors,
		Logger:       deps.Logger,
		Metrics:      metricsSink(deps.Services.Metrics),
		PollInterval: deps.Config.PollInterval,
		BatchSize:    deps.Config.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create job runner: %w", err)
	}
	return runner, nil
}

// newReaperRunner builds the opt-in maintenance loop.
func newReaperRunner(
	db *sql.DB,
	cfg config.ReaperConfig,
	services ServiceContainer,
	logger *slog.Logger,
) (*reaper.Runner, error) {
	opts := reaper.RunnerOptions{
		DB:      db,
		Config:  cfg,
		Logger:  logger,
		Metrics: metricsSink(services.Metrics),
	}
	if services.repos != nil {
		opts.Repo = services.repos.Jobs
	}
	runner, err := reaper.NewRunner(opts)
	if err != nil {
		return nil, fmt.Errorf("create reaper runner: %w", err)
	}
	return runner, nil
}

//nolint:ireturn // nil client maps to a nil sink.
func metricsSink(c *statsd.Client) statsd.Sink {
	if c == nil {
		return nil
	}
	return c
}
