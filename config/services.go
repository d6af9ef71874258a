package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeJobWorker runs the job poll worker.
	ServiceModeJobWorker ServiceMode = "job-worker"
	// ServiceModeReaper runs stale job recovery and retention cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeJobWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeJobWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, job-worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// JobWorkerConfig contains poll worker configuration.
type JobWorkerConfig struct {
	// PollInterval is the delay between worker ticks.
	PollInterval time.Duration `env:"JOB_WORKER_POLL_INTERVAL" envDefault:"5s"`

	// BatchSize is the maximum number of jobs claimed per tick.
	BatchSize int `env:"JOB_WORKER_BATCH_SIZE" envDefault:"10"`

	// NotificationWebhookURL receives dispatched notifications. Empty disables delivery.
	NotificationWebhookURL string `env:"JOB_WORKER_NOTIFICATION_WEBHOOK_URL"`

	// WebhookTimeout bounds a single notification delivery attempt.
	WebhookTimeout time.Duration `env:"JOB_WORKER_WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *JobWorkerConfig) Sanitize() {
	if w.PollInterval < 100*time.Millisecond {
		w.PollInterval = 100 * time.Millisecond
	}
	if w.BatchSize < 1 {
		w.BatchSize = 1
	}
	if w.BatchSize > 100 {
		w.BatchSize = 100
	}
	w.NotificationWebhookURL = strings.TrimSpace(w.NotificationWebhookURL)
	if w.WebhookTimeout <= 0 {
		w.WebhookTimeout = 10 * time.Second
	}
}

// ReaperConfig contains job reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// ProcessingMaxAge is how long a job may stay in processing before it is
	// considered abandoned and reset.
	ProcessingMaxAge time.Duration `env:"REAPER_PROCESSING_MAX_AGE" envDefault:"30m"`

	// CompletedMaxAge is the maximum age for completed jobs before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed jobs before deletion.
	FailedMaxAge time.Duration `env:"REAPER_FAILED_MAX_AGE" envDefault:"720h"` // 30 days

	// BatchSize is the maximum number of rows to process per operation.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.ProcessingMaxAge < 1*time.Minute {
		r.ProcessingMaxAge = 1 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}
	if r.FailedMaxAge < 1*time.Hour {
		r.FailedMaxAge = 1 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
