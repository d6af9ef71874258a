package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - job-worker",
			input:    "job-worker",
			expected: map[ServiceMode]bool{ServiceModeJobWorker: true},
		},
		{
			name:  "all services with spaces",
			input: " http , job-worker , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeJobWorker: true,
				ServiceModeReaper:    true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,job-worker",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeJobWorker: true,
			},
		},
		{name: "empty string", input: "", expectError: true},
		{name: "only commas", input: ",,", expectError: true},
		{name: "invalid service", input: "http,scheduler", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	cfg := AppConfig{Services: "http,job-worker"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.True(t, cfg.IsJobWorkerEnabled())
	assert.False(t, cfg.IsReaperEnabled())

	invalid := AppConfig{Services: "bogus"}
	assert.False(t, invalid.IsHTTPServerEnabled())
	assert.False(t, invalid.IsJobWorkerEnabled())
	assert.False(t, invalid.IsReaperEnabled())
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	for _, m := range modes {
		_, err := ParseServices(string(m))
		assert.NoError(t, err, "mode %s should parse", m)
	}
	assert.Len(t, modes, 3)
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("SERVICES", "job-worker,reaper")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("JOB_WORKER_POLL_INTERVAL", "2s")
	t.Setenv("JOB_WORKER_BATCH_SIZE", "500")
	t.Setenv("OIDC_ISSUER_URL", " https://login.example.com ")
	t.Setenv("EVALUATION_REQUIRE_CHECK_IN", "true")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Second, cfg.JobWorker.PollInterval)
	assert.Equal(t, 100, cfg.JobWorker.BatchSize, "batch size is clamped")
	assert.Equal(t, "https://login.example.com", cfg.Auth.OIDC.IssuerURL)
	assert.True(t, cfg.Auth.IsOIDCEnabled())
	assert.True(t, cfg.Evaluation.RequireCheckIn)
	assert.True(t, cfg.IsJobWorkerEnabled())
	assert.False(t, cfg.IsHTTPServerEnabled())
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.JobWorker.PollInterval)
	assert.Equal(t, 10, cfg.JobWorker.BatchSize)
	assert.Equal(t, "X-User-ID", cfg.Auth.DevUserHeader)
	assert.False(t, cfg.Auth.IsOIDCEnabled())
	assert.Equal(t, 30, cfg.RateLimit.Limit)
}

func TestReaperConfig_Sanitize(t *testing.T) {
	r := ReaperConfig{BatchSize: 50000}
	r.Sanitize()

	assert.Equal(t, time.Minute, r.Interval)
	assert.Equal(t, time.Minute, r.ProcessingMaxAge)
	assert.Equal(t, time.Hour, r.CompletedMaxAge)
	assert.Equal(t, time.Hour, r.FailedMaxAge)
	assert.Equal(t, 10000, r.BatchSize)
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   ", Prefix: ".eventdesk."}
	cfg.Sanitize()
	assert.False(t, cfg.IsEnabled())
	assert.Equal(t, "eventdesk", cfg.Prefix)

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 "}
	cfg.Sanitize()
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "127.0.0.1:8125", cfg.StatsdAddress)
}

func TestRateLimitConfig_Sanitize(t *testing.T) {
	cfg := RateLimitConfig{Limit: 0, Window: 0}
	cfg.Sanitize()
	assert.Equal(t, 1, cfg.Limit)
	assert.Equal(t, time.Second, cfg.Window)
}
