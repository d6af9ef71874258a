package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity verification configuration
//   - database.go: Database and cache configuration
//   - http.go: HTTP server and rate limit configuration
//   - services.go: Service mode, job worker and reaper configuration
//   - evaluation.go: Evaluation access configuration
type AppConfig struct {
	// IsDev enables development behavior such as header-based identity.
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	HTTP      HTTPConfig
	RateLimit RateLimitConfig

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"http"`

	JobWorker  JobWorkerConfig
	Reaper     ReaperConfig
	Evaluation EvaluationConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.RateLimit.Sanitize()
	c.Cache.Sanitize()
	c.JobWorker.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()
	c.Auth.Sanitize()

	c.detectDevMode()
}

// detectDevMode falls back to APP_ENV when DEV is not set.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.serviceEnabled(ServiceModeHTTP)
}

// IsJobWorkerEnabled returns true if the job poll worker is enabled.
func (c *AppConfig) IsJobWorkerEnabled() bool {
	return c.serviceEnabled(ServiceModeJobWorker)
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	return c.serviceEnabled(ServiceModeReaper)
}
