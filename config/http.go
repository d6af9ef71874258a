package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.MaxBodyBytes <= 0 {
		h.MaxBodyBytes = 1 << 20
	}
}

// RateLimitConfig controls per-user fixed window limits on write endpoints.
type RateLimitConfig struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Limit   int           `env:"RATE_LIMIT_LIMIT"   envDefault:"30"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW"  envDefault:"1m"`
}

// Sanitize applies guardrails to rate limit values.
func (r *RateLimitConfig) Sanitize() {
	if r.Limit < 1 {
		r.Limit = 1
	}
	if r.Window < time.Second {
		r.Window = time.Second
	}
}
