package httpx

import (
	"log/slog"
	"net/http"

	"github.com/eventdesk/eventdesk-api/internal/ports"
	"github.com/eventdesk/eventdesk-api/internal/service/ratelimit"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs        JobService
	Evaluations EvaluationService

	// Identity
	Verifier  ports.TokenVerifier // Optional: bearer ID token verification
	DevHeader string              // Optional: trusted user header, dev mode only

	// Optional: throttles enqueue and submit. Nil disables rate limiting.
	Limiter ratelimit.Limiter

	// Optional: dependency probes for /readyz
	Checks map[string]HealthCheck

	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authed := RequireIdentity(IdentityConfig{
		Verifier:  services.Verifier,
		DevHeader: services.DevHeader,
		Logger:    logger,
	})
	limited := func(scope string) func(http.Handler) http.Handler {
		return RateLimit(services.Limiter, scope, logger)
	}

	registerJobRoutes(mux, &JobHandlers{Svc: services.Jobs}, routeMiddleware{auth: authed, limit: limited("jobs")})
	registerEvaluationRoutes(
		mux,
		&EvaluationHandlers{Svc: services.Evaluations},
		routeMiddleware{auth: authed, limit: limited("responses")},
	)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Checks))

	var handler http.Handler = mux
	handler = MaxBody(services.MaxBodyBytes)(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

type routeMiddleware struct {
	auth  func(http.Handler) http.Handler
	limit func(http.Handler) http.Handler
}

func (m routeMiddleware) authed(h http.HandlerFunc) http.Handler {
	return m.auth(h)
}

// limited authenticates first so the limiter keys on the user.
func (m routeMiddleware) limited(h http.HandlerFunc) http.Handler {
	return m.auth(m.limit(h))
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, m routeMiddleware) {
	mux.Handle("POST /api/jobs", m.limited(h.CreateJob))
	mux.Handle("GET /api/jobs", m.authed(h.ListJobs))
	mux.Handle("GET /api/jobs/{id}", m.authed(h.GetJob))
}

func registerEvaluationRoutes(mux *http.ServeMux, h *EvaluationHandlers, m routeMiddleware) {
	mux.Handle("GET /api/events/{eventID}/evaluation", m.authed(h.GetCurrent))
	mux.Handle("GET /api/events/{eventID}/evaluations/{id}", m.authed(h.Get))
	mux.Handle("POST /api/events/{eventID}/evaluations/{id}/responses", m.limited(h.Submit))
	mux.Handle("POST /api/events/{eventID}/evaluations", m.authed(h.Create))
	mux.Handle("POST /api/evaluations/{id}/open", m.authed(h.Open))
	mux.Handle("POST /api/evaluations/{id}/close", m.authed(h.Close))
	mux.Handle("POST /api/evaluations/{id}/toggle", m.authed(h.Toggle))
	mux.Handle("PUT /api/evaluations/{id}/schedule", m.authed(h.SetSchedule))
}
