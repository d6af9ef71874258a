package httpx

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
	"github.com/eventdesk/eventdesk-api/internal/ports"
	"github.com/eventdesk/eventdesk-api/internal/service/ratelimit"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps request bodies at n bytes.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityConfig configures how callers are identified.
type IdentityConfig struct {
	// Verifier checks bearer tokens. Nil disables bearer authentication.
	Verifier ports.TokenVerifier
	// DevHeader, when non-empty, is trusted as the caller's user id. Dev mode only.
	DevHeader string
	Logger    *slog.Logger
}

// RequireIdentity returns a middleware that resolves the caller and rejects
// anonymous requests with 401.
func RequireIdentity(cfg IdentityConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolveIdentity(r, cfg)
			if err != nil {
				if !errors.Is(err, domainauth.ErrUnauthenticated) {
					logger.DebugContext(r.Context(), "bearer token rejected", "error", err)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="eventdesk"`)
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), id)))
		})
	}
}

func resolveIdentity(r *http.Request, cfg IdentityConfig) (domainauth.Identity, error) {
	if token, ok := bearerToken(r); ok && cfg.Verifier != nil {
		return cfg.Verifier.Verify(r.Context(), token)
	}
	if cfg.DevHeader != "" {
		if user := strings.TrimSpace(r.Header.Get(cfg.DevHeader)); user != "" {
			return domainauth.Identity{UserID: user, Source: domainauth.SourceDev}, nil
		}
	}
	return domainauth.Identity{}, domainauth.ErrUnauthenticated
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RateLimit throttles each caller by scope. Limiter errors fail open.
func RateLimit(limiter ratelimit.Limiter, scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + rateLimitSubject(r)
			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				WriteError(w, ErrorParams{
					Code:    http.StatusTooManyRequests,
					ErrCode: "rate_limited",
					Err:     errors.New("too many requests, please retry later"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitSubject prefers the authenticated user and falls back to the client address.
func rateLimitSubject(r *http.Request) string {
	if id, ok := GetIdentityFromContext(r.Context()); ok {
		return "user:" + id.UserID
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}
