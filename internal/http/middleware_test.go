package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

func TestRequireIdentity_Bearer(t *testing.T) {
	d := newTestDeps(t)
	d.verifier.tokens["good-token"] = "user-7"
	d.jobs.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
			assert.Equal(t, "user-7", opts.CreatedBy)
			return nil, nil
		})

	rec := do(t, d.router(), request{
		method: http.MethodGet,
		path:   "/api/jobs",
		header: map[string]string{"Authorization": "Bearer good-token"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireIdentity_BadBearerIsRejected(t *testing.T) {
	d := newTestDeps(t)
	rec := do(t, d.router(), request{
		method: http.MethodGet,
		path:   "/api/jobs",
		user:   "user-1", // a bad token is not rescued by the dev header
		header: map[string]string{"Authorization": "Bearer forged"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentity_DevHeaderDisabled(t *testing.T) {
	var called bool
	h := RequireIdentity(IdentityConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentity_SetsContext(t *testing.T) {
	var got domainauth.Identity
	h := RequireIdentity(IdentityConfig{DevHeader: "X-Dev-User"})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = GetIdentityFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Dev-User", " dev-attendee ")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "dev-attendee", got.UserID)
	assert.Equal(t, domainauth.SourceDev, got.Source)
}

func TestRecover(t *testing.T) {
	h := Recover(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMaxBody(t *testing.T) {
	d := newTestDeps(t)
	h := MaxBody(16)(d.router())
	rec := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/jobs",
		user:   "user-1",
		body:   `{"job_type":"notification_dispatch","payload":{"user_id":"someone"}}`,
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	d := newTestDeps(t)
	d.checks = map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	h := d.router()

	rec := do(t, h, request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, request{method: http.MethodGet, path: "/readyz"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "connection refused"}, body["checks"])
}
