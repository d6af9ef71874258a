package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
	"github.com/eventdesk/eventdesk-api/internal/mocks"
	"github.com/eventdesk/eventdesk-api/internal/service"
	"github.com/eventdesk/eventdesk-api/internal/service/ratelimit"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	jobs        *mocks.MockJobRepository
	events      *mocks.MockEventRepository
	evaluations *mocks.MockEvaluationRepository
	limiter     ratelimit.Limiter
	verifier    *stubVerifier
	checks      map[string]HealthCheck
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &testDeps{
		jobs:        mocks.NewMockJobRepository(ctrl),
		events:      mocks.NewMockEventRepository(ctrl),
		evaluations: mocks.NewMockEvaluationRepository(ctrl),
		verifier:    &stubVerifier{tokens: map[string]string{}},
	}
}

func (d *testDeps) router() http.Handler {
	logger := slog.New(slog.DiscardHandler)
	return NewRouter(RouterServices{
		Jobs: service.MustNewJobService(service.JobServiceOptions{Repo: d.jobs}),
		Evaluations: service.MustNewEvaluationService(service.EvaluationServiceOptions{
			Repos:  service.EvaluationRepositories{Events: d.events, Evaluations: d.evaluations},
			Config: service.EvaluationServiceConfig{Clock: func() time.Time { return testNow }},
		}),
		Verifier:     d.verifier,
		DevHeader:    "X-User-ID",
		Limiter:      d.limiter,
		Checks:       d.checks,
		MaxBodyBytes: 1 << 20,
		Logger:       logger,
	})
}

type stubVerifier struct {
	tokens map[string]string // token -> user id
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (domainauth.Identity, error) {
	if user, ok := s.tokens[raw]; ok {
		return domainauth.Identity{UserID: user, Source: domainauth.SourceBearer}, nil
	}
	return domainauth.Identity{}, domainauth.ErrUnauthenticated
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

type request struct {
	method string
	path   string
	body   string
	user   string
	header map[string]string
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.user != "" {
		r.Header.Set("X-User-ID", req.user)
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
