package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

type stubMaintenance struct {
	batches []core.ResetStaleResult
	maxAges []time.Duration
}

func (s *stubMaintenance) ResetStaleProcessing(_ context.Context, maxAge time.Duration, _ int) (core.ResetStaleResult, error) {
	s.maxAges = append(s.maxAges, maxAge)
	if len(s.batches) == 0 {
		return core.ResetStaleResult{}, nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

func (s *stubMaintenance) DeleteOldJobs(context.Context, core.DeleteOldJobsParams) (int64, error) {
	return 0, nil
}

func TestParseJobsListFlags(t *testing.T) {
	opts, err := parseJobsListFlags([]string{"--status", "FAILED", "--limit", "5", "--owner", "user-1"})
	require.NoError(t, err)
	require.NotNil(t, opts.Status)
	assert.Equal(t, model.JobStatusFailed, *opts.Status)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, "user-1", opts.Owner)

	opts, err = parseJobsListFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Status)
	assert.Equal(t, 50, opts.Limit)

	_, err = parseJobsListFlags([]string{"--status", "stuck"})
	require.Error(t, err)

	_, err = parseJobsListFlags([]string{"--limit", "0"})
	require.Error(t, err)
}

func TestParseResetStaleFlags(t *testing.T) {
	opts, err := parseResetStaleFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, opts.MaxAge)
	assert.False(t, opts.Yes)

	opts, err = parseResetStaleFlags([]string{"--max-age", "45m", "--yes"})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, opts.MaxAge)
	assert.True(t, opts.Yes)

	_, err = parseResetStaleFlags([]string{"--max-age", "30s"})
	require.Error(t, err)
}

func TestResetStale(t *testing.T) {
	var out bytes.Buffer
	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.DiscardHandler),
		Config: config.AppConfig{Reaper: config.ReaperConfig{Interval: time.Minute, BatchSize: 2}},
		Out:    &out,
	}
	repo := &stubMaintenance{batches: []core.ResetStaleResult{
		{Requeued: 1, Failed: 1},
		{Requeued: 1},
	}}

	require.NoError(t, resetStale(context.Background(), cmdCtx, repo, 15*time.Minute))

	assert.Equal(t, []time.Duration{15 * time.Minute, 15 * time.Minute}, repo.maxAges)
	assert.Equal(t, "Requeued: 2\nFailed (attempts exhausted): 1\n", out.String())
}

func TestPrintJobStats(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJobStats(&out, &model.JobStats{Pending: 3, Processing: 1, Completed: 10, Failed: 2}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"pending", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"failed", "2"}, strings.Fields(lines[4]))
}

func TestPrintJobList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJobList(&out, nil))
	assert.Equal(t, "(no jobs found)\n", out.String())

	out.Reset()
	msg := "webhook: unexpected status 502:\n" + strings.Repeat("x", 100)
	require.NoError(t, printJobList(&out, []*model.Job{{
		ID:          "job-1",
		Type:        model.JobTypeNotificationDispatch,
		Status:      model.JobStatusFailed,
		Attempts:    3,
		MaxAttempts: 3,
		CreatedBy:   "user-1",
		CreatedAt:   time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		Error:       &msg,
	}}))
	s := out.String()
	assert.Contains(t, s, "job-1")
	assert.Contains(t, s, "3/3")
	assert.Contains(t, s, "2026-05-10T12:00:00Z")
	assert.Contains(t, s, "...")
	assert.NotContains(t, s, strings.Repeat("x", 100))
}

func TestIsLikelyRemoteHost(t *testing.T) {
	for host, want := range map[string]bool{
		"":                 false,
		"localhost":        false,
		"127.0.0.1":        false,
		"::1":              false,
		"db.local":         false,
		"10.0.0.5":         true,
		"db.prod.internal": true,
	} {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestRequireConfirmation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, requireConfirmation(strings.NewReader("reset\n"), &out, "reset jobs", "reset"))
	assert.Contains(t, out.String(), "WARNING")

	out.Reset()
	require.Error(t, requireConfirmation(strings.NewReader("\n"), &out, "reset jobs", "reset"))
	require.Error(t, requireConfirmation(strings.NewReader(""), &out, "reset jobs", "reset"))
}

func TestPrintUsageListsCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUsage(&out))
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}

func TestPrintPendingMigrations(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPendingMigrations(&out, nil))
	assert.Equal(t, "Database schema is up to date.\n", out.String())

	out.Reset()
	require.NoError(t, printPendingMigrations(&out, []string{"0003", "0004"}))
	assert.Equal(t, "Pending migrations (2):\n  0003\n  0004\n", out.String())
}
