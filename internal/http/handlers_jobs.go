// Package httpx provides the HTTP API for the eventdesk job queue and evaluations.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

const (
	defaultJobListLimit = 20
	maxJobListLimit     = 100
)

// JobService is the subset of service.JobService the handlers use.
type JobService interface {
	Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetForOwner(ctx context.Context, id, owner string) (*model.Job, error)
	ListForOwner(ctx context.Context, owner string, opts model.JobListOptions) ([]*model.Job, error)
}

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc JobService
}

type createJobBody struct {
	Type        model.JobType   `json:"job_type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
}

// CreateJob enqueues a job owned by the caller.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var body createJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.Enqueue(r.Context(), &model.CreateJobRequest{
		Type:        body.Type,
		Payload:     body.Payload,
		Priority:    body.Priority,
		MaxAttempts: body.MaxAttempts,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, job)
}

// ListJobs lists the caller's jobs.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}

	limit, offset := jobPage(r)
	opts := model.JobListOptions{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		var status model.JobStatus
		if err := status.UnmarshalText([]byte(raw)); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_status", Err: err})
			return
		}
		opts.Status = &status
	}

	jobs, err := h.Svc.ListForOwner(r.Context(), id.UserID, opts)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "limit": limit, "offset": offset})
}

// GetJob returns the polling view of one of the caller's jobs.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	job, err := h.Svc.GetForOwner(r.Context(), jobID, id.UserID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, job.StatusView())
}

// jobPage reads limit and offset for job listings. Bad values fall back to
// the defaults; limit is clamped to [1, maxJobListLimit].
func jobPage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = defaultJobListLimit
	}
	if offset, err = strconv.Atoi(q.Get("offset")); err != nil {
		offset = 0
	}
	return lo.Clamp(limit, 1, maxJobListLimit), max(offset, 0)
}
