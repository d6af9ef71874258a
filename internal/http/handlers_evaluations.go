package httpx

import (
	"context"
	"net/http"

	"github.com/eventdesk/eventdesk-api/internal/domain/evaluation"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// EvaluationService is the subset of service.EvaluationService the handlers use.
type EvaluationService interface {
	GetCurrent(ctx context.Context, eventID, userID string) (*model.EvaluationView, *evaluation.Rejection, error)
	Get(ctx context.Context, eventID, evaluationID, userID string) (*model.EvaluationView, *evaluation.Rejection, error)
	Submit(
		ctx context.Context,
		eventID, evaluationID, userID string,
		req *model.SubmitResponseRequest,
	) (*model.EvaluationResponse, *evaluation.Rejection, error)
	Create(ctx context.Context, organizerID string, req *model.CreateEvaluationRequest) (*model.Evaluation, error)
	Open(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error)
	Close(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error)
	ToggleActive(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error)
	SetSchedule(
		ctx context.Context,
		organizerID, evaluationID string,
		req model.ScheduleRequest,
	) (*model.Evaluation, error)
}

// EvaluationHandlers serves evaluations to attendees and organizers.
type EvaluationHandlers struct {
	Svc EvaluationService
}

// GetCurrent returns the event's current evaluation if the caller may see it.
func (h *EvaluationHandlers) GetCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	view, rej, err := h.Svc.GetCurrent(r.Context(), r.PathValue("eventID"), id.UserID)
	writeView(w, r, view, rej, err)
}

// Get returns a specific evaluation of the event if the caller may see it.
func (h *EvaluationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	view, rej, err := h.Svc.Get(r.Context(), r.PathValue("eventID"), r.PathValue("id"), id.UserID)
	writeView(w, r, view, rej, err)
}

func writeView(
	w http.ResponseWriter,
	r *http.Request,
	view *model.EvaluationView,
	rej *evaluation.Rejection,
	err error,
) {
	switch {
	case err != nil:
		WriteServiceError(w, r, err)
	case rej != nil:
		WriteRejection(w, rej)
	default:
		WriteJSON(w, http.StatusOK, view)
	}
}

// Submit stores the caller's answers.
func (h *EvaluationHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.SubmitResponseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, rej, err := h.Svc.Submit(r.Context(), r.PathValue("eventID"), r.PathValue("id"), id.UserID, &req)
	switch {
	case err != nil:
		WriteServiceError(w, r, err)
	case rej != nil:
		WriteRejection(w, rej)
	default:
		WriteJSON(w, http.StatusCreated, resp)
	}
}

// Create adds an evaluation to the event. Organizer only.
func (h *EvaluationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.CreateEvaluationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.EventID = r.PathValue("eventID")

	created, err := h.Svc.Create(r.Context(), id.UserID, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// Open sets the manual open flag.
func (h *EvaluationHandlers) Open(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, h.Svc.Open)
}

// Close clears the manual open flag.
func (h *EvaluationHandlers) Close(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, h.Svc.Close)
}

// Toggle flips is_active.
func (h *EvaluationHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, h.Svc.ToggleActive)
}

// SetSchedule replaces the availability window.
func (h *EvaluationHandlers) SetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.ScheduleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	updated, err := h.Svc.SetSchedule(r.Context(), id.UserID, r.PathValue("id"), req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

type adminOp func(ctx context.Context, organizerID, evaluationID string) (*model.Evaluation, error)

func (h *EvaluationHandlers) admin(w http.ResponseWriter, r *http.Request, op adminOp) {
	id, ok := requireCaller(w, r)
	if !ok {
		return
	}
	updated, err := op(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}
