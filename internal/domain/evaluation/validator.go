package evaluation

import (
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// Stage names the access check that refused a request.
type Stage string

const (
	StageEvent        Stage = "event"
	StageRegistration Stage = "registration"
	StageEvaluation   Stage = "evaluation"
	StageAvailability Stage = "availability"
)

const (
	ReasonEventNotFound      Reason = "event-not-found"
	ReasonEventNotPublished  Reason = "event-not-published"
	ReasonEventEnded         Reason = "event-ended"
	ReasonNotRegistered      Reason = "not-registered"
	ReasonNotCheckedIn       Reason = "not-checked-in"
	ReasonEvaluationNotFound Reason = "evaluation-not-found"
	ReasonEvaluationMismatch Reason = "evaluation-event-mismatch"
)

// Rejection is a user-facing refusal tagged with the stage that produced it.
type Rejection struct {
	Stage   Stage  `json:"stage"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (r *Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.Stage, r.Reason)
}

// AccessSnapshot holds the rows fetched for one access decision.
// Nil pointers mean the row does not exist.
type AccessSnapshot struct {
	EventID      string
	Event        *model.Event
	Registration *model.Registration
	Evaluation   *model.Evaluation
	Now          time.Time
}

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	// RequireCheckIn demands a check-in rather than just a registration.
	RequireCheckIn bool
}

// Validator runs the staged access pipeline. It is safe for concurrent use.
type Validator struct {
	requireCheckIn bool
}

// NewValidator creates a Validator.
func NewValidator(opts ValidatorOptions) *Validator {
	return &Validator{requireCheckIn: opts.RequireCheckIn}
}

// Validate returns nil when every stage passes, otherwise the first rejection.
// Later stages are not consulted once one fails.
func (v *Validator) Validate(s AccessSnapshot) *Rejection {
	if r := checkEvent(s); r != nil {
		return r
	}
	if r := v.checkRegistration(s); r != nil {
		return r
	}
	if r := checkEvaluation(s); r != nil {
		return r
	}
	if a := Check(s.Evaluation, s.Now); !a.Available {
		return &Rejection{Stage: StageAvailability, Reason: a.Reason, Message: a.Message}
	}
	return nil
}

func checkEvent(s AccessSnapshot) *Rejection {
	ev := s.Event
	switch {
	case ev == nil:
		return &Rejection{Stage: StageEvent, Reason: ReasonEventNotFound, Message: "Event not found."}
	case ev.Status != model.EventStatusPublished:
		return &Rejection{Stage: StageEvent, Reason: ReasonEventNotPublished, Message: "Event is not published."}
	case !s.Now.Before(ev.EndsAt):
		return &Rejection{Stage: StageEvent, Reason: ReasonEventEnded, Message: "Event has already ended."}
	}
	return nil
}

func (v *Validator) checkRegistration(s AccessSnapshot) *Rejection {
	if !s.Registration.Active() {
		return &Rejection{
			Stage:   StageRegistration,
			Reason:  ReasonNotRegistered,
			Message: "You are not registered for this event.",
		}
	}
	if v.requireCheckIn && !s.Registration.CheckedIn() {
		return &Rejection{
			Stage:   StageRegistration,
			Reason:  ReasonNotCheckedIn,
			Message: "You must check in to this event before answering its evaluation.",
		}
	}
	return nil
}

func checkEvaluation(s AccessSnapshot) *Rejection {
	ev := s.Evaluation
	if ev == nil {
		return &Rejection{Stage: StageEvaluation, Reason: ReasonEvaluationNotFound, Message: "Evaluation not found."}
	}
	if ev.EventID != s.EventID {
		return &Rejection{
			Stage:   StageEvaluation,
			Reason:  ReasonEvaluationMismatch,
			Message: "Evaluation does not belong to this event.",
		}
	}
	return nil
}
