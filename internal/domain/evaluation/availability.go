// Package evaluation decides whether an evaluation may be shown to or answered by an attendee.
//
// Everything here is pure: callers fetch the rows, pass in the clock, and get
// back a value describing the outcome.
package evaluation

import (
	"fmt"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// Reason identifies why access was refused.
type Reason string

const (
	ReasonInactive          Reason = "inactive"
	ReasonClosedByOrganizer Reason = "closed-by-organizer"
	ReasonScheduledToOpen   Reason = "scheduled-to-open"
	ReasonAlreadyClosed     Reason = "already-closed"
)

// StatusOpen is reported for evaluations that pass the gate.
const StatusOpen = "open"

// Availability is the outcome of the gate for one evaluation at one instant.
type Availability struct {
	Available bool
	Reason    Reason
	Message   string
}

// Status returns the reason, or StatusOpen when the evaluation is available.
func (a Availability) Status() string {
	if a.Available {
		return StatusOpen
	}
	return string(a.Reason)
}

// Check evaluates is_active, is_open and the optional opens_at/closes_at window.
// Both window bounds are inclusive.
func Check(e *model.Evaluation, now time.Time) Availability {
	switch {
	case e == nil || !e.IsActive:
		return Availability{Reason: ReasonInactive, Message: "This evaluation is no longer active."}
	case !e.IsOpen:
		return Availability{Reason: ReasonClosedByOrganizer, Message: "This evaluation has been closed by the organizer."}
	case e.OpensAt != nil && now.Before(*e.OpensAt):
		return Availability{
			Reason:  ReasonScheduledToOpen,
			Message: fmt.Sprintf("This evaluation opens at %s.", e.OpensAt.UTC().Format(time.RFC3339)),
		}
	case e.ClosesAt != nil && now.After(*e.ClosesAt):
		return Availability{
			Reason:  ReasonAlreadyClosed,
			Message: fmt.Sprintf("This evaluation closed at %s.", e.ClosesAt.UTC().Format(time.RFC3339)),
		}
	}
	return Availability{Available: true}
}

// IsAvailable reports whether the evaluation is visible and submittable at now.
func IsAvailable(e *model.Evaluation, now time.Time) bool {
	return Check(e, now).Available
}
