// Package metrics holds the shared metric names and tag conventions.
package metrics

import (
	"time"

	obserrors "github.com/eventdesk/eventdesk-api/internal/observability/errors"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Job lifecycle transitions reported by the worker.
const (
	TransitionClaimed   = "claimed"
	TransitionCompleted = "completed"
	TransitionRetried   = "retried"
	TransitionFailed    = "failed"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits job.transition and, when a duration is known, job.duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// EmitEvaluationAccess counts access decisions. Empty stage and reason mean granted.
func EmitEvaluationAccess(sink statsd.Sink, op, stage, reason string) {
	if sink == nil {
		return
	}
	result := "granted"
	if reason != "" {
		result = "rejected"
	}
	tags := map[string]string{"op": op, "result": result}
	if stage != "" {
		tags["stage"] = stage
	}
	if reason != "" {
		tags["reason"] = reason
	}
	sink.Count("evaluation.access", 1, tags)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
