package testutil

import (
	"encoding/json"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a builder for a notification job owned by "user-1".
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:        model.JobTypeNotificationDispatch,
			Payload:     json.RawMessage(`{"user_id":"user-1","channel":"email","subject":"hi","body":"hello"}`),
			Priority:    model.DefaultJobPriority,
			MaxAttempts: model.DefaultJobMaxAttempts,
			CreatedBy:   "user-1",
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithPriority sets the job priority.
func (b *JobRequestBuilder) WithPriority(priority int) *JobRequestBuilder {
	b.req.Priority = priority
	return b
}

// WithPayloadString sets the job payload from a JSON string.
func (b *JobRequestBuilder) WithPayloadString(payload string) *JobRequestBuilder {
	b.req.Payload = json.RawMessage(payload)
	return b
}

// WithMaxAttempts sets the attempt limit.
func (b *JobRequestBuilder) WithMaxAttempts(n int) *JobRequestBuilder {
	b.req.MaxAttempts = n
	return b
}

// WithOwner sets created_by.
func (b *JobRequestBuilder) WithOwner(owner string) *JobRequestBuilder {
	b.req.CreatedBy = owner
	return b
}

// Build returns a copy of the request.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	req := *b.req
	return &req
}
