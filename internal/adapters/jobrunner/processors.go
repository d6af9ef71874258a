package jobrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

const maxResponseBodyBytes = 4 * 1024 // 4KB cap on webhook responses

// CertificateProcessor issues an attendance certificate for a checked-in user.
type CertificateProcessor struct {
	Events       core.EventRepository
	Certificates core.CertificateRepository
}

type certificatePayload struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

type certificateResult struct {
	CertificateID    string    `json:"certificate_id"`
	VerificationCode string    `json:"verification_code"`
	IssuedAt         time.Time `json:"issued_at"`
}

// Type implements Processor.
func (p *CertificateProcessor) Type() model.JobType { return model.JobTypeCertificateGeneration }

// Run implements Processor. Issuing is idempotent per (event, user), so a
// retried attempt returns the certificate created earlier.
func (p *CertificateProcessor) Run(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var in certificatePayload
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if in.EventID == "" || in.UserID == "" {
		return nil, errors.New("event_id and user_id are required")
	}

	reg, err := p.Events.GetRegistration(ctx, in.EventID, in.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("user %s is not registered for event %s", in.UserID, in.EventID)
		}
		return nil, fmt.Errorf("load registration: %w", err)
	}
	if !reg.CheckedIn() {
		return nil, fmt.Errorf("user %s did not check in to event %s", in.UserID, in.EventID)
	}

	cert, err := p.Certificates.Issue(ctx, in.EventID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: %w", err)
	}
	return json.Marshal(certificateResult{
		CertificateID:    cert.ID,
		VerificationCode: cert.VerificationCode,
		IssuedAt:         cert.IssuedAt,
	})
}

// NotificationProcessor records a notification and optionally delivers it to a webhook.
type NotificationProcessor struct {
	Notifications core.NotificationRepository
	WebhookURL    string       // empty disables delivery
	HTTPClient    *http.Client // defaults to a client with a 10s timeout
	Now           func() time.Time
}

type notificationPayload struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type notificationResult struct {
	NotificationID string `json:"notification_id"`
	Delivered      bool   `json:"delivered"`
}

// Type implements Processor.
func (p *NotificationProcessor) Type() model.JobType { return model.JobTypeNotificationDispatch }

// Run implements Processor.
func (p *NotificationProcessor) Run(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var in notificationPayload
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, errors.New("user_id is required")
	}
	if in.Channel == "" {
		in.Channel = "in_app"
	}

	// Keyed by job id so retried attempts reuse the same row.
	rec := &model.Notification{
		UserID:  in.UserID,
		Channel: in.Channel,
		Subject: in.Subject,
		Body:    in.Body,
	}
	if jobID, ok := JobIDFromContext(ctx); ok {
		rec.JobID = &jobID
	}
	n, err := p.Notifications.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("record notification: %w", err)
	}

	out := notificationResult{NotificationID: n.ID}
	if n.DeliveredAt != nil {
		out.Delivered = true
		return json.Marshal(out)
	}
	if p.WebhookURL == "" {
		return json.Marshal(out)
	}

	if err := p.deliver(ctx, n); err != nil {
		return nil, err
	}
	if err := p.Notifications.MarkDelivered(ctx, n.ID, p.now()); err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	out.Delivered = true
	return json.Marshal(out)
}

func (p *NotificationProcessor) deliver(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	respBody, readErr := readResponseBody(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (p *NotificationProcessor) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (p *NotificationProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// readResponseBody reads at most maxResponseBodyBytes and drains the rest.
func readResponseBody(body io.Reader) (string, error) {
	if body == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBodyBytes+1))
	if len(data) > maxResponseBodyBytes {
		data = data[:maxResponseBodyBytes]
		if _, drainErr := io.Copy(io.Discard, body); drainErr != nil && err == nil {
			err = drainErr
		}
	}
	return string(data), err
}
