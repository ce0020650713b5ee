package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Message is a rendered notification.
type Message struct {
	Event     string    `json:"event"`
	RequestID string    `json:"requestId"`
	TMDBID    int64     `json:"tmdbId"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

// Sender delivers a message to one endpoint.
type Sender interface {
	Send(ctx context.Context, e Endpoint, m Message) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{log: logger.With("component", "notify")}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, e Endpoint, m Message) error {
	s.log.Info("notification", "user_id", e.UserID, "kind", e.Kind, "event", m.Event,
		"request_id", m.RequestID, "subject", m.Subject)
	return nil
}

// WebhookSender POSTs messages as JSON to webhook endpoints and hands every
// other kind to Fallback.
type WebhookSender struct {
	client   *http.Client
	Fallback Sender
}

// NewWebhookSender creates a WebhookSender with the given request timeout.
func NewWebhookSender(timeout time.Duration, fallback Sender) *WebhookSender {
	return &WebhookSender{client: &http.Client{Timeout: timeout}, Fallback: fallback}
}

// Send delivers m.
func (s *WebhookSender) Send(ctx context.Context, e Endpoint, m Message) error {
	if e.Kind != KindWebhook {
		if s.Fallback == nil {
			return nil
		}
		return s.Fallback.Send(ctx, e, m)
	}

	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
