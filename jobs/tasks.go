package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeWebhookRelay is the task type for relaying webhook events.
	TaskTypeWebhookRelay = "webhook:relay"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// WebhookRelayPayload describes a webhook event to forward. The body is
// opaque to the relay.
type WebhookRelayPayload struct {
	TargetURL string          `json:"target_url"`
	Event     string          `json:"event"`
	Body      json.RawMessage `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewWebhookRelayTask constructs an Asynq task.
func NewWebhookRelayTask(payload WebhookRelayPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWebhookRelay, data), nil
}

// EmailConfig carries SMTP settings for the send-email handler.
type EmailConfig struct {
	Host string
	Port int
	From string
}

// NewSendEmailHandler returns the handler processing TaskTypeSendEmail tasks.
func NewSendEmailHandler(cfg EmailConfig, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", cfg.From, payload.To, payload.Subject, payload.Body)
		if err := smtp.SendMail(addr, nil, cfg.From, []string{payload.To}, []byte(msg)); err != nil {
			logger.Warn("send email", slog.Any("error", err), slog.String("to", payload.To))
			return err
		}
		logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
}

// NewWebhookRelayHandler returns the handler processing TaskTypeWebhookRelay
// tasks. The relay POSTs the stored body verbatim to the target.
func NewWebhookRelayHandler(client *http.Client, logger *slog.Logger) asynq.HandlerFunc {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WebhookRelayPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.TargetURL, bytes.NewReader(payload.Body))
		if err != nil {
			return asynq.SkipRetry
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Motora-Event", payload.Event)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("jobs: relay target returned status %d", resp.StatusCode)
		}
		logger.Info("webhook relayed", slog.String("event", payload.Event), slog.String("target", payload.TargetURL))
		return nil
	}
}
