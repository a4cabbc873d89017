// Package relay accepts webhook events from elevated callers and forwards
// them asynchronously to allow-listed targets.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/motora-erp/motora-erp/jobs"
)

// Enqueuer submits relay jobs.
type Enqueuer interface {
	EnqueueWebhookRelay(ctx context.Context, payload jobs.WebhookRelayPayload) error
}

// ErrTargetNotAllowed marks a target host outside the allowlist.
var ErrTargetNotAllowed = errors.New("relay: target host not allowed")

// RelayRequest is the payload accepted by the relay endpoint.
type RelayRequest struct {
	TargetURL string          `json:"target_url" validate:"required,url"`
	Event     string          `json:"event" validate:"required"`
	Body      json.RawMessage `json:"body" validate:"required"`
}

// Service validates and enqueues relay requests.
type Service struct {
	enqueuer     Enqueuer
	allowedHosts map[string]struct{}
}

// NewService constructs a Service. allowedHosts entries are hostnames; an
// empty list rejects everything.
func NewService(enqueuer Enqueuer, allowedHosts []string) *Service {
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, host := range allowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		allowed[host] = struct{}{}
	}
	return &Service{enqueuer: enqueuer, allowedHosts: allowed}
}

// Relay enqueues the event for asynchronous delivery.
func (s *Service) Relay(ctx context.Context, req RelayRequest) error {
	target, err := url.Parse(req.TargetURL)
	if err != nil || target.Scheme != "https" || target.Hostname() == "" {
		return fmt.Errorf("%w: %q", ErrTargetNotAllowed, req.TargetURL)
	}
	if _, ok := s.allowedHosts[strings.ToLower(target.Hostname())]; !ok {
		return fmt.Errorf("%w: %q", ErrTargetNotAllowed, target.Hostname())
	}
	return s.enqueuer.EnqueueWebhookRelay(ctx, jobs.WebhookRelayPayload{
		TargetURL: req.TargetURL,
		Event:     req.Event,
		Body:      req.Body,
	})
}
