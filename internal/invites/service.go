package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/motora-erp/motora-erp/internal/platform/idp"
	"github.com/motora-erp/motora-erp/internal/profiles"
	"github.com/motora-erp/motora-erp/internal/shared"
	"github.com/motora-erp/motora-erp/jobs"
)

// Directory is the identity-provider surface the invitation flow needs.
type Directory interface {
	Invite(ctx context.Context, email string, metadata map[string]string) (*idp.Account, error)
	FindByEmail(ctx context.Context, email string) (*idp.Account, error)
}

// ProfileStore persists the administered mirror of invited accounts.
type ProfileStore interface {
	Upsert(ctx context.Context, p profiles.Profile) error
}

// IdempotencyStore guards against duplicate invitations.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Auditor records invitation events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Enqueuer submits the welcome email job.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error
}

// ErrAlreadyInvited marks a repeat invitation for the same address.
var ErrAlreadyInvited = errors.New("invites: invitation already sent")

const idempotencyModule = "invites"

// Service runs the invitation pipeline.
type Service struct {
	logger      *slog.Logger
	directory   Directory
	profiles    ProfileStore
	idempotency IdempotencyStore
	audit       Auditor
	enqueuer    Enqueuer
}

// NewService constructs a Service. audit and enqueuer may be nil; those steps
// are then skipped.
func NewService(logger *slog.Logger, directory Directory, profileStore ProfileStore, idem IdempotencyStore, audit Auditor, enqueuer Enqueuer) *Service {
	return &Service{
		logger:      logger,
		directory:   directory,
		profiles:    profileStore,
		idempotency: idem,
		audit:       audit,
		enqueuer:    enqueuer,
	}
}

// Invite sends an invitation and mirrors the administered fields into
// user_profiles. Already-registered addresses are linked instead of failing:
// the profile upsert still runs so the role and department take effect.
func (s *Service) Invite(ctx context.Context, actorID string, req InviteRequest) (*InvitedUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	key := "invite:" + email

	if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, ErrAlreadyInvited
		}
		return nil, fmt.Errorf("invites: reserve key: %w", err)
	}

	account, err := s.directory.Invite(ctx, email, map[string]string{
		"role":       req.Role,
		"department": req.Department,
	})
	if err != nil {
		if errors.Is(err, idp.ErrAlreadyRegistered) {
			account, err = s.directory.FindByEmail(ctx, email)
			if err != nil {
				s.rollback(ctx, key)
				return nil, fmt.Errorf("invites: link existing account: %w", err)
			}
		} else {
			s.rollback(ctx, key)
			return nil, fmt.Errorf("invites: provider invite: %w", err)
		}
	}

	profile := profiles.Profile{
		UserID:     account.ID,
		Email:      email,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.rollback(ctx, key)
		return nil, fmt.Errorf("invites: persist profile: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "invite",
			Entity:   "user",
			EntityID: account.ID,
			Meta: map[string]any{
				"email":      email,
				"role":       req.Role,
				"department": req.Department,
			},
		}); err != nil {
			s.logger.Warn("audit invite", slog.Any("error", err))
		}
	}

	if s.enqueuer != nil {
		payload := jobs.SendEmailPayload{
			To:      email,
			Subject: "Invitación a Motora ERP",
			Body:    fmt.Sprintf("Hola %s, has sido invitado al departamento %s.", req.Name, req.Department),
		}
		if err := s.enqueuer.EnqueueSendEmail(ctx, payload); err != nil {
			s.logger.Warn("enqueue invite email", slog.Any("error", err))
		}
	}

	return &InvitedUser{
		ID:         account.ID,
		Email:      email,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
	}, nil
}

func (s *Service) rollback(ctx context.Context, key string) {
	if err := s.idempotency.Delete(ctx, key); err != nil {
		s.logger.Warn("release invite key", slog.String("key", key), slog.Any("error", err))
	}
}
