package entities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/email"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// Errores de validación de invites; los controllers los mapean a respuestas.
var (
	ErrInviteNotFound = errors.New("invite code not found")
	ErrInviteUsed     = errors.New("invite code has already been used")
	ErrInviteExpired  = errors.New("invite code has expired")
	ErrInviteEmail    = errors.New("email does not match invite")
)

// InviteService maneja los códigos de invitación. Las filas van como
// (INVITE#code / METADATA); el clasificador del stream las descarta.
type InviteService struct {
	kv     core.KV
	mailer email.Sender
	cfg    EmailConfig
	log    *zap.Logger
}

func NewInviteService(kv core.KV, mailer email.Sender, cfg EmailConfig) *InviteService {
	if cfg.ExpiresDays <= 0 {
		cfg.ExpiresDays = 7
	}
	return &InviteService{
		kv:     kv,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.Named("entities.invites"),
	}
}

type CreateInviteInput struct {
	Email       string `json:"email"`
	ExpiresDays int    `json:"expires_days,omitempty"`
}

// Create persiste el invite y manda el mail. Si el mail falla el invite
// queda igual: el código sigue siendo válido y se puede compartir a mano.
func (s *InviteService) Create(ctx context.Context, createdBy string, in CreateInviteInput) (*domain.Invite, error) {
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, invalidf("a valid email is required")
	}
	days := in.ExpiresDays
	if days <= 0 {
		days = s.cfg.ExpiresDays
	}

	now := time.Now().UTC()
	inv := domain.Invite{
		InviteCode: uuid.New().String(),
		Email:      in.Email,
		Status:     "pending",
		CreatedBy:  createdBy,
		CreatedAt:  now.Format(time.RFC3339),
		ExpiresAt:  now.AddDate(0, 0, days).Format(time.RFC3339),
	}

	pk := domain.InviteKey(inv.InviteCode)
	a, err := attrs(&inv, pk, domain.MetadataSK)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: domain.MetadataSK, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put invite: %w", err)
	}

	if s.mailer != nil {
		if err := email.SendInvite(s.mailer, inv.Email, inv.InviteCode, s.cfg.FrontendURL, days); err != nil {
			s.log.Error("invite email falló", logger.Email(inv.Email), logger.Err(err))
		} else {
			s.log.Info("invite email enviado", logger.Email(inv.Email))
		}
	}
	return &inv, nil
}

func (s *InviteService) Get(ctx context.Context, code string) (*domain.Invite, error) {
	if code == "" {
		return nil, invalidf("invite code is required")
	}
	it, err := s.kv.Get(ctx, domain.InviteKey(code), domain.MetadataSK)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	var inv domain.Invite
	if err := decode(it.Attrs, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Validate verifica que el código exista, esté pendiente, corresponda al
// email y no haya expirado.
func (s *InviteService) Validate(ctx context.Context, code, emailAddr string) error {
	inv, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if inv.Status != "pending" {
		return ErrInviteUsed
	}
	if inv.Email != emailAddr {
		return ErrInviteEmail
	}
	expires, err := time.Parse(time.RFC3339, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("invalid expiry format: %w", err)
	}
	if expires.Before(time.Now()) {
		return ErrInviteExpired
	}
	return nil
}

// MarkUsed cierra el invite después del signup.
func (s *InviteService) MarkUsed(ctx context.Context, code string) error {
	if code == "" {
		return invalidf("invite code is required")
	}
	patch := map[string]any{
		"status":  "used",
		"used_at": nowRFC3339(),
	}
	_, err := s.kv.Update(ctx, domain.InviteKey(code), domain.MetadataSK, patch)
	if errors.Is(err, core.ErrNotFound) {
		return ErrInviteNotFound
	}
	return err
}
