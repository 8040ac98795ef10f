package entities

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// Roles válidos de un usuario.
var userRoles = map[string]bool{
	"admin":     true,
	"annotator": true,
	"builder":   true,
}

// UserService maneja los perfiles. El user_id viene del proveedor de
// identidad, no se genera acá: el perfil se crea después del signup.
type UserService struct {
	kv  core.KV
	log *zap.Logger
}

func NewUserService(kv core.KV) *UserService {
	return &UserService{kv: kv, log: logger.Named("entities.users")}
}

type CreateUserInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company,omitempty"`
	Role    string  `json:"role"`
}

type UpdateUserInput struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Role    *string `json:"role,omitempty"`
}

func (s *UserService) Create(ctx context.Context, userID string, in CreateUserInput) (*domain.User, error) {
	if userID == "" {
		return nil, invalidf("user_id is required")
	}
	if in.Name == "" {
		return nil, invalidf("name is required")
	}
	if in.Email == "" {
		return nil, invalidf("email is required")
	}
	if !userRoles[in.Role] {
		return nil, invalidf("invalid role %q", in.Role)
	}

	u := domain.User{
		UserID:    userID,
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Role:      in.Role,
		CreatedAt: nowRFC3339(),
	}

	pk := domain.UserKey(userID)
	a, err := attrs(&u, pk, pk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: pk, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put user: %w", err)
	}
	return &u, nil
}

// Get retorna el perfil y marca last_login de paso. La marca es
// best-effort: si falla, el get igual responde.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, invalidf("user_id is required")
	}
	pk := domain.UserKey(userID)
	it, err := s.kv.Get(ctx, pk, pk)
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := decode(it.Attrs, &u); err != nil {
		return nil, err
	}

	now := nowRFC3339()
	if _, err := s.kv.Update(ctx, pk, pk, map[string]any{"last_login": now}); err != nil {
		s.log.Debug("last_login update falló", logger.UserID(userID), logger.Err(err))
	} else {
		u.LastLogin = &now
	}
	return &u, nil
}

func (s *UserService) Update(ctx context.Context, userID string, in UpdateUserInput) (*domain.User, error) {
	if userID == "" {
		return nil, invalidf("user_id is required")
	}
	patch := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalidf("name cannot be empty")
		}
		patch["name"] = *in.Name
	}
	if in.Company != nil {
		patch["company"] = *in.Company
	}
	if in.Role != nil {
		if !userRoles[*in.Role] {
			return nil, invalidf("invalid role %q", *in.Role)
		}
		patch["role"] = *in.Role
	}
	if len(patch) == 0 {
		return s.Get(ctx, userID)
	}

	pk := domain.UserKey(userID)
	it, err := s.kv.Update(ctx, pk, pk, patch)
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := decode(it.Attrs, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
