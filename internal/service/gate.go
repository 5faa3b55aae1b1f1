package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/security"
)

// Level is the privilege tier a route requires. Each tier includes the
// checks of the tiers below it.
type Level int

const (
	LevelAuthenticated Level = iota
	LevelActive
	LevelAdmin
)

// Gate resolves a bearer token into a user and enforces a privilege tier.
type Gate struct {
	users repository.UserRepository
	codec *security.TokenCodec
}

func NewGate(users repository.UserRepository, codec *security.TokenCodec) *Gate {
	return &Gate{users: users, codec: codec}
}

// Authorize runs the checks in order and stops at the first failure:
// presence, verification, access type, subject, active, admin.
func (g *Gate) Authorize(ctx context.Context, token string, level Level) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrCouldNotValidate
	}

	claims, err := g.codec.Verify(token)
	if err != nil {
		return nil, domain.ErrCouldNotValidate
	}
	if claims.Type != security.TokenTypeAccess {
		return nil, domain.ErrCouldNotValidate
	}

	userID, ok := subjectID(claims)
	if !ok {
		return nil, domain.ErrCouldNotValidate
	}
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCouldNotValidate
		}
		return nil, fmt.Errorf("service.Authorize: %w", err)
	}

	if level >= LevelActive && !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	if level >= LevelAdmin && !user.IsAdmin {
		return nil, domain.ErrAdminRequired
	}
	return user, nil
}
