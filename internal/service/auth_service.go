package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/security"
	"github.com/golang-jwt/jwt/v5"
)

type AuthService struct {
	users      repository.UserRepository
	hasher     *security.PasswordHasher
	codec      *security.TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(users repository.UserRepository, hasher *security.PasswordHasher, codec *security.TokenCodec, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		hasher:     hasher,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        logger,
	}
}

// Authenticate returns the user whose email and password match. Unknown
// emails and wrong passwords produce the same error, and both paths run one
// password verification.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "service.Authenticate"

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a token pair for an active user.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !user.IsActive {
		return domain.TokenPair{}, domain.ErrUserInactive
	}

	s.log.Info("user logged in", slog.String("op", "service.Login"), slog.Int64("user_id", user.ID))
	return s.IssueTokenPair(user)
}

func (s *AuthService) IssueTokenPair(user *domain.User) (domain.TokenPair, error) {
	const op = "service.IssueTokenPair"

	claims := security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(user.ID, 10)}}

	access, err := s.codec.Issue(claims, s.accessTTL, security.TokenTypeAccess)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.codec.Issue(claims, s.refreshTTL, security.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domain.BearerTokenType,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is not revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	const op = "service.Refresh"

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.ErrInvalidRefresh
	}
	if claims.Type != security.TokenTypeRefresh {
		return domain.TokenPair{}, domain.ErrInvalidTokenType
	}

	userID, ok := subjectID(claims)
	if !ok {
		return domain.TokenPair{}, domain.ErrInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, domain.ErrTokenUserNotFound
		}
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return domain.TokenPair{}, domain.ErrUserInactive
	}

	return s.IssueTokenPair(user)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("storyverse-dummy-password")
		if err != nil {
			s.log.Error("dummy digest", slog.Any("error", err))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func subjectID(claims *security.Claims) (int64, bool) {
	if claims.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
