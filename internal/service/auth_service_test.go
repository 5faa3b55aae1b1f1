package service_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/security"
	"github.com/dom/storyverse/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Authenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registered := e.user(t, "ada@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "ada@example.com", password: "password123"},
		{name: "email is case insensitive", email: "  ADA@Example.com", password: "password123"},
		{name: "wrong password", email: "ada@example.com", password: "password124", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "password123", wantErr: domain.ErrInvalidCredentials},
		{name: "empty password", email: "ada@example.com", password: "", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := e.services.Auth.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
		})
	}
}

func TestAuthService_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "ada@example.com")

	_, wrongPassword := e.services.Auth.Authenticate(ctx, "ada@example.com", "nope-nope")
	_, unknownEmail := e.services.Auth.Authenticate(ctx, "ghost@example.com", "nope-nope")

	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, domain.KindOf(wrongPassword), domain.KindOf(unknownEmail))
}

func TestAuthService_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	active := e.user(t, "active@example.com")
	e.user(t, "dormant@example.com", inactive)

	pair, err := e.services.Auth.Login(ctx, "active@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	codec := security.NewTokenCodec(e.cfg.SecretKey)
	access, err := codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := codec.Verify(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, security.TokenTypeAccess, access.Type)
	assert.Equal(t, security.TokenTypeRefresh, refresh.Type)
	assert.Equal(t, strconv.FormatInt(active.ID, 10), access.Subject)
	assert.Equal(t, access.Subject, refresh.Subject)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))

	_, err = e.services.Auth.Login(ctx, "dormant@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrUserInactive)

	_, err = e.services.Auth.Login(ctx, "dormant@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantErr  error
		wantKind domain.Kind
	}{
		{
			name: "valid refresh token",
			token: func(t *testing.T) string {
				return mustPair(t, e, e.user(t, "valid@example.com")).RefreshToken
			},
		},
		{
			name: "access token presented",
			token: func(t *testing.T) string {
				return mustPair(t, e, e.user(t, "access@example.com")).AccessToken
			},
			wantErr:  domain.ErrInvalidTokenType,
			wantKind: domain.KindBadRequest,
		},
		{
			name:     "garbage token",
			token:    func(t *testing.T) string { return "garbage" },
			wantErr:  domain.ErrInvalidRefresh,
			wantKind: domain.KindUnauthenticated,
		},
		{
			name: "signed with another secret",
			token: func(t *testing.T) string {
				token, err := security.NewTokenCodec("some-other-secret-key-for-testing-0123").
					Issue(security.Claims{}, time.Hour, security.TokenTypeRefresh)
				require.NoError(t, err)
				return token
			},
			wantErr:  domain.ErrInvalidRefresh,
			wantKind: domain.KindUnauthenticated,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				token, err := security.NewTokenCodec(e.cfg.SecretKey).Issue(security.Claims{}, time.Hour, security.TokenTypeRefresh)
				require.NoError(t, err)
				return token
			},
			wantKind: domain.KindUnauthenticated,
		},
		{
			name: "deleted user",
			token: func(t *testing.T) string {
				u := e.user(t, "deleted@example.com")
				pair := mustPair(t, e, u)
				require.NoError(t, e.services.Users.Delete(ctx, u.ID))
				return pair.RefreshToken
			},
			wantErr:  domain.ErrTokenUserNotFound,
			wantKind: domain.KindUnauthenticated,
		},
		{
			name: "inactive user",
			token: func(t *testing.T) string {
				u := e.user(t, "inactive@example.com")
				pair := mustPair(t, e, u)
				_, err := e.services.Users.UpdateAdmin(ctx, u.ID, domain.UserPatch{IsActive: domain.Some(false)})
				require.NoError(t, err)
				return pair.RefreshToken
			},
			wantErr:  domain.ErrUserInactive,
			wantKind: domain.KindUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := e.services.Auth.Refresh(ctx, tt.token(t))
			if tt.wantKind != domain.KindInternal {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
		})
	}
}

func TestAuthService_RefreshDoesNotRevoke(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pair := mustPair(t, e, e.user(t, "reuse@example.com"))

	first, err := e.services.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	second, err := e.services.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestAuthService_RefreshedAccessTokenPassesGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "gate@example.com")

	pair, err := e.services.Auth.Refresh(ctx, mustPair(t, e, u).RefreshToken)
	require.NoError(t, err)

	got, err := e.services.Gate.Authorize(ctx, pair.AccessToken, service.LevelActive)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func mustPair(t *testing.T, e *env, u *domain.User) domain.TokenPair {
	t.Helper()
	pair, err := e.services.Auth.IssueTokenPair(u)
	require.NoError(t, err)
	return pair
}
