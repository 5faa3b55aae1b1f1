package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dom/storyverse/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-only-0123456789"

func fastHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(security.Argon2Params{
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
	})
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := fastHasher()

	digest, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=64,t=1,p=1$"))
	assert.True(t, h.Verify("correct horse battery staple", digest))
	assert.False(t, h.Verify("correct horse battery stapler", digest))
	assert.False(t, h.Verify("", digest))
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	h := fastHasher()

	a, err := h.Hash("password123")
	require.NoError(t, err)
	b, err := h.Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("password123", a))
	assert.True(t, h.Verify("password123", b))
}

func TestPasswordHasher_VerifyUsesDigestParameters(t *testing.T) {
	digest, err := security.NewPasswordHasher(security.Argon2Params{Memory: 128, Iterations: 2, Parallelism: 1}).Hash("password123")
	require.NoError(t, err)

	assert.True(t, fastHasher().Verify("password123", digest))
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	h := fastHasher()

	tests := []struct {
		name   string
		digest string
	}{
		{name: "empty", digest: ""},
		{name: "garbage", digest: "not-a-digest"},
		{name: "bcrypt", digest: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{name: "wrong version", digest: "$argon2id$v=16$m=64,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5"},
		{name: "zero parallelism", digest: "$argon2id$v=19$m=64,t=1,p=0$c2FsdHNhbHQ$a2V5a2V5"},
		{name: "zero iterations", digest: "$argon2id$v=19$m=64,t=0,p=1$c2FsdHNhbHQ$a2V5a2V5"},
		{name: "bad salt encoding", digest: "$argon2id$v=19$m=64,t=1,p=1$!!!$a2V5a2V5"},
		{name: "empty key", digest: "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$"},
		{name: "argon2i variant", digest: "$argon2i$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("password123", tt.digest))
			})
		})
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := security.NewTokenCodec(testSecret)

	token, err := codec.Issue(security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}, time.Minute, security.TokenTypeAccess)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, security.TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
}

func TestTokenCodec_UniqueIDs(t *testing.T) {
	codec := security.NewTokenCodec(testSecret)
	claims := security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}

	a, err := codec.Issue(claims, time.Minute, security.TokenTypeRefresh)
	require.NoError(t, err)
	b, err := codec.Issue(claims, time.Minute, security.TokenTypeRefresh)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenCodec_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	codec := security.NewTokenCodec(testSecret, security.WithClock(clock))

	token, err := codec.Issue(security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}, time.Minute, security.TokenTypeAccess)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestTokenCodec_Rejects(t *testing.T) {
	codec := security.NewTokenCodec(testSecret)
	valid, err := codec.Issue(security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}, time.Minute, security.TokenTypeAccess)
	require.NoError(t, err)

	otherSecret, err := security.NewTokenCodec("another-secret-key-for-testing-only-012").
		Issue(security.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}, time.Minute, security.TokenTypeAccess)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "1",
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "1",
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "1",
		"type": "access",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "not.a.jwt"},
		{name: "wrong secret", token: otherSecret},
		{name: "hs512 algorithm", token: hs512},
		{name: "none algorithm", token: none},
		{name: "missing expiry", token: noExpiry},
		{name: "tampered payload", token: tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, security.ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
