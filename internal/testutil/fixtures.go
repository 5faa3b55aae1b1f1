package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/security"
	"github.com/google/uuid"
)

const DefaultPassword = "testpassword123"

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
	fullName *string
	admin    bool
	inactive bool
}

// NewUserBuilder creates a new UserBuilder with a unique email
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: DefaultPassword,
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithFullName(name string) *UserBuilder {
	b.fullName = &name
	return b
}

func (b *UserBuilder) Admin() *UserBuilder {
	b.admin = true
	return b
}

func (b *UserBuilder) Inactive() *UserBuilder {
	b.inactive = true
	return b
}

// Build stores the user directly through the repository and returns it with
// the raw password
func (b *UserBuilder) Build(t *testing.T, repos *repository.Repositories) (*domain.User, string) {
	t.Helper()

	cfg := TestConfig()
	hasher := security.NewPasswordHasher(security.Argon2Params{
		Memory:      cfg.Argon2MemoryKiB,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	})
	hash, err := hasher.Hash(b.password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Email:        domain.NormalizeEmail(b.email),
		PasswordHash: hash,
		FullName:     b.fullName,
		IsActive:     !b.inactive,
		IsAdmin:      b.admin,
	}
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndAuthenticate stores the user and logs in through the API,
// returning the user and its token pair
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, domain.TokenPair) {
	t.Helper()

	user, password := b.Build(t, ts.Repos)
	return user, Login(t, ts, user.Email, password)
}

// Login posts the OAuth2 password form and returns the issued tokens
func Login(t *testing.T, ts *TestServer, email, password string) domain.TokenPair {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	resp, err := http.Post(ts.APIURL("/auth/login"), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var pair domain.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		t.Fatalf("failed to decode token pair: %v", err)
	}
	return pair
}

// UniverseBuilder creates story universes owned by a user
type UniverseBuilder struct {
	owner       *domain.User
	name        string
	description *string
}

func NewUniverseBuilder(owner *domain.User) *UniverseBuilder {
	return &UniverseBuilder{
		owner: owner,
		name:  fmt.Sprintf("universe_%s", uuid.New().String()[:8]),
	}
}

func (b *UniverseBuilder) WithName(name string) *UniverseBuilder {
	b.name = name
	return b
}

func (b *UniverseBuilder) WithDescription(description string) *UniverseBuilder {
	b.description = &description
	return b
}

func (b *UniverseBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.StoryUniverse {
	t.Helper()

	universe := &domain.StoryUniverse{
		UserID:      b.owner.ID,
		Name:        b.name,
		Description: b.description,
	}
	if err := repos.StoryUniverse.Create(context.Background(), universe); err != nil {
		t.Fatalf("failed to create story universe: %v", err)
	}
	return universe
}

// StoryBuilder creates stories inside a universe
type StoryBuilder struct {
	universe  *domain.StoryUniverse
	title     string
	content   *string
	imageURLs []string
}

func NewStoryBuilder(universe *domain.StoryUniverse) *StoryBuilder {
	return &StoryBuilder{
		universe: universe,
		title:    fmt.Sprintf("story_%s", uuid.New().String()[:8]),
	}
}

func (b *StoryBuilder) WithTitle(title string) *StoryBuilder {
	b.title = title
	return b
}

func (b *StoryBuilder) WithContent(content string) *StoryBuilder {
	b.content = &content
	return b
}

func (b *StoryBuilder) WithImageURLs(urls ...string) *StoryBuilder {
	b.imageURLs = urls
	return b
}

func (b *StoryBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Story {
	t.Helper()

	story := &domain.Story{
		UserID:          b.universe.UserID,
		StoryUniverseID: b.universe.ID,
		Title:           b.title,
		Content:         b.content,
		ImageURLs:       b.imageURLs,
	}
	if err := repos.Story.Create(context.Background(), story); err != nil {
		t.Fatalf("failed to create story: %v", err)
	}
	return story
}

// Do sends a request with an optional JSON body and bearer token
func Do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
