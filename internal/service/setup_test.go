package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/logging"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/repository/memory"
	"github.com/dom/storyverse/internal/service"
	"github.com/dom/storyverse/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events map[int64][]domain.Event
}

func (r *recorder) Publish(userID int64, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[int64][]domain.Event)
	}
	r.events[userID] = append(r.events[userID], event)
}

func (r *recorder) For(userID int64) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events[userID]...)
}

type env struct {
	cfg      *config.Config
	repos    *repository.Repositories
	services *service.Services
	events   *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := testutil.TestConfig()
	repos := memory.NewRepositories(memory.NewStore())
	events := &recorder{}

	return &env{
		cfg:      cfg,
		repos:    repos,
		services: service.NewServices(repos, cfg, events, logging.Discard()),
		events:   events,
	}
}

type userOpt func(*domain.User)

func inactive(u *domain.User) { u.IsActive = false }
func admin(u *domain.User)    { u.IsAdmin = true }

// user registers an account with password "password123" and applies opts
// directly through the repository.
func (e *env) user(t *testing.T, email string, opts ...userOpt) *domain.User {
	t.Helper()
	ctx := context.Background()

	u, err := e.services.Users.Register(ctx, service.RegisterInput{Email: email, Password: "password123"})
	require.NoError(t, err)

	if len(opts) > 0 {
		for _, opt := range opts {
			opt(u)
		}
		require.NoError(t, e.repos.User.Update(ctx, u))
	}
	return u
}

func (e *env) universe(t *testing.T, owner *domain.User, name string) *domain.StoryUniverse {
	t.Helper()
	u, err := e.services.Universes.Create(context.Background(), owner.ID, service.CreateUniverseInput{Name: name})
	require.NoError(t, err)
	return u
}

func (e *env) story(t *testing.T, owner *domain.User, universe *domain.StoryUniverse, title string) *domain.Story {
	t.Helper()
	s, err := e.services.Stories.Create(context.Background(), owner.ID, service.CreateStoryInput{
		StoryUniverseID: universe.ID,
		Title:           title,
	})
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }
