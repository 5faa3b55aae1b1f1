// Package memory provides map-backed repositories for tests and local tools.
// Records are copied on the way in and out so callers never share state with
// the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
)

type Store struct {
	mu        sync.RWMutex
	users     map[int64]domain.User
	universes map[int64]domain.StoryUniverse
	stories   map[int64]domain.Story
	nextID    map[string]int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		universes: make(map[int64]domain.StoryUniverse),
		stories:   make(map[int64]domain.Story),
		nextID:    make(map[string]int64),
		now:       time.Now,
	}
}

func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		User:          &userRepository{s: s},
		StoryUniverse: &universeRepository{s: s},
		Story:         &storyRepository{s: s},
		Tx:            &transactor{},
		Health:        &pinger{},
	}
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func paginate[T any](items []T, page repository.Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && page.Skip+page.Limit < end {
		end = page.Skip + page.Limit
	}
	return items[page.Skip:end]
}

type transactor struct{}

// WithinTransaction has no rollback; it only defers commit hooks so
// publish-after-commit behaviour can be exercised.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if repository.InTransaction(ctx) {
		return fn(ctx)
	}
	hookCtx, runHooks := repository.WithCommitHooks(ctx)
	if err := fn(hookCtx); err != nil {
		return err
	}
	runHooks()
	return nil
}

type pinger struct{}

func (p *pinger) Ping(ctx context.Context) error { return ctx.Err() }

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = r.s.id("users")
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context, page repository.Page) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return paginate(users, page), nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

// Delete removes the user together with everything they own.
func (r *userRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for sid, st := range r.s.stories {
		if st.UserID == id {
			delete(r.s.stories, sid)
		}
	}
	for uid, un := range r.s.universes {
		if un.UserID == id {
			delete(r.s.universes, uid)
		}
	}
	return nil
}

type universeRepository struct {
	s *Store
}

func (r *universeRepository) Create(_ context.Context, u *domain.StoryUniverse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.UserID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	u.ID = r.s.id("story_universes")
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.universes[u.ID] = *u
	return nil
}

func (r *universeRepository) GetOwned(_ context.Context, ownerID, id int64) (*domain.StoryUniverse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.universes[id]
	if !ok || u.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *universeRepository) ListOwned(_ context.Context, ownerID int64, page repository.Page) ([]*domain.StoryUniverse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.StoryUniverse
	for _, u := range r.s.universes {
		if u.UserID == ownerID {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (r *universeRepository) Update(_ context.Context, u *domain.StoryUniverse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.universes[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = r.s.now()
	r.s.universes[u.ID] = *u
	return nil
}

func (r *universeRepository) DeleteOwned(_ context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.universes[id]
	if !ok || u.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.universes, id)
	for sid, st := range r.s.stories {
		if st.StoryUniverseID == id {
			delete(r.s.stories, sid)
		}
	}
	return nil
}

type storyRepository struct {
	s *Store
}

func (r *storyRepository) Create(_ context.Context, st *domain.Story) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.universes[st.StoryUniverseID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	st.ID = r.s.id("stories")
	st.CreatedAt, st.UpdatedAt = now, now
	r.s.stories[st.ID] = cloneStory(*st)
	return nil
}

func (r *storyRepository) GetOwned(_ context.Context, ownerID, id int64) (*domain.Story, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.stories[id]
	if !ok || st.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	st = cloneStory(st)
	return &st, nil
}

func (r *storyRepository) ListOwned(ctx context.Context, ownerID int64, page repository.Page) ([]*domain.Story, error) {
	return r.filter(page, func(st domain.Story) bool { return st.UserID == ownerID }), nil
}

func (r *storyRepository) ListOwnedByUniverse(_ context.Context, ownerID, universeID int64, page repository.Page) ([]*domain.Story, error) {
	return r.filter(page, func(st domain.Story) bool {
		return st.UserID == ownerID && st.StoryUniverseID == universeID
	}), nil
}

func (r *storyRepository) filter(page repository.Page, keep func(domain.Story) bool) []*domain.Story {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Story
	for _, st := range r.s.stories {
		if keep(st) {
			st := cloneStory(st)
			out = append(out, &st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page)
}

func (r *storyRepository) Update(_ context.Context, st *domain.Story) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.stories[st.ID]; !ok {
		return repository.ErrNotFound
	}
	st.UpdatedAt = r.s.now()
	r.s.stories[st.ID] = cloneStory(*st)
	return nil
}

func (r *storyRepository) DeleteOwned(_ context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.stories[id]
	if !ok || st.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.stories, id)
	return nil
}

func cloneStory(st domain.Story) domain.Story {
	if st.ImageURLs != nil {
		st.ImageURLs = append([]string(nil), st.ImageURLs...)
	}
	return st
}
