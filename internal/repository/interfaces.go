package repository

import (
	"context"
	"errors"

	"github.com/dom/storyverse/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Page bounds a list query. Results are ordered by id.
type Page struct {
	Skip  int
	Limit int
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page Page) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// OwnedRepository stores records that belong to a single user. Every read
// and write is filtered by owner and id together, so a record owned by
// someone else is indistinguishable from one that does not exist.
type OwnedRepository[T any] interface {
	Create(ctx context.Context, record *T) error
	GetOwned(ctx context.Context, ownerID, id int64) (*T, error)
	ListOwned(ctx context.Context, ownerID int64, page Page) ([]*T, error)
	Update(ctx context.Context, record *T) error
	DeleteOwned(ctx context.Context, ownerID, id int64) error
}

type StoryUniverseRepository interface {
	OwnedRepository[domain.StoryUniverse]
}

type StoryRepository interface {
	OwnedRepository[domain.Story]
	ListOwnedByUniverse(ctx context.Context, ownerID, universeID int64, page Page) ([]*domain.Story, error)
}

// Transactor runs fn inside a unit of work. The work commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Repositories struct {
	User          UserRepository
	StoryUniverse StoryUniverseRepository
	Story         StoryRepository
	Tx            Transactor
	Health        Pinger
}
