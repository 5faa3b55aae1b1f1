package postgres

import (
	"context"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"gorm.io/gorm"
)

// ownedRepository implements repository.OwnedRepository for any model with
// id and user_id columns.
type ownedRepository[T any] struct {
	db *gorm.DB
}

func (r *ownedRepository[T]) Create(ctx context.Context, record *T) error {
	return translateError(conn(ctx, r.db).Create(record).Error)
}

func (r *ownedRepository[T]) GetOwned(ctx context.Context, ownerID, id int64) (*T, error) {
	var record T
	err := conn(ctx, r.db).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

func (r *ownedRepository[T]) ListOwned(ctx context.Context, ownerID int64, page repository.Page) ([]*T, error) {
	return r.list(ctx, page, "user_id = ?", ownerID)
}

func (r *ownedRepository[T]) Update(ctx context.Context, record *T) error {
	return translateError(conn(ctx, r.db).Save(record).Error)
}

func (r *ownedRepository[T]) DeleteOwned(ctx context.Context, ownerID, id int64) error {
	var record T
	res := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, ownerID).Delete(&record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ownedRepository[T]) list(ctx context.Context, page repository.Page, query string, args ...any) ([]*T, error) {
	var records []*T
	err := conn(ctx, r.db).
		Where(query, args...).
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

type storyUniverseRepository struct {
	ownedRepository[domain.StoryUniverse]
}

func NewStoryUniverseRepository(db *gorm.DB) *storyUniverseRepository {
	return &storyUniverseRepository{ownedRepository[domain.StoryUniverse]{db: db}}
}

type storyRepository struct {
	ownedRepository[domain.Story]
}

func NewStoryRepository(db *gorm.DB) *storyRepository {
	return &storyRepository{ownedRepository[domain.Story]{db: db}}
}

func (r *storyRepository) ListOwnedByUniverse(ctx context.Context, ownerID, universeID int64, page repository.Page) ([]*domain.Story, error) {
	return r.list(ctx, page, "user_id = ? AND story_universe_id = ?", ownerID, universeID)
}
