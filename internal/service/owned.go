package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
)

// getOwned folds "absent" and "owned by someone else" into one NotFound.
func getOwned[T any](ctx context.Context, repo repository.OwnedRepository[T], label string, ownerID, id int64) (*T, error) {
	record, err := repo.GetOwned(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("%s with id %d not found", label, id)
		}
		return nil, fmt.Errorf("service.getOwned: %w", err)
	}
	return record, nil
}

func deleteOwned[T any](ctx context.Context, repo repository.OwnedRepository[T], label string, ownerID, id int64) error {
	if err := repo.DeleteOwned(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("%s with id %d not found", label, id)
		}
		return fmt.Errorf("service.deleteOwned: %w", err)
	}
	return nil
}

// publish hands the event to the publisher once the current unit of work
// commits.
func publish(ctx context.Context, p Publisher, userID int64, event domain.Event) {
	repository.AfterCommit(ctx, func() {
		p.Publish(userID, event)
	})
}
