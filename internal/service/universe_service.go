package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
)

const universeLabel = "Story universe"

type UniverseService struct {
	repo      repository.StoryUniverseRepository
	publisher Publisher
	log       *slog.Logger
}

func NewUniverseService(repo repository.StoryUniverseRepository, publisher Publisher, logger *slog.Logger) *UniverseService {
	return &UniverseService{repo: repo, publisher: publisher, log: logger}
}

type CreateUniverseInput struct {
	Name        string
	Description *string
}

func (s *UniverseService) Get(ctx context.Context, ownerID, id int64) (*domain.StoryUniverse, error) {
	return getOwned[domain.StoryUniverse](ctx, s.repo, universeLabel, ownerID, id)
}

func (s *UniverseService) List(ctx context.Context, ownerID int64, page repository.Page) ([]*domain.StoryUniverse, error) {
	universes, err := s.repo.ListOwned(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("service.ListUniverses: %w", err)
	}
	return universes, nil
}

func (s *UniverseService) Create(ctx context.Context, ownerID int64, input CreateUniverseInput) (*domain.StoryUniverse, error) {
	universe := &domain.StoryUniverse{
		UserID:      ownerID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, universe); err != nil {
		return nil, fmt.Errorf("service.CreateUniverse: %w", err)
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventCreated, Resource: domain.ResourceStoryUniverse, ID: universe.ID, Data: universe})
	return universe, nil
}

func (s *UniverseService) Update(ctx context.Context, ownerID, id int64, patch domain.StoryUniversePatch) (*domain.StoryUniverse, error) {
	universe, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	changed := domain.ApplyRequired(&universe.Name, patch.Name)
	if domain.ApplyNullable(&universe.Description, patch.Description) {
		changed = true
	}
	if !changed {
		return universe, nil
	}

	if err := s.repo.Update(ctx, universe); err != nil {
		return nil, fmt.Errorf("service.UpdateUniverse: %w", err)
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventUpdated, Resource: domain.ResourceStoryUniverse, ID: universe.ID, Data: universe})
	return universe, nil
}

func (s *UniverseService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := deleteOwned[domain.StoryUniverse](ctx, s.repo, universeLabel, ownerID, id); err != nil {
		return err
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventDeleted, Resource: domain.ResourceStoryUniverse, ID: id})
	return nil
}
