package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
)

const storyLabel = "Story"

type StoryService struct {
	repo      repository.StoryRepository
	universes *UniverseService
	publisher Publisher
	log       *slog.Logger
}

func NewStoryService(repo repository.StoryRepository, universes *UniverseService, publisher Publisher, logger *slog.Logger) *StoryService {
	return &StoryService{repo: repo, universes: universes, publisher: publisher, log: logger}
}

type CreateStoryInput struct {
	StoryUniverseID int64
	Title           string
	Content         *string
	ImageURLs       []string
}

func (s *StoryService) Get(ctx context.Context, ownerID, id int64) (*domain.Story, error) {
	return getOwned[domain.Story](ctx, s.repo, storyLabel, ownerID, id)
}

func (s *StoryService) List(ctx context.Context, ownerID int64, page repository.Page) ([]*domain.Story, error) {
	stories, err := s.repo.ListOwned(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("service.ListStories: %w", err)
	}
	return stories, nil
}

// ListByUniverse lists the owner's stories in one universe. The universe
// itself must belong to the owner.
func (s *StoryService) ListByUniverse(ctx context.Context, ownerID, universeID int64, page repository.Page) ([]*domain.Story, error) {
	if _, err := s.universes.Get(ctx, ownerID, universeID); err != nil {
		return nil, err
	}
	stories, err := s.repo.ListOwnedByUniverse(ctx, ownerID, universeID, page)
	if err != nil {
		return nil, fmt.Errorf("service.ListStoriesByUniverse: %w", err)
	}
	return stories, nil
}

func (s *StoryService) Create(ctx context.Context, ownerID int64, input CreateStoryInput) (*domain.Story, error) {
	if _, err := s.universes.Get(ctx, ownerID, input.StoryUniverseID); err != nil {
		return nil, err
	}

	story := &domain.Story{
		UserID:          ownerID,
		StoryUniverseID: input.StoryUniverseID,
		Title:           input.Title,
		Content:         input.Content,
		ImageURLs:       input.ImageURLs,
	}
	if err := s.repo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("service.CreateStory: %w", err)
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventCreated, Resource: domain.ResourceStory, ID: story.ID, Data: story})
	return story, nil
}

func (s *StoryService) Update(ctx context.Context, ownerID, id int64, patch domain.StoryPatch) (*domain.Story, error) {
	story, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	changed := domain.ApplyRequired(&story.Title, patch.Title)
	if domain.ApplyNullable(&story.Content, patch.Content) {
		changed = true
	}
	switch {
	case patch.ImageURLs.Present():
		if story.ImageURLs == nil || !slices.Equal([]string(story.ImageURLs), patch.ImageURLs.Value) {
			story.ImageURLs = patch.ImageURLs.Value
			changed = true
		}
	case patch.ImageURLs.Cleared() && story.ImageURLs != nil:
		story.ImageURLs = nil
		changed = true
	}
	if !changed {
		return story, nil
	}

	if err := s.repo.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("service.UpdateStory: %w", err)
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventUpdated, Resource: domain.ResourceStory, ID: story.ID, Data: story})
	return story, nil
}

func (s *StoryService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := deleteOwned[domain.Story](ctx, s.repo, storyLabel, ownerID, id); err != nil {
		return err
	}

	publish(ctx, s.publisher, ownerID, domain.Event{Action: domain.EventDeleted, Resource: domain.ResourceStory, ID: id})
	return nil
}
