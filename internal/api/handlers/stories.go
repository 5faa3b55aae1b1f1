package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dom/storyverse/internal/api/middleware"
	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/service"
)

type StoryHandler struct {
	base
	stories *service.StoryService
}

func NewStoryHandler(stories *service.StoryService, tx repository.Transactor, log *slog.Logger) *StoryHandler {
	return &StoryHandler{base: base{tx: tx, log: log}, stories: stories}
}

type CreateStoryRequest struct {
	StoryUniverseID int64    `json:"story_universe_id" validate:"required,gt=0"`
	Title           string   `json:"title" validate:"required,min=1,max=255"`
	Content         *string  `json:"content"`
	ImageURLs       []string `json:"image_urls" validate:"omitempty,dive,max=2048"`
}

func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req CreateStoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var story *domain.Story
	err := h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		story, err = h.stories.Create(ctx, user.ID, service.CreateStoryInput{
			StoryUniverseID: req.StoryUniverseID,
			Title:           req.Title,
			Content:         req.Content,
			ImageURLs:       req.ImageURLs,
		})
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, story)
}

// List returns the caller's stories, narrowed to one universe when
// universe_id is given.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var stories []*domain.Story
	if raw := r.URL.Query().Get("universe_id"); raw != "" {
		universeID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || universeID <= 0 {
			h.fail(w, r, domain.Validation("Validation failed", map[string]string{"universe_id": "int"}))
			return
		}
		stories, err = h.stories.ListByUniverse(r.Context(), user.ID, universeID, page)
	} else {
		stories, err = h.stories.List(r.Context(), user.ID, page)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, nonNil(stories))
}

func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	story, err := h.stories.Get(r.Context(), user.ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, story)
}

func (h *StoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch domain.StoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	fields := fieldRules{}
	if patch.Title.Present() {
		fields.check("title", patch.Title.Value, "min=1,max=255")
	}
	if patch.ImageURLs.Present() {
		fields.check("image_urls", patch.ImageURLs.Value, "dive,max=2048")
	}
	if err := fields.err(); err != nil {
		h.fail(w, r, err)
		return
	}

	var story *domain.Story
	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		story, err = h.stories.Update(ctx, user.ID, id, patch)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, story)
}

func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		return h.stories.Delete(ctx, user.ID, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.NoContent(w, r)
}
