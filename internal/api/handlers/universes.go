package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dom/storyverse/internal/api/middleware"
	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/service"
)

type UniverseHandler struct {
	base
	universes *service.UniverseService
}

func NewUniverseHandler(universes *service.UniverseService, tx repository.Transactor, log *slog.Logger) *UniverseHandler {
	return &UniverseHandler{base: base{tx: tx, log: log}, universes: universes}
}

type CreateUniverseRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
}

func (h *UniverseHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req CreateUniverseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var universe *domain.StoryUniverse
	err := h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		universe, err = h.universes.Create(ctx, user.ID, service.CreateUniverseInput{
			Name:        req.Name,
			Description: req.Description,
		})
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, universe)
}

func (h *UniverseHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	universes, err := h.universes.List(r.Context(), user.ID, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, nonNil(universes))
}

func (h *UniverseHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	universe, err := h.universes.Get(r.Context(), user.ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, universe)
}

func (h *UniverseHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch domain.StoryUniversePatch
	if err := decodeJSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	fields := fieldRules{}
	if patch.Name.Present() {
		fields.check("name", patch.Name.Value, "min=1,max=255")
	}
	if err := fields.err(); err != nil {
		h.fail(w, r, err)
		return
	}

	var universe *domain.StoryUniverse
	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		universe, err = h.universes.Update(ctx, user.ID, id, patch)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, universe)
}

func (h *UniverseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		return h.universes.Delete(ctx, user.ID, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.NoContent(w, r)
}
