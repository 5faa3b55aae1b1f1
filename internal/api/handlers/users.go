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

type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, tx repository.Transactor, log *slog.Logger) *UserHandler {
	return &UserHandler{base: base{tx: tx, log: log}, users: users}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	respond.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	patch, err := decodeUserPatch(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var updated *domain.User
	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		updated, err = h.users.UpdateSelf(ctx, user.ID, patch)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.users.List(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, nonNil(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := decodeUserPatch(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var updated *domain.User
	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		updated, err = h.users.UpdateAdmin(ctx, id, patch)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		return h.users.Delete(ctx, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.NoContent(w, r)
}

func decodeUserPatch(r *http.Request) (domain.UserPatch, error) {
	var patch domain.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		return patch, err
	}

	fields := fieldRules{}
	if patch.Email.Present() {
		fields.check("email", patch.Email.Value, "email,max=255")
	}
	if patch.Password.Present() {
		fields.check("password", patch.Password.Value, "min=8")
	}
	if patch.FullName.Present() {
		fields.check("full_name", patch.FullName.Value, "max=255")
	}
	return patch, fields.err()
}
