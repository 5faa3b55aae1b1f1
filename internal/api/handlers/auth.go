package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/service"
)

type AuthHandler struct {
	base
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService, tx repository.Transactor, log *slog.Logger) *AuthHandler {
	return &AuthHandler{base: base{tx: tx, log: log}, auth: auth, users: users}
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var user *domain.User
	err := h.tx.WithinTransaction(r.Context(), func(ctx context.Context) error {
		var err error
		user, err = h.users.Register(ctx, service.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, user)
}

// Login accepts an OAuth2 password form: username (the email) and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Validation("Invalid form body", nil))
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	fields := fieldRules{}
	if username == "" {
		fields["username"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if err := fields.err(); err != nil {
		h.fail(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, pair)
}
