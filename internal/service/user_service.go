package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/security"
)

type UserService struct {
	users     repository.UserRepository
	hasher    *security.PasswordHasher
	publisher Publisher
	log       *slog.Logger
}

func NewUserService(users repository.UserRepository, hasher *security.PasswordHasher, publisher Publisher, logger *slog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, publisher: publisher, log: logger}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName *string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	const op = "service.Register"

	email := domain.NormalizeEmail(input.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: digest,
		FullName:     input.FullName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailConflict(email)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("op", op), slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("User with id %d not found", id)
		}
		return nil, fmt.Errorf("service.GetUser: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, page repository.Page) ([]*domain.User, error) {
	users, err := s.users.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("service.ListUsers: %w", err)
	}
	return users, nil
}

// UpdateSelf applies a patch from the account owner. Activation and admin
// flags in the patch are ignored.
func (s *UserService) UpdateSelf(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	return s.update(ctx, id, patch.SelfService())
}

func (s *UserService) UpdateAdmin(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	return s.update(ctx, id, patch)
}

func (s *UserService) update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	const op = "service.UpdateUser"

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if patch.Email.Present() {
		email := domain.NormalizeEmail(patch.Email.Value)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
			changed = true
		}
	}
	if patch.Password.Present() {
		digest, err := s.hasher.Hash(patch.Password.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.PasswordHash = digest
		changed = true
	}
	if domain.ApplyNullable(&user.FullName, patch.FullName) {
		changed = true
	}
	if domain.ApplyRequired(&user.IsActive, patch.IsActive) {
		changed = true
	}
	if domain.ApplyRequired(&user.IsAdmin, patch.IsAdmin) {
		changed = true
	}

	if !changed {
		return user, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailConflict(user.Email)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publish(ctx, s.publisher, user.ID, domain.Event{Action: domain.EventUpdated, Resource: domain.ResourceUser, ID: user.ID})
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("User with id %d not found", id)
		}
		return fmt.Errorf("service.DeleteUser: %w", err)
	}
	s.log.Info("user deleted", slog.String("op", "service.DeleteUser"), slog.Int64("user_id", id))
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("service.ensureEmailFree: %w", err)
	case existing.ID != selfID:
		return emailConflict(email)
	}
	return nil
}

func emailConflict(email string) error {
	return domain.Conflictf("User with email %s already exists", email)
}
