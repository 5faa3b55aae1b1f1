package service

import (
	"log/slog"

	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/security"
)

// Publisher receives committed resource changes for a user.
type Publisher interface {
	Publish(userID int64, event domain.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(int64, domain.Event) {}

type Services struct {
	Auth      *AuthService
	Gate      *Gate
	Users     *UserService
	Universes *UniverseService
	Stories   *StoryService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, publisher Publisher, logger *slog.Logger) *Services {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	hasher := security.NewPasswordHasher(security.Argon2Params{
		Memory:      cfg.Argon2MemoryKiB,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	})
	codec := security.NewTokenCodec(cfg.SecretKey)

	universes := NewUniverseService(repos.StoryUniverse, publisher, logger)

	return &Services{
		Auth:      NewAuthService(repos.User, hasher, codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger),
		Gate:      NewGate(repos.User, codec),
		Users:     NewUserService(repos.User, hasher, publisher, logger),
		Universes: universes,
		Stories:   NewStoryService(repos.Story, universes, publisher, logger),
	}
}
