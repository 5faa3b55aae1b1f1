package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/repository/postgres/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnectionOptions struct {
	Logger   *slog.Logger
	LogQuery bool
}

// NewConnection opens the database and applies pending migrations.
func NewConnection(ctx context.Context, databaseURL string, opts ConnectionOptions) (*gorm.DB, error) {
	level := logger.Warn
	if opts.LogQuery {
		level = logger.Info
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(opts.Logger.Handler(), slog.LevelDebug), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the embedded goose migrations against db.
func Migrate(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres: underlying db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:          NewUserRepository(db),
		StoryUniverse: NewStoryUniverseRepository(db),
		Story:         NewStoryRepository(db),
		Tx:            NewTxManager(db),
		Health:        NewHealthChecker(db),
	}
}

type healthChecker struct {
	db *gorm.DB
}

func NewHealthChecker(db *gorm.DB) *healthChecker {
	return &healthChecker{db: db}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	var one int
	if err := h.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}
