package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dom/storyverse/internal/api"
	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/logging"
	"github.com/dom/storyverse/internal/repository/postgres"
	"github.com/dom/storyverse/internal/service"
	"github.com/dom/storyverse/internal/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewConnection(ctx, cfg.DatabaseURL, postgres.ConnectionOptions{
		Logger:   logger,
		LogQuery: cfg.DatabaseLog,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	repos := postgres.NewRepositories(db)

	hub := websocket.NewHub(logger)
	services := service.NewServices(repos, cfg, hub, logger)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(api.Dependencies{
			Services: services,
			Repos:    repos,
			Hub:      hub,
			Config:   cfg,
			Logger:   logger,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", cfg.Addr), slog.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
