package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/repository"
)

const dbPingTimeout = 2 * time.Second

type HealthHandler struct {
	db      repository.Pinger
	appName string
	log     *slog.Logger
}

func NewHealthHandler(db repository.Pinger, appName string, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, appName: appName, log: log}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{
		"message": "Welcome to " + h.appName,
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", slog.Any("error", err))
		respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}
