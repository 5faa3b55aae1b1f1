package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/storyverse/internal/api/middleware"
	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/service"
	"github.com/dom/storyverse/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *websocket.Hub
	gate     *service.Gate
	upgrader ws.Upgrader
	log      *slog.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, gate *service.Gate, checkOrigin func(*http.Request) bool, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		gate: gate,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// Handle authenticates with the access token from the token query parameter
// (browsers cannot set headers on upgrade) or the bearer header, then streams
// the caller's resource events.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}

	user, err := h.gate.Authorize(r.Context(), token, service.LevelActive)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
