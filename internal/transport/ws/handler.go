package ws

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"chameleon/internal/app"
	"chameleon/internal/domain"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. The player id comes from
// the create or join endpoint; the player is added once they set a name.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("roomCode")
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}
	code, err := app.NormalizeRoomCode(roomCode, h.hub.CodeLength())
	if err != nil {
		http.Error(w, "Invalid room code", http.StatusBadRequest)
		return
	}

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	room, err := h.hub.Room(r.Context(), code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("failed to load room", "roomCode", code, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	case room.Phase == domain.PhaseEnded:
		http.Error(w, "Room has ended", http.StatusGone)
		return
	}

	// Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	_, isMember := room.Players[playerID]
	h.logger.Info("websocket connected",
		"roomCode", code,
		"playerID", playerID,
		"isReconnect", isMember,
	)

	client := NewClient(conn, h.hub, code, playerID, h.logger)
	client.Run(r.Context())
}
