package http

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"chameleon/internal/app"
	"chameleon/internal/domain"
)

// qrSize is the edge length of invite QR codes in pixels
const qrSize = 320

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomCode     string `json:"roomCode"`
	HostPlayerID string `json:"hostPlayerId"`
	InviteLink   string `json:"inviteLink"`
}

// JoinRoomResponse is the response for joining a room
type JoinRoomResponse struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode    string `json:"roomCode"`
	PlayerCount int    `json:"playerCount"`
	Phase       string `json:"phase"`
	CanJoin     bool   `json:"canJoin"`
}

// RoomExistsResponse is the response for checking if room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms      int `json:"activeRooms"`
	TotalPlayers     int `json:"totalPlayers"`
	ConnectedClients int `json:"connectedClients"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	created, err := s.hub.CreateRoom(r.Context())
	if err != nil {
		s.logger.Error("failed to create room", "error", err)
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendStatus(w, http.StatusCreated, &CreateRoomResponse{
		RoomCode:     created.RoomCode,
		HostPlayerID: created.HostPlayerID,
		InviteLink:   s.inviteLink(r, created.RoomCode),
	})
}

// handleJoinRoom handles POST /api/rooms/:code/join
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code, ok := s.roomCode(w, ps)
	if !ok {
		return
	}

	playerID, err := s.hub.JoinRoom(r.Context(), code)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &JoinRoomResponse{
		RoomCode: code,
		PlayerID: playerID,
	})
}

// handleGetRoom handles GET /api/rooms/:code
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code, ok := s.roomCode(w, ps)
	if !ok {
		return
	}

	room, err := s.hub.Room(r.Context(), code)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &GetRoomResponse{
		RoomCode:    room.ID,
		PlayerCount: len(room.Players),
		Phase:       room.Phase.String(),
		CanJoin:     room.Phase == domain.PhaseLobby && len(room.Players) < s.hub.Rules().MaxPlayers,
	})
}

// handleRoomExists handles GET /api/rooms/:code/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code, err := app.NormalizeRoomCode(ps.ByName("code"), s.hub.CodeLength())
	if err != nil {
		s.sendSuccess(w, &RoomExistsResponse{Exists: false})
		return
	}

	room, err := s.hub.Room(r.Context(), code)
	s.sendSuccess(w, &RoomExistsResponse{
		Exists: err == nil && room.Phase != domain.PhaseEnded,
	})
}

// handleInviteQR handles GET /api/rooms/:code/qr with a PNG of the invite link
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code, ok := s.roomCode(w, ps)
	if !ok {
		return
	}
	if _, err := s.hub.Room(r.Context(), code); err != nil {
		s.sendDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(s.inviteLink(r, code), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("qr generation failed", "roomCode", code, "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "QR generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := s.hub.Stats(r.Context())
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:      stats.ActiveRooms,
		TotalPlayers:     stats.TotalPlayers,
		ConnectedClients: stats.ConnectedClients,
	})
}

// roomCode normalizes the :code parameter, answering 400 when it is malformed
func (s *Server) roomCode(w http.ResponseWriter, ps httprouter.Params) (string, bool) {
	code, err := app.NormalizeRoomCode(ps.ByName("code"), s.hub.CodeLength())
	if err != nil {
		s.sendDomainError(w, err)
		return "", false
	}
	return code, true
}

// inviteLink builds the join URL, preferring the configured public base URL
func (s *Server) inviteLink(r *http.Request, code string) string {
	base := s.config.Server.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + code
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	s.sendStatus(w, http.StatusOK, data)
}

// sendStatus sends a successful JSON response with the given status
func (s *Server) sendStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendDomainError maps err to its status code and wire code
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidTransition, domain.KindConflict:
		status = http.StatusConflict
	case domain.KindValidation:
		status = http.StatusBadRequest
	}

	message := err.Error()
	if kind == domain.KindInternal {
		s.logger.Error("request failed", "error", err)
		message = "Internal server error"
	}
	s.sendError(w, status, kind.String(), message)
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
