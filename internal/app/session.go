package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"chameleon/internal/domain"
	"chameleon/internal/store"
)

// EventType names what an Event carries
type EventType string

const (
	EventRoomUpdated EventType = "room_updated"
	EventSignals     EventType = "signals"
	EventRoomClosed  EventType = "room_closed"
)

// Event is pushed to a connected client. Room is already redacted for the
// receiving player.
type Event struct {
	Type    EventType    `json:"type"`
	Room    *domain.Room `json:"room,omitempty"`
	Signals []Signal     `json:"signals,omitempty"`
}

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(event *Event) error
	GetPlayerID() string
	Close() error
}

// Session fans one room's change feed out to its connected clients
type Session struct {
	roomCode    string
	hub         *Hub
	clients     map[string]ClientConnection // playerID -> client
	clientsMu   sync.RWMutex
	logger      *slog.Logger
	unsubscribe func()
	closeOnce   sync.Once
}

func newSession(hub *Hub, roomCode string) *Session {
	s := &Session{
		roomCode: roomCode,
		hub:      hub,
		clients:  make(map[string]ClientConnection),
		logger:   hub.logger.With("roomCode", roomCode),
	}
	s.unsubscribe = hub.store.Subscribe(roomCode, s.handleChange)
	return s
}

// RoomCode returns the room code
func (s *Session) RoomCode() string {
	return s.roomCode
}

// ClientCount returns the number of connected clients
func (s *Session) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetClient returns the client for a player
func (s *Session) GetClient(playerID string) (ClientConnection, bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	client, ok := s.clients[playerID]
	return client, ok
}

// Attach registers client for its player in the room's session, replacing
// any older connection, and sends it the current view and queued signals.
// The client is registered before the room is read, so it can receive
// snapshots out of order; Room.Revision orders them.
func (h *Hub) Attach(ctx context.Context, roomCode string, client ClientConnection) (*Session, error) {
	exists, err := h.store.Exists(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	playerID := client.GetPlayerID()

	h.mu.Lock()
	s, ok := h.sessions[roomCode]
	if !ok {
		s = newSession(h, roomCode)
		h.sessions[roomCode] = s
	}
	s.clientsMu.Lock()
	old := s.clients[playerID]
	s.clients[playerID] = client
	s.clientsMu.Unlock()
	h.mu.Unlock()

	if old != nil && old != client {
		old.Close()
	}

	r, err := h.store.Get(ctx, roomCode)
	if err != nil {
		h.Detach(roomCode, client)
		return nil, err
	}
	s.send(client, &Event{Type: EventRoomUpdated, Room: r.ViewFor(playerID)})
	s.deliverSignals(ctx, playerID)
	return s, nil
}

// Detach unregisters client. The session is closed once nobody is left.
func (h *Hub) Detach(roomCode string, client ClientConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[roomCode]
	if !ok {
		return
	}

	playerID := client.GetPlayerID()
	s.clientsMu.Lock()
	if s.clients[playerID] == client {
		delete(s.clients, playerID)
	}
	empty := len(s.clients) == 0
	s.clientsMu.Unlock()

	if empty {
		delete(h.sessions, roomCode)
		s.stop()
	}
}

func (h *Hub) dropSession(s *Session) {
	h.mu.Lock()
	if h.sessions[s.roomCode] == s {
		delete(h.sessions, s.roomCode)
	}
	h.mu.Unlock()
}

// handleChange runs on the store's delivery goroutine for this session
func (s *Session) handleChange(c store.Change) {
	switch {
	case c.Removed:
		s.broadcast(func(string) *Event { return &Event{Type: EventRoomClosed} })
		s.hub.dropSession(s)
		s.Close()
	case c.Room != nil:
		room := c.Room
		s.broadcast(func(playerID string) *Event {
			return &Event{Type: EventRoomUpdated, Room: room.ViewFor(playerID)}
		})
	case strings.HasPrefix(c.Child, store.SignalPath("")):
		playerID := strings.TrimPrefix(c.Child, store.SignalPath(""))
		if _, ok := s.GetClient(playerID); ok {
			s.deliverSignals(context.Background(), playerID)
		}
	}
}

// deliverSignals pops the player's inbox and forwards it
func (s *Session) deliverSignals(ctx context.Context, playerID string) {
	client, ok := s.GetClient(playerID)
	if !ok {
		return
	}
	signals, err := s.hub.TakeSignals(ctx, s.roomCode, playerID)
	if err != nil {
		s.logger.Debug("failed to read signals", "playerID", playerID, "error", err)
		return
	}
	if len(signals) == 0 {
		return
	}
	s.send(client, &Event{Type: EventSignals, Signals: signals})
}

// broadcast sends each client the event built for its player
func (s *Session) broadcast(build func(playerID string) *Event) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for playerID, client := range s.clients {
		s.send(client, build(playerID))
	}
}

func (s *Session) send(client ClientConnection, event *Event) {
	if err := client.Send(event); err != nil {
		s.logger.Debug("failed to send to client", "playerID", client.GetPlayerID(), "error", err)
	}
}

// stop ends the feed subscription without touching the clients
func (s *Session) stop() {
	s.closeOnce.Do(s.unsubscribe)
}

// Close shuts down the session and closes every client connection
func (s *Session) Close() {
	s.stop()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
