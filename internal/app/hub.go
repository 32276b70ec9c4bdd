package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chameleon/internal/domain"
	"chameleon/internal/store"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 5

	// DefaultRoomCodeAttempts bounds the collision retries for a new code
	DefaultRoomCodeAttempts = 5

	// StaleRoomTimeout is how long before an inactive room is cleaned up
	StaleRoomTimeout = 2 * time.Hour
)

// HubConfig holds the room lifecycle settings of a Hub
type HubConfig struct {
	CodeLength      int
	CodeAttempts    int
	EndGrace        time.Duration
	StaleTimeout    time.Duration
	CleanupInterval time.Duration
	// MaxAttempts bounds how often an action is re-evaluated after losing a write race
	MaxAttempts int
	Clock       func() time.Time
	// Generator builds topic cards from a seed phrase; nil disables seeded starts
	Generator TopicGenerator
}

// DefaultHubConfig returns the default settings
func DefaultHubConfig() HubConfig {
	return HubConfig{
		CodeLength:      DefaultRoomCodeLength,
		CodeAttempts:    DefaultRoomCodeAttempts,
		EndGrace:        3 * time.Second,
		StaleTimeout:    StaleRoomTimeout,
		CleanupInterval: 10 * time.Minute,
		MaxAttempts:     8,
		Clock:           time.Now,
	}
}

// Hub is the client action surface. Every action reads the room from the
// store, applies one state machine operation and writes it back with a
// compare-and-swap, re-evaluating from a fresh read when it loses a race.
type Hub struct {
	store   store.Store
	machine *domain.Machine
	topics  TopicProvider
	cfg     HubConfig
	logger  *slog.Logger
	codeGen func(int) string

	sessions map[string]*Session
	mu       sync.Mutex

	teardowns map[string]*time.Timer
	timersMu  sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub over st and starts the stale room sweeper
func NewHub(st store.Store, machine *domain.Machine, topics TopicProvider, cfg HubConfig, logger *slog.Logger) *Hub {
	def := DefaultHubConfig()
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = def.CodeLength
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = def.CodeAttempts
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = def.StaleTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	hub := &Hub{
		store:     st,
		machine:   machine,
		topics:    topics,
		cfg:       cfg,
		logger:    logger,
		codeGen:   GenerateRoomCode,
		sessions:  make(map[string]*Session),
		teardowns: make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go hub.cleanupLoop()
	}

	return hub
}

func (h *Hub) now() time.Time {
	return h.cfg.Clock()
}

// Rules returns the game rules rooms are played with
func (h *Hub) Rules() domain.Rules {
	return h.machine.Rules()
}

// CodeLength returns the length of room codes
func (h *Hub) CodeLength() int {
	return h.cfg.CodeLength
}

// mutate runs op against the latest snapshot and writes the result only if
// nobody else wrote in between.
func (h *Hub) mutate(ctx context.Context, roomCode string, op func(r *domain.Room) error) (*domain.Room, error) {
	for attempt := 1; attempt <= h.cfg.MaxAttempts; attempt++ {
		r, err := h.store.Get(ctx, roomCode)
		if err != nil {
			return nil, err
		}
		if err := op(r); err != nil {
			return nil, err
		}

		r.UpdatedAt = h.now()
		err = h.store.Update(ctx, r)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, store.ErrStaleRevision) {
			return nil, err
		}
		h.logger.Debug("room changed during action, re-evaluating", "roomCode", roomCode, "attempt", attempt)
	}
	return nil, domain.ErrConcurrentUpdate
}

func requireMember(r *domain.Room, playerID string) error {
	_, err := r.GetPlayer(playerID)
	return err
}

func requireHost(r *domain.Room, playerID string) error {
	if err := requireMember(r, playerID); err != nil {
		return err
	}
	if !r.IsHost(playerID) {
		return domain.ErrNotHost
	}
	return nil
}

// CreatedRoom is the result of CreateRoom
type CreatedRoom struct {
	RoomCode     string `json:"roomCode"`
	HostPlayerID string `json:"hostPlayerId"`
}

// CreateRoom writes an empty lobby and reserves host for the returned player id
func (h *Hub) CreateRoom(ctx context.Context) (CreatedRoom, error) {
	code, err := h.newRoomCode(ctx)
	if err != nil {
		return CreatedRoom{}, err
	}

	hostID := uuid.NewString()
	r := domain.NewRoom(code, hostID, h.now())
	if err := h.store.Create(ctx, r); err != nil {
		return CreatedRoom{}, fmt.Errorf("create room: %w", err)
	}

	h.logger.Info("room created", "roomCode", code)
	return CreatedRoom{RoomCode: code, HostPlayerID: hostID}, nil
}

// JoinRoom checks the room exists and hands out a fresh player id.
// The player is added once they pick a name.
func (h *Hub) JoinRoom(ctx context.Context, roomCode string) (string, error) {
	code, err := NormalizeRoomCode(roomCode, h.cfg.CodeLength)
	if err != nil {
		return "", err
	}
	exists, err := h.store.Exists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("join room: %w", err)
	}
	if !exists {
		return "", domain.ErrRoomNotFound
	}
	return uuid.NewString(), nil
}

// SetPlayerName adds the player to the lobby or updates their profile
func (h *Hub) SetPlayerName(ctx context.Context, roomCode, playerID string, profile domain.Profile) (*domain.Room, error) {
	if playerID == "" {
		return nil, domain.ErrPlayerNotFound
	}
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		_, err := h.machine.JoinAsPlayer(r, playerID, profile)
		return err
	})
}

// StartGame deals a new game. A nil topic draws one from the topic provider.
func (h *Hub) StartGame(ctx context.Context, roomCode, playerID string, topic *domain.TopicCard) (*domain.Room, error) {
	var card domain.TopicCard
	if topic != nil {
		card = topic.Normalize()
	} else {
		picked, err := h.topics.Topic(ctx, nil)
		if err != nil {
			return nil, err
		}
		card = picked
	}

	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireHost(r, playerID); err != nil {
			return err
		}
		return h.machine.StartGame(r, card)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("game started", "roomCode", roomCode, "game", r.GameNumber, "players", len(r.Players), "maxRounds", r.MaxRounds)
	return r, nil
}

// StartGameFromSeed deals a new game around a topic generated from seed.
// When generation fails the game starts with a topic from the pool.
func (h *Hub) StartGameFromSeed(ctx context.Context, roomCode, playerID, seed string) (*domain.Room, error) {
	r, err := h.store.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if err := requireHost(r, playerID); err != nil {
		return nil, err
	}
	if r.Phase != domain.PhaseLobby {
		return nil, domain.ErrGameAlreadyStarted
	}
	if h.cfg.Generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	card, err := h.cfg.Generator.Generate(ctx, seed)
	if err != nil {
		h.logger.Warn("topic generation failed, using the pool", "roomCode", roomCode, "seed", seed, "error", err)
		return h.StartGame(ctx, roomCode, playerID, nil)
	}
	return h.StartGame(ctx, roomCode, playerID, &card)
}

// SubmitTopicVote records keep/skip. A rejected topic is re-rolled straight away.
func (h *Hub) SubmitTopicVote(ctx context.Context, roomCode, playerID string, keep bool) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.SubmitTopicVote(r, playerID, keep)
	})
	if err != nil {
		return nil, err
	}
	if r.Phase != domain.PhaseSetup {
		return r, nil
	}

	h.logger.Info("topic rejected", "roomCode", roomCode, "rejected", r.RejectedTopics)
	return h.rerollTopic(ctx, roomCode, r)
}

// rerollTopic offers a category not yet rejected in this game. When no new
// topic can be dealt the room stays in SETUP until the host chooses one or
// resets; the action that led here has already been applied.
func (h *Hub) rerollTopic(ctx context.Context, roomCode string, r *domain.Room) (*domain.Room, error) {
	card, err := h.topics.Topic(ctx, r.RejectedTopics)
	if errors.Is(err, domain.ErrTopicPoolExhausted) {
		h.logger.Info("topic pool exhausted", "roomCode", roomCode)
		return r, nil
	}
	if err != nil {
		h.logger.Warn("topic re-roll failed, waiting for the host", "roomCode", roomCode, "error", err)
		return r, nil
	}

	next, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.ChooseTopic(r, card)
	})
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, domain.ErrInvalidPhase):
		// another action already moved the room on
		return h.store.Get(ctx, roomCode)
	default:
		h.logger.Warn("topic re-roll failed, waiting for the host", "roomCode", roomCode, "error", err)
		return r, nil
	}
}

// ChooseTopic deals a replacement for a rejected topic (host only). A nil
// topic draws a category not yet rejected in this game from the pool.
func (h *Hub) ChooseTopic(ctx context.Context, roomCode, playerID string, topic *domain.TopicCard) (*domain.Room, error) {
	r, err := h.store.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if err := requireHost(r, playerID); err != nil {
		return nil, err
	}
	if r.Phase != domain.PhaseSetup {
		return nil, domain.ErrInvalidPhase
	}

	var card domain.TopicCard
	if topic != nil {
		card = topic.Normalize()
	} else {
		card, err = h.topics.Topic(ctx, r.RejectedTopics)
		if err != nil {
			return nil, err
		}
	}

	r, err = h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireHost(r, playerID); err != nil {
			return err
		}
		return h.machine.ChooseTopic(r, card)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("topic chosen", "roomCode", roomCode, "category", card.Category)
	return r, nil
}

// SubmitClue records the turn-holder's clue
func (h *Hub) SubmitClue(ctx context.Context, roomCode, playerID, text string, wasLate bool) (*domain.Room, error) {
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.SubmitClue(r, playerID, text, wasLate)
	})
}

// StartVotingPhase moves on from the clue recap
func (h *Hub) StartVotingPhase(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireMember(r, playerID); err != nil {
			return err
		}
		return h.machine.StartVotingPhase(r)
	})
}

// SubmitGuess records the impostor's guess in the guessing phase
func (h *Hub) SubmitGuess(ctx context.Context, roomCode, playerID, guess string) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.SubmitGuess(r, playerID, guess)
	})
	if err != nil {
		return nil, err
	}
	if r.Phase == domain.PhaseGameOver {
		h.logger.Info("impostor guessed the word", "roomCode", roomCode, "round", r.CurrentRound)
	}
	return r, nil
}

// SubmitVote records a ballot and resolves the round on the last one
func (h *Hub) SubmitVote(ctx context.Context, roomCode string, ballot domain.Ballot) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.SubmitVote(r, ballot)
	})
	if err != nil {
		return nil, err
	}

	switch r.Phase {
	case domain.PhaseGameOver:
		h.logger.Info("round resolved", "roomCode", roomCode, "round", r.CurrentRound, "eliminated", r.LastEliminated, "winner", r.Winner)
	case domain.PhaseElimination:
		h.logger.Info("player eliminated", "roomCode", roomCode, "round", r.CurrentRound, "eliminated", r.LastEliminated)
	}
	if r.OverallWinner != "" && r.Phase == domain.PhaseGameOver {
		h.logger.Info("match winner", "roomCode", roomCode, "playerID", r.OverallWinner)
	}
	return r, nil
}

// ContinueAfterElimination opens the next round
func (h *Hub) ContinueAfterElimination(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireMember(r, playerID); err != nil {
			return err
		}
		return h.machine.ContinueAfterElimination(r)
	})
}

// ResetGame sends the room back to the lobby (host only)
func (h *Hub) ResetGame(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireHost(r, playerID); err != nil {
			return err
		}
		return h.machine.ResetGame(r)
	})
}

// EndRoom marks the room ENDED and deletes it after the grace delay (host only)
func (h *Hub) EndRoom(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		if err := requireHost(r, playerID); err != nil {
			return err
		}
		return h.machine.EndRoom(r)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("room ended", "roomCode", roomCode)
	h.scheduleTeardown(roomCode)
	return r, nil
}

func (h *Hub) scheduleTeardown(roomCode string) {
	h.timersMu.Lock()
	defer h.timersMu.Unlock()

	if _, ok := h.teardowns[roomCode]; ok {
		return
	}
	h.teardowns[roomCode] = time.AfterFunc(h.cfg.EndGrace, func() {
		h.timersMu.Lock()
		delete(h.teardowns, roomCode)
		h.timersMu.Unlock()

		if err := h.store.Remove(context.Background(), roomCode); err != nil {
			h.logger.Error("failed to delete ended room", "roomCode", roomCode, "error", err)
			return
		}
		h.logger.Info("room deleted", "roomCode", roomCode)
	})
}

// LeaveRoom removes a player and repairs whatever the phase waited on
func (h *Hub) LeaveRoom(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.RemovePlayer(r, playerID)
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("player left", "roomCode", roomCode, "playerID", playerID, "phase", r.Phase)
	if r.Phase == domain.PhaseSetup {
		return h.rerollTopic(ctx, roomCode, r)
	}
	return r, nil
}

// KickPlayer removes targetID on the host's behalf
func (h *Hub) KickPlayer(ctx context.Context, roomCode, hostID, targetID string) (*domain.Room, error) {
	r, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.KickPlayer(r, hostID, targetID)
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("player kicked", "roomCode", roomCode, "playerID", targetID)
	if r.Phase == domain.PhaseSetup {
		return h.rerollTopic(ctx, roomCode, r)
	}
	return r, nil
}

// SendChat appends a chat message
func (h *Hub) SendChat(ctx context.Context, roomCode, playerID, text string) (*domain.ChatMessage, error) {
	var msg *domain.ChatMessage
	_, err := h.mutate(ctx, roomCode, func(r *domain.Room) error {
		m, err := h.machine.SendChat(r, uuid.NewString(), playerID, text)
		msg = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateMedia records a player's camera/mic flags
func (h *Hub) UpdateMedia(ctx context.Context, roomCode, playerID string, media domain.MediaState) (*domain.Room, error) {
	return h.mutate(ctx, roomCode, func(r *domain.Room) error {
		return h.machine.UpdateMedia(r, playerID, media)
	})
}

// Room returns the latest snapshot
func (h *Hub) Room(ctx context.Context, roomCode string) (*domain.Room, error) {
	return h.store.Get(ctx, roomCode)
}

// View returns the snapshot as playerID may see it
func (h *Hub) View(ctx context.Context, roomCode, playerID string) (*domain.Room, error) {
	r, err := h.store.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	return r.ViewFor(playerID), nil
}

// Subscribe forwards the room's change feed to fn
func (h *Hub) Subscribe(roomCode string, fn func(store.Change)) func() {
	return h.store.Subscribe(roomCode, fn)
}

// Stats is a point-in-time summary of the hub
type Stats struct {
	ActiveRooms      int `json:"activeRooms"`
	TotalPlayers     int `json:"totalPlayers"`
	ConnectedClients int `json:"connectedClients"`
}

// Stats counts rooms, players and connected clients
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	rooms, err := h.store.ListRooms(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ActiveRooms: len(rooms)}
	for _, r := range rooms {
		stats.TotalPlayers += r.PlayerCount
	}

	h.mu.Lock()
	for _, s := range h.sessions {
		stats.ConnectedClients += s.ClientCount()
	}
	h.mu.Unlock()

	return stats, nil
}

// Close stops the sweeper, pending teardowns and every session
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })

	h.timersMu.Lock()
	for code, t := range h.teardowns {
		t.Stop()
		delete(h.teardowns, code)
	}
	h.timersMu.Unlock()

	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// cleanupLoop periodically cleans up stale rooms
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(h.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			if _, err := h.CleanupStaleRooms(context.Background()); err != nil {
				h.logger.Error("stale room cleanup failed", "error", err)
			}
		}
	}
}

// CleanupStaleRooms deletes empty rooms older than the stale timeout, rooms
// idle for longer than it, and ended rooms whose teardown never ran.
func (h *Hub) CleanupStaleRooms(ctx context.Context) (int, error) {
	rooms, err := h.store.ListRooms(ctx)
	if err != nil {
		return 0, err
	}

	now := h.now()
	removed := 0
	for _, r := range rooms {
		stale := (r.PlayerCount == 0 && now.Sub(r.CreatedAt) > h.cfg.StaleTimeout) ||
			now.Sub(r.UpdatedAt) > h.cfg.StaleTimeout ||
			(r.Phase == domain.PhaseEnded && now.Sub(r.UpdatedAt) > h.cfg.EndGrace)
		if !stale {
			continue
		}
		if err := h.store.Remove(ctx, r.ID); err != nil {
			return removed, err
		}
		removed++
		h.logger.Info("stale room cleaned up", "roomCode", r.ID)
	}
	return removed, nil
}
