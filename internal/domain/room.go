package domain

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Room is the root aggregate: one document per game session
type Room struct {
	ID               string                 `json:"id"`
	Revision         uint64                 `json:"revision"`
	Phase            Phase                  `json:"phase"`
	HostClaim        string                 `json:"hostClaim,omitempty"`
	Players          map[string]*Player     `json:"players"`
	Topic            *TopicCard             `json:"topic,omitempty"`
	SecretWordIndex  *int                   `json:"secretWordIndex,omitempty"`
	TurnOrder        []string               `json:"turnOrder"`
	CurrentTurnIndex int                    `json:"currentTurnIndex"`
	CurrentRound     int                    `json:"currentRound"`
	MaxRounds        int                    `json:"maxRounds"`
	GameNumber       int                    `json:"gameNumber"`
	LastEliminated   string                 `json:"lastEliminated,omitempty"`
	Winner           Winner                 `json:"winner,omitempty"`
	OverallWinner    string                 `json:"overallWinner,omitempty"`
	TopicVotes       map[string]bool        `json:"topicVotes,omitempty"`
	RejectedTopics   []string               `json:"rejectedTopics,omitempty"`
	VoteCounts       map[string]int         `json:"voteCounts,omitempty"`
	TimerStartedAt   *time.Time             `json:"timerStartedAt,omitempty"`
	Messages         map[string]ChatMessage `json:"messages,omitempty"`
	ScoreLog         []ScoreEntry           `json:"scoreLog,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// ChatMessage is one entry of the room's live chat
type ChatMessage struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"playerId"`
	PlayerName     string    `json:"playerName"`
	CharacterStyle string    `json:"characterStyle"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewRoom creates an empty lobby. hostClaim is the player id reserved for the creator.
func NewRoom(id, hostClaim string, now time.Time) *Room {
	return &Room{
		ID:        id,
		Phase:     PhaseLobby,
		HostClaim: hostClaim,
		Players:   make(map[string]*Player),
		TurnOrder: make([]string, 0),
		MaxRounds: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	player, ok := r.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// PlayerIDs returns all player IDs in sorted order
func (r *Room) PlayerIDs() []string {
	ids := slices.Collect(maps.Keys(r.Players))
	sort.Strings(ids)
	return ids
}

// ActivePlayers returns the non-eliminated players sorted by ID
func (r *Room) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, id := range r.PlayerIDs() {
		if p := r.Players[id]; p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

// ActivePlayerIDs returns the non-eliminated player IDs sorted
func (r *Room) ActivePlayerIDs() []string {
	active := r.ActivePlayers()
	ids := make([]string, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	return ids
}

// ImpostorID returns the impostor's ID, or "" outside a game
func (r *Room) ImpostorID() string {
	for id, p := range r.Players {
		if p.Role.IsImpostor() {
			return id
		}
	}
	return ""
}

// HostID returns the host's ID, or "" if nobody holds it
func (r *Room) HostID() string {
	for id, p := range r.Players {
		if p.IsHost {
			return id
		}
	}
	return ""
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	p, ok := r.Players[playerID]
	return ok && p.IsHost
}

// SecretWord returns the word everyone but the impostor sees
func (r *Room) SecretWord() string {
	if r.Topic == nil || r.SecretWordIndex == nil {
		return ""
	}
	idx := *r.SecretWordIndex
	if idx < 0 || idx >= len(r.Topic.Words) {
		return ""
	}
	return r.Topic.Words[idx]
}

// CurrentTurnPlayerID returns whose turn it is to submit a clue
func (r *Room) CurrentTurnPlayerID() string {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.TurnOrder) {
		return ""
	}
	return r.TurnOrder[r.CurrentTurnIndex]
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r

	c.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		cp := *p
		if p.ClueSubmittedAt != nil {
			t := *p.ClueSubmittedAt
			cp.ClueSubmittedAt = &t
		}
		if p.Media != nil {
			m := *p.Media
			cp.Media = &m
		}
		c.Players[id] = &cp
	}

	if r.Topic != nil {
		t := TopicCard{Category: r.Topic.Category, Words: slices.Clone(r.Topic.Words)}
		c.Topic = &t
	}
	if r.SecretWordIndex != nil {
		idx := *r.SecretWordIndex
		c.SecretWordIndex = &idx
	}
	if r.TimerStartedAt != nil {
		t := *r.TimerStartedAt
		c.TimerStartedAt = &t
	}

	c.TurnOrder = slices.Clone(r.TurnOrder)
	c.RejectedTopics = slices.Clone(r.RejectedTopics)
	c.ScoreLog = slices.Clone(r.ScoreLog)
	c.TopicVotes = maps.Clone(r.TopicVotes)
	c.VoteCounts = maps.Clone(r.VoteCounts)
	c.Messages = maps.Clone(r.Messages)

	return &c
}

// stampTimer anchors the active phase's countdown
func (r *Room) stampTimer(now time.Time) {
	t := now
	r.TimerStartedAt = &t
}
