package domain

import (
	"slices"
	"sort"
	"strings"
)

// JoinAsPlayer adds a player to the lobby, or updates an existing player's profile.
// The player becomes host when nobody holds it and the room's host claim is
// theirs or unset.
func (m *Machine) JoinAsPlayer(r *Room, playerID string, profile Profile) (*Player, error) {
	if r.Phase == PhaseEnded {
		return nil, ErrRoomEnded
	}

	name, err := m.validateName(profile.Name)
	if err != nil {
		return nil, err
	}
	profile.Name = name

	if p, ok := r.Players[playerID]; ok {
		p.Name = profile.Name
		if profile.CharacterStyle != "" {
			p.CharacterStyle = profile.CharacterStyle
		}
		if profile.AvatarSeed != "" {
			p.AvatarSeed = profile.AvatarSeed
		}
		return p, nil
	}

	if r.Phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	if len(r.Players) >= m.rules.MaxPlayers {
		return nil, ErrRoomFull
	}

	player := NewPlayer(playerID, profile, m.now())
	if r.HostID() == "" && (r.HostClaim == "" || r.HostClaim == playerID) {
		player.IsHost = true
	}
	r.Players[playerID] = player

	return player, nil
}

func (m *Machine) validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if m.rules.MaxNameLength > 0 && len([]rune(name)) > m.rules.MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// KickPlayer removes targetID on the host's behalf
func (m *Machine) KickPlayer(r *Room, hostID, targetID string) error {
	if !r.IsHost(hostID) {
		return ErrNotHost
	}
	if hostID == targetID {
		return ErrCannotKickSelf
	}
	return m.RemovePlayer(r, targetID)
}

// RemovePlayer takes a player out of the room and repairs whatever the
// current phase was waiting on them for.
func (m *Machine) RemovePlayer(r *Room, playerID string) error {
	if r.Phase == PhaseEnded {
		return ErrRoomEnded
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}

	heldTurn := r.Phase == PhaseClues && r.CurrentTurnPlayerID() == playerID

	delete(r.Players, playerID)
	delete(r.TopicVotes, playerID)
	if r.HostClaim == playerID {
		r.HostClaim = ""
	}
	for _, other := range r.Players {
		if other.VotedFor == playerID {
			other.VotedFor = ""
			other.VoteLate = false
		}
	}
	m.removeFromTurnOrder(r, playerID)
	if p.IsHost {
		promoteHost(r)
	}

	if !r.Phase.InGame() || r.Phase == PhaseGameOver {
		return nil
	}

	if p.Role.IsImpostor() {
		return endGame(r, WinnerCitizens)
	}
	if len(r.ActivePlayers()) <= 2 {
		return endGame(r, WinnerImpostor)
	}

	switch r.Phase {
	case PhaseTopicVote:
		return m.resolveTopicVote(r)
	case PhaseClues:
		if heldTurn {
			return m.advanceTurn(r)
		}
	case PhaseVoting:
		for _, a := range r.ActivePlayers() {
			if !a.HasVoted() {
				return nil
			}
		}
		return m.resolveVotes(r)
	}
	return nil
}

// endGame closes the game without scoring it
func endGame(r *Room, winner Winner) error {
	if err := setPhase(r, PhaseGameOver); err != nil {
		return err
	}
	r.Winner = winner
	r.TimerStartedAt = nil
	return nil
}

func (m *Machine) removeFromTurnOrder(r *Room, playerID string) {
	idx := slices.Index(r.TurnOrder, playerID)
	if idx < 0 {
		return
	}
	r.TurnOrder = slices.Delete(r.TurnOrder, idx, idx+1)

	if idx < r.CurrentTurnIndex {
		r.CurrentTurnIndex--
	}
	if r.CurrentTurnIndex >= len(r.TurnOrder) {
		r.CurrentTurnIndex = max(len(r.TurnOrder)-1, 0)
	}
}

// promoteHost hands host to the longest-present remaining player
func promoteHost(r *Room) {
	if len(r.Players) == 0 || r.HostID() != "" {
		return
	}

	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	players[0].IsHost = true
}

// EndRoom marks the room as torn down so subscribers can exit
func (m *Machine) EndRoom(r *Room) error {
	if r.Phase == PhaseEnded {
		return ErrRoomEnded
	}
	if err := setPhase(r, PhaseEnded); err != nil {
		return err
	}
	r.TimerStartedAt = nil
	return nil
}

// SendChat appends a chat message, dropping the oldest past the history cap
func (m *Machine) SendChat(r *Room, messageID, playerID, text string) (*ChatMessage, error) {
	if r.Phase == PhaseEnded {
		return nil, ErrRoomEnded
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	msg := ChatMessage{
		ID:             messageID,
		PlayerID:       playerID,
		PlayerName:     p.Name,
		CharacterStyle: p.CharacterStyle,
		Text:           text,
		Timestamp:      m.now(),
	}
	if r.Messages == nil {
		r.Messages = make(map[string]ChatMessage)
	}
	r.Messages[messageID] = msg

	if limit := m.rules.ChatHistory; limit > 0 && len(r.Messages) > limit {
		msgs := r.ChatLog()
		for _, old := range msgs[:len(msgs)-limit] {
			delete(r.Messages, old.ID)
		}
	}
	return &msg, nil
}

// ChatLog returns the chat messages oldest first
func (r *Room) ChatLog() []ChatMessage {
	msgs := make([]ChatMessage, 0, len(r.Messages))
	for _, msg := range r.Messages {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs
}

// UpdateMedia records a player's camera/mic flags
func (m *Machine) UpdateMedia(r *Room, playerID string, media MediaState) error {
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	p.Media = &media
	return nil
}
