package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeRoom parses a stored snapshot and validates it before the state
// machine touches it.
func DecodeRoom(data []byte) (*Room, error) {
	var r Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if r.Players == nil {
		r.Players = make(map[string]*Player)
	}
	if r.TurnOrder == nil {
		r.TurnOrder = make([]string, 0)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// EncodeRoom serializes a room for storage
func EncodeRoom(r *Room) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// Validate checks the structural invariants of a snapshot
func (r *Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedSnapshot)
	}
	if !r.Phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", ErrMalformedSnapshot, r.Phase)
	}

	hosts, impostors := 0, 0
	for id, p := range r.Players {
		if p == nil || p.ID != id {
			return fmt.Errorf("%w: player entry %q does not match its key", ErrMalformedSnapshot, id)
		}
		if p.IsHost {
			hosts++
		}
		if p.Role.IsImpostor() {
			impostors++
		}
	}
	if hosts > 1 {
		return fmt.Errorf("%w: %d hosts", ErrMalformedSnapshot, hosts)
	}
	if len(r.Players) > 0 && hosts == 0 && r.HostClaim == "" {
		return fmt.Errorf("%w: no host", ErrMalformedSnapshot)
	}
	if impostors > 1 || (r.Phase.InGame() && r.Phase != PhaseGameOver && impostors != 1) {
		return fmt.Errorf("%w: %d impostors in phase %s", ErrMalformedSnapshot, impostors, r.Phase)
	}

	for _, id := range r.TurnOrder {
		if _, ok := r.Players[id]; !ok {
			return fmt.Errorf("%w: turn order references unknown player %q", ErrMalformedSnapshot, id)
		}
	}
	if len(r.TurnOrder) > 0 && (r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.TurnOrder)) {
		return fmt.Errorf("%w: turn index %d out of range", ErrMalformedSnapshot, r.CurrentTurnIndex)
	}

	if r.Topic != nil {
		if err := r.Topic.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
	}
	if r.SecretWordIndex != nil {
		if r.Topic == nil || *r.SecretWordIndex < 0 || *r.SecretWordIndex >= len(r.Topic.Words) {
			return fmt.Errorf("%w: secret word index out of range", ErrMalformedSnapshot)
		}
	}
	if r.MaxRounds < 0 || r.CurrentRound < 0 {
		return fmt.Errorf("%w: negative round counters", ErrMalformedSnapshot)
	}
	return nil
}
