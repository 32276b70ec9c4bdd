package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chameleon/internal/domain"
	"chameleon/internal/store"
)

// ErrInvalidSignal is returned for envelopes without a known type or recipient
var ErrInvalidSignal = fmt.Errorf("invalid signaling envelope: %w", domain.ErrValidation)

// SignalType is the kind of WebRTC negotiation message
type SignalType string

const (
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice-candidate"
)

// Signal is an opaque signaling envelope relayed between two players.
// Payload is never inspected.
type Signal struct {
	Type      SignalType      `json:"type"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s Signal) validate() error {
	switch s.Type {
	case SignalOffer, SignalAnswer, SignalICECandidate:
	default:
		return ErrInvalidSignal
	}
	if s.From == "" || s.To == "" || s.From == s.To {
		return ErrInvalidSignal
	}
	return nil
}

// SendSignal queues an envelope in the recipient's inbox
func (h *Hub) SendSignal(ctx context.Context, roomCode string, sig Signal) error {
	if err := sig.validate(); err != nil {
		return err
	}
	r, err := h.store.Get(ctx, roomCode)
	if err != nil {
		return err
	}
	if _, err := r.GetPlayer(sig.From); err != nil {
		return err
	}
	if _, err := r.GetPlayer(sig.To); err != nil {
		return err
	}

	sig.Timestamp = h.now()
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}
	if _, err := h.store.PushChild(ctx, roomCode, store.SignalPath(sig.To), data); err != nil {
		return fmt.Errorf("push signal: %w", err)
	}
	return nil
}

// TakeSignals pops every envelope waiting for playerID
func (h *Hub) TakeSignals(ctx context.Context, roomCode, playerID string) ([]Signal, error) {
	values, err := h.store.PopChildren(ctx, roomCode, store.SignalPath(playerID))
	if err != nil {
		return nil, err
	}

	signals := make([]Signal, 0, len(values))
	for _, v := range values {
		var sig Signal
		if err := json.Unmarshal(v, &sig); err != nil {
			h.logger.Warn("dropping unreadable signal", "roomCode", roomCode, "playerID", playerID, "error", err)
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
