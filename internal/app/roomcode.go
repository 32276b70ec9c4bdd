package app

import (
	"context"
	"crypto/rand"
	"strings"

	"chameleon/internal/domain"
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRoomCode returns a random code of the given length
func GenerateRoomCode(length int) string {
	b := make([]byte, length)
	rand.Read(b)

	code := make([]byte, length)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}
	return string(code)
}

// NormalizeRoomCode uppercases a typed code and checks it against the alphabet
func NormalizeRoomCode(code string, length int) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != length {
		return "", domain.ErrInvalidRoomCode
	}
	for _, c := range code {
		if !strings.ContainsRune(RoomCodeChars, c) {
			return "", domain.ErrInvalidRoomCode
		}
	}
	return code, nil
}

// newRoomCode draws codes until one is unused. After the last attempt the
// candidate is accepted anyway and Create reports a real collision.
func (h *Hub) newRoomCode(ctx context.Context) (string, error) {
	var code string
	for attempt := 0; attempt < h.cfg.CodeAttempts; attempt++ {
		code = h.codeGen(h.cfg.CodeLength)
		exists, err := h.store.Exists(ctx, code)
		if err != nil {
			h.logger.Warn("room code check failed", "roomCode", code, "error", err)
			continue
		}
		if !exists {
			return code, nil
		}
	}
	return code, nil
}
