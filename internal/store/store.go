package store

import (
	"context"
	"fmt"
	"time"

	"chameleon/internal/domain"
)

var (
	// ErrRoomExists is returned by Create when the id is already taken
	ErrRoomExists = fmt.Errorf("room already exists: %w", domain.ErrConflict)

	// ErrStaleRevision is returned by Update when the room changed since it was read
	ErrStaleRevision = fmt.Errorf("room revision is stale: %w", domain.ErrConflict)
)

// Store is the shared room state. Every write is atomic for the whole room
// document, and Update only succeeds against the revision that was read.
type Store interface {
	// Get returns the latest decoded snapshot, or domain.ErrRoomNotFound
	Get(ctx context.Context, roomID string) (*domain.Room, error)

	// Exists reports whether a room id is in use
	Exists(ctx context.Context, roomID string) (bool, error)

	// Create writes a brand-new room at revision 1
	Create(ctx context.Context, room *domain.Room) error

	// Update writes room if the stored revision still equals room.Revision,
	// then bumps room.Revision. Otherwise it returns ErrStaleRevision.
	Update(ctx context.Context, room *domain.Room) error

	// Remove deletes a room and all of its child logs
	Remove(ctx context.Context, roomID string) error

	// ListRooms summarizes every stored room
	ListRooms(ctx context.Context) ([]RoomSummary, error)

	// PushChild appends value to the log at path under the room and
	// returns the generated key.
	PushChild(ctx context.Context, roomID, path string, value []byte) (string, error)

	// PopChildren returns and deletes everything queued at path, oldest first
	PopChildren(ctx context.Context, roomID, path string) ([][]byte, error)

	// Subscribe calls fn for every change to the room until the returned
	// func is called. Snapshots are coalesced so a slow subscriber only
	// ever sees the latest one.
	Subscribe(roomID string, fn func(Change)) (unsubscribe func())

	Close() error
}

// Change is one change feed notification. Exactly one of Room, Child or
// Removed is set.
type Change struct {
	RoomID  string
	Room    *domain.Room
	Child   string
	Removed bool
}

// RoomSummary is the listing entry for a room
type RoomSummary struct {
	ID          string       `json:"id" db:"id"`
	Phase       domain.Phase `json:"phase" db:"phase"`
	PlayerCount int          `json:"playerCount" db:"player_count"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func summarize(r *domain.Room) RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Phase:       r.Phase,
		PlayerCount: len(r.Players),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SignalPath is the child log that holds signaling envelopes for a player
func SignalPath(playerID string) string {
	return "signals/" + playerID
}
