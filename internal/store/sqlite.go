package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"chameleon/internal/domain"
)

// SQLiteStore persists room documents in a SQLite database
type SQLiteStore struct {
	db   *sqlx.DB
	feed *feed
}

type roomRow struct {
	ID          string       `db:"id"`
	Revision    uint64       `db:"revision"`
	Doc         []byte       `db:"doc"`
	Phase       domain.Phase `db:"phase"`
	PlayerCount int          `db:"player_count"`
	CreatedAt   int64        `db:"created_at"`
	UpdatedAt   int64        `db:"updated_at"`
}

type childRow struct {
	Seq   int64  `db:"seq"`
	Value []byte `db:"value"`
}

// NewSQLiteStore opens (and creates if needed) the database at dbPath.
// ":memory:" gives a private throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" shared and serializes writers
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, feed: newFeed()}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS rooms (
  id TEXT PRIMARY KEY,
  revision INTEGER NOT NULL,
  doc BLOB NOT NULL,
  phase TEXT NOT NULL,
  player_count INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS room_children (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  room_id TEXT NOT NULL,
  path TEXT NOT NULL,
  child_key TEXT NOT NULL,
  value BLOB NOT NULL,
  FOREIGN KEY(room_id) REFERENCES rooms(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_room_children_path ON room_children(room_id, path, seq);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Get retrieves a room by code
func (s *SQLiteStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	var row roomRow
	err := s.db.GetContext(ctx, &row, `SELECT id, revision, doc, phase, player_count, created_at, updated_at FROM rooms WHERE id = ?`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}

	r, err := domain.DecodeRoom(row.Doc)
	if err != nil {
		return nil, err
	}
	r.Revision = row.Revision
	return r, nil
}

// Exists checks if a room code is in use
func (s *SQLiteStore) Exists(ctx context.Context, roomID string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM rooms WHERE id = ?`, roomID); err != nil {
		return false, fmt.Errorf("check room %s: %w", roomID, err)
	}
	return n > 0, nil
}

// Create inserts a new room
func (s *SQLiteStore) Create(ctx context.Context, room *domain.Room) error {
	room.Revision = 1
	doc, err := domain.EncodeRoom(room)
	if err != nil {
		room.Revision = 0
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, revision, doc, phase, player_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Revision, doc, room.Phase, len(room.Players), room.CreatedAt.UnixNano(), room.UpdatedAt.UnixNano())
	if err != nil {
		room.Revision = 0
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrRoomExists
		}
		return fmt.Errorf("create room %s: %w", room.ID, err)
	}

	s.feed.publishRoom(room)
	return nil
}

// Update writes the room only if its revision is unchanged in the database
func (s *SQLiteStore) Update(ctx context.Context, room *domain.Room) error {
	next := room.Revision + 1
	candidate := room.Clone()
	candidate.Revision = next
	doc, err := domain.EncodeRoom(candidate)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET revision = ?, doc = ?, phase = ?, player_count = ?, updated_at = ? WHERE id = ? AND revision = ?`,
		next, doc, room.Phase, len(room.Players), room.UpdatedAt.UnixNano(), room.ID, room.Revision)
	if err != nil {
		return fmt.Errorf("update room %s: %w", room.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update room %s: %w", room.ID, err)
	}
	if n == 0 {
		exists, err := s.Exists(ctx, room.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrRoomNotFound
		}
		return ErrStaleRevision
	}

	room.Revision = next
	s.feed.publishRoom(room)
	return nil
}

// Remove deletes a room and its child logs
func (s *SQLiteStore) Remove(ctx context.Context, roomID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("remove room %s: %w", roomID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.feed.publishRemoved(roomID)
	}
	return nil
}

// ListRooms summarizes all rooms ordered by code
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	rows := make([]roomRow, 0)
	err := s.db.SelectContext(ctx, &rows, `SELECT id, revision, phase, player_count, created_at, updated_at FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	out := make([]RoomSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, RoomSummary{
			ID:          row.ID,
			Phase:       row.Phase,
			PlayerCount: row.PlayerCount,
			CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
			UpdatedAt:   time.Unix(0, row.UpdatedAt).UTC(),
		})
	}
	return out, nil
}

// PushChild appends to a room's child log
func (s *SQLiteStore) PushChild(ctx context.Context, roomID, path string, value []byte) (string, error) {
	key := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO room_children (room_id, path, child_key, value) SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM rooms WHERE id = ?)`,
		roomID, path, key, value, roomID)
	if err != nil {
		return "", fmt.Errorf("push %s/%s: %w", roomID, path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", domain.ErrRoomNotFound
	}

	s.feed.publishChild(roomID, path)
	return key, nil
}

// PopChildren drains a room's child log in one transaction
func (s *SQLiteStore) PopChildren(ctx context.Context, roomID, path string) ([][]byte, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pop %s/%s: %w", roomID, path, err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM rooms WHERE id = ?`, roomID); err != nil {
		return nil, fmt.Errorf("pop %s/%s: %w", roomID, path, err)
	}
	if exists == 0 {
		return nil, domain.ErrRoomNotFound
	}

	rows := make([]childRow, 0)
	err = tx.SelectContext(ctx, &rows, `SELECT seq, value FROM room_children WHERE room_id = ? AND path = ? ORDER BY seq`, roomID, path)
	if err != nil {
		return nil, fmt.Errorf("pop %s/%s: %w", roomID, path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	last := rows[len(rows)-1].Seq
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_children WHERE room_id = ? AND path = ? AND seq <= ?`, roomID, path, last); err != nil {
		return nil, fmt.Errorf("pop %s/%s: %w", roomID, path, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pop %s/%s: %w", roomID, path, err)
	}

	values := make([][]byte, len(rows))
	for i, row := range rows {
		values[i] = row.Value
	}
	return values, nil
}

// Subscribe registers a change feed callback for one room
func (s *SQLiteStore) Subscribe(roomID string, fn func(Change)) func() {
	return s.feed.subscribe(roomID, fn)
}

// Close stops subscriptions and closes the database
func (s *SQLiteStore) Close() error {
	s.feed.close()
	return s.db.Close()
}
