package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"chameleon/internal/domain"
)

type memoryRoom struct {
	doc      []byte
	revision uint64
	children map[string][][]byte
}

// MemoryStore keeps encoded room documents in a map
type MemoryStore struct {
	rooms map[string]*memoryRoom
	mu    sync.RWMutex
	feed  *feed
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*memoryRoom),
		feed:  newFeed(),
	}
}

// Get retrieves a room by code
func (s *MemoryStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.RLock()
	entry, ok := s.rooms[roomID]
	var doc []byte
	var revision uint64
	if ok {
		doc, revision = entry.doc, entry.revision
	}
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	r, err := domain.DecodeRoom(doc)
	if err != nil {
		return nil, err
	}
	r.Revision = revision
	return r, nil
}

// Exists checks if a room code is in use
func (s *MemoryStore) Exists(ctx context.Context, roomID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok, nil
}

// Create stores a new room
func (s *MemoryStore) Create(ctx context.Context, room *domain.Room) error {
	room.Revision = 1
	doc, err := domain.EncodeRoom(room)
	if err != nil {
		room.Revision = 0
		return err
	}

	s.mu.Lock()
	if _, ok := s.rooms[room.ID]; ok {
		s.mu.Unlock()
		room.Revision = 0
		return ErrRoomExists
	}
	s.rooms[room.ID] = &memoryRoom{doc: doc, revision: 1, children: make(map[string][][]byte)}
	s.mu.Unlock()

	s.feed.publishRoom(room)
	return nil
}

// Update replaces a room if nobody wrote it since it was read
func (s *MemoryStore) Update(ctx context.Context, room *domain.Room) error {
	next := room.Revision + 1
	candidate := room.Clone()
	candidate.Revision = next
	doc, err := domain.EncodeRoom(candidate)
	if err != nil {
		return err
	}

	s.mu.Lock()
	entry, ok := s.rooms[room.ID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if entry.revision != room.Revision {
		s.mu.Unlock()
		return ErrStaleRevision
	}
	entry.doc = doc
	entry.revision = next
	s.mu.Unlock()

	room.Revision = next
	s.feed.publishRoom(room)
	return nil
}

// Remove deletes a room
func (s *MemoryStore) Remove(ctx context.Context, roomID string) error {
	s.mu.Lock()
	_, ok := s.rooms[roomID]
	delete(s.rooms, roomID)
	s.mu.Unlock()

	if ok {
		s.feed.publishRemoved(roomID)
	}
	return nil
}

// ListRooms summarizes all rooms ordered by code
func (s *MemoryStore) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	s.mu.RLock()
	docs := make([][]byte, 0, len(s.rooms))
	for _, entry := range s.rooms {
		docs = append(docs, entry.doc)
	}
	s.mu.RUnlock()

	out := make([]RoomSummary, 0, len(docs))
	for _, doc := range docs {
		r, err := domain.DecodeRoom(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PushChild appends to a room's child log
func (s *MemoryStore) PushChild(ctx context.Context, roomID, path string, value []byte) (string, error) {
	s.mu.Lock()
	entry, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return "", domain.ErrRoomNotFound
	}
	entry.children[path] = append(entry.children[path], append([]byte(nil), value...))
	s.mu.Unlock()

	s.feed.publishChild(roomID, path)
	return uuid.NewString(), nil
}

// PopChildren drains a room's child log
func (s *MemoryStore) PopChildren(ctx context.Context, roomID, path string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	values := entry.children[path]
	delete(entry.children, path)
	return values, nil
}

// Subscribe registers a change feed callback for one room
func (s *MemoryStore) Subscribe(roomID string, fn func(Change)) func() {
	return s.feed.subscribe(roomID, fn)
}

// Close stops every subscription
func (s *MemoryStore) Close() error {
	s.feed.close()
	return nil
}
