package store

import (
	"sort"
	"sync"

	"chameleon/internal/domain"
)

// feed fans store changes out to subscribers. Each subscriber owns a
// mailbox holding only the latest snapshot plus the set of child paths
// touched since its last delivery, drained by its own goroutine so a slow
// callback never blocks a writer.
type feed struct {
	mu     sync.Mutex
	subs   map[string]map[int]*subscriber
	nextID int
}

type subscriber struct {
	fn       func(Change)
	mu       sync.Mutex
	room     *domain.Room
	seen     uint64
	children map[string]struct{}
	removed  bool
	wake     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newFeed() *feed {
	return &feed{subs: make(map[string]map[int]*subscriber)}
}

func (f *feed) subscribe(roomID string, fn func(Change)) func() {
	sub := &subscriber{
		fn:       fn,
		children: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[roomID] == nil {
		f.subs[roomID] = make(map[int]*subscriber)
	}
	f.subs[roomID][id] = sub
	f.mu.Unlock()

	go sub.run(roomID)

	return func() {
		f.mu.Lock()
		delete(f.subs[roomID], id)
		if len(f.subs[roomID]) == 0 {
			delete(f.subs, roomID)
		}
		f.mu.Unlock()
		sub.stop()
	}
}

func (f *feed) subscribers(roomID string) []*subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]*subscriber, 0, len(f.subs[roomID]))
	for _, s := range f.subs[roomID] {
		subs = append(subs, s)
	}
	return subs
}

func (f *feed) publishRoom(r *domain.Room) {
	for _, s := range f.subscribers(r.ID) {
		snapshot := r.Clone()
		s.post(func() {
			// writers publish outside their lock, so an older revision can arrive late
			if snapshot.Revision < s.seen {
				return
			}
			s.room = snapshot
			s.seen = snapshot.Revision
		})
	}
}

func (f *feed) publishChild(roomID, path string) {
	for _, s := range f.subscribers(roomID) {
		s.post(func() { s.children[path] = struct{}{} })
	}
}

func (f *feed) publishRemoved(roomID string) {
	for _, s := range f.subscribers(roomID) {
		s.post(func() {
			s.room = nil
			s.seen = 0
			s.removed = true
		})
	}
}

func (f *feed) close() {
	f.mu.Lock()
	all := f.subs
	f.subs = make(map[string]map[int]*subscriber)
	f.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.stop()
		}
	}
}

func (s *subscriber) post(update func()) {
	s.mu.Lock()
	update()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run(roomID string) {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		room, removed := s.room, s.removed
		paths := make([]string, 0, len(s.children))
		for p := range s.children {
			paths = append(paths, p)
		}
		s.room = nil
		s.removed = false
		s.children = make(map[string]struct{})
		s.mu.Unlock()
		sort.Strings(paths)

		if room != nil {
			s.fn(Change{RoomID: roomID, Room: room})
		}
		for _, p := range paths {
			s.fn(Change{RoomID: roomID, Child: p})
		}
		if removed {
			s.fn(Change{RoomID: roomID, Removed: true})
		}
	}
}
