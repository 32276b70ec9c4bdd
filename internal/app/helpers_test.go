package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chameleon/internal/domain"
	"chameleon/internal/store"
)

var testNow = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTopic(category string) domain.TopicCard {
	words := make([]string, domain.TopicWordCount)
	for i := range words {
		words[i] = fmt.Sprintf("%s %d", category, i)
	}
	return domain.TopicCard{Category: category, Words: words}
}

type testHub struct {
	*Hub
	store *store.MemoryStore
	clock *fakeClock
}

func defaultTestTopics() []domain.TopicCard {
	return []domain.TopicCard{testTopic("Animals"), testTopic("Sports"), testTopic("Food")}
}

func newTestHub(t *testing.T, rules domain.Rules, topics ...domain.TopicCard) *testHub {
	t.Helper()
	if len(topics) == 0 {
		topics = defaultTestTopics()
	}
	return newTestHubWith(t, rules, hubDeps{topics: NewTopicPool(topics, nil)})
}

// hubDeps overrides the collaborators of a test hub
type hubDeps struct {
	topics    TopicProvider
	generator TopicGenerator
	wrap      func(store.Store) store.Store
}

func newTestHubWith(t *testing.T, rules domain.Rules, deps hubDeps) *testHub {
	t.Helper()
	if deps.topics == nil {
		deps.topics = NewTopicPool(defaultTestTopics(), nil)
	}

	clock := &fakeClock{now: testNow}
	mem := store.NewMemoryStore()
	var st store.Store = mem
	if deps.wrap != nil {
		st = deps.wrap(mem)
	}

	cfg := DefaultHubConfig()
	cfg.CleanupInterval = 0
	cfg.EndGrace = 20 * time.Millisecond
	cfg.Clock = clock.Now
	cfg.Generator = deps.generator

	hub := NewHub(st, domain.NewMachine(rules), deps.topics, cfg, discardLogger())
	t.Cleanup(func() {
		hub.Close()
		mem.Close()
	})
	return &testHub{Hub: hub, store: mem, clock: clock}
}

func noTopicVoteRules() domain.Rules {
	rules := domain.DefaultRules()
	rules.TopicVoteEnabled = false
	return rules
}

// lobbyWith creates a room and names n players; the first is host
func (h *testHub) lobbyWith(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()

	created, err := h.CreateRoom(ctx)
	require.NoError(t, err)

	ids := []string{created.HostPlayerID}
	for len(ids) < n {
		id, err := h.JoinRoom(ctx, created.RoomCode)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for i, id := range ids {
		_, err := h.SetPlayerName(ctx, created.RoomCode, id, domain.Profile{Name: fmt.Sprintf("Player %d", i+1)})
		require.NoError(t, err)
	}
	return created.RoomCode, ids
}

// votingRoom returns a room code whose first round is in VOTING
func (h *testHub) votingRoom(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	code, ids := h.lobbyWith(t, n)

	r, err := h.StartGame(ctx, code, ids[0], nil)
	require.NoError(t, err)
	if r.Phase == domain.PhaseTopicVote {
		for _, id := range ids {
			r, err = h.SubmitTopicVote(ctx, code, id, true)
			require.NoError(t, err)
		}
	}
	for r.Phase == domain.PhaseClues {
		r, err = h.SubmitClue(ctx, code, r.CurrentTurnPlayerID(), "clue", false)
		require.NoError(t, err)
	}
	r, err = h.StartVotingPhase(ctx, code, ids[0])
	require.NoError(t, err)
	require.Equal(t, domain.PhaseVoting, r.Phase)
	return code, ids
}

func citizensOf(r *domain.Room) []string {
	out := make([]string, 0)
	for _, p := range r.ActivePlayers() {
		if !p.Role.IsImpostor() {
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	return out
}

// fakeClient records what a session pushes to it
type fakeClient struct {
	playerID string
	mu       sync.Mutex
	events   []*Event
	closed   bool
}

func (c *fakeClient) Send(event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeClient) GetPlayerID() string {
	return c.playerID
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) last(eventType EventType) *Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == eventType {
			return c.events[i]
		}
	}
	return nil
}

func (c *fakeClient) received(match func(*Event) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if match(e) {
			return true
		}
	}
	return false
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// conflictingStore loses every compare-and-swap
type conflictingStore struct {
	store.Store
	updates int
}

func (s *conflictingStore) Update(ctx context.Context, r *domain.Room) error {
	s.updates++
	return store.ErrStaleRevision
}

// flakyTopics fails the nth draw and delegates every other one
type flakyTopics struct {
	TopicProvider
	failOn int
	calls  atomic.Int32
}

func (f *flakyTopics) Topic(ctx context.Context, exclude []string) (domain.TopicCard, error) {
	if int(f.calls.Add(1)) == f.failOn {
		return domain.TopicCard{}, errors.New("topic service unavailable")
	}
	return f.TopicProvider.Topic(ctx, exclude)
}

// fakeGenerator returns card or err and remembers the seed it was asked for
type fakeGenerator struct {
	card domain.TopicCard
	err  error
	seed string
}

func (g *fakeGenerator) Generate(ctx context.Context, seed string) (domain.TopicCard, error) {
	g.seed = seed
	return g.card, g.err
}

// interleavingStore runs onGet once, right after the next Get has read the room
type interleavingStore struct {
	store.Store
	armed atomic.Bool
	onGet func()
}

func (s *interleavingStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	r, err := s.Store.Get(ctx, roomID)
	if s.armed.CompareAndSwap(true, false) {
		s.onGet()
	}
	return r, err
}
