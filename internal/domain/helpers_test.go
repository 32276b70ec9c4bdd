package domain

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func testTopic(category string) TopicCard {
	words := make([]string, TopicWordCount)
	for i := range words {
		words[i] = fmt.Sprintf("%s-%d", category, i)
	}
	return TopicCard{Category: category, Words: words}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+7))
}

func newTestMachine(rules Rules, seed uint64) *Machine {
	return NewMachine(rules,
		WithRand(seeded(seed)),
		WithClock(func() time.Time { return testNow }),
	)
}

func noTopicVoteRules() Rules {
	rules := DefaultRules()
	rules.TopicVoteEnabled = false
	return rules
}

func newLobby(t *testing.T, m *Machine, n int) *Room {
	t.Helper()
	r := NewRoom("ABCDE", "p1", testNow)
	for i := 1; i <= n; i++ {
		_, err := m.JoinAsPlayer(r, fmt.Sprintf("p%d", i), Profile{Name: fmt.Sprintf("Player %d", i)})
		require.NoError(t, err)
	}
	return r
}

// startInClues returns a room whose first clue round has just opened
func startInClues(t *testing.T, m *Machine, n int) *Room {
	t.Helper()
	r := newLobby(t, m, n)
	require.NoError(t, m.StartGame(r, testTopic("Animals")))
	if r.Phase == PhaseTopicVote {
		for _, id := range r.ActivePlayerIDs() {
			require.NoError(t, m.SubmitTopicVote(r, id, true))
		}
	}
	require.Equal(t, PhaseClues, r.Phase)
	return r
}

func submitAllClues(t *testing.T, m *Machine, r *Room) {
	t.Helper()
	for i := 0; r.Phase == PhaseClues; i++ {
		require.Less(t, i, len(r.Players), "clue round did not finish")
		require.NoError(t, m.SubmitClue(r, r.CurrentTurnPlayerID(), "clue", false))
	}
	require.Equal(t, PhaseCluesRecap, r.Phase)
}

// startInVoting returns a room in the voting phase of round one
func startInVoting(t *testing.T, m *Machine, n int) *Room {
	t.Helper()
	r := startInClues(t, m, n)
	submitAllClues(t, m, r)
	require.NoError(t, m.StartVotingPhase(r))
	require.Equal(t, PhaseVoting, r.Phase)
	return r
}

// citizens returns the active non-impostor ids, sorted
func citizens(r *Room) []string {
	ids := make([]string, 0)
	for _, p := range r.ActivePlayers() {
		if !p.Role.IsImpostor() {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func castVotes(t *testing.T, m *Machine, r *Room, votes map[string]string) {
	t.Helper()
	voters := make([]string, 0, len(votes))
	for id := range votes {
		voters = append(voters, id)
	}
	sort.Strings(voters)
	for _, id := range voters {
		require.NoError(t, m.SubmitVote(r, Ballot{VoterID: id, AccusedID: votes[id]}))
	}
}

func scores(r *Room) map[string]int {
	out := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		out[id] = p.Score
	}
	return out
}

func countImpostors(r *Room) int {
	n := 0
	for _, p := range r.Players {
		if p.Role.IsImpostor() {
			n++
		}
	}
	return n
}

// swapRoles exchanges two players' roles so a test can pin who the impostor is
func swapRoles(r *Room, a, b string) {
	r.Players[a].Role, r.Players[b].Role = r.Players[b].Role, r.Players[a].Role
}
