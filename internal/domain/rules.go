package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GuessTiming decides when the impostor gets to guess the secret word
type GuessTiming string

const (
	GuessDuringVoting GuessTiming = "duringVoting"
	GuessBeforeVoting GuessTiming = "beforeVoting"
)

// RoundStep caps the number of rounds for rooms up to MaxPlayers players
type RoundStep struct {
	MaxPlayers int
	Rounds     int
}

// Rules holds the game-balance parameters of a room
type Rules struct {
	MinPlayers       int
	MaxPlayers       int
	TopicVoteEnabled bool
	GuessTiming      GuessTiming
	RoundSteps       []RoundStep
	EvasionBonuses   []int
	ScoreThreshold   int
	ClueDuration     time.Duration
	VoteDuration     time.Duration
	MaxClueLength    int
	MaxNameLength    int
	ChatHistory      int
}

// DefaultRules returns the default rules
func DefaultRules() Rules {
	return Rules{
		MinPlayers:       3,
		MaxPlayers:       9,
		TopicVoteEnabled: true,
		GuessTiming:      GuessDuringVoting,
		RoundSteps:       []RoundStep{{MaxPlayers: 5, Rounds: 1}, {MaxPlayers: 8, Rounds: 2}, {MaxPlayers: 9, Rounds: 3}},
		EvasionBonuses:   []int{2, 3, 5},
		ScoreThreshold:   20,
		ClueDuration:     63 * time.Second,
		VoteDuration:     60 * time.Second,
		MaxClueLength:    30,
		MaxNameLength:    20,
		ChatHistory:      100,
	}
}

// Validate checks the rules are self-consistent
func (r Rules) Validate() error {
	if r.MinPlayers < 3 {
		return fmt.Errorf("min players must be at least 3, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("max players %d below min players %d", r.MaxPlayers, r.MinPlayers)
	}
	if r.GuessTiming != GuessDuringVoting && r.GuessTiming != GuessBeforeVoting {
		return fmt.Errorf("unknown guess timing %q", r.GuessTiming)
	}
	if len(r.RoundSteps) == 0 {
		return fmt.Errorf("round table is empty")
	}
	for i := 1; i < len(r.RoundSteps); i++ {
		prev, cur := r.RoundSteps[i-1], r.RoundSteps[i]
		if cur.MaxPlayers <= prev.MaxPlayers || cur.Rounds < prev.Rounds {
			return fmt.Errorf("round table must be increasing at entry %d", i)
		}
	}
	if len(r.EvasionBonuses) == 0 {
		return fmt.Errorf("evasion bonus table is empty")
	}
	for i := 1; i < len(r.EvasionBonuses); i++ {
		if r.EvasionBonuses[i] <= r.EvasionBonuses[i-1] {
			return fmt.Errorf("evasion bonuses must be strictly increasing")
		}
	}
	if r.ScoreThreshold <= 0 {
		return fmt.Errorf("score threshold must be positive")
	}
	return nil
}

// ParseRoundSteps parses a table like "5:1,8:2,9:3" (players:rounds)
func ParseRoundSteps(s string) ([]RoundStep, error) {
	steps := make([]RoundStep, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		players, rounds, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("round step %q: expected players:rounds", part)
		}
		p, err := strconv.Atoi(strings.TrimSpace(players))
		if err != nil {
			return nil, fmt.Errorf("round step %q: %w", part, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rounds))
		if err != nil {
			return nil, fmt.Errorf("round step %q: %w", part, err)
		}
		if p <= 0 || n <= 0 {
			return nil, fmt.Errorf("round step %q: values must be positive", part)
		}
		steps = append(steps, RoundStep{MaxPlayers: p, Rounds: n})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("round table %q is empty", s)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].MaxPlayers < steps[j].MaxPlayers })
	return steps, nil
}

// ParseIntList parses a comma separated list like "2,3,5"
func ParseIntList(s string) ([]int, error) {
	values := make([]int, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("list entry %q: %w", part, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("list %q is empty", s)
	}
	return values, nil
}
