package domain

import "sort"

// Tally is the outcome of counting one round's votes
type Tally struct {
	Counts        map[string]int `json:"counts"`
	MaxVotes      int            `json:"maxVotes"`
	TopCandidates []string       `json:"topCandidates"`
}

// TallyVotes counts votes cast by non-eliminated players.
// TopCandidates is sorted so a seeded Rand picks reproducibly.
func TallyVotes(players []*Player) Tally {
	counts := make(map[string]int)
	for _, p := range players {
		if p.IsEliminated || p.VotedFor == "" {
			continue
		}
		counts[p.VotedFor]++
	}

	maxVotes := 0
	for _, c := range counts {
		if c > maxVotes {
			maxVotes = c
		}
	}

	top := make([]string, 0)
	for id, c := range counts {
		if maxVotes > 0 && c == maxVotes {
			top = append(top, id)
		}
	}
	sort.Strings(top)

	return Tally{
		Counts:        counts,
		MaxVotes:      maxVotes,
		TopCandidates: top,
	}
}

// IsTie returns true if more than one candidate shares the top count
func (t Tally) IsTie() bool {
	return len(t.TopCandidates) > 1
}

// Pick resolves the plurality target, breaking ties uniformly at random
func (t Tally) Pick(rng Rand) string {
	switch len(t.TopCandidates) {
	case 0:
		return ""
	case 1:
		return t.TopCandidates[0]
	default:
		return t.TopCandidates[rng.IntN(len(t.TopCandidates))]
	}
}
