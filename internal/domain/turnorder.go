package domain

import (
	"math/rand/v2"
	"slices"
	"sort"
)

// Rand is the source of randomness for role, word, order and tie-break picks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand uses the goroutine-safe top-level math/rand/v2 source
var DefaultRand Rand = globalRand{}

// AssignRoles picks exactly one impostor uniformly from playerIDs
func AssignRoles(playerIDs []string, rng Rand) (string, map[string]Role) {
	if len(playerIDs) == 0 {
		return "", nil
	}

	ids := slices.Clone(playerIDs)
	sort.Strings(ids)

	impostorID := ids[rng.IntN(len(ids))]
	roles := make(map[string]Role, len(ids))
	for _, id := range ids {
		if id == impostorID {
			roles[id] = RoleImpostor
		} else {
			roles[id] = RoleCitizen
		}
	}
	return impostorID, roles
}

// ComputeMaxRounds looks up the round cap for a player count.
// Counts above the last step use the last step's rounds.
func ComputeMaxRounds(playerCount int, steps []RoundStep) int {
	if len(steps) == 0 {
		return 1
	}
	for _, step := range steps {
		if playerCount <= step.MaxPlayers {
			return step.Rounds
		}
	}
	return steps[len(steps)-1].Rounds
}

// Shuffle returns a uniformly random permutation of ids (Fisher-Yates)
func Shuffle(ids []string, rng Rand) []string {
	order := slices.Clone(ids)
	for i := len(order) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
