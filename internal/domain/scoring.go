package domain

import (
	"fmt"
	"strings"
)

// Fixed score amounts
const (
	CaughtPenalty      = -3
	CorrectVotePoints  = 2
	WrongVotePenalty   = -2
	EliminatedPenalty  = -1
	SelfVotePenalty    = -2
	LateCluePenalty    = -1
	GuessBonus         = 2
	GuessWinBonus      = 5
	SurvivedRoundBonus = 2
)

// ScoreReason names the scoring event a delta belongs to
type ScoreReason string

const (
	ReasonCaught      ScoreReason = "caught"
	ReasonCorrectVote ScoreReason = "correct-vote"
	ReasonWrongVote   ScoreReason = "wrong-vote"
	ReasonEliminated  ScoreReason = "eliminated"
	ReasonEvaded      ScoreReason = "evaded"
	ReasonGuess       ScoreReason = "guess"
	ReasonGuessWin    ScoreReason = "guess-win"
	ReasonSelfVote    ScoreReason = "self-vote"
	ReasonLateClue    ScoreReason = "late-clue"
)

// ScoreDelta is one player's score change for one event
type ScoreDelta struct {
	PlayerID string      `json:"playerId"`
	Delta    int         `json:"delta"`
	Reason   ScoreReason `json:"reason"`
}

// ScoreEntry is an applied ScoreDelta, keyed for idempotency
type ScoreEntry struct {
	Key      string      `json:"key"`
	PlayerID string      `json:"playerId"`
	Delta    int         `json:"delta"`
	Reason   ScoreReason `json:"reason"`
	Round    int         `json:"round"`
}

// CaughtDeltas scores a round where the impostor was voted out
func CaughtDeltas(players []*Player, impostorID string) []ScoreDelta {
	deltas := make([]ScoreDelta, 0, len(players))
	for _, p := range players {
		switch {
		case p.ID == impostorID:
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: CaughtPenalty, Reason: ReasonCaught})
		case p.IsEliminated:
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: EliminatedPenalty, Reason: ReasonEliminated})
		case p.VotedFor == impostorID:
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: CorrectVotePoints, Reason: ReasonCorrectVote})
		}
	}
	return deltas
}

// EvadedDeltas scores a round where a citizen was wrongly voted out.
// players must reflect the votes of this round; self-voters are skipped
// since their penalty was applied when they voted.
func EvadedDeltas(players []*Player, impostorID string, round int, bonuses []int, secretWord string) []ScoreDelta {
	deltas := make([]ScoreDelta, 0, len(players))
	for _, p := range players {
		if p.ID == impostorID {
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: EvasionBonus(round, bonuses), Reason: ReasonEvaded})
			if p.SecretWordGuess != "" && GuessMatches(p.SecretWordGuess, secretWord) {
				deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: GuessBonus, Reason: ReasonGuess})
			}
			continue
		}
		if p.VotedFor == "" || p.VotedFor == p.ID {
			continue
		}
		if p.VotedFor == impostorID {
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: CorrectVotePoints, Reason: ReasonCorrectVote})
		} else {
			deltas = append(deltas, ScoreDelta{PlayerID: p.ID, Delta: WrongVotePenalty, Reason: ReasonWrongVote})
		}
	}
	return deltas
}

// GuessWinDeltas scores an impostor who named the secret word before the vote
func GuessWinDeltas(impostorID string, round int) []ScoreDelta {
	delta := GuessWinBonus + (round-1)*SurvivedRoundBonus
	return []ScoreDelta{{PlayerID: impostorID, Delta: delta, Reason: ReasonGuessWin}}
}

// SelfVoteDelta is the fixed penalty for voting for yourself
func SelfVoteDelta(playerID string) ScoreDelta {
	return ScoreDelta{PlayerID: playerID, Delta: SelfVotePenalty, Reason: ReasonSelfVote}
}

// LateClueDelta is the fixed penalty for a clue forced after the timer ran out
func LateClueDelta(playerID string) ScoreDelta {
	return ScoreDelta{PlayerID: playerID, Delta: LateCluePenalty, Reason: ReasonLateClue}
}

// EvasionBonus returns the impostor's reward for surviving round (1-based).
// Rounds past the table keep growing by the table's last step.
func EvasionBonus(round int, bonuses []int) int {
	if len(bonuses) == 0 {
		return 0
	}
	if round < 1 {
		round = 1
	}
	if round <= len(bonuses) {
		return bonuses[round-1]
	}

	last := bonuses[len(bonuses)-1]
	step := 1
	if len(bonuses) > 1 {
		step = last - bonuses[len(bonuses)-2]
	}
	return last + (round-len(bonuses))*step
}

// GuessMatches compares a guess with the secret word, trimmed and case-insensitive
func GuessMatches(guess, secretWord string) bool {
	g := strings.TrimSpace(guess)
	if g == "" {
		return false
	}
	return strings.EqualFold(g, strings.TrimSpace(secretWord))
}

// scoreKey identifies one scoring event for one player within a game
func scoreKey(game, round int, reason ScoreReason, playerID string) string {
	return fmt.Sprintf("g%d/r%d/%s/%s", game, round, reason, playerID)
}

// applyScores adds deltas to player scores, skipping any already in the ledger
func (r *Room) applyScores(deltas []ScoreDelta) []ScoreEntry {
	applied := make(map[string]bool, len(r.ScoreLog))
	for _, e := range r.ScoreLog {
		applied[e.Key] = true
	}

	entries := make([]ScoreEntry, 0, len(deltas))
	for _, d := range deltas {
		key := scoreKey(r.GameNumber, r.CurrentRound, d.Reason, d.PlayerID)
		if applied[key] {
			continue
		}
		p, ok := r.Players[d.PlayerID]
		if !ok {
			continue
		}
		p.Score += d.Delta
		applied[key] = true

		entry := ScoreEntry{Key: key, PlayerID: d.PlayerID, Delta: d.Delta, Reason: d.Reason, Round: r.CurrentRound}
		r.ScoreLog = append(r.ScoreLog, entry)
		entries = append(entries, entry)
	}
	return entries
}
