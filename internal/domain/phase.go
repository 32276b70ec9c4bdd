package domain

// Phase represents the current phase of a room
type Phase string

const (
	PhaseLobby       Phase = "LOBBY"       // Waiting for players to join
	PhaseSetup       Phase = "SETUP"       // Topic rejected, waiting for a new one
	PhaseTopicVote   Phase = "TOPIC_VOTE"  // Players keep or skip the topic
	PhaseClues       Phase = "CLUES"       // Players submit one word each in turn order
	PhaseCluesRecap  Phase = "CLUES_RECAP" // All clues shown before voting
	PhaseGuessing    Phase = "GUESSING"    // Impostor guesses before the vote
	PhaseVoting      Phase = "VOTING"      // Everyone active votes
	PhaseElimination Phase = "ELIMINATION" // Showing who was voted out
	PhaseGameOver    Phase = "GAME_OVER"   // Round outcome and scoreboard
	PhaseEnded       Phase = "ENDED"       // Host tore the room down
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseSetup, PhaseTopicVote, PhaseClues, PhaseCluesRecap,
		PhaseGuessing, PhaseVoting, PhaseElimination, PhaseGameOver, PhaseEnded:
		return true
	}
	return false
}

// InGame reports whether roles are assigned in this phase
func (p Phase) InGame() bool {
	switch p {
	case PhaseLobby, PhaseEnded:
		return false
	}
	return p.Valid()
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	if target == PhaseEnded {
		return p != PhaseEnded
	}

	validTransitions := map[Phase][]Phase{
		PhaseLobby:       {PhaseTopicVote, PhaseClues},
		PhaseSetup:       {PhaseTopicVote, PhaseLobby, PhaseGameOver},
		PhaseTopicVote:   {PhaseSetup, PhaseClues, PhaseLobby, PhaseGameOver},
		PhaseClues:       {PhaseCluesRecap, PhaseLobby, PhaseGameOver},
		PhaseCluesRecap:  {PhaseVoting, PhaseGuessing, PhaseLobby, PhaseGameOver},
		PhaseGuessing:    {PhaseVoting, PhaseGameOver, PhaseLobby},
		PhaseVoting:      {PhaseElimination, PhaseGameOver, PhaseLobby},
		PhaseElimination: {PhaseClues, PhaseLobby, PhaseGameOver},
		PhaseGameOver:    {PhaseLobby},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
