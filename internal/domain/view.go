package domain

// ViewFor returns the copy of the room a given player may see. Until the
// round is over, other players' roles and guesses are hidden and the
// impostor does not get the secret word. Score changes of the running game
// also name the impostor, so other players' entries are withheld and their
// scores shown as they stood when the game started.
func (r *Room) ViewFor(playerID string) *Room {
	v := r.Clone()
	v.HostClaim = ""
	if !v.Phase.InGame() || v.Phase == PhaseGameOver {
		return v
	}

	viewer := v.Players[playerID]
	for id, p := range v.Players {
		if id == playerID {
			continue
		}
		p.Role = ""
		p.SecretWordGuess = ""
	}
	if viewer == nil || viewer.Role.IsImpostor() {
		v.SecretWordIndex = nil
	}

	own := make([]ScoreEntry, 0)
	for _, e := range v.ScoreLog {
		if e.PlayerID == playerID {
			own = append(own, e)
			continue
		}
		if p, ok := v.Players[e.PlayerID]; ok {
			p.Score -= e.Delta
		}
	}
	v.ScoreLog = own
	return v
}
