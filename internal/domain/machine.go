package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Machine is the phase state machine. Every operation takes the freshly read
// Room, checks its phase precondition, and mutates it in place; on error the
// Room is left untouched. Callers own persisting the result atomically.
type Machine struct {
	rules Rules
	rng   Rand
	now   func() time.Time
}

// Option configures a Machine
type Option func(*Machine)

// WithRand sets the randomness source
func WithRand(rng Rand) Option {
	return func(m *Machine) { m.rng = rng }
}

// WithClock sets the clock used to stamp timers
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a state machine for the given rules
func NewMachine(rules Rules, opts ...Option) *Machine {
	m := &Machine{
		rules: rules,
		rng:   DefaultRand,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rules returns the rules the machine enforces
func (m *Machine) Rules() Rules {
	return m.rules
}

// Ballot is one player's vote
type Ballot struct {
	VoterID   string
	AccusedID string
	WasLate   bool
	Guess     string
}

// StartGame assigns roles, picks the secret word and opens the first round
func (m *Machine) StartGame(r *Room, topic TopicCard) error {
	switch r.Phase {
	case PhaseLobby:
	case PhaseEnded:
		return ErrRoomEnded
	default:
		return ErrGameAlreadyStarted
	}

	if len(r.Players) < m.rules.MinPlayers {
		return ErrNotEnoughPlayers
	}
	if err := topic.Validate(); err != nil {
		return err
	}

	r.GameNumber++
	r.ScoreLog = nil
	r.RejectedTopics = nil
	r.MaxRounds = ComputeMaxRounds(len(r.Players), m.rules.RoundSteps)
	r.CurrentRound = 1
	r.LastEliminated = ""
	r.Winner = ""
	r.VoteCounts = nil
	r.TopicVotes = nil

	for _, p := range r.Players {
		p.ResetForNewGame()
	}
	m.deal(r, topic)

	next := PhaseClues
	if m.rules.TopicVoteEnabled {
		next = PhaseTopicVote
	}
	if err := setPhase(r, next); err != nil {
		return err
	}
	r.stampTimer(m.now())

	return nil
}

// ChooseTopic replaces a rejected topic and re-deals roles and secret word
func (m *Machine) ChooseTopic(r *Room, topic TopicCard) error {
	if r.Phase != PhaseSetup {
		return ErrInvalidPhase
	}
	if err := topic.Validate(); err != nil {
		return err
	}

	for _, p := range r.Players {
		p.ResetForNewGame()
	}
	m.deal(r, topic)

	r.TopicVotes = nil
	if err := setPhase(r, PhaseTopicVote); err != nil {
		return err
	}
	r.stampTimer(m.now())

	return nil
}

// deal assigns roles, the secret word and a fresh turn order
func (m *Machine) deal(r *Room, topic TopicCard) {
	_, roles := AssignRoles(r.PlayerIDs(), m.rng)
	for id, role := range roles {
		r.Players[id].Role = role
	}

	card := TopicCard{Category: topic.Category, Words: append([]string(nil), topic.Words...)}
	idx := m.rng.IntN(len(card.Words))
	r.Topic = &card
	r.SecretWordIndex = &idx

	r.TurnOrder = Shuffle(r.ActivePlayerIDs(), m.rng)
	r.CurrentTurnIndex = 0
}

// SubmitTopicVote records keep/skip and resolves once every active player voted
func (m *Machine) SubmitTopicVote(r *Room, playerID string, keep bool) error {
	if r.Phase != PhaseTopicVote {
		return ErrInvalidPhase
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return ErrPlayerEliminated
	}

	if r.TopicVotes == nil {
		r.TopicVotes = make(map[string]bool)
	}
	r.TopicVotes[playerID] = keep

	return m.resolveTopicVote(r)
}

// resolveTopicVote rejects the topic when skips are at least half of the voters
func (m *Machine) resolveTopicVote(r *Room) error {
	active := r.ActivePlayers()
	skips := 0
	for _, p := range active {
		keep, voted := r.TopicVotes[p.ID]
		if !voted {
			return nil
		}
		if !keep {
			skips++
		}
	}
	if len(active) == 0 {
		return nil
	}

	if skips*2 >= len(active) {
		if err := setPhase(r, PhaseSetup); err != nil {
			return err
		}
		if r.Topic != nil {
			r.RejectedTopics = append(r.RejectedTopics, r.Topic.Category)
		}
		r.TopicVotes = nil
		r.TimerStartedAt = nil
		return nil
	}

	if err := setPhase(r, PhaseClues); err != nil {
		return err
	}
	r.TopicVotes = nil
	r.stampTimer(m.now())
	return nil
}

// SubmitClue records the current turn-holder's clue and advances the turn.
// A late clue may be empty or several words and costs LateCluePenalty.
func (m *Machine) SubmitClue(r *Room, playerID, text string, wasLate bool) error {
	if r.Phase != PhaseClues {
		return ErrInvalidPhase
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return ErrPlayerEliminated
	}
	if r.CurrentTurnPlayerID() != playerID || p.HasClued() {
		return ErrNotYourTurn
	}

	clue, err := m.normalizeClue(text, wasLate)
	if err != nil {
		return err
	}

	now := m.now()
	p.Clue = clue
	p.ClueSubmittedAt = &now
	if wasLate {
		r.applyScores([]ScoreDelta{LateClueDelta(playerID)})
	}

	return m.advanceTurn(r)
}

func (m *Machine) normalizeClue(text string, wasLate bool) (string, error) {
	clue := strings.TrimSpace(text)
	if wasLate {
		if clue == "" {
			clue = "..."
		}
		if m.rules.MaxClueLength > 0 && len([]rune(clue)) > m.rules.MaxClueLength {
			clue = string([]rune(clue)[:m.rules.MaxClueLength])
		}
		return clue, nil
	}

	if clue == "" {
		return "", ErrEmptyClue
	}
	if strings.IndexFunc(clue, unicode.IsSpace) >= 0 {
		return "", ErrClueNotOneWord
	}
	if m.rules.MaxClueLength > 0 && len([]rune(clue)) > m.rules.MaxClueLength {
		return "", ErrClueTooLong
	}
	return clue, nil
}

// advanceTurn moves to the next player in turn order who has not clued yet,
// or to the recap once everyone has.
func (m *Machine) advanceTurn(r *Room) error {
	for i := max(r.CurrentTurnIndex, 0); i < len(r.TurnOrder); i++ {
		if p, ok := r.Players[r.TurnOrder[i]]; ok && !p.HasClued() {
			r.CurrentTurnIndex = i
			r.stampTimer(m.now())
			return nil
		}
	}

	if err := setPhase(r, PhaseCluesRecap); err != nil {
		return err
	}
	r.CurrentTurnIndex = max(len(r.TurnOrder)-1, 0)
	r.stampTimer(m.now())
	return nil
}

// StartVotingPhase leaves the recap for the guess or the vote
func (m *Machine) StartVotingPhase(r *Room) error {
	if r.Phase != PhaseCluesRecap {
		return ErrInvalidPhase
	}

	next := PhaseVoting
	if m.rules.GuessTiming == GuessBeforeVoting {
		next = PhaseGuessing
	}
	if err := setPhase(r, next); err != nil {
		return err
	}
	r.stampTimer(m.now())
	return nil
}

// SubmitGuess lets the impostor name the secret word before the vote.
// A correct guess wins the round outright.
func (m *Machine) SubmitGuess(r *Room, playerID, guess string) error {
	if r.Phase != PhaseGuessing {
		return ErrInvalidPhase
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if !p.Role.IsImpostor() {
		return ErrNotImpostor
	}
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return ErrEmptyGuess
	}

	if GuessMatches(guess, r.SecretWord()) {
		if err := setPhase(r, PhaseGameOver); err != nil {
			return err
		}
		p.SecretWordGuess = guess
		r.applyScores(GuessWinDeltas(playerID, r.CurrentRound))
		r.Winner = WinnerImpostor
		r.TimerStartedAt = nil
		m.checkOverallWinner(r)
		return nil
	}

	if err := setPhase(r, PhaseVoting); err != nil {
		return err
	}
	p.SecretWordGuess = guess
	r.stampTimer(m.now())
	return nil
}

// SubmitVote records a ballot and resolves the round once every active player voted
func (m *Machine) SubmitVote(r *Room, b Ballot) error {
	if r.Phase != PhaseVoting {
		return ErrInvalidPhase
	}
	voter, err := r.GetPlayer(b.VoterID)
	if err != nil {
		return err
	}
	if !voter.IsActive() {
		return ErrPlayerEliminated
	}
	if voter.HasVoted() {
		return ErrAlreadyVoted
	}
	accused, ok := r.Players[b.AccusedID]
	if !ok || !accused.IsActive() {
		return ErrInvalidTarget
	}

	voter.VotedFor = b.AccusedID
	voter.VoteLate = b.WasLate
	if voter.Role.IsImpostor() && m.rules.GuessTiming == GuessDuringVoting {
		voter.SecretWordGuess = strings.TrimSpace(b.Guess)
	}
	if b.AccusedID == b.VoterID {
		r.applyScores([]ScoreDelta{SelfVoteDelta(b.VoterID)})
	}

	for _, p := range r.ActivePlayers() {
		if !p.HasVoted() {
			return nil
		}
	}
	return m.resolveVotes(r)
}

// resolveVotes tallies the round, scores it and picks the next phase
func (m *Machine) resolveVotes(r *Room) error {
	active := r.ActivePlayers()
	tally := TallyVotes(active)
	target := tally.Pick(m.rng)
	impostorID := r.ImpostorID()

	if target == impostorID {
		if err := setPhase(r, PhaseGameOver); err != nil {
			return err
		}
		r.VoteCounts = tally.Counts
		r.LastEliminated = target
		r.TimerStartedAt = nil

		all := make([]*Player, 0, len(r.Players))
		for _, id := range r.PlayerIDs() {
			all = append(all, r.Players[id])
		}
		r.applyScores(CaughtDeltas(all, impostorID))
		r.Winner = WinnerCitizens
		m.checkOverallWinner(r)
		return nil
	}

	remaining := len(active) - 1
	gameOver := r.CurrentRound >= r.MaxRounds || remaining <= 2
	next := PhaseElimination
	if gameOver {
		next = PhaseGameOver
	}
	if err := setPhase(r, next); err != nil {
		return err
	}
	r.VoteCounts = tally.Counts
	r.LastEliminated = target
	r.TimerStartedAt = nil

	secretWord := r.SecretWord()
	if m.rules.GuessTiming == GuessBeforeVoting {
		// the guess was already settled in the guessing phase
		secretWord = ""
	}
	r.applyScores(EvadedDeltas(active, impostorID, r.CurrentRound, m.rules.EvasionBonuses, secretWord))

	if p, ok := r.Players[target]; ok {
		p.IsEliminated = true
	}
	if gameOver {
		r.Winner = WinnerImpostor
	}
	m.checkOverallWinner(r)
	return nil
}

// ContinueAfterElimination opens the next clue round among remaining players
func (m *Machine) ContinueAfterElimination(r *Room) error {
	if r.Phase != PhaseElimination {
		return ErrInvalidPhase
	}
	if err := setPhase(r, PhaseClues); err != nil {
		return err
	}

	for _, p := range r.Players {
		p.ResetForNewRound()
	}
	r.CurrentRound++
	r.TurnOrder = Shuffle(r.ActivePlayerIDs(), m.rng)
	r.CurrentTurnIndex = 0
	r.VoteCounts = nil
	r.stampTimer(m.now())

	return nil
}

// ResetGame returns the room to the lobby. Scores and the overall winner persist.
func (m *Machine) ResetGame(r *Room) error {
	switch r.Phase {
	case PhaseLobby:
		return ErrInvalidPhase
	case PhaseEnded:
		return ErrRoomEnded
	}
	if err := setPhase(r, PhaseLobby); err != nil {
		return err
	}

	for _, p := range r.Players {
		p.ResetForNewGame()
	}
	r.Topic = nil
	r.SecretWordIndex = nil
	r.TopicVotes = nil
	r.VoteCounts = nil
	r.Messages = nil
	r.RejectedTopics = nil
	r.TurnOrder = make([]string, 0)
	r.CurrentTurnIndex = 0
	r.CurrentRound = 0
	r.LastEliminated = ""
	r.Winner = ""
	r.TimerStartedAt = nil

	return nil
}

// checkOverallWinner sets the match winner once someone reaches the threshold.
// The highest score wins; ties go to the longest-present player.
func (m *Machine) checkOverallWinner(r *Room) {
	if r.OverallWinner != "" {
		return
	}

	var best *Player
	for _, id := range r.PlayerIDs() {
		p := r.Players[id]
		if p.Score < m.rules.ScoreThreshold {
			continue
		}
		if best == nil || p.Score > best.Score ||
			(p.Score == best.Score && p.JoinedAt.Before(best.JoinedAt)) {
			best = p
		}
	}
	if best != nil {
		r.OverallWinner = best.ID
	}
}

// setPhase moves r to next when the transition table allows it
func setPhase(r *Room, next Phase) error {
	if !r.Phase.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, r.Phase, next)
	}
	r.Phase = next
	return nil
}
