package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGame(t *testing.T) {
	m := newTestMachine(DefaultRules(), 1)
	r := newLobby(t, m, 4)
	r.Players["p2"].Score = 7

	require.NoError(t, m.StartGame(r, testTopic("Animals")))

	assert.Equal(t, PhaseTopicVote, r.Phase)
	assert.Equal(t, 1, countImpostors(r))
	assert.Equal(t, 1, r.CurrentRound)
	assert.Equal(t, 1, r.MaxRounds)
	assert.Equal(t, 1, r.GameNumber)
	assert.Equal(t, 0, r.CurrentTurnIndex)
	require.NotNil(t, r.SecretWordIndex)
	assert.GreaterOrEqual(t, *r.SecretWordIndex, 0)
	assert.Less(t, *r.SecretWordIndex, TopicWordCount)
	assert.Equal(t, "Animals", r.Topic.Category)
	require.NotNil(t, r.TimerStartedAt)
	assert.Equal(t, testNow, *r.TimerStartedAt)
	assert.Equal(t, 7, r.Players["p2"].Score)

	order := append([]string(nil), r.TurnOrder...)
	sort.Strings(order)
	assert.Equal(t, r.PlayerIDs(), order)
}

func TestStartGame_WithoutTopicVoteGoesStraightToClues(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 1)
	r := newLobby(t, m, 3)

	require.NoError(t, m.StartGame(r, testTopic("Animals")))

	assert.Equal(t, PhaseClues, r.Phase)
}

func TestStartGame_Rejections(t *testing.T) {
	m := newTestMachine(DefaultRules(), 1)

	t.Run("not enough players", func(t *testing.T) {
		r := newLobby(t, m, 2)
		before := r.Clone()
		assert.ErrorIs(t, m.StartGame(r, testTopic("Animals")), ErrNotEnoughPlayers)
		assert.Equal(t, before, r)
	})

	t.Run("bad topic", func(t *testing.T) {
		r := newLobby(t, m, 3)
		err := m.StartGame(r, TopicCard{Category: "Short", Words: []string{"a", "b"}})
		assert.ErrorIs(t, err, ErrInvalidTopic)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, PhaseLobby, r.Phase)
	})

	t.Run("already started", func(t *testing.T) {
		r := newLobby(t, m, 3)
		require.NoError(t, m.StartGame(r, testTopic("Animals")))
		before := r.Clone()
		err := m.StartGame(r, testTopic("Sports"))
		assert.ErrorIs(t, err, ErrGameAlreadyStarted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, before, r)
	})
}

func TestSubmitTopicVote_Approve(t *testing.T) {
	m := newTestMachine(DefaultRules(), 2)
	r := newLobby(t, m, 4)
	require.NoError(t, m.StartGame(r, testTopic("Animals")))

	require.NoError(t, m.SubmitTopicVote(r, "p1", true))
	require.NoError(t, m.SubmitTopicVote(r, "p2", false))
	require.NoError(t, m.SubmitTopicVote(r, "p3", true))
	assert.Equal(t, PhaseTopicVote, r.Phase, "waits for every active player")

	require.NoError(t, m.SubmitTopicVote(r, "p4", true))

	assert.Equal(t, PhaseClues, r.Phase)
	assert.Nil(t, r.TopicVotes)
	assert.NotNil(t, r.TimerStartedAt)
}

func TestSubmitTopicVote_HalfSkipRejects(t *testing.T) {
	m := newTestMachine(DefaultRules(), 3)
	r := newLobby(t, m, 4)
	require.NoError(t, m.StartGame(r, testTopic("Animals")))

	require.NoError(t, m.SubmitTopicVote(r, "p1", false))
	require.NoError(t, m.SubmitTopicVote(r, "p2", true))
	require.NoError(t, m.SubmitTopicVote(r, "p3", false))
	require.NoError(t, m.SubmitTopicVote(r, "p4", true))

	assert.Equal(t, PhaseSetup, r.Phase)
	assert.Nil(t, r.TopicVotes)
	assert.Equal(t, []string{"Animals"}, r.RejectedTopics)
	assert.Equal(t, 1, countImpostors(r))
}

func TestSubmitTopicVote_WrongPhase(t *testing.T) {
	m := newTestMachine(DefaultRules(), 3)
	r := newLobby(t, m, 4)

	assert.ErrorIs(t, m.SubmitTopicVote(r, "p1", true), ErrInvalidPhase)
	assert.Nil(t, r.TopicVotes)
}

func TestChooseTopic_ReturnsToTopicVote(t *testing.T) {
	m := newTestMachine(DefaultRules(), 4)
	r := newLobby(t, m, 3)
	require.NoError(t, m.StartGame(r, testTopic("Animals")))
	for _, id := range r.PlayerIDs() {
		require.NoError(t, m.SubmitTopicVote(r, id, false))
	}
	require.Equal(t, PhaseSetup, r.Phase)

	require.NoError(t, m.ChooseTopic(r, testTopic("Sports")))

	assert.Equal(t, PhaseTopicVote, r.Phase)
	assert.Equal(t, "Sports", r.Topic.Category)
	assert.Equal(t, 1, countImpostors(r))
	assert.Len(t, r.TurnOrder, 3)
	assert.Equal(t, []string{"Animals"}, r.RejectedTopics)

	assert.ErrorIs(t, m.ChooseTopic(r, testTopic("Food")), ErrInvalidPhase)
}

func TestSubmitClue_TurnOrder(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 5)
	r := startInClues(t, m, 4)
	first, second := r.TurnOrder[0], r.TurnOrder[1]

	assert.ErrorIs(t, m.SubmitClue(r, second, "paws", false), ErrNotYourTurn)

	require.NoError(t, m.SubmitClue(r, first, "paws", false))
	assert.Equal(t, 1, r.CurrentTurnIndex)
	assert.Equal(t, "paws", r.Players[first].Clue)
	assert.NotNil(t, r.Players[first].ClueSubmittedAt)

	assert.ErrorIs(t, m.SubmitClue(r, first, "again", false), ErrNotYourTurn)

	for r.Phase == PhaseClues {
		require.NoError(t, m.SubmitClue(r, r.CurrentTurnPlayerID(), "fur", false))
	}
	assert.Equal(t, PhaseCluesRecap, r.Phase)
	assert.Equal(t, 3, r.CurrentTurnIndex)
}

func TestSubmitClue_Validation(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 5)
	r := startInClues(t, m, 3)
	current := r.CurrentTurnPlayerID()
	before := r.Clone()

	assert.ErrorIs(t, m.SubmitClue(r, current, "   ", false), ErrEmptyClue)
	assert.ErrorIs(t, m.SubmitClue(r, current, "two words", false), ErrClueNotOneWord)
	assert.ErrorIs(t, m.SubmitClue(r, current, "abcdefghijklmnopqrstuvwxyzabcdefgh", false), ErrClueTooLong)
	assert.ErrorIs(t, m.SubmitClue(r, "nobody", "x", false), ErrPlayerNotFound)
	assert.Equal(t, before, r, "rejected clues must not mutate the room")
}

func TestSubmitClue_LatePenalty(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 6)
	r := startInClues(t, m, 3)
	current := r.CurrentTurnPlayerID()

	require.NoError(t, m.SubmitClue(r, current, "", true))

	assert.Equal(t, -1, r.Players[current].Score)
	assert.Equal(t, "...", r.Players[current].Clue)

	next := r.CurrentTurnPlayerID()
	require.NoError(t, m.SubmitClue(r, next, "two words allowed", true))
	assert.Equal(t, "two words allowed", r.Players[next].Clue)
	assert.Equal(t, -1, r.Players[next].Score)
}

func TestSubmitClue_WrongPhase(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 6)
	r := startInVoting(t, m, 3)

	assert.ErrorIs(t, m.SubmitClue(r, r.TurnOrder[0], "late", false), ErrInvalidPhase)
}

func TestStartVotingPhase(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 7)
	r := startInClues(t, m, 3)

	assert.ErrorIs(t, m.StartVotingPhase(r), ErrInvalidPhase)

	submitAllClues(t, m, r)
	require.NoError(t, m.StartVotingPhase(r))
	assert.Equal(t, PhaseVoting, r.Phase)

	assert.ErrorIs(t, m.StartVotingPhase(r), ErrInvalidPhase)
}

// Scenario A: impostor caught in round one.
func TestSubmitVote_ImpostorCaught(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 8)
	r := startInVoting(t, m, 4)
	impostor := r.ImpostorID()
	cits := citizens(r)

	castVotes(t, m, r, map[string]string{
		impostor: cits[0],
		cits[0]:  impostor,
		cits[1]:  impostor,
		cits[2]:  impostor,
	})

	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.Equal(t, WinnerCitizens, r.Winner)
	assert.Equal(t, impostor, r.LastEliminated)
	assert.Equal(t, map[string]int{impostor: 3, cits[0]: 1}, r.VoteCounts)
	assert.Equal(t, map[string]int{
		impostor: -3,
		cits[0]:  2,
		cits[1]:  2,
		cits[2]:  2,
	}, scores(r))
	assert.Empty(t, r.OverallWinner)
}

// Scenario B: wrong player eliminated in the only round.
func TestSubmitVote_ImpostorEvadesLastRound(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 9)
	r := startInVoting(t, m, 4)
	require.Equal(t, 1, r.MaxRounds)
	impostor := r.ImpostorID()
	cits := citizens(r)

	require.NoError(t, m.SubmitVote(r, Ballot{VoterID: impostor, AccusedID: cits[0], Guess: " " + r.SecretWord() + " "}))
	castVotes(t, m, r, map[string]string{
		cits[0]: impostor,
		cits[1]: cits[0],
		cits[2]: cits[0],
	})

	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.Equal(t, WinnerImpostor, r.Winner)
	assert.True(t, r.Players[cits[0]].IsEliminated)
	assert.Equal(t, cits[0], r.LastEliminated)
	assert.Equal(t, map[string]int{
		impostor: 2 + 2,
		cits[0]:  2,
		cits[1]:  -2,
		cits[2]:  -2,
	}, scores(r))
}

func TestSubmitVote_WrongGuessOnlyEarnsEvasionBonus(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 9)
	r := startInVoting(t, m, 4)
	impostor := r.ImpostorID()
	cits := citizens(r)

	require.NoError(t, m.SubmitVote(r, Ballot{VoterID: impostor, AccusedID: cits[0], Guess: "definitely-not-it"}))
	castVotes(t, m, r, map[string]string{cits[0]: cits[1], cits[1]: cits[0], cits[2]: cits[0]})

	assert.Equal(t, 2, r.Players[impostor].Score)
}

func TestSubmitVote_CitizenGuessIsIgnored(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 9)
	r := startInVoting(t, m, 4)
	cits := citizens(r)

	require.NoError(t, m.SubmitVote(r, Ballot{VoterID: cits[0], AccusedID: cits[1], Guess: "anything"}))

	assert.Empty(t, r.Players[cits[0]].SecretWordGuess)
}

// Scenario D: self-votes cost exactly two points whatever the outcome.
func TestSubmitVote_SelfVotePenalty(t *testing.T) {
	t.Run("impostor evades", func(t *testing.T) {
		m := newTestMachine(noTopicVoteRules(), 10)
		r := startInVoting(t, m, 4)
		impostor := r.ImpostorID()
		cits := citizens(r)

		require.NoError(t, m.SubmitVote(r, Ballot{VoterID: cits[0], AccusedID: cits[0], WasLate: true}))
		assert.Equal(t, -2, r.Players[cits[0]].Score, "applied when the vote is cast")

		castVotes(t, m, r, map[string]string{
			impostor: cits[1],
			cits[1]:  cits[2],
			cits[2]:  cits[1],
		})

		require.Equal(t, cits[1], r.LastEliminated)
		assert.Equal(t, -2, r.Players[cits[0]].Score, "self-voter skipped by the correctness pass")
		assert.Equal(t, -2, r.Players[cits[1]].Score)
		assert.Equal(t, -2, r.Players[cits[2]].Score)
		assert.Equal(t, 2, r.Players[impostor].Score)
	})

	t.Run("impostor caught", func(t *testing.T) {
		m := newTestMachine(noTopicVoteRules(), 11)
		r := startInVoting(t, m, 4)
		impostor := r.ImpostorID()
		cits := citizens(r)

		castVotes(t, m, r, map[string]string{
			impostor: cits[1],
			cits[0]:  cits[0],
			cits[1]:  impostor,
			cits[2]:  impostor,
		})

		require.Equal(t, WinnerCitizens, r.Winner)
		assert.Equal(t, -2, r.Players[cits[0]].Score)
		assert.Equal(t, 2, r.Players[cits[1]].Score)
		assert.Equal(t, -3, r.Players[impostor].Score)
	})
}

func TestSubmitVote_Rejections(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 12)
	r := startInVoting(t, m, 4)
	cits := citizens(r)

	require.NoError(t, m.SubmitVote(r, Ballot{VoterID: cits[0], AccusedID: cits[0]}))
	before := r.Clone()

	assert.ErrorIs(t, m.SubmitVote(r, Ballot{VoterID: cits[0], AccusedID: cits[0]}), ErrAlreadyVoted)
	assert.ErrorIs(t, m.SubmitVote(r, Ballot{VoterID: cits[1], AccusedID: "ghost"}), ErrInvalidTarget)
	assert.ErrorIs(t, m.SubmitVote(r, Ballot{VoterID: "ghost", AccusedID: cits[1]}), ErrPlayerNotFound)
	assert.Equal(t, before, r, "a retried vote must not charge the penalty twice")
	assert.Equal(t, -2, r.Players[cits[0]].Score)
}

func TestSubmitVote_AfterResolutionIsRejected(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 13)
	r := startInVoting(t, m, 3)
	impostor := r.ImpostorID()
	cits := citizens(r)

	castVotes(t, m, r, map[string]string{impostor: cits[0], cits[0]: impostor, cits[1]: impostor})
	require.Equal(t, PhaseGameOver, r.Phase)
	before := r.Clone()

	err := m.SubmitVote(r, Ballot{VoterID: cits[1], AccusedID: impostor})

	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, before, r)
}

// Elimination rounds, turn order re-shuffle and the round-scaled evasion bonus.
func TestMultiRoundGame(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 14)
	r := startInVoting(t, m, 6)
	require.Equal(t, 2, r.MaxRounds)
	impostor := r.ImpostorID()
	cits := citizens(r)

	votes := map[string]string{impostor: cits[0]}
	for _, c := range cits {
		votes[c] = cits[0]
	}
	votes[cits[0]] = cits[1]
	castVotes(t, m, r, votes)

	require.Equal(t, PhaseElimination, r.Phase)
	assert.True(t, r.Players[cits[0]].IsEliminated)
	assert.Equal(t, 2, r.Players[impostor].Score)

	require.NoError(t, m.ContinueAfterElimination(r))
	assert.Equal(t, PhaseClues, r.Phase)
	assert.Equal(t, 2, r.CurrentRound)
	assert.Equal(t, 0, r.CurrentTurnIndex)
	assert.NotContains(t, r.TurnOrder, cits[0])
	order := append([]string(nil), r.TurnOrder...)
	sort.Strings(order)
	assert.Equal(t, r.ActivePlayerIDs(), order)
	for _, p := range r.Players {
		assert.Empty(t, p.VotedFor)
		assert.Empty(t, p.Clue)
	}
	assert.Equal(t, 1, countImpostors(r))

	submitAllClues(t, m, r)
	require.NoError(t, m.StartVotingPhase(r))

	assert.ErrorIs(t, m.SubmitVote(r, Ballot{VoterID: cits[0], AccusedID: impostor}), ErrPlayerEliminated)
	assert.ErrorIs(t, m.SubmitVote(r, Ballot{VoterID: impostor, AccusedID: cits[0]}), ErrInvalidTarget)

	votes = map[string]string{impostor: cits[1]}
	for _, c := range cits[1:] {
		votes[c] = cits[1]
	}
	votes[cits[1]] = cits[2]
	castVotes(t, m, r, votes)

	assert.Equal(t, PhaseGameOver, r.Phase, "round cap reached")
	assert.Equal(t, WinnerImpostor, r.Winner)
	assert.Equal(t, 2+3, r.Players[impostor].Score)
}

func TestSubmitVote_TwoPlayersLeftEndsGame(t *testing.T) {
	rules := noTopicVoteRules()
	rules.RoundSteps = []RoundStep{{MaxPlayers: 9, Rounds: 3}}
	m := newTestMachine(rules, 15)
	r := startInVoting(t, m, 3)
	impostor := r.ImpostorID()
	cits := citizens(r)

	castVotes(t, m, r, map[string]string{impostor: cits[0], cits[0]: cits[1], cits[1]: cits[0]})

	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.Equal(t, WinnerImpostor, r.Winner)
}

// Idempotence: continuing outside the elimination pause changes nothing.
func TestContinueAfterElimination_GuardedNoOp(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 16)

	for _, r := range []*Room{newLobby(t, m, 3), startInClues(t, m, 3), startInVoting(t, m, 3)} {
		before := r.Clone()
		assert.ErrorIs(t, m.ContinueAfterElimination(r), ErrInvalidPhase)
		assert.Equal(t, before, r)
	}
}

func TestGuessBeforeVoting(t *testing.T) {
	rules := noTopicVoteRules()
	rules.GuessTiming = GuessBeforeVoting

	t.Run("correct guess wins", func(t *testing.T) {
		m := newTestMachine(rules, 17)
		r := startInClues(t, m, 4)
		submitAllClues(t, m, r)
		require.NoError(t, m.StartVotingPhase(r))
		require.Equal(t, PhaseGuessing, r.Phase)
		impostor := r.ImpostorID()

		assert.ErrorIs(t, m.SubmitGuess(r, citizens(r)[0], "x"), ErrNotImpostor)
		assert.ErrorIs(t, m.SubmitGuess(r, impostor, "  "), ErrEmptyGuess)

		require.NoError(t, m.SubmitGuess(r, impostor, r.SecretWord()))

		assert.Equal(t, PhaseGameOver, r.Phase)
		assert.Equal(t, WinnerImpostor, r.Winner)
		assert.Equal(t, GuessWinBonus, r.Players[impostor].Score)
	})

	t.Run("wrong guess goes to vote without bonus", func(t *testing.T) {
		m := newTestMachine(rules, 18)
		r := startInClues(t, m, 4)
		submitAllClues(t, m, r)
		require.NoError(t, m.StartVotingPhase(r))
		impostor := r.ImpostorID()
		cits := citizens(r)

		require.NoError(t, m.SubmitGuess(r, impostor, "nope"))
		require.Equal(t, PhaseVoting, r.Phase)

		castVotes(t, m, r, map[string]string{impostor: cits[0], cits[0]: cits[1], cits[1]: cits[0], cits[2]: cits[0]})

		assert.Equal(t, WinnerImpostor, r.Winner)
		assert.Equal(t, 2, r.Players[impostor].Score)
	})
}

// Round-trip: reset then start again keeps scores and re-deals everything else.
func TestResetGame_RoundTrip(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 19)
	r := startInVoting(t, m, 4)
	impostor := r.ImpostorID()
	cits := citizens(r)
	castVotes(t, m, r, map[string]string{impostor: cits[0], cits[0]: impostor, cits[1]: impostor, cits[2]: impostor})
	_, err := m.SendChat(r, "m1", cits[0], "gg")
	require.NoError(t, err)
	scored := scores(r)

	require.NoError(t, m.ResetGame(r))

	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Nil(t, r.Topic)
	assert.Nil(t, r.SecretWordIndex)
	assert.Nil(t, r.Messages)
	assert.Empty(t, r.TurnOrder)
	assert.Zero(t, countImpostors(r))
	assert.Equal(t, scored, scores(r))
	assert.ErrorIs(t, m.ResetGame(r), ErrInvalidPhase)

	require.NoError(t, m.StartGame(r, testTopic("Sports")))

	assert.Equal(t, 2, r.GameNumber)
	assert.Equal(t, 1, countImpostors(r))
	assert.Equal(t, scored, scores(r))
	assert.Empty(t, r.ScoreLog)
	for _, p := range r.Players {
		assert.False(t, p.IsEliminated)
		assert.Empty(t, p.VotedFor)
		assert.Empty(t, p.Clue)
		assert.Empty(t, p.SecretWordGuess)
	}
}

// Scenario E: the overall winner sticks across resets.
func TestOverallWinner(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 20)
	r := startInVoting(t, m, 4)
	impostor := r.ImpostorID()
	cits := citizens(r)
	r.Players[impostor].Score = 18

	castVotes(t, m, r, map[string]string{impostor: cits[0], cits[0]: cits[1], cits[1]: cits[0], cits[2]: cits[0]})

	require.Equal(t, 20, r.Players[impostor].Score)
	assert.Equal(t, impostor, r.OverallWinner)

	require.NoError(t, m.ResetGame(r))
	assert.Equal(t, impostor, r.OverallWinner)

	require.NoError(t, m.StartGame(r, testTopic("Sports")))
	assert.Equal(t, impostor, r.OverallWinner)
}

func TestOverallWinner_HighestScoreWins(t *testing.T) {
	m := newTestMachine(noTopicVoteRules(), 21)
	r := newLobby(t, m, 3)
	r.Players["p2"].Score = 21
	r.Players["p3"].Score = 24

	m.checkOverallWinner(r)

	assert.Equal(t, "p3", r.OverallWinner)
}

// Exactly one impostor from start until reset, across a whole game.
func TestSingleImpostorThroughoutGame(t *testing.T) {
	m := newTestMachine(DefaultRules(), 22)
	r := newLobby(t, m, 6)
	require.NoError(t, m.StartGame(r, testTopic("Animals")))
	check := func() { require.Equal(t, 1, countImpostors(r), "phase %s", r.Phase) }

	check()
	for _, id := range r.PlayerIDs() {
		require.NoError(t, m.SubmitTopicVote(r, id, true))
	}
	check()
	submitAllClues(t, m, r)
	check()
	require.NoError(t, m.StartVotingPhase(r))
	impostor := r.ImpostorID()
	cits := citizens(r)
	votes := map[string]string{}
	for _, id := range r.PlayerIDs() {
		votes[id] = cits[0]
	}
	votes[cits[0]] = impostor
	castVotes(t, m, r, votes)
	check()
	require.NoError(t, m.ContinueAfterElimination(r))
	check()

	require.NoError(t, m.ResetGame(r))
	assert.Zero(t, countImpostors(r))
}

func TestSubmitVote_RecordsLateBallot(t *testing.T) {
	m := newTestMachine(DefaultRules(), 21)
	r := startInVoting(t, m, 6)
	cs := citizens(r)

	require.NoError(t, m.SubmitVote(r, Ballot{VoterID: cs[0], AccusedID: cs[1], WasLate: true}))
	assert.True(t, r.Players[cs[0]].VoteLate)
	assert.Equal(t, 0, r.Players[cs[0]].Score, "a late vote carries no penalty")

	for _, id := range r.ActivePlayerIDs() {
		if id != cs[0] {
			require.NoError(t, m.SubmitVote(r, Ballot{VoterID: id, AccusedID: cs[1]}))
		}
	}
	require.Equal(t, PhaseElimination, r.Phase)
	assert.True(t, r.Players[cs[0]].VoteLate)

	require.NoError(t, m.ContinueAfterElimination(r))
	assert.False(t, r.Players[cs[0]].VoteLate)
}
