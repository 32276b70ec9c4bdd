package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("concurrent update conflict")
)

// Domain errors
var (
	ErrRoomNotFound   = fmt.Errorf("room %w", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)

	ErrInvalidPhase       = fmt.Errorf("action not allowed in current phase: %w", ErrInvalidTransition)
	ErrNotYourTurn        = fmt.Errorf("not your turn to submit: %w", ErrInvalidTransition)
	ErrAlreadyVoted       = fmt.Errorf("already voted this round: %w", ErrInvalidTransition)
	ErrPlayerEliminated   = fmt.Errorf("eliminated players cannot act: %w", ErrInvalidTransition)
	ErrNotHost            = fmt.Errorf("only host can perform this action: %w", ErrInvalidTransition)
	ErrNotImpostor        = fmt.Errorf("only the impostor can guess the word: %w", ErrInvalidTransition)
	ErrGameAlreadyStarted = fmt.Errorf("game already started: %w", ErrInvalidTransition)
	ErrRoomEnded          = fmt.Errorf("room has ended: %w", ErrInvalidTransition)
	ErrTopicPoolExhausted = fmt.Errorf("no unused topics left: %w", ErrInvalidTransition)
	ErrIllegalTransition  = fmt.Errorf("phase transition not allowed: %w", ErrInvalidTransition)

	ErrNotEnoughPlayers  = fmt.Errorf("not enough players to start: %w", ErrValidation)
	ErrRoomFull          = fmt.Errorf("room is full: %w", ErrValidation)
	ErrEmptyName         = fmt.Errorf("name cannot be empty: %w", ErrValidation)
	ErrNameTooLong       = fmt.Errorf("name is too long: %w", ErrValidation)
	ErrEmptyClue         = fmt.Errorf("clue cannot be empty: %w", ErrValidation)
	ErrClueNotOneWord    = fmt.Errorf("only one word allowed: %w", ErrValidation)
	ErrClueTooLong       = fmt.Errorf("clue is too long: %w", ErrValidation)
	ErrInvalidTarget     = fmt.Errorf("invalid vote target: %w", ErrValidation)
	ErrInvalidTopic      = fmt.Errorf("topic must have a category and 16 words: %w", ErrValidation)
	ErrInvalidRoomCode   = fmt.Errorf("malformed room code: %w", ErrValidation)
	ErrEmptyMessage      = fmt.Errorf("message cannot be empty: %w", ErrValidation)
	ErrEmptyGuess        = fmt.Errorf("guess cannot be empty: %w", ErrValidation)
	ErrCannotKickSelf    = fmt.Errorf("host cannot kick themselves: %w", ErrValidation)
	ErrMalformedSnapshot = fmt.Errorf("malformed room snapshot: %w", ErrValidation)

	ErrConcurrentUpdate = fmt.Errorf("room changed too many times while applying action: %w", ErrConflict)
)

// Kind classifies an error into the taxonomy above.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidTransition
	KindValidation
	KindConflict
)

// String returns the wire code for the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}

// KindOf returns the kind of err, or KindInternal for anything unclassified.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
