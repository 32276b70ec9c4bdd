package domain

import "time"

// MediaState is a player's camera/mic status for video chat
type MediaState struct {
	CameraOn bool `json:"cameraOn"`
	MicOn    bool `json:"micOn"`
}

// Player represents a player in a room
type Player struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	IsHost          bool        `json:"isHost"`
	Score           int         `json:"score"`
	AvatarSeed      string      `json:"avatarSeed"`
	CharacterStyle  string      `json:"characterStyle"`
	Role            Role        `json:"role,omitempty"`
	Clue            string      `json:"clue,omitempty"`
	ClueSubmittedAt *time.Time  `json:"clueSubmittedAt,omitempty"`
	VotedFor        string      `json:"votedFor,omitempty"`
	VoteLate        bool        `json:"voteLate,omitempty"`
	SecretWordGuess string      `json:"secretWordGuess,omitempty"`
	IsEliminated    bool        `json:"isEliminated"`
	Media           *MediaState `json:"media,omitempty"`
	JoinedAt        time.Time   `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and profile
func NewPlayer(id string, profile Profile, now time.Time) *Player {
	return &Player{
		ID:             id,
		Name:           profile.Name,
		AvatarSeed:     profile.AvatarSeed,
		CharacterStyle: profile.CharacterStyle,
		JoinedAt:       now,
	}
}

// Profile is the cosmetic identity a player picks when naming themselves
type Profile struct {
	Name           string `json:"name"`
	CharacterStyle string `json:"characterStyle"`
	AvatarSeed     string `json:"avatarSeed"`
}

// ResetForNewRound clears the per-round fields
func (p *Player) ResetForNewRound() {
	p.Clue = ""
	p.ClueSubmittedAt = nil
	p.VotedFor = ""
	p.VoteLate = false
	p.SecretWordGuess = ""
}

// ResetForNewGame clears everything but identity and score
func (p *Player) ResetForNewGame() {
	p.ResetForNewRound()
	p.Role = ""
	p.IsEliminated = false
}

// HasClued returns true once the player submitted this round's clue
func (p *Player) HasClued() bool {
	return p.ClueSubmittedAt != nil
}

// HasVoted returns true once the player voted this round
func (p *Player) HasVoted() bool {
	return p.VotedFor != ""
}

// IsActive returns true if the player still takes part in the current game
func (p *Player) IsActive() bool {
	return !p.IsEliminated
}
