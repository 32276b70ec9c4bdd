package ws

import (
	"encoding/json"
	"time"

	"chameleon/internal/app"
	"chameleon/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgSetName     MessageType = "set_name"
	MsgStartGame   MessageType = "start_game"
	MsgTopicVote   MessageType = "topic_vote"
	MsgChooseTopic MessageType = "choose_topic"
	MsgSubmitClue  MessageType = "submit_clue"
	MsgStartVoting MessageType = "start_voting"
	MsgSubmitGuess MessageType = "submit_guess"
	MsgSubmitVote  MessageType = "submit_vote"
	MsgContinue    MessageType = "continue"
	MsgResetGame   MessageType = "reset_game"
	MsgEndRoom     MessageType = "end_room"
	MsgLeaveRoom   MessageType = "leave_room"
	MsgKickPlayer  MessageType = "kick_player"
	MsgChat        MessageType = "chat"
	MsgSignal      MessageType = "signal"
	MsgMedia       MessageType = "media"
	MsgPing        MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected   MessageType = "connected"
	MsgError       MessageType = "error"
	MsgRoomUpdated MessageType = MessageType(app.EventRoomUpdated)
	MsgSignals     MessageType = MessageType(app.EventSignals)
	MsgRoomClosed  MessageType = MessageType(app.EventRoomClosed)
	MsgPong        MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// SetNamePayload is the payload for set_name message
type SetNamePayload struct {
	Name           string `json:"name"`
	CharacterStyle string `json:"characterStyle"`
	AvatarSeed     string `json:"avatarSeed"`
}

// StartGamePayload is the payload for start_game message. Both fields are
// optional: Topic plays a custom card, Seed asks for a generated one.
type StartGamePayload struct {
	Topic *domain.TopicCard `json:"topic,omitempty"`
	Seed  string            `json:"seed,omitempty"`
}

// ChooseTopicPayload is the payload for choose_topic message. Without a
// topic one is drawn from the pool.
type ChooseTopicPayload struct {
	Topic *domain.TopicCard `json:"topic,omitempty"`
}

// TopicVotePayload is the payload for topic_vote message
type TopicVotePayload struct {
	Keep bool `json:"keep"`
}

// SubmitCluePayload is the payload for submit_clue message
type SubmitCluePayload struct {
	Clue    string `json:"clue"`
	WasLate bool   `json:"wasLate"`
}

// SubmitGuessPayload is the payload for submit_guess message
type SubmitGuessPayload struct {
	Guess string `json:"guess"`
}

// SubmitVotePayload is the payload for submit_vote message
type SubmitVotePayload struct {
	AccusedID string `json:"accusedId"`
	WasLate   bool   `json:"wasLate"`
	Guess     string `json:"guess,omitempty"`
}

// KickPlayerPayload is the payload for kick_player message
type KickPlayerPayload struct {
	PlayerID string `json:"playerId"`
}

// ChatPayload is the payload for chat message
type ChatPayload struct {
	Text string `json:"text"`
}

// SignalPayload is the payload for signal message
type SignalPayload struct {
	Type    app.SignalType  `json:"type"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// MediaPayload is the payload for media message
type MediaPayload struct {
	CameraOn bool `json:"cameraOn"`
	MicOn    bool `json:"micOn"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
}

// RoomPayload carries the player's view of the room
type RoomPayload struct {
	Room *domain.Room `json:"room"`
}

// SignalsPayload carries relayed signaling envelopes
type SignalsPayload struct {
	Signals []app.Signal `json:"signals"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes not covered by the domain error kinds
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRateLimited    = "RATE_LIMITED"
)
