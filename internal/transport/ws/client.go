package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chameleon/internal/app"
	"chameleon/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384

	// Size of the send channel buffer
	sendBufferSize = 256

	// Time allowed for one action against the store
	actionTimeout = 5 * time.Second
)

var errMissingPayload = errors.New("payload is required")

// Client represents a WebSocket client connection for one player in one room
type Client struct {
	conn          *websocket.Conn
	hub           *app.Hub
	roomCode      string
	playerID      string
	send          chan []byte
	done          chan struct{}
	logger        *slog.Logger
	chatLimiter   *rate.Limiter
	signalLimiter *rate.Limiter
	mu            sync.Mutex
	closed        bool
	revision      uint64 // newest room revision sent
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.Hub, roomCode, playerID string, logger *slog.Logger) *Client {
	return &Client{
		conn:          conn,
		hub:           hub,
		roomCode:      roomCode,
		playerID:      playerID,
		send:          make(chan []byte, sendBufferSize),
		done:          make(chan struct{}),
		logger:        logger.With("roomCode", roomCode, "playerID", playerID),
		chatLimiter:   rate.NewLimiter(1, 5),
		signalLimiter: rate.NewLimiter(20, 50),
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(event *app.Event) error {
	switch event.Type {
	case app.EventRoomUpdated:
		if !c.advanceRevision(event.Room.Revision) {
			return nil
		}
		return c.write(NewServerMessage(MsgRoomUpdated, &RoomPayload{Room: event.Room}))
	case app.EventSignals:
		return c.write(NewServerMessage(MsgSignals, &SignalsPayload{Signals: event.Signals}))
	default:
		return c.write(NewServerMessage(MessageType(event.Type), nil))
	}
}

// advanceRevision reports whether rev is newer than every snapshot sent so far.
// The attach snapshot and the change feed can deliver out of order.
func (c *Client) advanceRevision(rev uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rev <= c.revision {
		return false
	}
	c.revision = rev
	return true
}

func (c *Client) write(msg *ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection interface. Messages already queued
// are flushed before the connection is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return nil
}

// Run attaches the client to its room and pumps messages until the
// connection goes away
func (c *Client) Run(ctx context.Context) {
	go c.writePump()

	c.write(NewServerMessage(MsgConnected, &ConnectedPayload{PlayerID: c.playerID, RoomCode: c.roomCode}))
	if _, err := c.hub.Attach(ctx, c.roomCode, c); err != nil {
		c.sendActionError(err)
		c.Close()
		return
	}

	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c.roomCode, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MsgSetName:
		err = c.handleSetName(ctx, msg.Payload)
	case MsgStartGame:
		err = c.handleStartGame(ctx, msg.Payload)
	case MsgChooseTopic:
		var p ChooseTopicPayload
		if len(msg.Payload) > 0 {
			err = json.Unmarshal(msg.Payload, &p)
		}
		if err == nil {
			_, err = c.hub.ChooseTopic(ctx, c.roomCode, c.playerID, p.Topic)
		}
	case MsgTopicVote:
		var p TopicVotePayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			_, err = c.hub.SubmitTopicVote(ctx, c.roomCode, c.playerID, p.Keep)
		}
	case MsgSubmitClue:
		var p SubmitCluePayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			_, err = c.hub.SubmitClue(ctx, c.roomCode, c.playerID, p.Clue, p.WasLate)
		}
	case MsgStartVoting:
		_, err = c.hub.StartVotingPhase(ctx, c.roomCode, c.playerID)
	case MsgSubmitGuess:
		var p SubmitGuessPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			_, err = c.hub.SubmitGuess(ctx, c.roomCode, c.playerID, p.Guess)
		}
	case MsgSubmitVote:
		err = c.handleSubmitVote(ctx, msg.Payload)
	case MsgContinue:
		_, err = c.hub.ContinueAfterElimination(ctx, c.roomCode, c.playerID)
	case MsgResetGame:
		_, err = c.hub.ResetGame(ctx, c.roomCode, c.playerID)
	case MsgEndRoom:
		_, err = c.hub.EndRoom(ctx, c.roomCode, c.playerID)
	case MsgLeaveRoom:
		if _, err = c.hub.LeaveRoom(ctx, c.roomCode, c.playerID); err == nil {
			c.Close()
		}
	case MsgKickPlayer:
		var p KickPlayerPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			_, err = c.hub.KickPlayer(ctx, c.roomCode, c.playerID, p.PlayerID)
		}
	case MsgChat:
		err = c.handleChat(ctx, msg.Payload)
	case MsgSignal:
		err = c.handleSignal(ctx, msg.Payload)
	case MsgMedia:
		var p MediaPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			_, err = c.hub.UpdateMedia(ctx, c.roomCode, c.playerID, domain.MediaState{CameraOn: p.CameraOn, MicOn: p.MicOn})
		}
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
		return
	}

	if err != nil {
		c.sendActionError(err)
	}
}

// handleSetName handles a set_name message
func (c *Client) handleSetName(ctx context.Context, payload json.RawMessage) error {
	var p SetNamePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	profile := domain.Profile{Name: p.Name, CharacterStyle: p.CharacterStyle, AvatarSeed: p.AvatarSeed}
	_, err := c.hub.SetPlayerName(ctx, c.roomCode, c.playerID, profile)
	return err
}

// handleStartGame handles a start_game message. Without a topic one is drawn from the pool.
func (c *Client) handleStartGame(ctx context.Context, payload json.RawMessage) error {
	var p StartGamePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
	}
	var err error
	if p.Topic == nil && strings.TrimSpace(p.Seed) != "" {
		_, err = c.hub.StartGameFromSeed(ctx, c.roomCode, c.playerID, p.Seed)
	} else {
		_, err = c.hub.StartGame(ctx, c.roomCode, c.playerID, p.Topic)
	}
	return err
}

// handleSubmitVote handles a submit_vote message
func (c *Client) handleSubmitVote(ctx context.Context, payload json.RawMessage) error {
	var p SubmitVotePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	_, err := c.hub.SubmitVote(ctx, c.roomCode, domain.Ballot{
		VoterID:   c.playerID,
		AccusedID: p.AccusedID,
		WasLate:   p.WasLate,
		Guess:     p.Guess,
	})
	return err
}

// handleChat handles a chat message
func (c *Client) handleChat(ctx context.Context, payload json.RawMessage) error {
	if !c.chatLimiter.Allow() {
		c.sendError(ErrCodeRateLimited, "Slow down")
		return nil
	}
	var p ChatPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	_, err := c.hub.SendChat(ctx, c.roomCode, c.playerID, p.Text)
	return err
}

// handleSignal relays a signaling envelope to another player
func (c *Client) handleSignal(ctx context.Context, payload json.RawMessage) error {
	if !c.signalLimiter.Allow() {
		c.sendError(ErrCodeRateLimited, "Too many signaling messages")
		return nil
	}
	var p SignalPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	return c.hub.SendSignal(ctx, c.roomCode, app.Signal{
		Type:    p.Type,
		From:    c.playerID,
		To:      p.To,
		Payload: p.Payload,
	})
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errMissingPayload
	}
	return json.Unmarshal(raw, v)
}

// sendActionError maps an action error to its wire code
func (c *Client) sendActionError(err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, errMissingPayload), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		c.logger.Error("action failed", "error", err)
		c.sendError(kind.String(), "Something went wrong")
		return
	}
	c.sendError(kind.String(), err.Error())
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	msg := NewServerMessage(MsgError, payload)
	c.write(msg)
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	msg := NewServerMessage(MsgPong, nil)
	c.write(msg)
}
