package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/wricardo/citygrid/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed for one inbound input to be handled.
	inputTimeout = 5 * time.Second
)

// Events sent to clients
const (
	EventStateUpdate   = "state_update"
	EventInputRejected = "input_rejected"
	EventGameClosed    = "game_closed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	GameID    engine.GameID     `json:"game_id"`
	Event     string            `json:"event"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// InputHandler applies inputs received from clients
type InputHandler interface {
	SubmitInput(ctx context.Context, input engine.PlayerInput) (*engine.GameState, error)
}

// Client represents a WebSocket client
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	gameID  engine.GameID
	handler InputHandler
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by game ID
	games map[engine.GameID]map[*Client]bool
	mu    deadlock.RWMutex

	// Outbound messages for every client of a game
	broadcast chan *Message

	// Outbound messages for a single client
	direct chan directMessage

	// Games whose clients should be dropped
	closeGame chan engine.GameID

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	stop chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		games:      make(map[engine.GameID]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		direct:     make(chan directMessage, 256),
		closeGame:  make(chan engine.GameID, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) logger() *zerolog.Logger {
	logger := log.With().Str("service", "websocket").Logger()
	return &logger
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case msg := <-h.direct:
			h.sendDirect(msg)

		case gameID := <-h.closeGame:
			h.closeGameClients(gameID)

		case <-h.stop:
			return
		}
	}
}

// Stop ends the event loop
func (h *Hub) Stop() {
	close(h.stop)
}

// ServeWS upgrades the request and subscribes the connection to the game.
// The initial state is sent before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID engine.GameID, initial *engine.GameState, handler InputHandler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger().Warn().Err(err).Msg("upgrade failed")
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		gameID:  gameID,
		handler: handler,
	}

	if initial != nil {
		if data, err := json.Marshal(&Message{GameID: gameID, Event: EventStateUpdate, GameState: initial}); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.stop:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Publish sends a game state update to all clients of the game. It never
// blocks; updates are dropped when the hub is saturated.
func (h *Hub) Publish(state *engine.GameState) {
	h.enqueue(&Message{
		GameID:    state.ID,
		Event:     EventStateUpdate,
		GameState: state,
	})
}

// CloseGame notifies the game's clients and disconnects them
func (h *Hub) CloseGame(gameID engine.GameID) {
	select {
	case h.closeGame <- gameID:
	default:
		h.logger().Warn().Int32("game", int32(gameID)).Msg("close queue full")
	}
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger().Warn().Int32("game", int32(message.GameID)).Str("event", message.Event).Msg("broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of clients subscribed to the game
func (h *Hub) ClientCount(gameID engine.GameID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// registerClient adds a client to a game
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	h.logger().Debug().Str("client", client.id).Int32("game", int32(client.gameID)).
		Int("clients", len(h.games[client.gameID])).Msg("client registered")
}

// unregisterClient removes a client from a game
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClientLocked(client)
}

func (h *Hub) removeClientLocked(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty games
	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}

	h.logger().Debug().Str("client", client.id).Int32("game", int32(client.gameID)).
		Int("clients", len(clients)).Msg("client unregistered")
}

// broadcastMessage sends a message to all clients of a game
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger().Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.games[message.GameID] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.removeClientLocked(client)
		}
	}
}

func (h *Hub) sendDirect(msg directMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.games[msg.client.gameID][msg.client] {
		return
	}
	select {
	case msg.client.send <- msg.data:
	default:
		h.removeClientLocked(msg.client)
	}
}

func (h *Hub) closeGameClients(gameID engine.GameID) {
	data, err := json.Marshal(&Message{GameID: gameID, Event: EventGameClosed})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.games[gameID] {
		select {
		case client.send <- data:
		default:
		}
		h.removeClientLocked(client)
	}
}

// reply sends a message to this client only
func (c *Client) reply(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	default:
	}
}

// handleInput decodes one inbound PlayerInput and submits it. Accepted
// inputs reach every client through Publish; rejections go back to the
// sender only.
func (c *Client) handleInput(raw []byte) {
	var input engine.PlayerInput
	if err := json.Unmarshal(raw, &input); err != nil {
		c.reply(&Message{GameID: c.gameID, Event: EventInputRejected, Error: "invalid input: " + err.Error()})
		return
	}
	input.GameID = c.gameID

	if c.handler == nil {
		c.reply(&Message{GameID: c.gameID, Event: EventInputRejected, Error: "this connection is read-only"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), inputTimeout)
	defer cancel()
	if _, err := c.handler.SubmitInput(ctx, input); err != nil {
		c.reply(&Message{GameID: c.gameID, Event: EventInputRejected, Error: err.Error()})
	}
}

// readPump pumps messages from the WebSocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stop:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger().Warn().Err(err).Str("client", c.id).Msg("websocket error")
			}
			break
		}
		c.handleInput(raw)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame
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
