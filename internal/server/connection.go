package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/events"
	"github.com/gravitas-games/hexfleet/internal/fleet"
	"github.com/gravitas-games/hexfleet/internal/network"
	"github.com/gravitas-games/hexfleet/internal/sector"
	"github.com/gravitas-games/hexfleet/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id string

	// WebSocket connection
	ws *websocket.Conn

	// Session the connection plays in
	session *Session

	// Closed when the server shuts down
	done <-chan struct{}

	// Player information (set after authentication)
	player *models.Player

	// Buffered channel for outbound messages
	send chan []byte

	// Is connection authenticated
	authenticated bool

	mu     sync.Mutex
	joined bool
	closed bool
}

// NewConnection creates a new connection
func NewConnection(ws *websocket.Conn, server *Server) *Connection {
	return &Connection{
		id:      uuid.NewString(),
		ws:      ws,
		session: server.session,
		done:    server.ctx.Done(),
		send:    make(chan []byte, 256),
	}
}

// ID returns the connection's identifier, also used as its bus subscriber id
func (c *Connection) ID() string { return c.id }

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the session
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			c.SendError(network.ErrCodeInvalidMessage, "Failed to parse message")
			continue
		}

		c.handleMessage(context.Background(), &clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(ctx context.Context, msg *network.ClientMessage) {
	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin()
	case network.MsgTypeLeave:
		c.handleLeave()
	case network.MsgTypePing:
		c.handlePing()
	case network.MsgTypeResolve:
		c.handleCell(msg.Payload, false)
	case network.MsgTypeNeighbors:
		c.handleCell(msg.Payload, true)
	case network.MsgTypeValidity:
		c.handleValidity(msg.Payload)
	case network.MsgTypeAnchorable:
		c.handleAnchorable(msg.Payload)
	case network.MsgTypePlace:
		c.handlePlace(ctx, msg.Payload)
	case network.MsgTypeRemove:
		c.handleRemove(ctx, msg.Payload)
	case network.MsgTypeStage:
		c.handleStage(ctx, msg.Payload)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		c.SendError(network.ErrCodeUnknownType, "Unknown message type")
	}
}

// handleJoin seats the player and subscribes the connection to board signals
func (c *Connection) handleJoin() {
	c.mu.Lock()
	if c.joined {
		c.mu.Unlock()
		c.sendWelcome()
		return
	}
	c.joined = true
	c.mu.Unlock()

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = c.session.ID

	if err := c.session.AddPlayer(c.player, c); err != nil {
		log.Printf("Failed to add player to session: %v", err)
		c.SendError(network.ErrCodeInternal, "Failed to join session")
		return
	}
	c.session.Bus().Subscribe(c.id, c.forward)

	c.sendWelcome()
}

func (c *Connection) sendWelcome() {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:     c.player.ID,
			Username:     c.player.Username,
			SessionID:    c.session.ID,
			ConnectionID: c.id,
			Board:        c.player.Board,
			Boards:       c.session.Summaries(),
		},
	})
}

// handleLeave unsubscribes the connection and frees the player's seat
func (c *Connection) handleLeave() {
	c.mu.Lock()
	joined := c.joined
	c.joined = false
	c.mu.Unlock()
	if !joined {
		return
	}

	c.session.Bus().Unsubscribe(c.id)
	c.session.RemovePlayer(c.player.ID)
	c.player.Connected = false
	c.player.LastSeen = time.Now()
}

func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]any{"timestamp": time.Now().Unix()},
	})
}

func (c *Connection) handleCell(payload json.RawMessage, withNeighbors bool) {
	var req network.CellRequest
	if !c.decode(payload, &req) {
		return
	}
	f, err := c.session.Fleet(req.Board)
	if err != nil {
		c.sendFailure(err)
		return
	}
	cell, err := f.Board().Resolve(req.Address)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeCell,
		Payload: cellPayload(req.Board, cell, withNeighbors),
	})
}

func (c *Connection) handleValidity(payload json.RawMessage) {
	var req network.ValidityRequest
	if !c.decode(payload, &req) {
		return
	}
	f, err := c.session.Fleet(req.Board)
	if err != nil {
		c.sendFailure(err)
		return
	}
	cell, err := f.Board().Resolve(req.Address)
	if err != nil {
		c.sendFailure(err)
		return
	}

	out := cellPayload(req.Board, cell, false)
	if req.Shape != "" {
		ok, err := f.Board().ValidityOf(cell, board.ShapeKind(req.Shape))
		if err != nil {
			c.sendFailure(err)
			return
		}
		out.Validity = map[string]bool{req.Shape: ok}
	}
	c.SendMessage(&network.ServerMessage{Type: network.MsgTypeCell, Payload: out})
}

func (c *Connection) handleAnchorable(payload json.RawMessage) {
	var req network.BoardRequest
	if !c.decode(payload, &req) {
		return
	}
	f, err := c.session.Fleet(req.Board)
	if err != nil {
		c.sendFailure(err)
		return
	}
	cells, err := f.Board().AnchorableCells()
	if err != nil {
		c.sendFailure(err)
		return
	}

	addrs := make([]sector.Address, len(cells))
	for i, cell := range cells {
		addrs[i] = cell.Address()
	}
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeAnchorableSet,
		Payload: network.AnchorablePayload{Board: req.Board, Cells: addrs},
	})
}

func (c *Connection) handlePlace(ctx context.Context, payload json.RawMessage) {
	var req network.PlacePayload
	if !c.decode(payload, &req) {
		return
	}
	f, ok := c.ownedFleet(req.Board)
	if !ok {
		return
	}
	kind, err := board.ParseShapeKind(req.Shape)
	if err != nil {
		c.SendError(network.ErrCodeInvalidMessage, err.Error())
		return
	}

	piece, err := f.Place(ctx, req.Address, kind)
	if err != nil {
		c.sendFailure(err)
		return
	}
	log.Printf("Player %s placed %s at %s on board %d", c.player.Username, kind, req.Address, req.Board)
	c.announce(&network.ServerMessage{
		Type:    network.MsgTypePlaced,
		Payload: piecePayload(req.Board, piece, f),
	})
}

func (c *Connection) handleRemove(ctx context.Context, payload json.RawMessage) {
	var req network.CellRequest
	if !c.decode(payload, &req) {
		return
	}
	f, ok := c.ownedFleet(req.Board)
	if !ok {
		return
	}

	piece, err := f.Remove(ctx, req.Address)
	if err != nil {
		c.sendFailure(err)
		return
	}
	log.Printf("Player %s removed %s at %s on board %d", c.player.Username, piece.Kind, req.Address, req.Board)
	c.announce(&network.ServerMessage{
		Type:    network.MsgTypeRemoved,
		Payload: piecePayload(req.Board, piece, f),
	})
}

// announce replies to the client, then tells every other player
func (c *Connection) announce(msg *network.ServerMessage) {
	c.SendMessage(msg)
	c.session.BroadcastExcept(c, msg)
}

func (c *Connection) handleStage(ctx context.Context, payload json.RawMessage) {
	var req network.StagePayload
	if !c.decode(payload, &req) {
		return
	}
	f, ok := c.ownedFleet(req.Board)
	if !ok {
		return
	}
	stage, err := fleet.ParseStage(req.Stage)
	if err != nil {
		c.SendError(network.ErrCodeInvalidMessage, err.Error())
		return
	}

	res, err := f.SetStage(ctx, stage)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.session.BroadcastMessage(&network.ServerMessage{
		Type: network.MsgTypeStageChanged,
		Payload: network.StageChangedPayload{
			Board:      req.Board,
			Stage:      stage.String(),
			Anchorable: res.Anchorable,
		},
	})
}

// ownedFleet returns board i's fleet if the player is seated there
func (c *Connection) ownedFleet(i int) (*fleet.Fleet, bool) {
	f, err := c.session.Fleet(i)
	if err != nil {
		c.sendFailure(err)
		return nil, false
	}
	if !c.player.IsSeated() || !c.session.Owns(c.player.ID, i) {
		c.sendFailure(ErrNotYourBoard)
		return nil, false
	}
	return f, true
}

// forward relays a board signal to the client
func (c *Connection) forward(e events.Event) {
	var typ string
	switch e.Type {
	case events.TopologyReady:
		typ = network.MsgTypeTopologyReady
	case events.ValidityRecomputed:
		typ = network.MsgTypeValidityRecomputed
	default:
		return
	}
	c.SendMessage(&network.ServerMessage{
		Type: typ,
		Payload: network.BoardEventPayload{
			Board:     e.Board,
			Timestamp: e.Timestamp.Unix(),
			Data:      e.Data,
		},
	})
}

func (c *Connection) decode(payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		c.SendError(network.ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

func (c *Connection) sendFailure(err error) {
	c.SendError(errorCode(err), err.Error())
}

// errorCode maps domain errors to protocol error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, sector.ErrInvalidAddress):
		return network.ErrCodeInvalidAddress
	case errors.Is(err, board.ErrTopologyNotReady):
		return network.ErrCodeNotReady
	case errors.Is(err, ErrNoBoard):
		return network.ErrCodeNoBoard
	case errors.Is(err, ErrNotYourBoard):
		return network.ErrCodeForbidden
	case errors.Is(err, fleet.ErrPlacementLocked):
		return network.ErrCodeLocked
	case errors.Is(err, fleet.ErrNotAnchorable):
		return network.ErrCodeNotAnchorable
	case errors.Is(err, fleet.ErrNoPiece):
		return network.ErrCodeNoPiece
	default:
		return network.ErrCodeInternal
	}
}

func cellPayload(boardIndex int, cell *board.Cell, withNeighbors bool) network.CellPayload {
	out := network.CellPayload{
		Board:       boardIndex,
		Address:     cell.Address(),
		Index:       cell.Index(),
		Axial:       sector.ToAxial(cell.Address()),
		Center:      cell.IsCenter(),
		Containment: cell.Containment().String(),
		Validity:    make(map[string]bool),
	}
	for k, v := range cell.ValidityMap() {
		out.Validity[string(k)] = v
	}
	if withNeighbors {
		out.Neighbors = make([]*network.NeighborInfo, sector.Count)
		for dir, n := range cell.Neighbors() {
			if n != nil {
				out.Neighbors[dir] = &network.NeighborInfo{
					Address: n.Address(),
					Index:   n.Index(),
					Axial:   sector.ToAxial(n.Address()),
				}
			}
		}
	}
	return out
}

func piecePayload(boardIndex int, piece *fleet.Piece, f *fleet.Fleet) network.PiecePayload {
	return network.PiecePayload{
		Board:  boardIndex,
		ID:     piece.ID,
		Shape:  string(piece.Kind),
		Anchor: piece.Anchor,
		Cells:  piece.Cells,
		Points: f.Budget().Points(),
	}
}

// SendMessage queues a message for the client. Messages sent after Close
// are dropped.
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Send buffer full for %s, dropping message", c.id)
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close leaves the session and closes the connection. Safe to call more
// than once.
func (c *Connection) Close() {
	if c.authenticated && c.player != nil {
		c.handleLeave()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.ws != nil {
		c.ws.Close()
	}
}
