package network

import (
	"encoding/json"

	"github.com/gravitas-games/hexfleet/internal/sector"
)

// Message types - Client → Server
const (
	MsgTypeJoin       = "join"
	MsgTypeLeave      = "leave"
	MsgTypePing       = "ping"
	MsgTypeResolve    = "resolve"
	MsgTypeNeighbors  = "neighbors"
	MsgTypeValidity   = "validity"
	MsgTypeAnchorable = "anchorable"
	MsgTypePlace      = "place"
	MsgTypeRemove     = "remove"
	MsgTypeStage      = "stage"
)

// Message types - Server → Client
//
// Board signals (validity_recomputed, topology_ready) are queued while the
// change that raised them is applied, so a client always receives them
// before the placed, removed or stage_changed message of that change.
const (
	MsgTypeWelcome            = "welcome"
	MsgTypePong               = "pong"
	MsgTypeCell               = "cell"
	MsgTypeAnchorableSet      = "anchorable"
	MsgTypePlaced             = "placed"
	MsgTypeRemoved            = "removed"
	MsgTypeStageChanged       = "stage_changed"
	MsgTypeValidityRecomputed = "validity_recomputed"
	MsgTypeTopologyReady      = "topology_ready"
	MsgTypeError              = "error"
)

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownType    = "UNKNOWN_MESSAGE_TYPE"
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	ErrCodeNotReady       = "TOPOLOGY_NOT_READY"
	ErrCodeNoBoard        = "NO_SUCH_BOARD"
	ErrCodeForbidden      = "NOT_YOUR_BOARD"
	ErrCodeLocked         = "PLACEMENT_LOCKED"
	ErrCodeNotAnchorable  = "NOT_ANCHORABLE"
	ErrCodeNoPiece        = "NO_PIECE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// --- Client Message Payloads ---

// CellRequest addresses a cell on one of the session's boards
type CellRequest struct {
	Board   int            `json:"board"`
	Address sector.Address `json:"address"`
}

// ValidityRequest asks whether a shape fits at a cell
type ValidityRequest struct {
	Board   int            `json:"board"`
	Address sector.Address `json:"address"`
	Shape   string         `json:"shape"`
}

// BoardRequest targets a whole board
type BoardRequest struct {
	Board int `json:"board"`
}

// PlacePayload places a piece
type PlacePayload struct {
	Board   int            `json:"board"`
	Address sector.Address `json:"address"`
	Shape   string         `json:"shape"`
}

// StagePayload switches a board's stage ("edit" or "battle")
type StagePayload struct {
	Board int    `json:"board"`
	Stage string `json:"stage"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	PlayerID     string         `json:"player_id"`
	Username     string         `json:"username"`
	SessionID    string         `json:"session_id"`
	ConnectionID string         `json:"connection_id"`
	Board        int            `json:"board"` // seat, -1 when spectating
	Boards       []BoardSummary `json:"boards"`
}

// BoardSummary describes a board of the session
type BoardSummary struct {
	Index      int      `json:"index"`
	Dimensions int      `json:"dimensions"`
	Ready      bool     `json:"ready"`
	Cells      int      `json:"cells"`
	Stage      string   `json:"stage"`
	Shapes     []string `json:"shapes"`
	Points     int      `json:"points"`
}

// CellPayload describes a cell and its surroundings
type CellPayload struct {
	Board       int             `json:"board"`
	Address     sector.Address  `json:"address"`
	Index       int             `json:"index"`
	Axial       sector.Axial    `json:"axial"`
	Center      bool            `json:"center"`
	Containment string          `json:"containment"`
	Neighbors   []*NeighborInfo `json:"neighbors,omitempty"` // absolute-direction order, null at edges
	Validity    map[string]bool `json:"validity,omitempty"`
}

// NeighborInfo identifies a neighboring cell
type NeighborInfo struct {
	Address sector.Address `json:"address"`
	Index   int            `json:"index"`
	Axial   sector.Axial   `json:"axial"`
}

// AnchorablePayload lists the cells where at least one shape fits
type AnchorablePayload struct {
	Board int              `json:"board"`
	Cells []sector.Address `json:"cells"`
}

// PiecePayload describes a placed or removed piece
type PiecePayload struct {
	Board  int              `json:"board"`
	ID     string           `json:"id"`
	Shape  string           `json:"shape"`
	Anchor sector.Address   `json:"anchor"`
	Cells  []sector.Address `json:"cells"`
	Points int              `json:"points"`
}

// StageChangedPayload confirms a stage switch
type StageChangedPayload struct {
	Board      int    `json:"board"`
	Stage      string `json:"stage"`
	Anchorable int    `json:"anchorable"`
}

// BoardEventPayload relays a board signal
type BoardEventPayload struct {
	Board     int            `json:"board"`
	Timestamp int64          `json:"timestamp"` // Unix timestamp
	Data      map[string]any `json:"data,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
