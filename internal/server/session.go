package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/config"
	"github.com/gravitas-games/hexfleet/internal/events"
	"github.com/gravitas-games/hexfleet/internal/fleet"
	"github.com/gravitas-games/hexfleet/internal/footprint"
	"github.com/gravitas-games/hexfleet/internal/network"
	"github.com/gravitas-games/hexfleet/pkg/models"
)

var (
	// ErrNoBoard is returned for board indices outside the session
	ErrNoBoard = errors.New("no such board")
	// ErrNotYourBoard is returned when a player changes a board they do not own
	ErrNotYourBoard = errors.New("board belongs to another player")
)

// Session represents a game session: a set of boards sharing one bus
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	seats       []string                  // board index -> playerID
	mu          sync.RWMutex

	// Game state
	fleets []*fleet.Fleet
	bus    *events.SimpleBus

	// Configuration
	config *config.Config
}

// NewSession creates a new game session. Boards are created but not built.
// Board signals reach connections on the publishing goroutine. Forwarding
// only queues onto a connection's send buffer and never blocks.
func NewSession(cfg *config.Config) (*Session, error) {
	return newSession(cfg, events.NewSimpleBus())
}

func newSession(cfg *config.Config, bus *events.SimpleBus) (*Session, error) {
	id := uuid.NewString()
	log.Printf("Creating session: %s", id)

	kinds, err := cfg.ShapeKinds()
	if err != nil {
		return nil, err
	}
	registry, err := cfg.NewRegistry()
	if err != nil {
		return nil, err
	}
	walker := footprint.NewWalker(registry)

	fleets := make([]*fleet.Fleet, cfg.Board.Boards)
	for i := range fleets {
		b, err := board.New(i, cfg.Board.Dimensions, board.WithBus(bus), board.WithShapeKinds(kinds...))
		if err != nil {
			return nil, err
		}
		bud, err := cfg.NewBudget()
		if err != nil {
			return nil, err
		}
		fleets[i] = fleet.New(b, walker, bud)
	}

	session := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		seats:       make([]string, len(fleets)),
		fleets:      fleets,
		bus:         bus,
		config:      cfg,
	}

	log.Printf("Session %s created with %d boards of dimensions %d", id, len(fleets), cfg.Board.Dimensions)
	return session, nil
}

// Build generates every board concurrently and runs the first validity pass
// on each.
func (s *Session) Build(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range s.fleets {
		f := f
		g.Go(func() error {
			if err := f.Board().Build(ctx); err != nil {
				return err
			}
			_, err := f.Refresh(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	log.Printf("Session %s: all boards ready", s.ID)
	return nil
}

// Bus returns the bus shared by the session's boards
func (s *Session) Bus() events.Bus { return s.bus }

// Fleet returns the fleet of board i
func (s *Session) Fleet(i int) (*fleet.Fleet, error) {
	if i < 0 || i >= len(s.fleets) {
		return nil, fmt.Errorf("board %d: %w", i, ErrNoBoard)
	}
	return s.fleets[i], nil
}

// Boards returns the number of boards
func (s *Session) Boards() int { return len(s.fleets) }

// AddPlayer adds a player to the session and seats them at the first free
// board. Players joining a full session spectate.
func (s *Session) AddPlayer(player *models.Player, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player.Board = -1
	for i, owner := range s.seats {
		if owner == "" || owner == player.ID {
			s.seats[i] = player.ID
			player.Board = i
			break
		}
	}

	s.players[player.ID] = player
	s.connections[player.ID] = conn

	log.Printf("Player %s (%s) joined session %s at board %d", player.Username, player.ID, s.ID, player.Board)
	return nil
}

// RemovePlayer removes a player from the session and frees their seat
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, exists := s.players[playerID]; exists {
		log.Printf("Player %s (%s) left session %s", player.Username, playerID, s.ID)
		delete(s.players, playerID)
		delete(s.connections, playerID)
		for i, owner := range s.seats {
			if owner == playerID {
				s.seats[i] = ""
			}
		}
	}
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// GetPlayers returns all players in the session
func (s *Session) GetPlayers() []*models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*models.Player, 0, len(s.players))
	for _, player := range s.players {
		players = append(players, player)
	}
	return players
}

// Owns reports whether playerID is seated at board i
func (s *Session) Owns(playerID string, i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return i >= 0 && i < len(s.seats) && s.seats[i] == playerID
}

// BroadcastMessage sends a message to all connected players
func (s *Session) BroadcastMessage(msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		conn.SendMessage(msg)
	}
}

// BroadcastExcept sends a message to all players except the specified connection
func (s *Session) BroadcastExcept(exclude *Connection, msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		if conn != exclude {
			conn.SendMessage(msg)
		}
	}
}

// Summaries describes every board of the session
func (s *Session) Summaries() []network.BoardSummary {
	out := make([]network.BoardSummary, len(s.fleets))
	for i, f := range s.fleets {
		b := f.Board()
		sum := network.BoardSummary{
			Index:      i,
			Dimensions: b.Dimensions(),
			Ready:      b.Ready(),
			Stage:      f.Stage().String(),
			Points:     f.Budget().Points(),
		}
		if cells, err := b.Cells(); err == nil {
			sum.Cells = len(cells)
		}
		for _, k := range b.ShapeKinds() {
			sum.Shapes = append(sum.Shapes, string(k))
		}
		out[i] = sum
	}
	return out
}

// Close unregisters every bus subscriber
func (s *Session) Close() {
	s.bus.Close()
	log.Printf("Session %s closed", s.ID)
}
