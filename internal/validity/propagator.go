// Package validity decides, for every cell of a board and every tracked
// shape kind, whether a piece of that shape could be anchored there now.
package validity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/events"
)

// Mode selects the kind of validity pass.
type Mode int

const (
	// Recompute consults occupancy, footprints and the budget.
	Recompute Mode = iota
	// InvalidateAll marks every shape kind invalid everywhere without any
	// checking.
	InvalidateAll
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case Recompute:
		return "recompute"
	case InvalidateAll:
		return "invalidate_all"
	default:
		return "unknown"
	}
}

// Resolver computes shape footprints and answers occupancy questions about
// them.
type Resolver interface {
	// Footprint returns the cells kind would occupy when anchored at anchor.
	// A nil entry stands for a cell off the board.
	Footprint(anchor *board.Cell, kind board.ShapeKind) ([]*board.Cell, error)

	// AllFree reports whether every present cell is Free.
	AllFree(cells []*board.Cell) bool

	// AnyOutOfBoard reports whether any cell is missing or OutOfBoard.
	AnyOutOfBoard(cells []*board.Cell) bool
}

// Allowance reports whether a shape kind may currently be placed.
type Allowance interface {
	Allows(kind board.ShapeKind) bool
}

// Result summarizes one pass.
type Result struct {
	Mode       Mode
	Anchorable int
	Duration   time.Duration
}

// Propagator rewrites the validity maps of a single board. Passes are
// serialized; readers see either the previous or the new map of a cell.
type Propagator struct {
	board     *board.Board
	resolver  Resolver
	allowance Allowance

	mu sync.Mutex
}

// New creates a propagator for b.
func New(b *board.Board, resolver Resolver, allowance Allowance) *Propagator {
	return &Propagator{board: b, resolver: resolver, allowance: allowance}
}

// Board returns the board this propagator writes to.
func (p *Propagator) Board() *board.Board { return p.board }

// Run executes one pass in the given mode, replaces every cell's validity
// map and publishes the anchorable set. The board must be ready.
func (p *Propagator) Run(ctx context.Context, mode Mode) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cells, err := p.board.Cells()
	if err != nil {
		return Result{}, err
	}
	if mode != Recompute && mode != InvalidateAll {
		return Result{}, fmt.Errorf("unknown validity mode %d", mode)
	}

	start := time.Now()
	kinds := p.board.ShapeKinds()

	maps := make([]board.ValidityMap, len(cells))
	var anchorable []*board.Cell
	for i, c := range cells {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("board %d: validity pass: %w", p.board.Index(), err)
		}
		if mode == InvalidateAll || c.Containment() != board.Free {
			maps[i] = invalidMap(kinds)
			continue
		}
		m, ok := p.evaluate(c, kinds)
		maps[i] = m
		if ok {
			anchorable = append(anchorable, c)
		}
	}

	// A cancelled pass leaves the previous maps untouched.
	for i, c := range cells {
		c.StoreValidity(maps[i])
	}
	p.board.PublishAnchorable(anchorable)

	res := Result{Mode: mode, Anchorable: len(anchorable), Duration: time.Since(start)}
	validityPassesTotal.WithLabelValues(mode.String()).Inc()
	validityPassDuration.Observe(res.Duration.Seconds())

	p.board.Bus().Publish(events.Event{
		Type:  events.ValidityRecomputed,
		Board: p.board.Index(),
		Data:  map[string]any{"mode": mode.String(), "anchorable": res.Anchorable},
	})
	return res, nil
}

func (p *Propagator) evaluate(c *board.Cell, kinds []board.ShapeKind) (board.ValidityMap, bool) {
	m := make(board.ValidityMap, len(kinds))
	anchorable := false
	for _, k := range kinds {
		ok := p.valid(c, k)
		m[k] = ok
		anchorable = anchorable || ok
	}
	return m, anchorable
}

func (p *Propagator) valid(c *board.Cell, kind board.ShapeKind) bool {
	if p.allowance != nil && !p.allowance.Allows(kind) {
		return false
	}
	cells, err := p.resolver.Footprint(c, kind)
	if err != nil || len(cells) == 0 {
		return false
	}
	return p.resolver.AllFree(cells) && !p.resolver.AnyOutOfBoard(cells)
}

func invalidMap(kinds []board.ShapeKind) board.ValidityMap {
	m := make(board.ValidityMap, len(kinds))
	for _, k := range kinds {
		m[k] = false
	}
	return m
}
