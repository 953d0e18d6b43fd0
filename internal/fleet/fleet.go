// Package fleet keeps the pieces placed on a board, marks the cells they
// cover and re-runs validity propagation after every change.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/budget"
	"github.com/gravitas-games/hexfleet/internal/sector"
	"github.com/gravitas-games/hexfleet/internal/validity"
)

var (
	// ErrPlacementLocked is returned when pieces change outside the edit stage.
	ErrPlacementLocked = errors.New("placement is locked")
	// ErrNotAnchorable is returned when a shape cannot be anchored at a cell.
	ErrNotAnchorable = errors.New("shape cannot be anchored here")
	// ErrNoPiece is returned when no piece is anchored at an address.
	ErrNoPiece = errors.New("no piece anchored here")
)

// Stage is the phase of play a fleet is in.
type Stage int

const (
	// StageEdit allows placing and removing pieces.
	StageEdit Stage = iota
	// StageBattle forbids any change to the fleet.
	StageBattle
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageEdit:
		return "edit"
	case StageBattle:
		return "battle"
	default:
		return "unknown"
	}
}

// ParseStage resolves a stage name.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "edit":
		return StageEdit, nil
	case "battle":
		return StageBattle, nil
	}
	return 0, fmt.Errorf("unknown stage: %q", name)
}

// Piece is a placed shape.
type Piece struct {
	ID     string           `json:"id"`
	Kind   board.ShapeKind  `json:"kind"`
	Anchor sector.Address   `json:"anchor"`
	Cells  []sector.Address `json:"cells"`
	Cost   int              `json:"cost"`
}

// Fleet owns the occupancy of one board.
type Fleet struct {
	board      *board.Board
	resolver   validity.Resolver
	budget     *budget.Budget
	propagator *validity.Propagator

	mu     sync.Mutex
	stage  Stage
	pieces map[sector.Address]*Piece
}

// New creates a fleet in the edit stage. The board must be built before any
// other call.
func New(b *board.Board, resolver validity.Resolver, bud *budget.Budget) *Fleet {
	return &Fleet{
		board:      b,
		resolver:   resolver,
		budget:     bud,
		propagator: validity.New(b, resolver, bud),
		pieces:     make(map[sector.Address]*Piece),
	}
}

// Board returns the fleet's board.
func (f *Fleet) Board() *board.Board { return f.board }

// Budget returns the fleet's budget.
func (f *Fleet) Budget() *budget.Budget { return f.budget }

// Stage returns the current stage.
func (f *Fleet) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Refresh runs the validity pass that matches the current stage.
func (f *Fleet) Refresh(ctx context.Context) (validity.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.propagate(ctx)
}

// SetStage switches stage and re-runs propagation.
func (f *Fleet) SetStage(ctx context.Context, stage Stage) (validity.Result, error) {
	if stage != StageEdit && stage != StageBattle {
		return validity.Result{}, fmt.Errorf("unknown stage %d", stage)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return validity.Result{}, fmt.Errorf("set stage %s: %w", stage, err)
	}
	if f.stage != stage {
		log.Printf("Board %d entering %s stage", f.board.Index(), stage)
	}
	f.stage = stage
	return f.propagate(context.WithoutCancel(ctx))
}

// Place anchors a piece of kind at addr.
func (f *Fleet) Place(ctx context.Context, addr sector.Address, kind board.ShapeKind) (*Piece, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageEdit {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, ErrPlacementLocked)
	}
	anchor, err := f.board.Resolve(addr)
	if err != nil {
		return nil, err
	}
	ok, err := f.board.ValidityOf(anchor, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, ErrNotAnchorable)
	}

	cells, err := f.resolver.Footprint(anchor, kind)
	if err != nil {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, err)
	}
	if !f.resolver.AllFree(cells) || f.resolver.AnyOutOfBoard(cells) {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, ErrNotAnchorable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, err)
	}
	cost, err := f.budget.Spend(kind)
	if err != nil {
		return nil, fmt.Errorf("place %s at %s: %w", kind, addr, err)
	}

	piece := &Piece{ID: uuid.NewString(), Kind: kind, Anchor: addr, Cost: cost}
	for _, c := range cells {
		c.SetContainment(board.Occupied)
		piece.Cells = append(piece.Cells, c.Address())
	}
	f.pieces[addr] = piece

	if err := f.settle(ctx); err != nil {
		return nil, err
	}
	return piece, nil
}

// Remove frees the piece anchored at addr and refunds its shape.
func (f *Fleet) Remove(ctx context.Context, addr sector.Address) (*Piece, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageEdit {
		return nil, fmt.Errorf("remove at %s: %w", addr, ErrPlacementLocked)
	}
	piece, ok := f.pieces[addr]
	if !ok {
		return nil, fmt.Errorf("remove at %s: %w", addr, ErrNoPiece)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("remove at %s: %w", addr, err)
	}
	cells := make([]*board.Cell, len(piece.Cells))
	for i, a := range piece.Cells {
		c, err := f.board.Resolve(a)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	if _, err := f.budget.Refund(piece.Kind); err != nil {
		return nil, err
	}
	for _, c := range cells {
		c.SetContainment(board.Free)
	}
	delete(f.pieces, addr)

	if err := f.settle(ctx); err != nil {
		return nil, err
	}
	return piece, nil
}

// settle runs the pass that follows a committed change. It ignores
// cancellation of ctx so the validity maps never lag behind occupancy.
func (f *Fleet) settle(ctx context.Context) error {
	_, err := f.propagate(context.WithoutCancel(ctx))
	return err
}

// Pieces returns the placed pieces.
func (f *Fleet) Pieces() []Piece {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Piece, 0, len(f.pieces))
	for _, p := range f.pieces {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Anchor.String() < out[j].Anchor.String() })
	return out
}

// Occupies reports whether a placed piece covers addr.
func (f *Fleet) Occupies(addr sector.Address) bool {
	c, err := f.board.Resolve(addr)
	if err != nil {
		return false
	}
	return c.Containment() == board.Occupied
}

func (f *Fleet) propagate(ctx context.Context) (validity.Result, error) {
	mode := validity.Recompute
	if f.stage == StageBattle {
		mode = validity.InvalidateAll
	}
	return f.propagator.Run(ctx, mode)
}
