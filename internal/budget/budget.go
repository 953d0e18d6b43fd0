// Package budget tracks the points a player may spend on pieces of a board
// and the escalating cost of each shape kind.
package budget

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gravitas-games/hexfleet/internal/board"
)

// ErrInsufficientPoints is returned when a shape costs more than the
// remaining points.
var ErrInsufficientPoints = errors.New("insufficient points")

// DefaultPoints is the starting point pool of a board.
const DefaultPoints = 12

// DefaultStep is how much a shape's cost rises per placed piece.
const DefaultStep = 1

// DefaultCosts is the initial cost of every known shape kind.
var DefaultCosts = map[board.ShapeKind]int{
	board.ShapePair:     2,
	board.ShapeLine:     3,
	board.ShapeTriangle: 3,
	board.ShapeDiamond:  4,
	board.ShapeCross:    5,
	board.ShapeWave:     5,
	board.ShapeRing:     6,
}

// Budget is a board's point pool.
type Budget struct {
	mu      sync.RWMutex
	points  int
	step    int
	initial map[board.ShapeKind]int
	costs   map[board.ShapeKind]int
}

// New creates a budget. Costs missing from costs fall back to DefaultCosts.
func New(points, step int, costs map[board.ShapeKind]int) (*Budget, error) {
	if points < 0 {
		return nil, fmt.Errorf("budget points cannot be negative, got %d", points)
	}
	if step < 0 {
		return nil, fmt.Errorf("budget step cannot be negative, got %d", step)
	}

	initial := make(map[board.ShapeKind]int, len(DefaultCosts))
	for k, v := range DefaultCosts {
		initial[k] = v
	}
	for k, v := range costs {
		if v <= 0 {
			return nil, fmt.Errorf("cost of %s must be positive, got %d", k, v)
		}
		initial[k] = v
	}

	current := make(map[board.ShapeKind]int, len(initial))
	for k, v := range initial {
		current[k] = v
	}
	return &Budget{points: points, step: step, initial: initial, costs: current}, nil
}

// NewDefault creates a budget with the default pool, step and costs.
func NewDefault() *Budget {
	b, _ := New(DefaultPoints, DefaultStep, nil)
	return b
}

// Points returns the remaining points.
func (b *Budget) Points() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.points
}

// Cost returns the current cost of kind and whether the kind is known.
func (b *Budget) Cost(kind board.ShapeKind) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.costs[kind]
	return c, ok
}

// Allows reports whether kind is known and its cost fits the remaining
// points.
func (b *Budget) Allows(kind board.ShapeKind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.costs[kind]
	return ok && c <= b.points
}

// Spend deducts the cost of kind and raises that cost by the step. It
// returns the points spent.
func (b *Budget) Spend(kind board.ShapeKind) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.costs[kind]
	if !ok {
		return 0, fmt.Errorf("spend %s: unknown shape kind", kind)
	}
	if c > b.points {
		return 0, fmt.Errorf("spend %s: cost %d, %d left: %w", kind, c, b.points, ErrInsufficientPoints)
	}
	b.points -= c
	b.costs[kind] = c + b.step
	return c, nil
}

// Refund lowers the cost of kind by the step, never below its initial
// cost, gives the lowered cost back to the pool and returns it.
func (b *Budget) Refund(kind board.ShapeKind) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.costs[kind]
	if !ok {
		return 0, fmt.Errorf("refund %s: unknown shape kind", kind)
	}
	c -= b.step
	if c < b.initial[kind] {
		c = b.initial[kind]
	}
	b.costs[kind] = c
	b.points += c
	return c, nil
}

// Snapshot returns the remaining points and a copy of the current costs.
func (b *Budget) Snapshot() (int, map[board.ShapeKind]int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	costs := make(map[board.ShapeKind]int, len(b.costs))
	for k, v := range b.costs {
		costs[k] = v
	}
	return b.points, costs
}
