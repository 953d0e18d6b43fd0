package footprint

import (
	"fmt"

	"github.com/gravitas-games/hexfleet/internal/board"
)

// Walker resolves footprints by walking neighbor links from the anchor. It
// holds no board state.
type Walker struct {
	registry *Registry
}

// NewWalker creates a walker over the shapes in registry.
func NewWalker(registry *Registry) *Walker {
	return &Walker{registry: registry}
}

// Footprint returns the anchor followed by the end cell of every path of
// kind. A walk that leaves the board yields a nil entry; a walk that
// reaches the center stops there.
func (w *Walker) Footprint(anchor *board.Cell, kind board.ShapeKind) ([]*board.Cell, error) {
	if anchor == nil {
		return nil, fmt.Errorf("footprint %s: nil anchor", kind)
	}
	shape := w.registry.Lookup(kind)
	if shape == nil {
		return nil, fmt.Errorf("footprint %s: %w", kind, ErrUnknownShape)
	}

	cells := make([]*board.Cell, 0, shape.Size())
	cells = append(cells, anchor)
	seen := map[*board.Cell]bool{anchor: true}
	for _, p := range shape.Paths {
		end := Walk(anchor, p)
		if end != nil {
			if seen[end] {
				return nil, fmt.Errorf("footprint %s at %s: %w", kind, anchor.Address(), ErrOverlap)
			}
			seen[end] = true
		}
		cells = append(cells, end)
	}
	return cells, nil
}

// AllFree reports whether every present cell is Free.
func (w *Walker) AllFree(cells []*board.Cell) bool {
	for _, c := range cells {
		if c != nil && c.Containment() != board.Free {
			return false
		}
	}
	return true
}

// AnyOutOfBoard reports whether any cell is off the board or OutOfBoard.
func (w *Walker) AnyOutOfBoard(cells []*board.Cell) bool {
	for _, c := range cells {
		if c == nil || c.Containment() == board.OutOfBoard {
			return true
		}
	}
	return false
}

// Walk follows path from start and returns the cell it ends on, nil if it
// leaves the board, or the center if it reaches it.
func Walk(start *board.Cell, path Path) *board.Cell {
	cur := start
	for _, d := range path {
		cur = cur.Neighbor(d)
		if cur == nil || cur.IsCenter() {
			return cur
		}
	}
	return cur
}
