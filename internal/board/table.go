package board

import (
	"github.com/gravitas-games/hexfleet/internal/sector"
)

const emptySlot = -1

// Table owns every cell of a board and the address to linear-index lookup.
// It is append-only while the topology is generated and read-only after.
type Table struct {
	dimensions int
	kinds      []ShapeKind
	cells      []*Cell
	lookup     [sector.Count][][]int // [sector][ring][offset]
	center     *Cell
}

// NewTable allocates an empty table for a board of the given dimensions.
// Every cell created will track kinds in its validity map.
func NewTable(dimensions int, kinds []ShapeKind) *Table {
	t := &Table{
		dimensions: dimensions,
		kinds:      kinds,
		cells:      make([]*Cell, 0, sector.TotalCells(dimensions)),
	}
	for s := range t.lookup {
		t.lookup[s] = make([][]int, dimensions+1)
		for r := range t.lookup[s] {
			row := make([]int, dimensions)
			for o := range row {
				row[o] = emptySlot
			}
			t.lookup[s][r] = row
		}
	}
	return t
}

// CreateCell allocates the cell at a and returns its linear index.
// Indices are assigned sequentially from 0 in creation order.
func (t *Table) CreateCell(a sector.Address) (int, error) {
	if err := sector.Validate(a, t.dimensions); err != nil {
		return emptySlot, err
	}
	if a.IsCenter() {
		return emptySlot, &AddressError{Addr: a, Reason: "ring 0 is reserved for the center"}
	}
	if existing := t.lookup[a.Sector][a.Ring][a.Offset]; existing != emptySlot {
		return emptySlot, &DuplicateCreationError{Addr: a, Existing: existing}
	}

	index := len(t.cells)
	t.cells = append(t.cells, newCell(index, a, t.kinds))
	t.lookup[a.Sector][a.Ring][a.Offset] = index
	return index, nil
}

// CreateCenter allocates the virtual center. It consumes no linear index and
// occupies no lookup slot. The center is not a placement target, so it
// starts OutOfBoard.
func (t *Table) CreateCenter() (*Cell, error) {
	if t.center != nil {
		return nil, &DuplicateCreationError{Center: true}
	}
	c := newCell(emptySlot, sector.Center, t.kinds)
	c.center = true
	c.SetContainment(OutOfBoard)
	t.center = c
	return c, nil
}

// Lookup returns the linear index created at a.
func (t *Table) Lookup(a sector.Address) (int, bool) {
	if sector.Validate(a, t.dimensions) != nil || a.IsCenter() {
		return emptySlot, false
	}
	index := t.lookup[a.Sector][a.Ring][a.Offset]
	return index, index != emptySlot
}

// Resolve returns the cell at a. Ring 0 resolves to the center once it has
// been created.
func (t *Table) Resolve(a sector.Address) (*Cell, error) {
	if err := sector.Validate(a, t.dimensions); err != nil {
		return nil, err
	}
	if a.IsCenter() {
		if t.center == nil {
			return nil, &AddressError{Addr: a, Reason: "center not created"}
		}
		return t.center, nil
	}
	index, ok := t.Lookup(a)
	if !ok {
		return nil, &AddressError{Addr: a, Reason: "no cell created at address"}
	}
	return t.cells[index], nil
}

// at returns the cell at (s, r, o), or nil when nothing was created there.
func (t *Table) at(s, r, o int) *Cell {
	index, ok := t.Lookup(sector.Address{Sector: s, Ring: r, Offset: o})
	if !ok {
		return nil
	}
	return t.cells[index]
}

// Cell returns the cell with the given linear index, or nil.
func (t *Table) Cell(index int) *Cell {
	if index < 0 || index >= len(t.cells) {
		return nil
	}
	return t.cells[index]
}

// Cells returns all non-center cells in linear-index order.
func (t *Table) Cells() []*Cell {
	out := make([]*Cell, len(t.cells))
	copy(out, t.cells)
	return out
}

// Center returns the virtual center, or nil before it is created.
func (t *Table) Center() *Cell { return t.center }

// Len returns the number of non-center cells.
func (t *Table) Len() int { return len(t.cells) }

// Dimensions returns the board radius the table was sized for.
func (t *Table) Dimensions() int { return t.dimensions }

// owns reports whether c was allocated by this table.
func (t *Table) owns(c *Cell) bool {
	if c == nil {
		return false
	}
	if c.center {
		return c == t.center
	}
	return t.Cell(c.index) == c
}
