package board

import (
	"sync/atomic"

	"github.com/gravitas-games/hexfleet/internal/sector"
)

// ValidityMap holds, per shape kind, whether a piece of that shape could be
// anchored at a cell right now.
type ValidityMap map[ShapeKind]bool

// Cell is a single board cell. Address and neighbor links are fixed once the
// topology is built; containment and validity are swapped atomically so
// readers always observe a whole snapshot.
type Cell struct {
	index     int
	addr      sector.Address
	center    bool
	neighbors [sector.Count]*Cell

	containment atomic.Int32
	validity    atomic.Pointer[ValidityMap]
}

func newCell(index int, addr sector.Address, kinds []ShapeKind) *Cell {
	c := &Cell{index: index, addr: addr}
	c.StoreValidity(falseMap(kinds))
	return c
}

// Index returns the cell's linear index, or -1 for the virtual center.
func (c *Cell) Index() int { return c.index }

// Address returns the cell's address. The center reports sector.Center.
func (c *Cell) Address() sector.Address { return c.addr }

// IsCenter reports whether c is the virtual center.
func (c *Cell) IsCenter() bool { return c.center }

// Neighbor returns the neighbor in absolute direction dir, or nil at the
// board edge.
func (c *Cell) Neighbor(dir int) *Cell { return c.neighbors[sector.Wrap(dir)] }

// Neighbors returns all six neighbor slots in absolute-direction order.
func (c *Cell) Neighbors() [sector.Count]*Cell { return c.neighbors }

// Containment returns the current occupancy state.
func (c *Cell) Containment() Containment { return Containment(c.containment.Load()) }

// SetContainment updates the occupancy state. Only the occupancy layer
// calls this, and a validity pass should follow.
func (c *Cell) SetContainment(state Containment) { c.containment.Store(int32(state)) }

// Validity reports whether kind may currently be anchored at c. Kinds the
// map does not track are never valid.
func (c *Cell) Validity(kind ShapeKind) bool {
	m := c.validity.Load()
	if m == nil {
		return false
	}
	return (*m)[kind]
}

// ValidityMap returns a copy of the current validity map.
func (c *Cell) ValidityMap() ValidityMap {
	m := c.validity.Load()
	out := make(ValidityMap)
	if m == nil {
		return out
	}
	for k, v := range *m {
		out[k] = v
	}
	return out
}

// StoreValidity replaces the validity map. m must not be modified after
// the call.
func (c *Cell) StoreValidity(m ValidityMap) { c.validity.Store(&m) }

// NeighborIndices returns the linear index in each direction, -1 for the
// center and -2 for an absent neighbor.
func (c *Cell) NeighborIndices() [sector.Count]int {
	var out [sector.Count]int
	for i, n := range c.neighbors {
		out[i] = -2
		if n != nil {
			out[i] = n.index
		}
	}
	return out
}

func falseMap(kinds []ShapeKind) ValidityMap {
	m := make(ValidityMap, len(kinds))
	for _, k := range kinds {
		m[k] = false
	}
	return m
}
