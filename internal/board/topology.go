package board

import (
	"context"

	"github.com/gravitas-games/hexfleet/internal/sector"
)

// Phase identifies a stage of the topology build.
type Phase int

const (
	// PhaseGenerate creates every cell.
	PhaseGenerate Phase = iota
	// PhaseWire computes neighbor links. It starts only after PhaseGenerate
	// has finished for the whole board.
	PhaseWire
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseGenerate:
		return "generate"
	case PhaseWire:
		return "wire"
	default:
		return "unknown"
	}
}

// StepFunc is called after each whole cell of a phase, with the number of
// cells handled so far in that phase.
type StepFunc func(phase Phase, n int)

type builder struct {
	table  *Table
	filter sector.Filter
	step   StepFunc
}

// run generates and wires a complete table. The context is checked between
// cells only.
func (b *builder) run(ctx context.Context) error {
	if err := b.generate(ctx); err != nil {
		return err
	}
	return b.wire(ctx)
}

func (b *builder) generate(ctx context.Context) error {
	d := b.table.Dimensions()
	n := 0
	for s := 0; s < sector.Count; s++ {
		for r := 1; r <= d; r++ {
			for o := 0; o < r; o++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				a := sector.Address{Sector: s, Ring: r, Offset: o}
				if !b.filter(a) {
					continue
				}
				if _, err := b.table.CreateCell(a); err != nil {
					return err
				}
				n++
				b.tick(PhaseGenerate, n)
			}
		}
	}
	if _, err := b.table.CreateCenter(); err != nil {
		return err
	}
	return nil
}

func (b *builder) wire(ctx context.Context) error {
	for n, c := range b.table.cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := b.rawNeighbors(c.addr)
		// Rotate the sector-local frame into the shared absolute frame.
		for d, target := range raw {
			c.neighbors[(d+c.addr.Sector)%sector.Count] = target
		}
		b.tick(PhaseWire, n+1)
	}

	center := b.table.center
	for s := 0; s < sector.Count; s++ {
		center.neighbors[s] = b.table.at(s, 1, 0)
	}
	return nil
}

// rawNeighbors returns the six sector-local neighbors of a ring cell.
// Slot order is outward-same, outward-next, lateral-forward, inward-same,
// lateral-backward, outward-previous.
func (b *builder) rawNeighbors(a sector.Address) [sector.Count]*Cell {
	t := b.table
	d := t.Dimensions()
	s, r, o := a.Sector, a.Ring, a.Offset
	next, prev := sector.Next(s), sector.Prev(s)

	var raw [sector.Count]*Cell

	if r+1 <= d {
		raw[0] = t.at(s, r+1, o)
		if o+1 > r {
			raw[1] = t.at(next, r+1, 0)
		} else {
			raw[1] = t.at(s, r+1, o+1)
		}
	}

	if o+1 > r-1 {
		raw[2] = t.at(next, r, 0)
	} else {
		raw[2] = t.at(s, r, o+1)
	}

	switch {
	case r-1 < 1:
		raw[3] = t.center
	case o > r-2:
		raw[3] = t.at(next, r-1, 0)
	default:
		raw[3] = t.at(s, r-1, o)
	}

	// The lateral-backward step also moves one ring inward.
	if o-1 < 0 {
		raw[4] = t.at(prev, r, r-1)
	} else {
		raw[4] = t.at(s, r-1, o-1)
	}

	if o-1 < 0 {
		if r < d {
			raw[5] = t.at(prev, r+1, r)
		}
	} else {
		raw[5] = t.at(s, r, o-1)
	}

	return raw
}

func (b *builder) tick(phase Phase, n int) {
	if b.step != nil {
		b.step(phase, n)
	}
}
