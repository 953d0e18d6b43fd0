// Package board builds the cell table of a sector-addressed hex board,
// wires every cell's six neighbors and answers adjacency queries once the
// topology is ready.
package board

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gravitas-games/hexfleet/internal/events"
	"github.com/gravitas-games/hexfleet/internal/sector"
)

// Board is a single playing surface. It is either not ready (nothing
// published) or ready (fully generated and wired); queries issued before
// ready fail with an *UnreadyTopologyError.
type Board struct {
	index      int
	dimensions int
	kinds      []ShapeKind
	filter     sector.Filter
	bus        events.Bus
	step       StepFunc

	buildMu    sync.Mutex
	table      atomic.Pointer[Table]
	anchorable atomic.Pointer[[]*Cell]
}

// Option configures a Board.
type Option func(*Board)

// WithFilter sets the address normalization predicate used during
// generation.
func WithFilter(f sector.Filter) Option {
	return func(b *Board) {
		if f != nil {
			b.filter = f
		}
	}
}

// WithBus sets the bus that receives the board's signals.
func WithBus(bus events.Bus) Option {
	return func(b *Board) {
		if bus != nil {
			b.bus = bus
		}
	}
}

// WithStepFunc installs a hook called after every cell of each build phase.
func WithStepFunc(fn StepFunc) Option {
	return func(b *Board) { b.step = fn }
}

// WithShapeKinds sets the shape kinds tracked in every cell's validity map.
func WithShapeKinds(kinds ...ShapeKind) Option {
	return func(b *Board) {
		if len(kinds) > 0 {
			b.kinds = append([]ShapeKind(nil), kinds...)
		}
	}
}

// New creates a board that is not yet built.
func New(index, dimensions int, opts ...Option) (*Board, error) {
	if dimensions < 1 {
		return nil, fmt.Errorf("board dimensions must be positive, got %d", dimensions)
	}
	b := &Board{
		index:      index,
		dimensions: dimensions,
		kinds:      append([]ShapeKind(nil), DefaultShapeKinds...),
		filter:     sector.AcceptAll,
		bus:        events.NewNullBus(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build generates every cell, then wires neighbors, and publishes the table.
// On cancellation or failure the partial table is discarded and the board
// stays not ready.
func (b *Board) Build(ctx context.Context) error {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	if b.table.Load() != nil {
		return ErrAlreadyBuilt
	}

	log.Printf("Generating board %d with dimensions %d", b.index, b.dimensions)
	start := time.Now()

	t := NewTable(b.dimensions, b.kinds)
	bld := &builder{table: t, filter: b.filter, step: b.step}
	if err := bld.run(ctx); err != nil {
		topologyBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("board %d: build topology: %w", b.index, err)
	}

	empty := []*Cell{}
	b.anchorable.Store(&empty)
	b.table.Store(t)

	topologyBuildsTotal.WithLabelValues("ok").Inc()
	topologyBuildDuration.Observe(time.Since(start).Seconds())
	log.Printf("Board %d ready with %d cells", b.index, t.Len())

	b.bus.Publish(events.Event{
		Type:  events.TopologyReady,
		Board: b.index,
		Data:  map[string]any{"cells": t.Len(), "dimensions": b.dimensions},
	})
	return nil
}

// Ready reports whether the topology has been published.
func (b *Board) Ready() bool { return b.table.Load() != nil }

// Index returns the board's index within its session.
func (b *Board) Index() int { return b.index }

// Dimensions returns the board radius.
func (b *Board) Dimensions() int { return b.dimensions }

// ShapeKinds returns the shape kinds tracked per cell.
func (b *Board) ShapeKinds() []ShapeKind { return append([]ShapeKind(nil), b.kinds...) }

// Bus returns the bus receiving the board's signals.
func (b *Board) Bus() events.Bus { return b.bus }

func (b *Board) ready(op string) (*Table, error) {
	t := b.table.Load()
	if t == nil {
		return nil, &UnreadyTopologyError{Op: op, Board: b.index}
	}
	return t, nil
}

func (b *Board) owned(op string, c *Cell) (*Table, error) {
	t, err := b.ready(op)
	if err != nil {
		return nil, err
	}
	if !t.owns(c) {
		return nil, fmt.Errorf("board %d: %s: %w", b.index, op, ErrForeignCell)
	}
	return t, nil
}

// Table returns the published cell table.
func (b *Board) Table() (*Table, error) { return b.ready("table") }

// Resolve returns the cell at a.
func (b *Board) Resolve(a sector.Address) (*Cell, error) {
	t, err := b.ready("resolve")
	if err != nil {
		return nil, err
	}
	return t.Resolve(a)
}

// NeighborsOf returns c's neighbors in absolute-direction order. Absent
// entries are board edges.
func (b *Board) NeighborsOf(c *Cell) ([sector.Count]*Cell, error) {
	if _, err := b.owned("neighbors", c); err != nil {
		return [sector.Count]*Cell{}, err
	}
	return c.Neighbors(), nil
}

// IsCenter reports whether c is the board's virtual center.
func (b *Board) IsCenter(c *Cell) (bool, error) {
	if _, err := b.owned("is center", c); err != nil {
		return false, err
	}
	return c.IsCenter(), nil
}

// LinearIndexOf returns c's linear index; the center reports -1.
func (b *Board) LinearIndexOf(c *Cell) (int, error) {
	if _, err := b.owned("linear index", c); err != nil {
		return emptySlot, err
	}
	return c.Index(), nil
}

// ValidityOf reports whether kind may currently be anchored at c.
func (b *Board) ValidityOf(c *Cell, kind ShapeKind) (bool, error) {
	if _, err := b.owned("validity", c); err != nil {
		return false, err
	}
	return c.Validity(kind), nil
}

// Cells returns every non-center cell in linear-index order.
func (b *Board) Cells() ([]*Cell, error) {
	t, err := b.ready("cells")
	if err != nil {
		return nil, err
	}
	return t.Cells(), nil
}

// Center returns the virtual center.
func (b *Board) Center() (*Cell, error) {
	t, err := b.ready("center")
	if err != nil {
		return nil, err
	}
	return t.Center(), nil
}

// AnchorableCells returns the cells where at least one shape kind may be
// anchored, as of the last validity pass.
func (b *Board) AnchorableCells() ([]*Cell, error) {
	if _, err := b.ready("anchorable cells"); err != nil {
		return nil, err
	}
	set := b.anchorable.Load()
	out := make([]*Cell, len(*set))
	copy(out, *set)
	return out, nil
}

// PublishAnchorable replaces the anchorable set. Only the validity pass
// that just rewrote the cells' maps calls this.
func (b *Board) PublishAnchorable(cells []*Cell) {
	snapshot := append([]*Cell(nil), cells...)
	b.anchorable.Store(&snapshot)
}
