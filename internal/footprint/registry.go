// Package footprint resolves the cells a shape occupies when anchored at a
// board cell. A shape is a list of walks; each walk is a sequence of
// absolute directions taken from the anchor, and the cell it ends on is
// part of the footprint.
package footprint

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/sector"
)

var (
	// ErrUnknownShape is returned for shape kinds without registered paths.
	ErrUnknownShape = errors.New("unknown shape kind")
	// ErrOverlap is returned when two walks of a shape end on the same cell.
	ErrOverlap = errors.New("footprint revisits a cell")
)

// Path is a walk of absolute directions from the anchor.
type Path []int

// Shape describes the footprint of a shape kind.
type Shape struct {
	Kind  board.ShapeKind
	Paths []Path
}

// Size returns the number of cells the shape covers, anchor included.
func (s *Shape) Size() int { return len(s.Paths) + 1 }

// DefaultPaths is the built-in footprint table.
var DefaultPaths = map[board.ShapeKind][]Path{
	board.ShapePair:     {{0}},
	board.ShapeLine:     {{0}, {0, 0}},
	board.ShapeTriangle: {{0}, {1}},
	board.ShapeDiamond:  {{0}, {1}, {0, 1}},
	board.ShapeCross:    {{1}, {2}, {4}, {5}},
	board.ShapeWave:     {{0}, {0, 1}, {0, 1, 0}, {0, 1, 0, 1}},
	board.ShapeRing:     {{0}, {0, 1}, {0, 1, 2}, {0, 1, 2, 3}, {0, 1, 2, 3, 4}},
}

// Registry stores shapes with thread-safe access.
type Registry struct {
	mu     sync.RWMutex
	shapes map[board.ShapeKind]*Shape
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{shapes: make(map[board.ShapeKind]*Shape)}
}

// NewDefaultRegistry creates a registry holding DefaultPaths with
// overrides applied on top.
func NewDefaultRegistry(overrides map[board.ShapeKind][]Path) (*Registry, error) {
	r := NewRegistry()
	for kind, paths := range DefaultPaths {
		if p, ok := overrides[kind]; ok {
			paths = p
		}
		if err := r.Register(&Shape{Kind: kind, Paths: paths}); err != nil {
			return nil, err
		}
	}
	for kind, paths := range overrides {
		if _, ok := DefaultPaths[kind]; ok {
			continue
		}
		if err := r.Register(&Shape{Kind: kind, Paths: paths}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a shape. Returns an error if the shape is
// invalid.
func (r *Registry) Register(shape *Shape) error {
	if shape == nil {
		return errors.New("shape cannot be nil")
	}
	if shape.Kind == "" {
		return errors.New("shape kind cannot be empty")
	}
	if len(shape.Paths) == 0 {
		return fmt.Errorf("shape %s: at least one path is required", shape.Kind)
	}
	for i, p := range shape.Paths {
		if len(p) == 0 {
			return fmt.Errorf("shape %s: path %d is empty", shape.Kind, i)
		}
		for _, d := range p {
			if d < 0 || d >= sector.Count {
				return fmt.Errorf("shape %s: path %d: direction %d out of range", shape.Kind, i, d)
			}
		}
	}

	paths := make([]Path, len(shape.Paths))
	for i, p := range shape.Paths {
		paths[i] = append(Path(nil), p...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes[shape.Kind] = &Shape{Kind: shape.Kind, Paths: paths}
	return nil
}

// Lookup returns the shape registered for kind, or nil.
func (r *Registry) Lookup(kind board.ShapeKind) *Shape {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shapes[kind]
}

// Kinds returns the registered kinds in name order.
func (r *Registry) Kinds() []board.ShapeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]board.ShapeKind, 0, len(r.shapes))
	for k := range r.shapes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
