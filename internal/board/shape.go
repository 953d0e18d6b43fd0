package board

import "fmt"

// ShapeKind names a placeable piece footprint.
type ShapeKind string

// Known shape kinds. Their footprints live in the footprint registry.
const (
	// ShapePair covers the anchor and one neighbor.
	ShapePair ShapeKind = "pair"
	// ShapeLine covers three cells in a straight row.
	ShapeLine ShapeKind = "line"
	// ShapeTriangle covers the anchor and two adjacent neighbors.
	ShapeTriangle ShapeKind = "triangle"
	// ShapeDiamond covers four cells in a rhombus.
	ShapeDiamond ShapeKind = "diamond"
	// ShapeCross covers the anchor and four surrounding neighbors.
	ShapeCross ShapeKind = "cross"
	// ShapeWave covers five cells zigzagging outward.
	ShapeWave ShapeKind = "wave"
	// ShapeRing covers six cells closing around a hole.
	ShapeRing ShapeKind = "ring"
)

// AllShapeKinds lists every known shape kind, smallest footprint first.
var AllShapeKinds = []ShapeKind{
	ShapePair, ShapeLine, ShapeTriangle, ShapeDiamond, ShapeCross, ShapeWave, ShapeRing,
}

// DefaultShapeKinds are the kinds a board tracks unless configured
// otherwise. Triangle and wave are known but disabled by default.
var DefaultShapeKinds = []ShapeKind{
	ShapePair, ShapeLine, ShapeDiamond, ShapeCross, ShapeRing,
}

// ParseShapeKind resolves a configured shape name.
func ParseShapeKind(name string) (ShapeKind, error) {
	for _, k := range AllShapeKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown shape kind: %q", name)
}

// Containment is the occupancy state of a cell.
type Containment int32

const (
	// Free cells can take part in a footprint.
	Free Containment = iota
	// Occupied cells belong to a placed piece.
	Occupied
	// OutOfBoard cells are never placement targets. The center is one.
	OutOfBoard
)

// String returns a human-readable representation of the containment state.
func (c Containment) String() string {
	switch c {
	case Free:
		return "Free"
	case Occupied:
		return "Occupied"
	case OutOfBoard:
		return "OutOfBoard"
	default:
		return "Unknown"
	}
}
