package validity

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/events"
	"github.com/gravitas-games/hexfleet/internal/footprint"
)

type allowAll struct{}

func (*allowAll) Allows(board.ShapeKind) bool { return true }

type denyKind board.ShapeKind

func (d denyKind) Allows(k board.ShapeKind) bool { return k != board.ShapeKind(d) }

type failingResolver struct{ *footprint.Walker }

func (failingResolver) Footprint(*board.Cell, board.ShapeKind) ([]*board.Cell, error) {
	return nil, errors.New("resolver unavailable")
}

func setup(t *testing.T, d int, bus events.Bus, kinds ...board.ShapeKind) (*board.Board, *footprint.Walker) {
	t.Helper()
	opts := []board.Option{board.WithShapeKinds(kinds...)}
	if bus != nil {
		opts = append(opts, board.WithBus(bus))
	}
	b, err := board.New(0, d, opts...)
	require.NoError(t, err)
	require.NoError(t, b.Build(context.Background()))

	r, err := footprint.NewDefaultRegistry(nil)
	require.NoError(t, err)
	return b, footprint.NewWalker(r)
}

func anchorableIndices(t *testing.T, b *board.Board) []int {
	t.Helper()
	set, err := b.AnchorableCells()
	require.NoError(t, err)
	out := make([]int, len(set))
	for i, c := range set {
		out[i] = c.Index()
	}
	sort.Ints(out)
	return out
}

func validityMaps(t *testing.T, b *board.Board) []board.ValidityMap {
	t.Helper()
	cells, err := b.Cells()
	require.NoError(t, err)
	out := make([]board.ValidityMap, len(cells))
	for i, c := range cells {
		out[i] = c.ValidityMap()
	}
	return out
}

func TestRecomputePairs(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair)
	p := New(b, w, &allowAll{})

	res, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, Recompute, res.Mode)
	assert.Equal(t, 12, res.Anchorable)
	assert.Equal(t, []int{0, 3, 5, 6, 7, 8, 10, 11, 12, 13, 14, 15}, anchorableIndices(t, b))

	cells, err := b.Cells()
	require.NoError(t, err)
	ok, err := b.ValidityOf(cells[0], board.ShapePair)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.ValidityOf(cells[9], board.ShapePair)
	require.NoError(t, err)
	assert.False(t, ok, "footprint crosses the center")
}

func TestOccupiedCellsExcluded(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair)
	p := New(b, w, &allowAll{})

	cells, err := b.Cells()
	require.NoError(t, err)
	cells[3].SetContainment(board.Occupied)

	res, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Anchorable)

	got := anchorableIndices(t, b)
	assert.NotContains(t, got, 3, "occupied anchor")
	assert.NotContains(t, got, 6, "footprint 6 -> 3 hits the occupied cell")
}

func TestDefaultKindsUnion(t *testing.T) {
	b, w := setup(t, 2, nil, board.DefaultShapeKinds...)
	p := New(b, w, &allowAll{})

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, anchorableIndices(t, b))

	cells, err := b.Cells()
	require.NoError(t, err)
	assert.Equal(t, board.ValidityMap{
		board.ShapePair:    false,
		board.ShapeLine:    false,
		board.ShapeDiamond: false,
		board.ShapeCross:   true,
		board.ShapeRing:    false,
	}, cells[9].ValidityMap())
}

func TestRecomputeIsIdempotent(t *testing.T) {
	b, w := setup(t, 3, nil, board.AllShapeKinds...)
	p := New(b, w, &allowAll{})

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	firstMaps := validityMaps(t, b)
	firstSet := anchorableIndices(t, b)

	_, err = p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, firstMaps, validityMaps(t, b))
	assert.Equal(t, firstSet, anchorableIndices(t, b))

	seen := make(map[int]bool)
	for _, i := range firstSet {
		assert.False(t, seen[i], "cell %d listed twice", i)
		seen[i] = true
	}
}

func TestInvalidateAllFastPath(t *testing.T) {
	b, w := setup(t, 2, nil, board.AllShapeKinds...)
	p := New(b, w, &allowAll{})

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	require.NotEmpty(t, anchorableIndices(t, b))

	res, err := p.Run(context.Background(), InvalidateAll)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Anchorable)
	assert.Empty(t, anchorableIndices(t, b))

	for i, m := range validityMaps(t, b) {
		require.Len(t, m, len(board.AllShapeKinds))
		for k, v := range m {
			assert.False(t, v, "cell %d kind %s", i, k)
		}
	}
}

func TestBudgetRefusal(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair, board.ShapeCross)
	p := New(b, w, denyKind(board.ShapeCross))

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)

	cells, err := b.Cells()
	require.NoError(t, err)
	for _, c := range cells {
		assert.False(t, c.Validity(board.ShapeCross), "cell %d", c.Index())
	}
	assert.NotContains(t, anchorableIndices(t, b), 9, "cell 9 only fits a cross")
	assert.True(t, cells[0].Validity(board.ShapePair))
}

func TestUnknownKindDegradesLocally(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair, board.ShapeKind("octagon"))
	p := New(b, w, &allowAll{})

	res, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Anchorable)

	cells, err := b.Cells()
	require.NoError(t, err)
	for _, c := range cells {
		assert.False(t, c.Validity("octagon"))
	}
}

func TestResolverErrorDegradesLocally(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair)
	p := New(b, failingResolver{w}, &allowAll{})

	res, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Anchorable)
}

func TestRunBeforeReady(t *testing.T) {
	b, err := board.New(0, 2)
	require.NoError(t, err)
	p := New(b, nil, nil)

	_, err = p.Run(context.Background(), Recompute)
	assert.True(t, errors.Is(err, board.ErrTopologyNotReady))
}

func TestCancelledPassKeepsPreviousMaps(t *testing.T) {
	b, w := setup(t, 2, nil, board.ShapePair)
	p := New(b, w, &allowAll{})

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	before := validityMaps(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, InvalidateAll)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, before, validityMaps(t, b))
	assert.Len(t, anchorableIndices(t, b), 12)
}

func TestPassPublishesEvent(t *testing.T) {
	bus := events.NewSimpleBus()
	var got []events.Event
	bus.Subscribe("test", func(e events.Event) {
		if e.Type == events.ValidityRecomputed {
			got = append(got, e)
		}
	})

	b, w := setup(t, 2, bus, board.ShapePair)
	p := New(b, w, &allowAll{})

	_, err := p.Run(context.Background(), Recompute)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), InvalidateAll)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "recompute", got[0].Data["mode"])
	assert.Equal(t, 12, got[0].Data["anchorable"])
	assert.Equal(t, "invalidate_all", got[1].Data["mode"])
	assert.Equal(t, 0, got[1].Data["anchorable"])
}

func TestUnknownMode(t *testing.T) {
	b, w := setup(t, 1, nil, board.ShapePair)
	_, err := New(b, w, &allowAll{}).Run(context.Background(), Mode(9))
	assert.Error(t, err)
	assert.Equal(t, "unknown", Mode(9).String())
}

func TestReadersSeeWholeMapsDuringPasses(t *testing.T) {
	b, w := setup(t, 3, nil, board.AllShapeKinds...)
	p := New(b, w, &allowAll{})
	ctx := context.Background()

	_, err := p.Run(ctx, Recompute)
	require.NoError(t, err)
	recomputed := validityMaps(t, b)
	recomputedSet := anchorableIndices(t, b)
	require.NotEmpty(t, recomputedSet)

	_, err = p.Run(ctx, InvalidateAll)
	require.NoError(t, err)
	invalidated := validityMaps(t, b)

	cells, err := b.Cells()
	require.NoError(t, err)

	done := make(chan struct{})
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		defer close(done)
		for i := 0; i < 200; i++ {
			mode := Recompute
			if i%2 == 1 {
				mode = InvalidateAll
			}
			if _, err := p.Run(ctx, mode); err != nil {
				t.Errorf("pass %d: %v", i, err)
				return
			}
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for i, c := range cells {
					m := c.ValidityMap()
					if !assert.ObjectsAreEqual(recomputed[i], m) && !assert.ObjectsAreEqual(invalidated[i], m) {
						t.Errorf("cell %d: torn map %v", i, m)
						return
					}
					for _, k := range board.AllShapeKinds {
						if c.Validity(k) && !recomputed[i][k] {
							t.Errorf("cell %d: %s valid in neither map", i, k)
							return
						}
					}
				}

				set, err := b.AnchorableCells()
				if err != nil {
					t.Errorf("anchorable: %v", err)
					return
				}
				if len(set) != 0 && len(set) != len(recomputedSet) {
					t.Errorf("anchorable set of %d cells, want 0 or %d", len(set), len(recomputedSet))
					return
				}
			}
		}()
	}

	writer.Wait()
	readers.Wait()

	_, err = p.Run(ctx, Recompute)
	require.NoError(t, err)
	assert.Equal(t, recomputed, validityMaps(t, b))
	assert.Equal(t, recomputedSet, anchorableIndices(t, b))
}
