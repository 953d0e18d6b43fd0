package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hexfleet/internal/sector"
)

func buildBoard(t *testing.T, d int, opts ...Option) *Board {
	t.Helper()
	b, err := New(0, d, opts...)
	require.NoError(t, err)
	require.NoError(t, b.Build(context.Background()))
	return b
}

func TestGenerationCounts(t *testing.T) {
	for d := 1; d <= 5; d++ {
		b := buildBoard(t, d)
		cells, err := b.Cells()
		require.NoError(t, err)
		assert.Len(t, cells, sector.TotalCells(d), "dimensions %d", d)

		center, err := b.Center()
		require.NoError(t, err)
		require.NotNil(t, center)
		assert.True(t, center.IsCenter())
	}
}

func TestGenerationOrder(t *testing.T) {
	b := buildBoard(t, 3)
	cells, err := b.Cells()
	require.NoError(t, err)

	i := 0
	sector.Each(3, func(a sector.Address) {
		assert.Equal(t, i, cells[i].Index())
		assert.Equal(t, a, cells[i].Address())
		i++
	})
	assert.Equal(t, len(cells), i)
}

const C, X = -1, -2 // center, absent

// Neighbor linear indices of a D=2 board in absolute-direction order.
var d2Neighbors = [][6]int{
	{1, 2, 3, C, 15, 17},
	{X, X, 2, 0, 17, X},
	{X, X, 4, 3, 0, 1},
	{2, 4, 5, 6, C, 0},
	{X, X, X, 5, 3, 2},
	{4, X, X, 7, 6, 3},
	{3, 5, 7, 8, 9, C},
	{5, X, X, X, 8, 6},
	{6, 7, X, X, 10, 9},
	{C, 6, 8, 10, 11, 12},
	{9, 8, X, X, X, 11},
	{12, 9, 10, X, X, 13},
	{15, C, 9, 11, 13, 14},
	{14, 12, 11, X, X, X},
	{16, 15, 12, 13, X, X},
	{17, 0, C, 12, 14, 16},
	{X, 17, 15, 14, X, X},
	{X, 1, 0, 15, 16, X},
}

func TestNeighborsTwoRingBoard(t *testing.T) {
	b := buildBoard(t, 2)
	cells, err := b.Cells()
	require.NoError(t, err)
	require.Len(t, cells, len(d2Neighbors))

	for i, cell := range cells {
		got := cell.NeighborIndices()
		assert.Equal(t, d2Neighbors[i], [6]int(got), "cell %d at %s", i, cell.Address())
	}

	center, err := b.Center()
	require.NoError(t, err)
	assert.Equal(t, [6]int{0, 3, 6, 9, 12, 15}, [6]int(center.NeighborIndices()))
}

func TestNeighborSymmetry(t *testing.T) {
	for d := 1; d <= 4; d++ {
		b := buildBoard(t, d)
		cells, err := b.Cells()
		require.NoError(t, err)
		center, err := b.Center()
		require.NoError(t, err)

		for _, cell := range append(cells, center) {
			for dir, n := range cell.Neighbors() {
				if n == nil {
					continue
				}
				assert.Same(t, cell, n.Neighbor(dir+3),
					"d=%d %s dir %d -> %s has no opposite link", d, cell.Address(), dir, n.Address())
			}
		}
	}
}

func TestNeighborsMatchAxialSteps(t *testing.T) {
	for d := 1; d <= 4; d++ {
		b := buildBoard(t, d)
		cells, err := b.Cells()
		require.NoError(t, err)
		center, err := b.Center()
		require.NoError(t, err)

		for _, cell := range append(cells, center) {
			from := sector.ToAxial(cell.Address())
			for dir, n := range cell.Neighbors() {
				if n == nil {
					continue
				}
				assert.Equal(t, from.Step(dir), sector.ToAxial(n.Address()),
					"d=%d %s dir %d", d, cell.Address(), dir)
			}
		}
	}
}

func TestNeighborsAreDistinct(t *testing.T) {
	b := buildBoard(t, 4)
	cells, err := b.Cells()
	require.NoError(t, err)

	for _, cell := range cells {
		seen := make(map[*Cell]bool)
		for _, n := range cell.Neighbors() {
			if n == nil {
				continue
			}
			assert.False(t, seen[n], "cell %s lists a neighbor twice", cell.Address())
			assert.NotSame(t, cell, n)
			seen[n] = true
		}
	}
}

func TestAbsentSlotCounts(t *testing.T) {
	absent := func(cell *Cell) int {
		n := 0
		for _, nb := range cell.Neighbors() {
			if nb == nil {
				n++
			}
		}
		return n
	}

	b := buildBoard(t, 1)
	cells, err := b.Cells()
	require.NoError(t, err)
	for _, cell := range cells {
		assert.Equal(t, 3, absent(cell), "single ring cell %s", cell.Address())
	}

	for d := 2; d <= 4; d++ {
		b := buildBoard(t, d)
		cells, err := b.Cells()
		require.NoError(t, err)
		for _, cell := range cells {
			a := cell.Address()
			want := 0
			switch {
			case a.Ring == d && a.Offset == 0:
				want = 3
			case a.Ring == d:
				want = 2
			}
			assert.Equal(t, want, absent(cell), "d=%d cell %s", d, a)
		}
	}
}

func TestSingleRingClosesAroundCenter(t *testing.T) {
	b := buildBoard(t, 1)
	center, err := b.Center()
	require.NoError(t, err)

	for s := 0; s < sector.Count; s++ {
		cell := center.Neighbor(s)
		require.NotNil(t, cell)
		assert.Equal(t, sector.Address{Sector: s, Ring: 1, Offset: 0}, cell.Address())
		assert.Same(t, center, cell.Neighbor(s+3))
	}

	// Lateral-forward is raw slot 2, stored at absolute slot sector+2.
	start := center.Neighbor(0)
	cur := start
	visited := make(map[*Cell]bool)
	for step := 0; step < sector.Count; step++ {
		visited[cur] = true
		cur = cur.Neighbor(cur.Address().Sector + 2)
		require.NotNil(t, cur)
		require.False(t, cur.IsCenter())
	}
	assert.Same(t, start, cur)
	assert.Len(t, visited, sector.Count)
}

func TestEndToEndTwoRingBoard(t *testing.T) {
	b := buildBoard(t, 2)

	tbl, err := b.Table()
	require.NoError(t, err)
	first, ok := tbl.Lookup(sector.Address{Sector: 0, Ring: 1, Offset: 0})
	require.True(t, ok)
	second, ok := tbl.Lookup(sector.Address{Sector: 0, Ring: 2, Offset: 1})
	require.True(t, ok)
	assert.NotEqual(t, first, second)
	for _, i := range []int{first, second} {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 18)
	}

	center, err := b.Center()
	require.NoError(t, err)
	inner, err := b.Resolve(sector.Address{Sector: 0, Ring: 1, Offset: 0})
	require.NoError(t, err)
	assert.Same(t, inner, center.Neighbor(0))

	// Inward-same is raw slot 3; sector 0 keeps it at absolute slot 3.
	neighbors, err := b.NeighborsOf(inner)
	require.NoError(t, err)
	assert.Same(t, center, neighbors[3])

	isCenter, err := b.IsCenter(neighbors[3])
	require.NoError(t, err)
	assert.True(t, isCenter)

	idx, err := b.LinearIndexOf(inner)
	require.NoError(t, err)
	assert.Equal(t, first, idx)
}

func TestResolveOutOfDomain(t *testing.T) {
	const d = 3
	b := buildBoard(t, d)

	for _, a := range []sector.Address{
		{Sector: 0, Ring: d + 1, Offset: 0},
		{Sector: 0, Ring: 1, Offset: 1},
	} {
		_, err := b.Resolve(a)
		require.Error(t, err, "address %s", a)
		assert.True(t, errors.Is(err, sector.ErrInvalidAddress))
		var addrErr *AddressError
		assert.True(t, errors.As(err, &addrErr))
	}
}

func TestFilterSkipsAddresses(t *testing.T) {
	skipped := sector.Address{Sector: 0, Ring: 2, Offset: 1}
	b := buildBoard(t, 2, WithFilter(func(a sector.Address) bool { return a != skipped }))

	cells, err := b.Cells()
	require.NoError(t, err)
	assert.Len(t, cells, 17)
	for i, cell := range cells {
		assert.Equal(t, i, cell.Index())
		assert.NotEqual(t, skipped, cell.Address())
	}

	_, err = b.Resolve(skipped)
	assert.True(t, errors.Is(err, sector.ErrInvalidAddress))

	// Cell 0 (0/1/0) pointed at the skipped cell through absolute slot 1.
	assert.Nil(t, cells[0].Neighbor(1))
}
