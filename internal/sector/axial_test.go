package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToAxialKnownCells(t *testing.T) {
	tests := []struct {
		addr Address
		want Axial
	}{
		{Center, Axial{0, 0}},
		{Address{Sector: 0, Ring: 1, Offset: 0}, Axial{1, 0}},
		{Address{Sector: 0, Ring: 2, Offset: 1}, Axial{2, -1}},
		{Address{Sector: 3, Ring: 1, Offset: 0}, Axial{-1, 0}},
		{Address{Sector: 5, Ring: 3, Offset: 2}, Axial{2, 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToAxial(tt.addr), "address %s", tt.addr)
	}
}

func TestAxialRoundTrip(t *testing.T) {
	const d = 6
	seen := make(map[Axial]Address)
	Each(d, func(a Address) {
		p := ToAxial(a)
		assert.Equal(t, a.Ring, Distance(Axial{}, p), "address %s", a)
		assert.Equal(t, a, FromAxial(p))

		prev, dup := seen[p]
		assert.False(t, dup, "%s and %s share %v", a, prev, p)
		seen[p] = a
	})
	assert.Len(t, seen, TotalCells(d))
	assert.Equal(t, Center, FromAxial(Axial{}))
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance(Axial{2, -1}, Axial{2, -1}))
	assert.Equal(t, 1, Distance(Axial{}, Axial{}.Step(4)))
	assert.Equal(t, 3, Distance(Axial{-1, 2}, Axial{2, -1}))
	assert.Equal(t, Axial{1, -1}, Axial{}.Step(7))
}
