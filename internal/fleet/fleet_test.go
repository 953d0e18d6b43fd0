package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/budget"
	"github.com/gravitas-games/hexfleet/internal/footprint"
	"github.com/gravitas-games/hexfleet/internal/sector"
)

var (
	inner = sector.Address{Sector: 0, Ring: 1, Offset: 0}
	outer = sector.Address{Sector: 0, Ring: 2, Offset: 0}
)

func newFleet(t *testing.T, bud *budget.Budget) *Fleet {
	t.Helper()
	b, err := board.New(0, 2)
	require.NoError(t, err)
	require.NoError(t, b.Build(context.Background()))

	r, err := footprint.NewDefaultRegistry(nil)
	require.NoError(t, err)
	f := New(b, footprint.NewWalker(r), bud)
	_, err = f.Refresh(context.Background())
	require.NoError(t, err)
	return f
}

func anchorable(t *testing.T, f *Fleet) int {
	t.Helper()
	set, err := f.Board().AnchorableCells()
	require.NoError(t, err)
	return len(set)
}

func TestPlaceAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t, budget.NewDefault())
	before := anchorable(t, f)

	piece, err := f.Place(ctx, inner, board.ShapePair)
	require.NoError(t, err)
	assert.NotEmpty(t, piece.ID)
	assert.Equal(t, []sector.Address{inner, outer}, piece.Cells)
	assert.Equal(t, 2, piece.Cost)
	assert.Equal(t, 10, f.Budget().Points())

	assert.True(t, f.Occupies(inner))
	assert.True(t, f.Occupies(outer))
	assert.Less(t, anchorable(t, f), before)

	cell, err := f.Board().Resolve(inner)
	require.NoError(t, err)
	assert.False(t, cell.Validity(board.ShapePair))

	_, err = f.Place(ctx, inner, board.ShapePair)
	assert.True(t, errors.Is(err, ErrNotAnchorable))

	removed, err := f.Remove(ctx, inner)
	require.NoError(t, err)
	assert.Equal(t, piece.ID, removed.ID)
	assert.Empty(t, f.Pieces())
	assert.False(t, f.Occupies(inner))
	assert.Equal(t, 12, f.Budget().Points())
	assert.Equal(t, before, anchorable(t, f))
}

func TestPlaceOffBoardRejected(t *testing.T) {
	f := newFleet(t, budget.NewDefault())

	_, err := f.Place(context.Background(), outer, board.ShapePair)
	assert.True(t, errors.Is(err, ErrNotAnchorable))
	assert.Empty(t, f.Pieces())
	assert.Equal(t, 12, f.Budget().Points())
}

func TestPlaceInvalidAddress(t *testing.T) {
	f := newFleet(t, budget.NewDefault())

	_, err := f.Place(context.Background(), sector.Address{Sector: 0, Ring: 3, Offset: 0}, board.ShapePair)
	assert.True(t, errors.Is(err, sector.ErrInvalidAddress))
}

func TestRemoveWithoutPiece(t *testing.T) {
	f := newFleet(t, budget.NewDefault())

	_, err := f.Remove(context.Background(), inner)
	assert.True(t, errors.Is(err, ErrNoPiece))
}

func TestBattleStageLocksPlacement(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t, budget.NewDefault())
	_, err := f.Place(ctx, inner, board.ShapePair)
	require.NoError(t, err)

	res, err := f.SetStage(ctx, StageBattle)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Anchorable)
	assert.Equal(t, StageBattle, f.Stage())
	assert.Equal(t, 0, anchorable(t, f))

	_, err = f.Place(ctx, sector.Address{Sector: 3, Ring: 1, Offset: 0}, board.ShapePair)
	assert.True(t, errors.Is(err, ErrPlacementLocked))
	_, err = f.Remove(ctx, inner)
	assert.True(t, errors.Is(err, ErrPlacementLocked))

	_, err = f.SetStage(ctx, StageEdit)
	require.NoError(t, err)
	assert.NotZero(t, anchorable(t, f))
	assert.Len(t, f.Pieces(), 1)
}

func TestExhaustedBudgetBlocksShapes(t *testing.T) {
	bud, err := budget.New(2, 1, nil)
	require.NoError(t, err)
	f := newFleet(t, bud)

	_, err = f.Place(context.Background(), inner, board.ShapePair)
	require.NoError(t, err)
	assert.Equal(t, 0, bud.Points())
	assert.Equal(t, 0, anchorable(t, f))
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("battle")
	require.NoError(t, err)
	assert.Equal(t, StageBattle, s)
	assert.Equal(t, "edit", StageEdit.String())

	_, err = ParseStage("lobby")
	assert.Error(t, err)
}

// lateCancel reports cancellation from its second Err call on, so the
// change is admitted and the context is done by the time the pass runs.
type lateCancel struct {
	context.Context
	checks int
}

func (c *lateCancel) Err() error {
	c.checks++
	if c.checks > 1 {
		return context.Canceled
	}
	return nil
}

func newLateCancel() *lateCancel { return &lateCancel{Context: context.Background()} }

func TestCancelledContextCommitsNothing(t *testing.T) {
	f := newFleet(t, budget.NewDefault())
	before := anchorable(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	piece, err := f.Place(ctx, inner, board.ShapePair)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, piece)
	assert.Empty(t, f.Pieces())
	assert.False(t, f.Occupies(inner))
	assert.Equal(t, 12, f.Budget().Points())
	assert.Equal(t, before, anchorable(t, f))

	_, err = f.Place(context.Background(), inner, board.ShapePair)
	require.NoError(t, err)
	_, err = f.Remove(ctx, inner)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, f.Pieces(), 1)
	assert.True(t, f.Occupies(outer))
	assert.Equal(t, 10, f.Budget().Points())

	_, err = f.SetStage(ctx, StageBattle)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StageEdit, f.Stage())
}

func TestCommittedChangeAlwaysRepropagates(t *testing.T) {
	f := newFleet(t, budget.NewDefault())
	before := anchorable(t, f)

	piece, err := f.Place(newLateCancel(), inner, board.ShapePair)
	require.NoError(t, err)
	require.NotNil(t, piece)
	cell, err := f.Board().Resolve(inner)
	require.NoError(t, err)
	assert.False(t, cell.Validity(board.ShapePair), "occupied anchor")
	assert.Less(t, anchorable(t, f), before)

	_, err = f.Remove(newLateCancel(), inner)
	require.NoError(t, err)
	assert.True(t, cell.Validity(board.ShapePair))
	assert.Equal(t, before, anchorable(t, f))

	_, err = f.SetStage(newLateCancel(), StageBattle)
	require.NoError(t, err)
	assert.Equal(t, 0, anchorable(t, f))
}
