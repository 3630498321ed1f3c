package engine

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

func testSettings() model.LayoutSettings {
	s := model.DefaultLayoutSettings()
	s.PaperWidth = 200
	s.PaperHeight = 200
	s.Margins = model.Margins{}
	s.LayoutWidth = 2
	return s
}

func prepareBank(t *testing.T, s model.LayoutSettings, pieces ...model.Piece) *Bank {
	t.Helper()
	b := NewBank(s)
	b.SetDetails(pieces)
	require.NoError(t, b.PrepareDetails(s.TogetherWithNotches))
	require.NoError(t, b.PrepareUnsorted())
	return b
}

func lShape(name string) model.Piece {
	return model.NewPiece(name, model.Outline{
		{X: 0, Y: 0}, {X: 0, Y: 40}, {X: 30, Y: 40}, {X: 30, Y: 30}, {X: 10, Y: 30}, {X: 10, Y: 0},
	}, 1)
}

func arrangeAll(t *testing.T, paper *Paper, bank *Bank) int {
	t.Helper()
	var stop atomic.Bool
	placed := 0
	for i := 0; i < bank.Len(); i++ {
		ok, err := paper.Arrange(bank.Detail(i), &stop)
		require.NoError(t, err)
		if ok {
			placed++
		}
	}
	return placed
}

func assertValidPacking(t *testing.T, paper *Paper) {
	t.Helper()
	paths := paper.AllowancePaths()
	for i := range paths {
		assert.True(t, geometry.FitsSheet(geometry.Bounds(paths[i]), paper.Width(), paper.Height()), "piece %d leaves the sheet", i)
		for j := i + 1; j < len(paths); j++ {
			assert.False(t, geometry.Overlaps(paths[i], paths[j]), "pieces %d and %d overlap", i, j)
		}
	}
}

func TestPaper_SingleRectangle(t *testing.T) {
	bank := prepareBank(t, testSettings(), model.NewRectPiece("A", 100, 50, 1))
	paper := NewPaper(200, 200, PaperOptions{Shift: 10, RotationNumber: 2})

	var stop atomic.Bool
	ok, err := paper.Arrange(bank.Detail(0), &stop)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, paper.Count())
	assert.InDelta(t, 5000.0, geometry.RectArea(paper.BoundingRectOfDetails()), 1e-6)
	assert.InDelta(t, 100.0, paper.Efficiency(), 1e-6)
	assert.False(t, paper.Contour().IsEmpty())
	assertValidPacking(t, paper)
}

func TestPaper_TwoSquaresStackOnNarrowSheet(t *testing.T) {
	bank := prepareBank(t, testSettings(),
		model.NewRectPiece("A", 50, 50, 1),
		model.NewRectPiece("B", 50, 50, 1))
	paper := NewPaper(60, 120, PaperOptions{Shift: 10, RotationNumber: 2})

	assert.Equal(t, 2, arrangeAll(t, paper, bank))
	assertValidPacking(t, paper)

	pl := paper.Placements()
	require.Len(t, pl, 2)
	assert.GreaterOrEqual(t, pl[1].Min.Y, pl[0].Max.Y, "second square goes below the first")
}

func TestPaper_PlacementRoundTrip(t *testing.T) {
	piece := lShape("L")
	bank := prepareBank(t, testSettings(), piece, model.NewRectPiece("R", 60, 30, 1))
	paper := NewPaper(200, 200, PaperOptions{Shift: 10, Rotate: true, RotationNumber: 4})
	require.Equal(t, 2, arrangeAll(t, paper, bank))

	pl := paper.Placements()[0]
	inv, ok := pl.Transform.Inverse()
	require.True(t, ok)
	back := inv.Map(pl.Outline)
	require.Len(t, back, len(piece.Outline))
	for i := range back {
		assert.InDelta(t, piece.Outline[i].X, back[i].X, 1e-6)
		assert.InDelta(t, piece.Outline[i].Y, back[i].Y, 1e-6)
	}
	assert.InDelta(t, piece.Square(), pl.Area, 1e-9)
}

func TestPaper_PackingValidity(t *testing.T) {
	s := testSettings()
	s.NestQuantity = true
	triangle := model.NewPiece("T", model.Outline{{X: 0, Y: 0}, {X: 0, Y: 60}, {X: 50, Y: 60}}, 2)
	bank := prepareBank(t, s,
		model.NewRectPiece("A", 100, 50, 1),
		model.NewRectPiece("B", 80, 80, 1),
		model.NewRectPiece("C", 60, 30, 3),
		lShape("L"),
		lShape("L2"),
		triangle)
	paper := NewPaper(300, 300, PaperOptions{Shift: 10, Rotate: true, RotationNumber: 4})

	placed := arrangeAll(t, paper, bank)
	assert.Greater(t, placed, 5)
	assertValidPacking(t, paper)
}

func TestPaper_RejectsDegeneratePiece(t *testing.T) {
	paper := NewPaper(200, 200, PaperOptions{Shift: 10})
	line := model.NewPiece("line", model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}}, 1)

	var stop atomic.Bool
	ok, err := paper.Arrange(&layoutPiece{piece: line, allowance: line.Outline}, &stop)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, paper.Count())
}

func TestPaper_PieceTooBig(t *testing.T) {
	bank := prepareBank(t, testSettings(), model.NewRectPiece("big", 300, 300, 1))
	paper := NewPaper(200, 200, PaperOptions{Shift: 10, Rotate: true, RotationNumber: 8})

	var stop atomic.Bool
	ok, err := paper.Arrange(bank.Detail(0), &stop)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPaper_StoppedSearchPlacesNothing(t *testing.T) {
	bank := prepareBank(t, testSettings(), model.NewRectPiece("A", 10, 10, 1))
	paper := NewPaper(200, 200, PaperOptions{Shift: 10})

	var stop atomic.Bool
	stop.Store(true)
	ok, err := paper.Arrange(bank.Detail(0), &stop)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPaper_CommitWithInvalidEdgeIsFatal(t *testing.T) {
	bank := prepareBank(t, testSettings(), model.NewRectPiece("A", 10, 10, 1))
	paper := NewPaper(200, 200, PaperOptions{Shift: 10})

	err := paper.commit(bank.Detail(0), Candidate{GlobalEdge: 999, Anchor: 1, Transform: model.Identity()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.TerminatedByException))
	assert.Equal(t, 0, paper.Count())
}

func TestLocalRotation_FlipLockedPieceGetsHalfTurn(t *testing.T) {
	p := model.NewRectPiece("A", 10, 20, 1)

	rotate, n := localRotation(p, false, 4)
	assert.False(t, rotate)
	assert.Equal(t, 4, n)

	p.ForbidFlipping = true
	rotate, n = localRotation(p, false, 4)
	assert.True(t, rotate)
	assert.Equal(t, 2, n)

	rotate, n = localRotation(p, true, 4)
	assert.True(t, rotate)
	assert.Equal(t, 4, n, "global rotation settings win when enabled")

	p.ForbidFlipping, p.ForceFlipping = false, true
	rotate, n = localRotation(p, false, 8)
	assert.True(t, rotate)
	assert.Equal(t, 2, n)
}

func TestPaper_ForbidFlippingNeverMirrors(t *testing.T) {
	piece := lShape("L")
	piece.ForbidFlipping = true
	other := lShape("L2")
	other.ForbidFlipping = true
	bank := prepareBank(t, testSettings(), piece, other)
	paper := NewPaper(200, 200, PaperOptions{Shift: 10, RotationNumber: 2})

	require.Equal(t, 2, arrangeAll(t, paper, bank))
	for _, pl := range paper.Placements() {
		assert.False(t, pl.Mirrored)
		assert.False(t, pl.Transform.IsMirror())
	}
}

func TestPaper_ForceFlippingAlwaysMirrors(t *testing.T) {
	piece := lShape("L")
	piece.ForceFlipping = true
	bank := prepareBank(t, testSettings(), piece)
	paper := NewPaper(200, 200, PaperOptions{Shift: 10, RotationNumber: 2})

	require.Equal(t, 1, arrangeAll(t, paper, bank))
	pl := paper.Placements()[0]
	assert.True(t, pl.Mirrored)
	assert.True(t, pl.Transform.IsMirror())
	assertValidPacking(t, paper)
}

func TestPaper_EfficiencyEmpty(t *testing.T) {
	paper := NewPaper(100, 100, PaperOptions{Shift: 10})
	assert.Equal(t, 0.0, paper.Efficiency())
	assert.True(t, paper.BoundingRectOfDetails().IsEmpty())
}
