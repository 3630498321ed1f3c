package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

func assertSheetsValid(t *testing.T, result model.LayoutResult) {
	t.Helper()
	for si, sheet := range result.Sheets {
		w := sheet.Width - sheet.Margins.Left - sheet.Margins.Right
		h := sheet.Height - sheet.Margins.Top - sheet.Margins.Bottom
		for i, a := range sheet.Placements {
			assert.True(t, geometry.FitsSheet(geometry.Bounds(a.Outline), w, h), "sheet %d: %s leaves the page", si, a.Name)
			for _, b := range sheet.Placements[i+1:] {
				assert.False(t, geometry.Overlaps(a.Outline, b.Outline), "sheet %d: %s overlaps %s", si, a.Name, b.Name)
			}
		}
	}
}

func TestGenerate_SinglePiece(t *testing.T) {
	var passes []int
	g := NewGenerator(testSettings())
	g.SetProgress(func(p model.Progress) { passes = append(passes, p.Pass) })

	result, err := g.Generate([]model.Piece{model.NewRectPiece("A", 100, 50, 1)})
	require.NoError(t, err)

	assert.Equal(t, model.NoError, result.State)
	assert.Equal(t, 1, result.PaperCount())
	assert.Equal(t, 1, result.PlacedCount())
	assert.InDelta(t, 100.0, result.Efficiency, 1e-6)
	assert.GreaterOrEqual(t, result.Passes, 5, "refines down to the shift floor")
	require.Len(t, passes, result.Passes)
	for i, p := range passes {
		assert.Equal(t, i+1, p)
	}
	assert.Equal(t, 200.0, result.Sheets[0].Width)
	assert.Equal(t, 200.0, result.Sheets[0].Height)
}

func TestGenerate_TargetEfficiencyStopsEarly(t *testing.T) {
	s := testSettings()
	s.EfficiencyCoefficient = 50
	// the pair cannot fill its bounding box, so later passes could still improve
	result, err := NewGenerator(s).Generate([]model.Piece{
		model.NewRectPiece("A", 100, 100, 1),
		model.NewRectPiece("B", 20, 20, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, model.NoError, result.State)
	assert.Equal(t, 1, result.PaperCount())
	assert.Greater(t, result.Efficiency, 50.0)
	assert.Less(t, result.Efficiency, 100.0)
}

func TestGenerate_PreferOneSheetKeepsSearching(t *testing.T) {
	s := testSettings()
	s.EfficiencyCoefficient = 10
	s.PreferOneSheetSolution = true
	result, err := NewGenerator(s).Generate([]model.Piece{
		model.NewRectPiece("A", 150, 150, 1),
		model.NewRectPiece("B", 150, 150, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PaperCount())
	assert.GreaterOrEqual(t, result.Passes, 5, "two sheets never satisfy the target")
}

func TestGenerate_SeveralPiecesAreValid(t *testing.T) {
	s := testSettings()
	s.NestQuantity = true
	s.Rotate = true
	s.RotationNumber = 4
	s.EfficiencyCoefficient = 1
	result, err := NewGenerator(s).Generate([]model.Piece{
		model.NewRectPiece("A", 90, 40, 2),
		model.NewRectPiece("B", 50, 50, 3),
		lShape("L"),
		model.NewPiece("T", model.Outline{{X: 0, Y: 0}, {X: 0, Y: 60}, {X: 50, Y: 60}}, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, result.PlacedCount())
	assertSheetsValid(t, result)
}

func TestGenerate_EmptyInput(t *testing.T) {
	result, err := NewGenerator(testSettings()).Generate(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.PrepareLayoutError))
	assert.Equal(t, model.PrepareLayoutError, result.State)
}

func TestGenerate_InvalidSettings(t *testing.T) {
	s := testSettings()
	s.NestingTime = 0
	result, err := NewGenerator(s).Generate([]model.Piece{model.NewRectPiece("A", 10, 10, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.PrepareLayoutError))
	assert.Equal(t, model.PrepareLayoutError, result.State)
}

func TestGenerate_PieceBiggerThanPaper(t *testing.T) {
	for _, rotate := range []bool{false, true} {
		s := testSettings()
		s.Rotate = rotate
		result, err := NewGenerator(s).Generate([]model.Piece{
			model.NewRectPiece("ok", 10, 10, 1),
			model.NewRectPiece("huge", 300, 300, 1),
		})
		require.Error(t, err, "rotate=%v", rotate)
		assert.True(t, errors.Is(err, model.EmptyPaperError))
		assert.Equal(t, model.EmptyPaperError, result.State)
		assert.Empty(t, result.Sheets)
	}
}

func TestGenerate_AbortIsFatal(t *testing.T) {
	g := NewGenerator(testSettings())
	g.SetProgress(func(model.Progress) { g.Abort() })

	result, err := g.Generate([]model.Piece{model.NewRectPiece("A", 100, 50, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ProcessStoped))
	assert.Equal(t, model.ProcessStoped, result.State)
	assert.Empty(t, result.Sheets)
}

func TestGenerate_TimeoutKeepsBestSolution(t *testing.T) {
	g := NewGenerator(testSettings())
	g.SetProgress(func(model.Progress) { g.Timeout() })

	result, err := g.Generate([]model.Piece{model.NewRectPiece("A", 100, 50, 1)})
	require.NoError(t, err)
	assert.Equal(t, model.Timeout, result.State)
	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, 1, result.PlacedCount())
}

func TestGenerate_TimeoutWithoutSolution(t *testing.T) {
	g := NewGenerator(testSettings())
	g.Timeout()

	result, err := g.Generate([]model.Piece{model.NewRectPiece("A", 100, 50, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.Timeout))
	assert.Equal(t, model.Timeout, result.State)
}

func TestGenerate_MarginsAndCropping(t *testing.T) {
	s := testSettings()
	s.Margins = model.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10}
	s.AutoCropLength = true
	s.AutoCropWidth = true
	s.EfficiencyCoefficient = 1
	result, err := NewGenerator(s).Generate([]model.Piece{model.NewRectPiece("A", 100, 50, 1)})
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)

	sheet := result.Sheets[0]
	assert.Equal(t, 200.0, sheet.Width, "width is not the growth axis")
	assert.Less(t, sheet.Height, 200.0)
	pl := sheet.Placements[0]
	assert.InDelta(t, 0.0, pl.Min.X, 1e-6)
	assert.LessOrEqual(t, pl.Max.Y, sheet.Height-20+1e-6)
}

func TestGenerate_StripOptimization(t *testing.T) {
	s := testSettings()
	s.StripOptimization = true
	s.NestQuantity = true
	s.EfficiencyCoefficient = 1
	result, err := NewGenerator(s).Generate([]model.Piece{model.NewRectPiece("sq", 30, 30, 10)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.PaperCount())
	assert.Equal(t, 10, result.PlacedCount())
	assert.Equal(t, 200.0, result.Sheets[0].Height)
	assertSheetsValid(t, result)
}

func TestGenerate_UnitePages(t *testing.T) {
	s := testSettings()
	s.UnitePages = true
	s.EfficiencyCoefficient = 1
	result, err := NewGenerator(s).Generate([]model.Piece{
		model.NewRectPiece("A", 150, 150, 1),
		model.NewRectPiece("B", 150, 150, 1),
	})
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 400.0, result.Sheets[0].Height)
	assert.Equal(t, 2, result.PlacedCount())
	assertSheetsValid(t, result)
}

func TestGenerator_StripDimensions(t *testing.T) {
	s := testSettings()
	s.StripOptimization = true
	g := NewGenerator(s)
	g.bank.SetDetails([]model.Piece{model.NewRectPiece("A", 30, 40, 1)})
	require.NoError(t, g.bank.PrepareDetails(false))

	b := math.Hypot(32, 42) + 2
	w, h, ok := g.stripDimensions(200, 200)
	assert.True(t, ok)
	assert.Equal(t, 200.0, w)
	assert.InDelta(t, 200/math.Floor(200/b), h, 1e-9)

	w, h, ok = g.stripDimensions(400, 100)
	assert.True(t, ok)
	assert.InDelta(t, 400/math.Floor(400/b), w, 1e-9)
	assert.Equal(t, 100.0, h)

	_, _, ok = g.stripDimensions(100, 100)
	assert.False(t, ok, "fewer than two strips fit")

	g.settings.StripOptimization = false
	_, _, ok = g.stripDimensions(200, 200)
	assert.False(t, ok)
}
