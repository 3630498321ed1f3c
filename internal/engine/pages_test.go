package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PatternNest/internal/model"
)

func placementAt(x, y, w, h float64) model.Placement {
	outline := model.RectOutline(w, h).Translate(x, y)
	return model.Placement{
		Name:      "p",
		Transform: model.Translation(x, y),
		Outline:   outline,
		Min:       model.Point2D{X: x, Y: y},
		Max:       model.Point2D{X: x + w, Y: y + h},
		Area:      w * h,
	}
}

func stripPage(w, h float64, pls ...model.Placement) page {
	return page{width: w, height: h, placements: pls}
}

func TestGatherStrips_StacksAlongLength(t *testing.T) {
	var strips []page
	for i := 0; i < 8; i++ {
		strips = append(strips, stripPage(100, 100, placementAt(0, 0, 50, 40)))
	}

	pages := gatherStrips(strips, 100, 300, 2)
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].placements, 7)
	assert.Len(t, pages[1].placements, 1)
	assert.Equal(t, 300.0, pages[0].height)

	for i, pl := range pages[0].placements {
		assert.InDelta(t, float64(i)*41, pl.Min.Y, 1e-9)
		assert.InDelta(t, float64(i)*41, pl.Transform.TY, 1e-9)
		assert.InDelta(t, float64(i)*41, pl.Outline[0].Y, 1e-9)
	}
	assert.InDelta(t, 0.0, pages[1].placements[0].Min.Y, 1e-9)
}

func TestGatherStrips_Landscape(t *testing.T) {
	strips := []page{
		stripPage(100, 80, placementAt(0, 0, 60, 30)),
		stripPage(100, 80, placementAt(0, 10, 30, 30)),
	}
	pages := gatherStrips(strips, 300, 80, 0)
	require.Len(t, pages, 1)
	assert.InDelta(t, 60.0, pages[0].placements[1].Min.X, 1e-9)
	assert.InDelta(t, 10.0, pages[0].placements[1].Min.Y, 1e-9)
}

func TestCropWidth(t *testing.T) {
	pages := []page{stripPage(100, 300, placementAt(20, 5, 30, 30), placementAt(40, 50, 10, 10))}
	cropWidth(pages, true)
	assert.InDelta(t, 0.0, pages[0].placements[0].Min.X, 1e-9)
	assert.InDelta(t, 20.0, pages[0].placements[1].Min.X, 1e-9)
	assert.InDelta(t, 5.0, pages[0].placements[0].Min.Y, 1e-9, "length axis is untouched")

	landscape := []page{stripPage(300, 100, placementAt(5, 20, 30, 30))}
	cropWidth(landscape, false)
	assert.InDelta(t, 0.0, landscape[0].placements[0].Min.Y, 1e-9)
	assert.InDelta(t, 5.0, landscape[0].placements[0].Min.X, 1e-9)
}

func TestCropLength(t *testing.T) {
	pages := []page{
		stripPage(100, 300, placementAt(0, 0, 50, 120)),
		stripPage(100, 300),
	}
	cropLength(pages, true)
	assert.Equal(t, 120.0, pages[0].height)
	assert.Equal(t, 100.0, pages[0].width)
	assert.Equal(t, 300.0, pages[1].height, "empty pages keep their size")
}

func TestUnitePages_RespectsLimit(t *testing.T) {
	pages := []page{
		stripPage(100, 100, placementAt(0, 0, 10, 10)),
		stripPage(100, 100, placementAt(0, 0, 10, 10)),
		stripPage(100, 100, placementAt(0, 0, 10, 10)),
	}
	out := unitePages(pages, true, 250)
	require.Len(t, out, 2)
	assert.Equal(t, 200.0, out[0].height)
	assert.Len(t, out[0].placements, 2)
	assert.InDelta(t, 100.0, out[0].placements[1].Min.Y, 1e-9)
	assert.Equal(t, 100.0, out[1].height)
	assert.InDelta(t, 0.0, pages[1].placements[0].Min.Y, 1e-9, "input pages are not modified")
}

func TestUnitePages_DefaultLimit(t *testing.T) {
	assert.InDelta(t, 17339.47, UnitePagesLimit, 0.01)
	pages := []page{stripPage(1000, 1000), stripPage(1000, 1000)}
	assert.Len(t, unitePages(pages, false, UnitePagesLimit), 1)
}

func TestToSheets_AddsMargins(t *testing.T) {
	m := model.Margins{Left: 5, Top: 10, Right: 15, Bottom: 20}
	sheets := toSheets([]page{stripPage(100, 200, placementAt(0, 0, 10, 10))}, m)
	require.Len(t, sheets, 1)
	assert.Equal(t, 120.0, sheets[0].Width)
	assert.Equal(t, 230.0, sheets[0].Height)
	assert.Equal(t, m, sheets[0].Margins)
	assert.Len(t, sheets[0].Placements, 1)
}
