package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PatternNest/internal/model"
)

func square(x, y, s float64) model.Outline {
	return model.RectOutline(s, s).Translate(x, y)
}

func TestPointInPolygon_Square(t *testing.T) {
	sq := square(0, 0, 10)
	assert.True(t, PointInPolygon(model.Point2D{X: 5, Y: 5}, sq))
	assert.False(t, PointInPolygon(model.Point2D{X: 15, Y: 5}, sq))
}

func TestStrictlyInside_BoundaryIsOutside(t *testing.T) {
	sq := square(0, 0, 10)
	assert.False(t, StrictlyInside(model.Point2D{X: 0, Y: 5}, sq))
	assert.False(t, StrictlyInside(model.Point2D{X: 10, Y: 10}, sq))
	assert.True(t, StrictlyInside(model.Point2D{X: 0.1, Y: 5}, sq))
}

func TestSegmentsCross(t *testing.T) {
	p := func(x, y float64) model.Point2D { return model.Point2D{X: x, Y: y} }
	assert.True(t, SegmentsCross(p(0, 0), p(10, 10), p(0, 10), p(10, 0)))
	assert.False(t, SegmentsCross(p(0, 0), p(10, 0), p(5, 0), p(15, 0)), "collinear overlap")
	assert.False(t, SegmentsCross(p(0, 0), p(10, 0), p(10, 0), p(10, 10)), "shared endpoint")
	assert.False(t, SegmentsCross(p(0, 0), p(10, 0), p(5, 0), p(5, 10)), "T junction")
}

func TestOverlaps_TouchingSquaresDoNotOverlap(t *testing.T) {
	a := square(0, 0, 10)
	assert.False(t, Overlaps(a, square(10, 0, 10)), "shared edge")
	assert.False(t, Overlaps(a, square(10, 10, 10)), "shared corner")
	assert.False(t, Overlaps(a, square(10, 5, 10)), "partially shared edge")
}

func TestOverlaps_Detected(t *testing.T) {
	a := square(0, 0, 10)
	assert.True(t, Overlaps(a, square(5, 5, 10)), "corner overlap")
	assert.True(t, Overlaps(a, square(0, 0, 10)), "identical")
	assert.True(t, Overlaps(a, square(2, 2, 3)), "contained")
	assert.True(t, Overlaps(square(2, 2, 3), a), "container")
	assert.True(t, Overlaps(a, square(0, 5, 10)), "sliding along a shared edge")
}

func TestOverlaps_CrossShape(t *testing.T) {
	horizontal := model.RectOutline(30, 10).Translate(0, 10)
	vertical := model.RectOutline(10, 30).Translate(10, 0)
	// no vertex of either lies inside the other
	assert.True(t, Overlaps(horizontal, vertical))
}

func TestSubdivide(t *testing.T) {
	a, b := model.Point2D{X: 0, Y: 0}, model.Point2D{X: 0, Y: 30}

	pts := Subdivide(a, b, 10)
	require.Len(t, pts, 4)
	assert.Equal(t, a, pts[0])
	assert.Equal(t, b, pts[3])
	assert.InDelta(t, 10.0, pts[1].Y, 1e-9)

	assert.Equal(t, []model.Point2D{a, b}, Subdivide(a, b, 0))
	assert.Equal(t, []model.Point2D{a, b}, Subdivide(a, b, 50))

	// 25 / 10 -> two equal parts of 12.5
	pts = Subdivide(a, model.Point2D{X: 0, Y: 25}, 10)
	require.Len(t, pts, 3)
	assert.InDelta(t, 12.5, pts[1].Y, 1e-9)
}

func TestNormalize_NegativeWinding(t *testing.T) {
	ccw := model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	require.Greater(t, ccw.SignedArea(), 0.0)

	n := Normalize(ccw)
	assert.Len(t, n, 4, "closing point dropped")
	assert.Less(t, n.SignedArea(), 0.0)
}

func TestOffset_SquareMiter(t *testing.T) {
	off := Offset(square(0, 0, 10), 1)
	require.Len(t, off, 4)
	assert.InDelta(t, 144.0, off.Area(), 1e-9)
	min, max := off.BoundingBox()
	assert.InDelta(t, -1.0, min.X, 1e-9)
	assert.InDelta(t, 11.0, max.Y, 1e-9)
	assert.Less(t, off.SignedArea(), 0.0, "winding kept")
}

func TestOffset_SharpCornerIsBevelled(t *testing.T) {
	spike := Normalize(model.Outline{{X: 0, Y: 0}, {X: 100, Y: 5}, {X: 0, Y: 10}})
	off := Offset(spike, 1)
	assert.Len(t, off, 4, "the sharp tip is bevelled")
	_, max := off.BoundingBox()
	assert.Less(t, max.X, 100.0+2*MiterLimit)
}

func TestAllowance_HalfGapAndNotches(t *testing.T) {
	p := model.NewRectPiece("A", 10, 10, 1)
	allowance := Allowance(p, 2, false)
	assert.InDelta(t, 144.0, allowance.Area(), 1e-9)

	p.Passmarks = []model.Segment{{Start: model.Point2D{X: 5, Y: 10}, End: model.Point2D{X: 5, Y: 13}}}
	withNotches := Allowance(p, 2, true)
	min, max := withNotches.BoundingBox()
	assert.InDelta(t, -4.0, min.X, 1e-9)
	assert.InDelta(t, 14.0, max.Y, 1e-9)
	assert.InDelta(t, 144.0, Allowance(p, 2, false).Area(), 1e-9, "notches ignored when disabled")
}

func TestBounds_FitsSheet(t *testing.T) {
	r := Bounds(square(0, 0, 10))
	assert.InDelta(t, 100.0, RectArea(r), 1e-9)
	assert.True(t, FitsSheet(r, 10, 10))
	assert.False(t, FitsSheet(Bounds(square(1, 0, 10)), 10, 10))
	assert.False(t, FitsSheet(Bounds(nil), 10, 10))

	min, max := Corners(r)
	assert.Equal(t, model.Point2D{X: 0, Y: 0}, min)
	assert.Equal(t, model.Point2D{X: 10, Y: 10}, max)
}

func TestDiagonal(t *testing.T) {
	assert.InDelta(t, 5.0, Diagonal(model.RectOutline(3, 4)), 1e-9)
	assert.InDelta(t, math.Sqrt2*10, Diagonal(square(5, 5, 10)), 1e-9)
}
