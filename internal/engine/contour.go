package engine

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// SpliceMode selects how UnionWith merges a piece into the contour.
type SpliceMode int

const (
	// SpliceInsert drops the piece edge lying on the matched contour edge.
	SpliceInsert SpliceMode = iota
	// SpliceWhole appends the full piece boundary at the matched point.
	SpliceWhole
)

// Contour is the boundary of the occupied region of one sheet. Points wind
// with positive signed area, so free space lies on the negative-cross side
// of every edge. An empty contour stands for a blank sheet.
type Contour struct {
	width  float64
	height float64
	shift  float64
	points model.Outline
}

// NewContour creates a blank contour for a width x height sheet.
func NewContour(width, height, shift float64) *Contour {
	return &Contour{width: width, height: height, shift: shift}
}

func (c *Contour) Width() float64  { return c.width }
func (c *Contour) Height() float64 { return c.height }
func (c *Contour) Shift() float64  { return c.shift }

// IsPortrait reports whether the sheet grows along y.
func (c *Contour) IsPortrait() bool {
	return c.height >= c.width
}

// IsEmpty reports whether nothing has been placed yet.
func (c *Contour) IsEmpty() bool {
	return len(c.points) == 0
}

// Points returns the contour points.
func (c *Contour) Points() model.Outline {
	return c.points
}

// SetPoints replaces the contour, typically with the result of UnionWith.
func (c *Contour) SetPoints(points model.Outline) {
	c.points = points
}

// BoundingRect returns the extent of the contour; empty for a blank sheet.
func (c *Contour) BoundingRect() r2.Rect {
	return geometry.Bounds(c.points)
}

// emptySheetEdge is the sheet side the first piece leans on: the left side
// traversed downwards for portrait sheets, the top side traversed right to
// left for landscape ones.
func (c *Contour) emptySheetEdge() (model.Point2D, model.Point2D) {
	if c.IsPortrait() {
		return model.Point2D{X: 0, Y: 0}, model.Point2D{X: 0, Y: c.height}
	}
	return model.Point2D{X: c.width, Y: 0}, model.Point2D{X: 0, Y: 0}
}

func (c *Contour) emptyEdgeCount() int {
	a, b := c.emptySheetEdge()
	if c.shift <= 0 {
		return 1
	}
	n := int(math.Floor(geometry.Distance(a, b) / c.shift))
	if n < 1 {
		return 1
	}
	return n
}

// EdgeCount returns the number of candidate edges.
func (c *Contour) EdgeCount() int {
	if c.IsEmpty() {
		return c.emptyEdgeCount()
	}
	return len(c.points)
}

// Edge returns edge i. On a blank sheet the edges are equal parts of the
// empty sheet edge.
func (c *Contour) Edge(i int) (model.Point2D, model.Point2D, bool) {
	if i < 0 || i >= c.EdgeCount() {
		return model.Point2D{}, model.Point2D{}, false
	}
	if c.IsEmpty() {
		a, b := c.emptySheetEdge()
		n := float64(c.emptyEdgeCount())
		at := func(k float64) model.Point2D {
			return model.Point2D{X: a.X + (b.X-a.X)*k/n, Y: a.Y + (b.Y-a.Y)*k/n}
		}
		return at(float64(i)), at(float64(i + 1)), true
	}
	n := len(c.points)
	return c.points[i], c.points[(i+1)%n], true
}

// UnionWith returns the contour with a placed piece spliced in at
// globalEdge. anchor is the piece vertex lying on the second endpoint of
// that edge. The receiver is not modified. A nil result means the indices
// were invalid.
func (c *Contour) UnionWith(piece model.Outline, globalEdge, anchor int, mode SpliceMode) model.Outline {
	m := len(piece)
	if m < 3 || anchor < 0 || anchor >= m {
		return nil
	}
	if globalEdge < 0 || globalEdge >= c.EdgeCount() {
		return nil
	}
	seq, t := positiveFrom(piece, anchor)

	if c.IsEmpty() {
		ring := make(model.Outline, 0, m+1)
		for i := 0; i <= m; i++ {
			ring = append(ring, seq[(t+i)%m])
		}
		return optimize(c.cut(ring))
	}

	var splice model.Outline
	first := 1
	if mode == SpliceWhole {
		first = 0
	}
	for i := first; i <= m; i++ {
		splice = append(splice, seq[(t+i)%m])
	}

	n := len(c.points)
	out := make(model.Outline, 0, n+len(splice)*2)
	out = append(out, c.points[:globalEdge+1]...)
	out = append(out, c.cut(append(model.Outline{c.points[globalEdge]}, splice...))[1:]...)
	if globalEdge+1 < n {
		out = append(out, c.points[globalEdge+1:]...)
	} else {
		// the matched edge closes the ring, its end is the first point
		out = append(out, c.points[0])
	}
	return optimize(out)
}

// positiveFrom returns the piece with positive winding and the index of
// the anchor vertex within it.
func positiveFrom(piece model.Outline, anchor int) (model.Outline, int) {
	if piece.SignedArea() >= 0 {
		return piece, anchor
	}
	m := len(piece)
	return piece.Reversed(), m - 1 - anchor
}

// cut subdivides every segment of a polyline by the contour shift.
func (c *Contour) cut(line model.Outline) model.Outline {
	if len(line) < 2 {
		return line
	}
	out := model.Outline{line[0]}
	for i := 1; i < len(line); i++ {
		pts := geometry.Subdivide(line[i-1], line[i], c.shift)
		out = append(out, pts[1:]...)
	}
	return out
}

// optimize drops near-duplicate points and collinear spikes left by the
// splice so the seam does not double back on itself.
func optimize(points model.Outline) model.Outline {
	out := make(model.Outline, 0, len(points))
	for _, p := range points {
		for len(out) >= 2 && doublesBack(out[len(out)-2], out[len(out)-1], p) {
			out = out[:len(out)-1]
		}
		if len(out) > 0 && geometry.Near(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 3 {
		n := len(out)
		switch {
		case geometry.Near(out[0], out[n-1]):
			out = out[:n-1]
		case doublesBack(out[n-2], out[n-1], out[0]):
			out = out[:n-1]
		case doublesBack(out[n-1], out[0], out[1]):
			out = out[1:]
		default:
			return out
		}
	}
	return out
}

// doublesBack reports whether a->b->c is a collinear U-turn at b.
func doublesBack(a, b, c model.Point2D) bool {
	ab := geometry.Distance(a, b)
	bc := geometry.Distance(b, c)
	if ab < geometry.Eps || bc < geometry.Eps {
		return false
	}
	if math.Abs(geometry.Cross(a, b, c))/math.Max(ab, bc) > geometry.Eps {
		return false
	}
	return (b.X-a.X)*(c.X-b.X)+(b.Y-a.Y)*(c.Y-b.Y) < 0
}
