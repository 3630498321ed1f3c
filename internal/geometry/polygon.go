// Package geometry provides the polygon predicates used by the nesting engine.
package geometry

import (
	"math"

	"github.com/piwi3910/PatternNest/internal/model"
)

// Eps is the distance below which two positions are treated as touching.
const Eps = 1e-3

// Cross returns the z component of (b-a) x (p-a). In y-down sheet
// coordinates a negative value means p lies on the right of a->b.
func Cross(a, b, p model.Point2D) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b model.Point2D) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Near reports whether two points are within Eps of each other.
func Near(a, b model.Point2D) bool {
	return math.Abs(a.X-b.X) <= Eps && math.Abs(a.Y-b.Y) <= Eps
}

// Angle returns the direction of a->b in radians.
func Angle(a, b model.Point2D) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// DistanceToSegment returns the shortest distance from p to the segment a-b.
func DistanceToSegment(p, a, b model.Point2D) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return Distance(p, model.Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}

// DistanceToBoundary returns the distance from p to the closest edge of poly.
func DistanceToBoundary(p model.Point2D, poly model.Outline) float64 {
	best := math.Inf(1)
	n := len(poly)
	for i := 0; i < n; i++ {
		d := DistanceToSegment(p, poly[i], poly[(i+1)%n])
		if d < best {
			best = d
		}
	}
	return best
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p model.Point2D, poly model.Outline) bool {
	if len(poly) < 3 {
		return false
	}

	inside := false
	n := len(poly)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := poly[i], poly[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// StrictlyInside reports whether p is inside poly and farther than Eps from
// its boundary. Touching points are outside.
func StrictlyInside(p model.Point2D, poly model.Outline) bool {
	return PointInPolygon(p, poly) && DistanceToBoundary(p, poly) > Eps
}

// SegmentsCross reports a proper crossing of a1-a2 and b1-b2: each segment
// has the endpoints of the other strictly on opposite sides. Collinear
// overlaps and touching endpoints do not count.
func SegmentsCross(a1, a2, b1, b2 model.Point2D) bool {
	la := Distance(a1, a2)
	lb := Distance(b1, b2)
	if la < Eps || lb < Eps {
		return false
	}
	// normalised cross products are signed distances to the other line
	d1 := Cross(b1, b2, a1) / lb
	d2 := Cross(b1, b2, a2) / lb
	d3 := Cross(a1, a2, b1) / la
	d4 := Cross(a1, a2, b2) / la
	return ((d1 > Eps && d2 < -Eps) || (d1 < -Eps && d2 > Eps)) &&
		((d3 > Eps && d4 < -Eps) || (d3 < -Eps && d4 > Eps))
}

// Normalize returns the outline without consecutive duplicates, wound with
// negative signed area.
func Normalize(o model.Outline) model.Outline {
	out := Dedupe(o)
	if out.SignedArea() > 0 {
		out = out.Reversed()
	}
	return out
}

// Dedupe drops consecutive near-equal points, including a closing point
// equal to the first one.
func Dedupe(o model.Outline) model.Outline {
	out := make(model.Outline, 0, len(o))
	for _, p := range o {
		if len(out) > 0 && Near(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && Near(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// Subdivide cuts the segment a-b into equal parts no longer than shift and
// returns every cut point including both ends. A zero shift, or one longer
// than the segment, yields just the endpoints.
func Subdivide(a, b model.Point2D, shift float64) []model.Point2D {
	length := Distance(a, b)
	if shift <= 0 {
		return []model.Point2D{a, b}
	}
	n := int(math.Floor(length / shift))
	if n <= 1 {
		return []model.Point2D{a, b}
	}
	points := make([]model.Point2D, 0, n+1)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		points = append(points, model.Point2D{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
	return append(points, b)
}

// Diagonal returns the diagonal length of the outline's bounding box.
func Diagonal(o model.Outline) float64 {
	min, max := o.BoundingBox()
	return math.Hypot(max.X-min.X, max.Y-min.Y)
}

// interiorSamples returns points just inside o, one per edge, nudged from
// the edge midpoint along the inward normal.
func interiorSamples(o model.Outline) []model.Point2D {
	const nudge = 10 * Eps
	n := len(o)
	sign := 1.0
	if o.SignedArea() < 0 {
		sign = -1.0
	}
	samples := make([]model.Point2D, 0, n)
	for i := 0; i < n; i++ {
		a, b := o[i], o[(i+1)%n]
		l := Distance(a, b)
		if l < 2*nudge {
			continue
		}
		// (-dy, dx) points to the positive-cross side
		nx, ny := -(b.Y-a.Y)/l*sign, (b.X-a.X)/l*sign
		p := model.Point2D{X: (a.X+b.X)/2 + nx*nudge, Y: (a.Y+b.Y)/2 + ny*nudge}
		if PointInPolygon(p, o) {
			samples = append(samples, p)
		}
	}
	return samples
}

// Overlaps reports whether the interiors of two simple polygons intersect.
// Polygons sharing only boundary (touching edges or vertices) do not overlap.
func Overlaps(a, b model.Outline) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	if !Bounds(a).InteriorIntersects(Bounds(b)) {
		return false
	}
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		a1, a2 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			if SegmentsCross(a1, a2, b[j], b[(j+1)%nb]) {
				return true
			}
		}
	}
	return containsAnyOf(b, a) || containsAnyOf(a, b)
}

// containsAnyOf reports whether a vertex, an edge midpoint or an interior
// sample of inner lies strictly inside outer.
func containsAnyOf(outer, inner model.Outline) bool {
	n := len(inner)
	for i := 0; i < n; i++ {
		p := inner[i]
		q := inner[(i+1)%n]
		if StrictlyInside(p, outer) {
			return true
		}
		if StrictlyInside(model.Point2D{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}, outer) {
			return true
		}
	}
	for _, p := range interiorSamples(inner) {
		if StrictlyInside(p, outer) {
			return true
		}
	}
	return false
}
