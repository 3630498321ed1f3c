package geometry

import (
	"math"

	"github.com/piwi3910/PatternNest/internal/model"
)

// MiterLimit is the longest miter, in multiples of the offset distance,
// before a corner is bevelled.
const MiterLimit = 2.0

// Offset grows a simple polygon outward by d using mitered corners. Corners
// whose miter would exceed MiterLimit are bevelled with two points. The
// result keeps the winding of the input.
func Offset(o model.Outline, d float64) model.Outline {
	poly := Dedupe(o)
	n := len(poly)
	if n < 3 || d == 0 {
		return poly.Clone()
	}
	// outward is the negative-cross side for positive polygons
	sign := -1.0
	if poly.SignedArea() < 0 {
		sign = 1.0
	}
	normal := func(a, b model.Point2D) model.Point2D {
		l := Distance(a, b)
		return model.Point2D{X: -(b.Y - a.Y) / l * sign, Y: (b.X - a.X) / l * sign}
	}

	out := make(model.Outline, 0, n+4)
	for i := 0; i < n; i++ {
		prev, cur, next := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
		n0 := normal(prev, cur)
		n1 := normal(cur, next)
		dot := n0.X*n1.X + n0.Y*n1.Y
		if 1+dot < 1e-9 || math.Sqrt(2/(1+dot)) > MiterLimit {
			out = append(out,
				model.Point2D{X: cur.X + n0.X*d, Y: cur.Y + n0.Y*d},
				model.Point2D{X: cur.X + n1.X*d, Y: cur.Y + n1.Y*d})
			continue
		}
		k := d / (1 + dot)
		out = append(out, model.Point2D{X: cur.X + (n0.X+n1.X)*k, Y: cur.Y + (n0.Y+n1.Y)*k})
	}
	return Dedupe(out)
}

// Protrusion returns how far any passmark endpoint reaches outside o.
func Protrusion(o model.Outline, passmarks []model.Segment) float64 {
	var worst float64
	for _, s := range passmarks {
		for _, p := range []model.Point2D{s.Start, s.End} {
			if PointInPolygon(p, o) {
				continue
			}
			if d := DistanceToBoundary(p, o); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// Allowance returns the nesting boundary of a piece: its layout outline
// offset by half the gap, widened to cover passmarks when requested.
func Allowance(p model.Piece, layoutWidth float64, withNotches bool) model.Outline {
	base := Normalize(p.NestingOutline())
	d := layoutWidth / 2
	if withNotches {
		d += Protrusion(base, p.Passmarks)
	}
	return Normalize(Offset(base, d))
}
