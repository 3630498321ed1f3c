package geometry

import (
	"github.com/golang/geo/r2"

	"github.com/piwi3910/PatternNest/internal/model"
)

// Bounds returns the bounding rectangle of an outline.
func Bounds(o model.Outline) r2.Rect {
	r := r2.EmptyRect()
	for _, p := range o {
		r = r.AddPoint(r2.Point{X: p.X, Y: p.Y})
	}
	return r
}

// SheetRect returns the rectangle [0,w]x[0,h].
func SheetRect(w, h float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: w, Y: h})
}

// FitsSheet reports whether r lies inside the sheet, allowing Eps of slack.
func FitsSheet(r r2.Rect, w, h float64) bool {
	if r.IsEmpty() {
		return false
	}
	return SheetRect(w, h).ExpandedByMargin(Eps).Contains(r)
}

// RectArea returns the area of a rectangle, zero when empty.
func RectArea(r r2.Rect) float64 {
	if r.IsEmpty() {
		return 0
	}
	s := r.Size()
	return s.X * s.Y
}

// Corners returns the top-left and bottom-right corners of r.
func Corners(r r2.Rect) (min, max model.Point2D) {
	lo, hi := r.Lo(), r.Hi()
	return model.Point2D{X: lo.X, Y: lo.Y}, model.Point2D{X: hi.X, Y: hi.Y}
}
