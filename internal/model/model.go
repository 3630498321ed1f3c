package model

import (
	"math"

	"github.com/google/uuid"
)

// Point2D represents a 2D coordinate in mm. X grows to the right, Y grows
// downwards (sheet origin is the top-left corner).
type Point2D struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = o[0]
	max = o[0]
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Rotate rotates all points around the origin by angle radians.
func (o Outline) Rotate(angle float64) Outline {
	sin, cos := math.Sincos(angle)
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
	}
	return result
}

// SignedArea returns the shoelace area. In y-down coordinates a negative
// value means the interior lies on the right-hand side of every edge.
func (o Outline) SignedArea() float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return area / 2
}

// Area returns the absolute area of the outline.
func (o Outline) Area() float64 {
	return math.Abs(o.SignedArea())
}

// Reversed returns the outline traversed in the opposite direction.
func (o Outline) Reversed() Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[len(o)-1-i] = p
	}
	return result
}

// Clone returns an independent copy of the outline.
func (o Outline) Clone() Outline {
	if o == nil {
		return nil
	}
	result := make(Outline, len(o))
	copy(result, o)
	return result
}

// Segment is a straight line between two points, used for passmarks.
type Segment struct {
	Start Point2D `json:"start" toml:"start"`
	End   Point2D `json:"end" toml:"end"`
}

// GrainArrows is a bit set of grainline directions a piece may be laid in.
type GrainArrows int

const (
	ArrowFront GrainArrows = 1 << iota // along the grainline
	ArrowRear                          // reversed, +180°
	ArrowLeft                          // +90°
	ArrowRight                         // +270°

	ArrowsTwoWays  = ArrowFront | ArrowRear
	ArrowsFourWays = ArrowFront | ArrowRear | ArrowLeft | ArrowRight
)

// Angles returns the extra rotation (radians) for every enabled arrow.
func (a GrainArrows) Angles() []float64 {
	var angles []float64
	if a&ArrowFront != 0 {
		angles = append(angles, 0)
	}
	if a&ArrowRear != 0 {
		angles = append(angles, math.Pi)
	}
	if a&ArrowLeft != 0 {
		angles = append(angles, math.Pi/2)
	}
	if a&ArrowRight != 0 {
		angles = append(angles, 3*math.Pi/2)
	}
	return angles
}

// Grainline describes the fabric grain a piece must follow.
type Grainline struct {
	Enabled bool        `json:"enabled" toml:"enabled"`
	Start   Point2D     `json:"start" toml:"start"`
	End     Point2D     `json:"end" toml:"end"`
	Arrows  GrainArrows `json:"arrows" toml:"arrows"`
}

// Angle returns the direction of the grainline in radians.
func (g Grainline) Angle() float64 {
	return math.Atan2(g.End.Y-g.Start.Y, g.End.X-g.Start.X)
}

// Piece represents a pattern piece to be nested. The nesting engine never
// modifies a Piece; placements carry the transform separately.
type Piece struct {
	ID   string `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`

	// Outline is the visible piece boundary (seam allowance when present).
	Outline Outline `json:"outline" toml:"outline"`
	// LayoutOutline is the boundary used for nesting; empty means Outline.
	LayoutOutline Outline `json:"layout_outline,omitempty" toml:"layout_outline,omitempty"`
	// Area overrides the computed outline area when positive.
	Area float64 `json:"area,omitempty" toml:"area,omitempty"`

	Quantity int  `json:"quantity" toml:"quantity"`
	Priority uint `json:"priority" toml:"priority"` // manual priority group, 0 = default

	Grainline       Grainline `json:"grainline" toml:"grainline"`
	FollowGrainline bool      `json:"follow_grainline" toml:"follow_grainline"`

	ForceFlipping  bool `json:"force_flipping" toml:"force_flipping"`
	ForbidFlipping bool `json:"forbid_flipping" toml:"forbid_flipping"`
	Symmetrical    bool `json:"symmetrical" toml:"symmetrical"`

	Passmarks []Segment `json:"passmarks,omitempty" toml:"passmarks,omitempty"`
}

// NewPiece creates a piece with a generated ID.
func NewPiece(name string, outline Outline, qty int) Piece {
	return Piece{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Outline:  outline,
		Quantity: qty,
	}
}

// NewRectPiece creates a rectangular piece of the given size at the origin.
func NewRectPiece(name string, w, h float64, qty int) Piece {
	return NewPiece(name, RectOutline(w, h), qty)
}

// RectOutline returns a w x h rectangle anchored at the origin.
func RectOutline(w, h float64) Outline {
	return Outline{{X: 0, Y: 0}, {X: 0, Y: h}, {X: w, Y: h}, {X: w, Y: 0}}
}

// NestingOutline returns the boundary used for nesting.
func (p Piece) NestingOutline() Outline {
	if len(p.LayoutOutline) > 0 {
		return p.LayoutOutline
	}
	return p.Outline
}

// Square returns the piece area used for efficiency calculations.
func (p Piece) Square() float64 {
	if p.Area > 0 {
		return p.Area
	}
	return p.Outline.Area()
}

// FollowsGrainline reports whether placement must align the grainline,
// given the global follow-grainline default.
func (p Piece) FollowsGrainline(global bool) bool {
	return p.Grainline.Enabled && (global || p.FollowGrainline)
}
