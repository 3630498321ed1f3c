package model

import "math"

// Transform is a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type Transform struct {
	A  float64 `json:"a" toml:"a"`
	B  float64 `json:"b" toml:"b"`
	TX float64 `json:"tx" toml:"tx"`
	C  float64 `json:"c" toml:"c"`
	D  float64 `json:"d" toml:"d"`
	TY float64 `json:"ty" toml:"ty"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) Transform {
	return Transform{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation returns a rotation transform around the origin.
func Rotation(radians float64) Transform {
	sin, cos := math.Sincos(radians)
	return Transform{A: cos, B: -sin, C: sin, D: cos}
}

// RotationAround returns a rotation by radians around center.
func RotationAround(center Point2D, radians float64) Transform {
	return Translation(center.X, center.Y).
		Compose(Rotation(radians)).
		Compose(Translation(-center.X, -center.Y))
}

// Reflection returns the reflection across the infinite line through a and b.
// A degenerate line yields the identity.
func Reflection(a, b Point2D) Transform {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return Identity()
	}
	cos2 := (dx*dx - dy*dy) / l2
	sin2 := 2 * dx * dy / l2
	r := Transform{A: cos2, B: sin2, C: sin2, D: -cos2}
	return Translation(a.X, a.Y).Compose(r).Compose(Translation(-a.X, -a.Y))
}

// Apply applies the transform to a point.
func (t Transform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Map applies the transform to every point of an outline.
func (t Transform) Map(o Outline) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = t.Apply(p)
	}
	return result
}

// Compose returns this transform composed with another (this * other):
// other is applied first.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t Transform) Inverse() (Transform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return Transform{}, false
	}
	invDet := 1.0 / det
	return Transform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// IsMirror reports whether the transform flips orientation.
func (t Transform) IsMirror() bool {
	return t.A*t.D-t.B*t.C < 0
}
