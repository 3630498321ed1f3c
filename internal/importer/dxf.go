package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

const (
	// dxfTolerance joins line endpoints closer than this, in drawing units.
	dxfTolerance = 0.01
	arcSteps     = 32
	circleSteps  = 64
	// maxPassmark is the longest line read as a notch on a piece boundary.
	maxPassmark = 15.0
)

// segment is one straight piece of a LINE or a sampled ARC.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// dxfShapes collects the geometry of a drawing before it is split into pieces.
type dxfShapes struct {
	closed   []model.Outline
	open     [][]model.Point2D
	segments []segment
	warnings []string
}

// ImportDXF reads pattern pieces from a DXF drawing. Every closed shape
// (LWPOLYLINE, CIRCLE, or a loop of LINEs and ARCs) becomes a piece.
// A straight line inside a piece is its grainline; a short line crossing
// the boundary is a passmark. Drawings are y-up, pieces come out in y-down
// sheet coordinates with their bounding box at (0, 0).
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	shapes := &dxfShapes{}
	for _, ent := range entities {
		shapes.add(ent)
	}
	closed, open := chainSegments(shapes.segments, dxfTolerance)
	shapes.closed = append(shapes.closed, closed...)
	shapes.open = append(shapes.open, open...)
	result.Warnings = append(result.Warnings, shapes.warnings...)

	if len(shapes.closed) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	pieces, warnings := assemblePieces(shapes.closed, shapes.open)
	result.Pieces = pieces
	result.Warnings = append(result.Warnings, warnings...)
	if len(pieces) == 0 {
		result.Errors = append(result.Errors, "No usable pieces found in DXF file")
	}
	return result
}

func (s *dxfShapes) add(ent entity.Entity) {
	switch e := ent.(type) {
	case *entity.LwPolyline:
		pts := lwPolylinePoints(e)
		switch {
		case len(pts) >= 3:
			s.closed = append(s.closed, model.Outline(pts))
		case len(pts) == 2:
			s.open = append(s.open, pts)
		default:
			s.warnings = append(s.warnings, "Skipped LWPOLYLINE with fewer than 2 vertices")
		}

	case *entity.Circle:
		pts := arcPoints(e.Center[0], e.Center[1], e.Radius, 0, 2*math.Pi, circleSteps)
		s.closed = append(s.closed, model.Outline(pts[:len(pts)-1]))

	case *entity.Arc:
		from := e.Angle[0] * math.Pi / 180
		to := e.Angle[1] * math.Pi / 180
		if to <= from {
			to += 2 * math.Pi
		}
		pts := arcPoints(e.Circle.Center[0], e.Circle.Center[1], e.Circle.Radius, from, to-from, arcSteps)
		for i := 1; i < len(pts); i++ {
			s.segments = append(s.segments, segment{start: pts[i-1], end: pts[i]})
		}

	case *entity.Line:
		s.segments = append(s.segments, segment{
			start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
			end:   model.Point2D{X: e.End[0], Y: e.End[1]},
		})
	}
}

// arcPoints samples steps+1 points of a circle from angle from, sweeping
// counter-clockwise (y-up) by sweep radians. A negative sweep runs clockwise.
func arcPoints(cx, cy, r, from, sweep float64, steps int) []model.Point2D {
	pts := make([]model.Point2D, steps+1)
	for i := range pts {
		sin, cos := math.Sincos(from + sweep*float64(i)/float64(steps))
		pts[i] = model.Point2D{X: cx + r*cos, Y: cy + r*sin}
	}
	return pts
}

// lwPolylinePoints returns the vertices of a polyline with bulged spans
// replaced by sampled arcs.
func lwPolylinePoints(lw *entity.LwPolyline) []model.Point2D {
	n := len(lw.Vertices)
	var pts []model.Point2D
	for i, v := range lw.Vertices {
		cur := model.Point2D{X: v[0], Y: v[1]}
		if i >= len(lw.Bulges) || math.Abs(lw.Bulges[i]) < 1e-9 || n < 3 {
			pts = append(pts, cur)
			continue
		}
		w := lw.Vertices[(i+1)%n]
		arc := bulgeArcPoints(cur, model.Point2D{X: w[0], Y: w[1]}, lw.Bulges[i], arcSteps)
		pts = append(pts, arc[:len(arc)-1]...)
	}
	return pts
}

// bulgeArcPoints samples the arc from p1 to p2 described by a DXF bulge,
// the tangent of a quarter of the included angle. Positive bulges run
// counter-clockwise.
func bulgeArcPoints(p1, p2 model.Point2D, bulge float64, steps int) []model.Point2D {
	chord := geometry.Distance(p1, p2)
	if chord < 1e-9 {
		return []model.Point2D{p1, p2}
	}
	included := 4 * math.Atan(bulge)
	// the centre sits on the chord bisector, left of p1->p2 for positive bulges
	off := chord / 2 / math.Tan(included/2)
	cx := (p1.X+p2.X)/2 - (p2.Y-p1.Y)/chord*off
	cy := (p1.Y+p2.Y)/2 + (p2.X-p1.X)/chord*off
	r := math.Hypot(p1.X-cx, p1.Y-cy)
	return arcPoints(cx, cy, r, math.Atan2(p1.Y-cy, p1.X-cx), included, steps)
}

// chainSegments joins segments whose endpoints meet within tolerance. Chains
// that return to their start are closed outlines, largest first; the rest
// come back as open polylines.
func chainSegments(segs []segment, tolerance float64) (closed []model.Outline, open [][]model.Point2D) {
	used := make([]bool, len(segs))
	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []model.Point2D{segs[i].start, segs[i].end}

		for grown := true; grown; {
			grown = false
			for j, s := range segs {
				if used[j] {
					continue
				}
				head, tail := chain[0], chain[len(chain)-1]
				switch {
				case pointsClose(tail, s.start, tolerance):
					chain = append(chain, s.end)
				case pointsClose(tail, s.end, tolerance):
					chain = append(chain, s.start)
				case pointsClose(head, s.end, tolerance):
					chain = append([]model.Point2D{s.start}, chain...)
				case pointsClose(head, s.start, tolerance):
					chain = append([]model.Point2D{s.end}, chain...)
				default:
					continue
				}
				used[j] = true
				grown = true
			}
		}

		if len(chain) > 3 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			closed = append(closed, model.Outline(chain[:len(chain)-1]))
			continue
		}
		open = append(open, chain)
	}

	sort.SliceStable(closed, func(a, b int) bool {
		return closed[a].Area() > closed[b].Area()
	})
	return closed, open
}

func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return geometry.Distance(a, b) <= tolerance
}

type lineKind int

const (
	lineStray lineKind = iota
	lineGrain
	linePassmark
)

// classifyLine finds the piece an open line belongs to and what it marks.
func classifyLine(a, b model.Point2D, outlines []model.Outline) (int, lineKind) {
	for k, o := range outlines {
		inA, inB := geometry.PointInPolygon(a, o), geometry.PointInPolygon(b, o)
		onEdge := inA != inB ||
			geometry.DistanceToBoundary(a, o) <= dxfTolerance ||
			geometry.DistanceToBoundary(b, o) <= dxfTolerance
		if onEdge && geometry.Distance(a, b) <= maxPassmark {
			return k, linePassmark
		}
		if inA && inB && !onEdge {
			return k, lineGrain
		}
	}
	return -1, lineStray
}

// insideAny reports whether every vertex of o lies inside one of outlines.
func insideAny(o model.Outline, outlines []model.Outline) bool {
	for _, outer := range outlines {
		inside := true
		for _, p := range o {
			if !geometry.PointInPolygon(p, outer) {
				inside = false
				break
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// assemblePieces turns closed outlines into pieces, attaches grainlines and
// passmarks, and moves everything into sheet coordinates.
func assemblePieces(closed []model.Outline, open [][]model.Point2D) ([]model.Piece, []string) {
	var warnings []string
	var pieces []model.Piece
	var outlines []model.Outline

	// outer shapes first, so cut-outs find their piece
	closed = append([]model.Outline(nil), closed...)
	sort.SliceStable(closed, func(a, b int) bool {
		return closed[a].Area() > closed[b].Area()
	})
	for _, o := range closed {
		min, max := o.BoundingBox()
		w, h := max.X-min.X, max.Y-min.Y
		if w < dxfTolerance || h < dxfTolerance {
			warnings = append(warnings, fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", w, h))
			continue
		}
		if insideAny(o, outlines) {
			warnings = append(warnings, fmt.Sprintf("Skipped inner contour (%.2f x %.2f mm): cut-outs are not nested", w, h))
			continue
		}
		outlines = append(outlines, o)
		pieces = append(pieces, model.NewPiece(fmt.Sprintf("DXF Piece %d", len(pieces)+1), o, 1))
	}

	for _, line := range open {
		if len(line) != 2 {
			warnings = append(warnings, fmt.Sprintf("Ignored open polyline with %d points", len(line)))
			continue
		}
		a, b := line[0], line[1]
		k, kind := classifyLine(a, b, outlines)
		switch kind {
		case lineGrain:
			// drawn grainlines carry no direction
			g := &pieces[k].Grainline
			if !g.Enabled || geometry.Distance(a, b) > geometry.Distance(g.Start, g.End) {
				*g = model.Grainline{Enabled: true, Start: a, End: b, Arrows: model.ArrowsTwoWays}
			}
		case linePassmark:
			pieces[k].Passmarks = append(pieces[k].Passmarks, model.Segment{Start: a, End: b})
		default:
			warnings = append(warnings, fmt.Sprintf("Ignored line (%.1f, %.1f)-(%.1f, %.1f) outside every piece",
				a.X, a.Y, b.X, b.Y))
		}
	}

	for i := range pieces {
		toSheet(&pieces[i])
	}
	return pieces, warnings
}

// toSheet flips a y-up drawing piece into y-down sheet coordinates with its
// bounding box at the origin.
func toSheet(p *model.Piece) {
	min, max := p.Outline.BoundingBox()
	tr := model.Translation(-min.X, max.Y).Compose(model.Transform{A: 1, D: -1})
	p.Outline = tr.Map(p.Outline)
	if p.Grainline.Enabled {
		p.Grainline.Start = tr.Apply(p.Grainline.Start)
		p.Grainline.End = tr.Apply(p.Grainline.End)
	}
	for i, s := range p.Passmarks {
		p.Passmarks[i] = model.Segment{Start: tr.Apply(s.Start), End: tr.Apply(s.End)}
	}
}
