package engine

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/golang/geo/r2"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// cacheEntry is the nesting boundary of a placed piece with its bounds.
type cacheEntry struct {
	rect r2.Rect
	path model.Outline
}

// PositionData is the read-only snapshot shared by the edge searches of one
// piece. Nothing in it is mutated while a search runs.
type PositionData struct {
	contour        *Contour
	contourBounds  r2.Rect
	item           *layoutPiece
	cache          []cacheEntry
	rotate         bool
	rotationNumber int
	grainline      bool // align the grainline instead of matching edges
	saveLength     bool
}

// ArrangeDetail searches every contour edge concurrently and returns the
// best placement over all of them. Results are merged in edge order so the
// winner does not depend on scheduling.
func ArrangeDetail(data PositionData, stop *atomic.Bool) *BestSquare {
	portrait := data.contour.IsPortrait()
	edges := data.contour.EdgeCount()
	results := make([]*BestSquare, edges)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())

	for k := 0; k < edges; k++ {
		if stop.Load() {
			break
		}
		wg.Add(1)
		sem <- struct{}{} // Acquire semaphore

		go func(edge int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore

			pos := &position{
				data: data,
				edge: edge,
				best: NewBestSquare(data.saveLength, portrait),
				stop: stop,
			}
			pos.run()
			results[edge] = pos.best
		}(k)
	}

	wg.Wait()

	best := NewBestSquare(data.saveLength, portrait)
	for _, r := range results {
		best.MergeFrom(r)
	}
	return best
}

// position searches the placements of one piece against one contour edge.
type position struct {
	data PositionData
	edge int
	a, b model.Point2D
	best *BestSquare
	stop *atomic.Bool
}

func (p *position) stopped() bool {
	return p.stop.Load()
}

func (p *position) run() {
	defer func() {
		if r := recover(); r != nil {
			p.best.Terminate(fmt.Sprintf("placement search on edge %d: %v", p.edge, r))
		}
	}()

	a, b, ok := p.data.contour.Edge(p.edge)
	if !ok {
		p.best.Terminate(fmt.Sprintf("contour has no edge %d", p.edge))
		return
	}
	p.a, p.b = a, b

	if p.data.grainline {
		p.alignGrainline()
		return
	}

	m := len(p.data.item.allowance)
	for j := 0; j < m; j++ {
		if p.stopped() {
			return
		}
		p.combineEdges(j)
		if p.data.rotate && p.data.rotationNumber > 1 {
			p.rotateEdges(j)
		}
	}
}

// combineTransform moves piece edge j onto the global edge: second
// endpoints coincide and directions agree.
func (p *position) combineTransform(j int) (model.Transform, bool) {
	poly := p.data.item.allowance
	e1, e2 := poly[j], poly[(j+1)%len(poly)]
	if geometry.Distance(e1, e2) < geometry.Eps || geometry.Distance(p.a, p.b) < geometry.Eps {
		return model.Transform{}, false
	}
	angle := geometry.Angle(p.a, p.b) - geometry.Angle(e1, e2)
	return model.Translation(p.b.X, p.b.Y).
		Compose(model.Rotation(angle)).
		Compose(model.Translation(-e2.X, -e2.Y)), true
}

// mirrorTransform flips an edge-combined piece across the perpendicular
// through the middle of its matched edge. The edge stays on the contour
// and the piece stays on the free side.
func (p *position) mirrorTransform(base model.Transform, j int) model.Transform {
	poly := p.data.item.allowance
	q1 := base.Apply(poly[j])
	q2 := base.Apply(poly[(j+1)%len(poly)])
	mid := model.Point2D{X: (q1.X + q2.X) / 2, Y: (q1.Y + q2.Y) / 2}
	perp := model.Point2D{X: mid.X - (q2.Y - q1.Y), Y: mid.Y + (q2.X - q1.X)}
	return model.Reflection(mid, perp).Compose(base)
}

func (p *position) combineEdges(j int) {
	base, ok := p.combineTransform(j)
	if !ok {
		return
	}
	m := len(p.data.item.allowance)
	piece := p.data.item.piece
	if !piece.ForceFlipping {
		if p.tryPlace(base, j, (j+1)%m, false, MatchCombine) {
			return
		}
	}
	if piece.ForbidFlipping {
		return
	}
	p.tryPlace(p.mirrorTransform(base, j), j, j, true, MatchCombine)
}

func (p *position) rotateEdges(j int) {
	base, ok := p.combineTransform(j)
	if !ok {
		return
	}
	m := len(p.data.item.allowance)
	anchor, mirrored := (j+1)%m, false
	if p.data.item.piece.ForceFlipping {
		base, anchor, mirrored = p.mirrorTransform(base, j), j, true
	}
	step := 2 * math.Pi / float64(p.data.rotationNumber)
	for k := 1; k < p.data.rotationNumber; k++ {
		if p.stopped() {
			return
		}
		tr := model.RotationAround(p.b, step*float64(k)).Compose(base)
		p.tryPlace(tr, j, anchor, mirrored, MatchRotation)
	}
}

// fabricAngle is the grain direction of the sheet.
func (p *position) fabricAngle() float64 {
	if p.data.contour.IsPortrait() {
		return math.Pi / 2
	}
	return 0
}

func (p *position) alignGrainline() {
	piece := p.data.item.piece
	g := piece.Grainline
	base, mirrored := model.Identity(), false
	if piece.ForceFlipping {
		base, mirrored = model.Reflection(g.Start, g.End), true
	}
	arrows := g.Arrows
	if arrows == 0 {
		arrows = model.ArrowFront
	}
	for _, extra := range arrows.Angles() {
		rot := model.Rotation(p.fabricAngle() - g.Angle() + extra).Compose(base)
		shaped := rot.Map(p.data.item.allowance)
		for v, q := range shaped {
			if p.stopped() {
				return
			}
			tr := model.Translation(p.b.X-q.X, p.b.Y-q.Y).Compose(rot)
			p.tryPlace(tr, v, v, mirrored, MatchGrainline)
		}
	}
}

// tryPlace validates one placement and offers it to the tracker. It
// reports whether the placement was valid.
func (p *position) tryPlace(tr model.Transform, pieceEdge, anchor int, mirrored bool, t MatchType) bool {
	c := p.data.contour
	placed := tr.Map(p.data.item.allowance)
	rect := geometry.Bounds(placed)
	if !geometry.FitsSheet(rect, c.Width(), c.Height()) {
		return false
	}
	if p.overlaps(placed, rect) {
		return false
	}

	// the material used so far is measured from the sheet origin
	size := p.data.contourBounds.Union(rect).AddPoint(r2.Point{}).Size()
	depth, side := rect.Lo().Y, rect.Lo().X
	if !c.IsPortrait() {
		depth, side = side, depth
	}
	p.best.Record(Candidate{
		Width:      size.X,
		Height:     size.Y,
		GlobalEdge: p.edge,
		PieceEdge:  pieceEdge,
		Anchor:     anchor,
		Transform:  tr,
		Mirrored:   mirrored,
		Type:       t,
		Depth:      depth,
		Side:       side,
	})
	return true
}

func (p *position) overlaps(placed model.Outline, rect r2.Rect) bool {
	for _, e := range p.data.cache {
		if !e.rect.InteriorIntersects(rect) {
			continue
		}
		if geometry.Overlaps(placed, e.path) {
			return true
		}
	}
	return false
}
