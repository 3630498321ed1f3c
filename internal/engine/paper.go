package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// PaperOptions are the per-pass knobs a paper searches with.
type PaperOptions struct {
	Shift           float64
	Rotate          bool
	RotationNumber  int
	FollowGrainline bool
	SaveLength      bool
}

// Paper is one sheet being filled.
type Paper struct {
	opts    PaperOptions
	contour *Contour
	placed  []placedPiece
	cache   []cacheEntry
}

// NewPaper creates an empty paper of the given printable size.
func NewPaper(width, height float64, opts PaperOptions) *Paper {
	return &Paper{
		opts:    opts,
		contour: NewContour(width, height, opts.Shift),
	}
}

func (p *Paper) Width() float64  { return p.contour.Width() }
func (p *Paper) Height() float64 { return p.contour.Height() }

// Count returns the number of placed pieces.
func (p *Paper) Count() int {
	return len(p.placed)
}

// Arrange tries to place one piece. It returns false when the piece does
// not fit the paper in its current state; an error means the search hit an
// internal failure and nesting must stop.
func (p *Paper) Arrange(item *layoutPiece, stop *atomic.Bool) (bool, error) {
	if len(item.allowance) < 3 || item.edgeCount() < 3 {
		return false, nil
	}

	piece := item.piece
	rotate, rotationNumber := localRotation(piece, p.opts.Rotate, p.opts.RotationNumber)

	data := PositionData{
		contour:        p.contour,
		contourBounds:  p.contour.BoundingRect(),
		item:           item,
		cache:          p.cache,
		rotate:         rotate,
		rotationNumber: rotationNumber,
		grainline:      piece.FollowsGrainline(p.opts.FollowGrainline),
		saveLength:     p.opts.SaveLength,
	}

	best := ArrangeDetail(data, stop)
	if terminated, reason := best.Terminated(); terminated {
		return false, fmt.Errorf("%w: %s", model.TerminatedByException, reason)
	}
	if stop.Load() || !best.HasResult() {
		return false, nil
	}
	return true, p.commit(item, best.Best())
}

// localRotation turns on a half-turn search for pieces whose flipping is
// fixed while rotation is globally off.
func localRotation(piece model.Piece, rotate bool, rotationNumber int) (bool, int) {
	if (piece.ForbidFlipping || piece.ForceFlipping) && !rotate {
		return true, 2
	}
	return rotate, rotationNumber
}

// commit applies the winning candidate to the contour and the cache.
func (p *Paper) commit(item *layoutPiece, c Candidate) error {
	path := c.Transform.Map(item.allowance)
	points := p.contour.UnionWith(path, c.GlobalEdge, c.Anchor, c.Type.Splice())
	if points == nil {
		return fmt.Errorf("%w: cannot splice %q at contour edge %d, anchor %d",
			model.TerminatedByException, item.label(), c.GlobalEdge, c.Anchor)
	}
	p.contour.SetPoints(points)
	p.placed = append(p.placed, placedPiece{
		item:      item,
		transform: c.Transform,
		mirrored:  c.Mirrored,
		outline:   c.Transform.Map(item.piece.Outline),
	})
	p.cache = append(p.cache, cacheEntry{rect: geometry.Bounds(path), path: path})
	return nil
}

// BoundingRectOfDetails returns the union of the placed detail bounds.
func (p *Paper) BoundingRectOfDetails() r2.Rect {
	r := r2.EmptyRect()
	for _, pp := range p.placed {
		r = r.Union(geometry.Bounds(pp.outline))
	}
	return r
}

// UsedArea returns the summed area of the placed details.
func (p *Paper) UsedArea() float64 {
	areas := make([]float64, len(p.placed))
	for i, pp := range p.placed {
		areas[i] = pp.item.piece.Square()
	}
	return floats.Sum(areas)
}

// Efficiency returns the placed area over the bounding area of the details,
// as a percentage.
func (p *Paper) Efficiency() float64 {
	box := geometry.RectArea(p.BoundingRectOfDetails())
	if box <= 0 {
		return 0
	}
	return p.UsedArea() / box * 100.0
}

// Placements returns the resolved placements in placement order.
func (p *Paper) Placements() []model.Placement {
	out := make([]model.Placement, len(p.placed))
	for i, pp := range p.placed {
		out[i] = pp.placement()
	}
	return out
}

// AllowancePaths returns the nesting boundaries of the placed pieces.
func (p *Paper) AllowancePaths() []model.Outline {
	out := make([]model.Outline, len(p.cache))
	for i, e := range p.cache {
		out[i] = e.path
	}
	return out
}

// Contour returns the sheet contour.
func (p *Paper) Contour() *Contour {
	return p.contour
}
