package engine

import (
	"fmt"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// layoutPiece is one copy of a piece prepared for nesting. Outline and
// allowance stay in piece coordinates; placements carry the transform.
type layoutPiece struct {
	piece     model.Piece
	copy      int
	group     uint
	allowance model.Outline // nesting boundary grown by half the gap
	square    float64       // detail area, used for ordering
	diagonal  float64
}

func (lp *layoutPiece) label() string {
	if lp.copy == 0 {
		return lp.piece.Name
	}
	return fmt.Sprintf("%s #%d", lp.piece.Name, lp.copy+1)
}

// edgeCount returns the number of usable edges of the detail outline.
func (lp *layoutPiece) edgeCount() int {
	return len(geometry.Dedupe(lp.piece.Outline))
}

// placedPiece is a layoutPiece committed to a paper.
type placedPiece struct {
	item      *layoutPiece
	transform model.Transform
	mirrored  bool
	outline   model.Outline // detail outline in paper coordinates
}

func (pp placedPiece) placement() model.Placement {
	min, max := pp.outline.BoundingBox()
	return model.Placement{
		PieceID:   pp.item.piece.ID,
		Name:      pp.item.label(),
		Copy:      pp.item.copy,
		Transform: pp.transform,
		Mirrored:  pp.mirrored,
		Outline:   pp.outline,
		Min:       min,
		Max:       max,
		Area:      pp.item.piece.Square(),
	}
}
