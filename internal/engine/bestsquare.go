package engine

import (
	"fmt"

	"github.com/piwi3910/PatternNest/internal/model"
)

// MatchType records which search produced a candidate. Higher values win
// over lower ones when areas tie.
type MatchType int

const (
	MatchRotation MatchType = iota
	MatchGrainline
	MatchCombine
)

func (t MatchType) String() string {
	switch t {
	case MatchRotation:
		return "rotation"
	case MatchGrainline:
		return "grainline"
	case MatchCombine:
		return "combine"
	default:
		return fmt.Sprintf("MatchType(%d)", int(t))
	}
}

// Splice returns how the contour absorbs a piece found by this search.
func (t MatchType) Splice() SpliceMode {
	if t == MatchCombine {
		return SpliceInsert
	}
	return SpliceWhole
}

// Candidate is one valid placement of a piece against a contour edge.
type Candidate struct {
	Width, Height float64 // bounding size of contour plus piece
	GlobalEdge    int
	PieceEdge     int
	Anchor        int // piece vertex lying on the second endpoint of the global edge
	Transform     model.Transform
	Mirrored      bool
	Type          MatchType
	Depth         float64 // how far the piece reaches along the growth axis
	Side          float64 // position along the non-growth axis
}

// Area returns the bounding area of the candidate.
func (c Candidate) Area() float64 {
	return c.Width * c.Height
}

// BestSquare keeps the best candidate placement of one piece.
type BestSquare struct {
	best       Candidate
	valid      bool
	saveLength bool
	portrait   bool

	terminated bool
	reason     string
}

// NewBestSquare creates an empty tracker for a sheet orientation.
func NewBestSquare(saveLength, portrait bool) *BestSquare {
	return &BestSquare{saveLength: saveLength, portrait: portrait}
}

// Record offers a candidate and reports whether it became the new best.
func (bs *BestSquare) Record(c Candidate) bool {
	if bs.terminated {
		return false
	}
	area := c.Area()
	if area <= 0 {
		return false
	}
	if !bs.valid {
		bs.best, bs.valid = c, true
		return true
	}
	if c.Type < bs.best.Type {
		return false
	}
	current := bs.best.Area()
	if area > current {
		return false
	}
	if area < current || bs.tieBreak(c) {
		bs.best = c
		return true
	}
	return false
}

// tieBreak decides between two candidates of equal area.
func (bs *BestSquare) tieBreak(c Candidate) bool {
	if bs.saveLength {
		if c.Depth < bs.best.Depth {
			return true
		}
		if c.Depth > bs.best.Depth {
			return false
		}
	}
	return bs.sideImproved(c.Side) || c.Side == bs.best.Side
}

// sideImproved: portrait sheets push pieces towards the low side, landscape
// sheets towards the high side.
func (bs *BestSquare) sideImproved(side float64) bool {
	if bs.portrait {
		return side < bs.best.Side
	}
	return side > bs.best.Side
}

// MergeFrom folds another tracker's result into this one. Trackers with a
// different save-length mode are ignored.
func (bs *BestSquare) MergeFrom(other *BestSquare) {
	if other == nil || other.saveLength != bs.saveLength {
		return
	}
	if other.terminated {
		bs.Terminate(other.reason)
		return
	}
	if other.valid {
		bs.Record(other.best)
	}
}

// Terminate marks the search as failed by an internal error.
func (bs *BestSquare) Terminate(reason string) {
	if bs.terminated {
		return
	}
	bs.terminated = true
	bs.reason = reason
	bs.valid = false
}

// HasResult reports whether a usable candidate was recorded.
func (bs *BestSquare) HasResult() bool {
	return bs.valid && !bs.terminated
}

// Best returns the winning candidate.
func (bs *BestSquare) Best() Candidate {
	return bs.best
}

// Terminated reports an internal error and its reason.
func (bs *BestSquare) Terminated() (bool, string) {
	return bs.terminated, bs.reason
}
