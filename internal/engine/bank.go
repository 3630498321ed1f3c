package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/maruel/natural"
	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// NoMoreDetails is returned by GetNext when nothing is left to offer.
const NoMoreDetails = -1

// Bank owns the pieces of a job and decides the order they are nested in.
type Bank struct {
	layoutWidth    float64
	manualPriority bool
	nestQuantity   bool
	strategy       model.GroupingStrategy

	details         []*layoutPiece
	biggestDiagonal float64
	prepared        bool

	unsorted map[uint]map[int]float64 // group -> detail -> piece square
	buckets  [][]int                  // active group, biggest bucket first
	deferred map[int]struct{}         // failed this round, retried by NextRound
	arranged []int
}

// NewBank creates a bank configured from the layout settings.
func NewBank(s model.LayoutSettings) *Bank {
	return &Bank{
		layoutWidth:    s.LayoutWidth,
		manualPriority: s.ManualPriority,
		nestQuantity:   s.NestQuantity,
		strategy:       s.GroupingStrategy,
	}
}

// SetDetails stores the pieces, expanding quantities when enabled. Odd
// copies of a mirrored-pair piece swap force and forbid flipping so the
// pair comes out as left and right.
func (b *Bank) SetDetails(pieces []model.Piece) {
	b.details = b.details[:0]
	b.prepared = false
	for _, p := range pieces {
		copies := 1
		if b.nestQuantity && p.Quantity > 1 {
			copies = p.Quantity
		}
		for c := 0; c < copies; c++ {
			piece := p
			if c%2 == 1 && piece.Symmetrical && (piece.ForceFlipping || piece.ForbidFlipping) {
				piece.ForceFlipping, piece.ForbidFlipping = piece.ForbidFlipping, piece.ForceFlipping
			}
			var group uint
			if b.manualPriority {
				group = piece.Priority
			}
			b.details = append(b.details, &layoutPiece{piece: piece, copy: c, group: group})
		}
	}
}

// PrepareDetails builds the nesting boundary of every piece.
func (b *Bank) PrepareDetails(togetherWithNotches bool) error {
	if b.layoutWidth <= 0 {
		return fmt.Errorf("%w: layout width must be positive, got %.2f", model.PrepareLayoutError, b.layoutWidth)
	}
	if len(b.details) == 0 {
		return fmt.Errorf("%w: no pieces to nest", model.PrepareLayoutError)
	}
	b.biggestDiagonal = 0
	for _, d := range b.details {
		d.allowance = geometry.Allowance(d.piece, b.layoutWidth, togetherWithNotches)
		d.diagonal = geometry.Diagonal(d.allowance)
		b.biggestDiagonal = math.Max(b.biggestDiagonal, d.diagonal)
	}
	b.prepared = true
	return nil
}

// PrepareUnsorted resets the arrangement state for a new pass and sorts
// every piece into its priority group.
func (b *Bank) PrepareUnsorted() error {
	if !b.prepared {
		return fmt.Errorf("%w: details are not prepared", model.PrepareLayoutError)
	}
	b.unsorted = make(map[uint]map[int]float64)
	b.deferred = make(map[int]struct{})
	b.buckets = nil
	b.arranged = b.arranged[:0]
	for i, d := range b.details {
		d.square = d.piece.Square()
		if d.square <= 0 || d.allowance.Area() <= 0 {
			return fmt.Errorf("%w: piece %q has no area", model.PrepareLayoutError, d.label())
		}
		if b.unsorted[d.group] == nil {
			b.unsorted[d.group] = make(map[int]float64)
		}
		b.unsorted[d.group][i] = d.square
	}
	return nil
}

// GetNext returns the index of the next piece to try, or NoMoreDetails.
// The piece stays offered until Arranged or NotArranged is called.
func (b *Bank) GetNext() int {
	for {
		for _, bucket := range b.buckets {
			if len(bucket) > 0 {
				return bucket[0]
			}
		}
		if !b.prepareGroup() {
			return NoMoreDetails
		}
	}
}

// Detail returns a prepared piece by index.
func (b *Bank) Detail(i int) *layoutPiece {
	return b.details[i]
}

// Arranged records a successful placement.
func (b *Bank) Arranged(i int) {
	if b.takeFromBuckets(i) {
		b.arranged = append(b.arranged, i)
	}
}

// NotArranged sets a piece aside until the next round.
func (b *Bank) NotArranged(i int) {
	if b.takeFromBuckets(i) {
		b.deferred[i] = struct{}{}
	}
}

// NextRound returns the pieces set aside back to their priority groups,
// ready for a new paper.
func (b *Bank) NextRound() {
	for i := range b.deferred {
		d := b.details[i]
		if b.unsorted[d.group] == nil {
			b.unsorted[d.group] = make(map[int]float64)
		}
		b.unsorted[d.group][i] = d.square
	}
	b.deferred = make(map[int]struct{})
}

// LeftToArrange counts the pieces still on offer this round.
func (b *Bank) LeftToArrange() int {
	n := 0
	for _, bucket := range b.buckets {
		n += len(bucket)
	}
	for _, group := range b.unsorted {
		n += len(group)
	}
	return n
}

// AllDetailsCount counts every piece not yet arranged.
func (b *Bank) AllDetailsCount() int {
	return b.LeftToArrange() + len(b.deferred)
}

// FailedToArrange counts the pieces set aside this round.
func (b *Bank) FailedToArrange() int {
	return len(b.deferred)
}

// ArrangedCount counts the pieces placed this pass.
func (b *Bank) ArrangedCount() int {
	return len(b.arranged)
}

// Len returns the number of pieces after quantity expansion.
func (b *Bank) Len() int {
	return len(b.details)
}

// BiggestDiagonal returns the longest allowance diagonal.
func (b *Bank) BiggestDiagonal() float64 {
	return b.biggestDiagonal
}

// IsRotationNeeded reports whether any piece is free of the grainline,
// so the rotation search can matter.
func (b *Bank) IsRotationNeeded(followGrainline bool) bool {
	for _, d := range b.details {
		if !d.piece.FollowsGrainline(followGrainline) {
			return true
		}
	}
	return false
}

func (b *Bank) takeFromBuckets(i int) bool {
	for k, bucket := range b.buckets {
		for n, idx := range bucket {
			if idx == i {
				b.buckets[k] = append(bucket[:n:n], bucket[n+1:]...)
				return true
			}
		}
	}
	return false
}

// groupOrder lists groups with pending pieces: ascending, group 0 last.
func (b *Bank) groupOrder() []uint {
	groups := make([]uint, 0, len(b.unsorted))
	for g, members := range b.unsorted {
		if len(members) > 0 {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if gi == 0 || gj == 0 {
			return gj == 0 && gi != 0
		}
		return gi < gj
	})
	return groups
}

// prepareGroup moves the next priority group into size buckets.
func (b *Bank) prepareGroup() bool {
	order := b.groupOrder()
	if len(order) == 0 {
		return false
	}
	group := order[0]
	members := b.unsorted[group]
	delete(b.unsorted, group)

	indices := make([]int, 0, len(members))
	for i := range members {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	if b.strategy == model.GroupDescending {
		b.sortDescending(indices)
		b.buckets = [][]int{indices}
	} else {
		b.buckets = b.split(indices)
	}
	return true
}

// sortDescending orders pieces largest first; equal squares fall back to
// natural name order, then index.
func (b *Bank) sortDescending(indices []int) {
	sort.SliceStable(indices, func(i, j int) bool {
		di, dj := b.details[indices[i]], b.details[indices[j]]
		if math.Abs(di.square-dj.square) > 1e-9 {
			return di.square > dj.square
		}
		if di.piece.Name != dj.piece.Name {
			return natural.Less(di.piece.Name, dj.piece.Name)
		}
		return indices[i] < indices[j]
	})
}

// split cuts a group into size buckets. Pieces keep their input order
// inside a bucket.
func (b *Bank) split(indices []int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	squares := make([]float64, len(indices))
	for i, idx := range indices {
		squares[i] = b.details[idx].square
	}
	max, min := floats.Max(squares), floats.Min(squares)

	if b.strategy == model.GroupTwo {
		middle := (max + min) / 2
		var big, small []int
		for _, idx := range indices {
			if b.details[idx].square > middle {
				big = append(big, idx)
			} else {
				small = append(small, idx)
			}
		}
		return [][]int{big, small}
	}

	third := (max - min) / 3
	bigCut, smallCut := max-third, min+third
	var big, middle, small []int
	for _, idx := range indices {
		s := b.details[idx].square
		switch {
		case s >= bigCut:
			big = append(big, idx)
		case s <= smallCut:
			small = append(small, idx)
		default:
			middle = append(middle, idx)
		}
	}
	return [][]int{big, middle, small}
}
