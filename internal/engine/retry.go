package engine

import "github.com/piwi3910/PatternNest/internal/model"

const (
	// InitialShift is the anchor spacing of the first pass, in mm.
	InitialShift = 10.0
	// MinShift ends refinement once halving would go below it.
	MinShift = 0.5
	// maxRotationNumber caps how far rotation retries raise the step count.
	maxRotationNumber = 8
)

// RetryAction is the transition chosen after a nesting pass.
type RetryAction int

const (
	// ActionRefine keeps the pass as the new best and halves the shift.
	ActionRefine RetryAction = iota
	// ActionRotate retries with more rotation steps at the same shift.
	ActionRotate
	// ActionHalve retries with half the shift without keeping the pass.
	ActionHalve
	// ActionStop ends the loop.
	ActionStop
)

func (a RetryAction) String() string {
	switch a {
	case ActionRefine:
		return "refine"
	case ActionRotate:
		return "rotate"
	case ActionHalve:
		return "halve"
	default:
		return "stop"
	}
}

// PassOutcome summarises one nesting pass.
type PassOutcome struct {
	State      model.LayoutError // NoError or EmptyPaperError
	PaperCount int
	Efficiency float64
}

// RetryPolicy is the retry state machine of the anytime loop. It owns the
// knobs the next pass runs with and the score of the best pass so far.
type RetryPolicy struct {
	Shift          float64
	Rotate         bool
	RotationNumber int

	rotationAvailable bool
	baseRotate        bool
	baseRotation      int
	maxRotation       int
	target            float64
	preferOneSheet    bool

	hasResult      bool
	bestCount      int
	bestEfficiency float64
	rotateNext     bool // alternates rotation and shift retries after empty papers
}

// NewRetryPolicy starts from the configured rotation settings. Rotation
// retries switch rotation on even when it is configured off.
// rotationNeeded is false when every piece is pinned to its grainline.
func NewRetryPolicy(s model.LayoutSettings, rotationNeeded bool) *RetryPolicy {
	maxRotation := maxRotationNumber
	if s.RotationNumber > maxRotation {
		maxRotation = s.RotationNumber
	}
	return &RetryPolicy{
		Shift:             InitialShift,
		Rotate:            s.Rotate,
		RotationNumber:    s.RotationNumber,
		rotationAvailable: rotationNeeded,
		baseRotate:        s.Rotate,
		baseRotation:      s.RotationNumber,
		maxRotation:       maxRotation,
		target:            s.EfficiencyCoefficient,
		preferOneSheet:    s.PreferOneSheetSolution,
		rotateNext:        true,
	}
}

// HasResult reports whether any pass has been kept.
func (r *RetryPolicy) HasResult() bool {
	return r.hasResult
}

// Best returns the score of the kept pass.
func (r *RetryPolicy) Best() (paperCount int, efficiency float64) {
	return r.bestCount, r.bestEfficiency
}

// TargetReached reports whether the kept pass satisfies the efficiency
// target. A one-sheet preference holds out until a single sheet is used.
func (r *RetryPolicy) TargetReached() bool {
	if !r.hasResult || r.target <= 0 || r.bestEfficiency < r.target {
		return false
	}
	return !r.preferOneSheet || r.bestCount <= 1
}

func (r *RetryPolicy) canRotate() bool {
	return r.rotationAvailable && (!r.Rotate || r.RotationNumber < r.maxRotation)
}

func (r *RetryPolicy) raiseRotation() {
	r.Rotate = true
	r.RotationNumber *= 2
	if r.RotationNumber < 2 {
		r.RotationNumber = 2
	}
	if r.RotationNumber > r.maxRotation {
		r.RotationNumber = r.maxRotation
	}
}

// resetRotation restores the configured rotation, so a new paper count
// gets its own rotation retries.
func (r *RetryPolicy) resetRotation() {
	r.Rotate, r.RotationNumber = r.baseRotate, r.baseRotation
	r.rotateNext = true
}

func (r *RetryPolicy) halve() RetryAction {
	r.Shift /= 2
	if r.Shift < MinShift {
		return ActionStop
	}
	return ActionHalve
}

// Next applies the outcome of a pass. It returns the transition taken and
// whether the pass becomes the new best.
func (r *RetryPolicy) Next(o PassOutcome) (RetryAction, bool) {
	if o.State == model.EmptyPaperError {
		if r.rotateNext && r.canRotate() {
			r.rotateNext = false
			r.raiseRotation()
			return ActionRotate, false
		}
		r.rotateNext = true
		return r.halve(), false
	}

	improved := !r.hasResult ||
		o.PaperCount < r.bestCount ||
		(o.PaperCount == r.bestCount && o.Efficiency > r.bestEfficiency)
	if improved {
		if r.hasResult && o.PaperCount != r.bestCount {
			r.resetRotation()
		}
		r.hasResult = true
		r.bestCount, r.bestEfficiency = o.PaperCount, o.Efficiency
		if r.TargetReached() || r.halve() == ActionStop {
			return ActionStop, true
		}
		return ActionRefine, true
	}
	if r.canRotate() {
		r.raiseRotation()
		return ActionRotate, false
	}
	return r.halve(), false
}
