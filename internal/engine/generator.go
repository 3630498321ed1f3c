package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// Generator runs the anytime nesting loop: it nests every piece again and
// again with finer settings, keeping the best solution, until the time
// budget, the efficiency target or the refinement floor is reached.
// A Generator runs once.
type Generator struct {
	settings model.LayoutSettings
	bank     *Bank
	progress func(model.Progress)

	stop     atomic.Bool
	aborted  atomic.Bool
	timedOut atomic.Bool

	stripWidth  float64
	stripHeight float64
	stripped    bool
}

// NewGenerator creates a generator for the given settings.
func NewGenerator(s model.LayoutSettings) *Generator {
	return &Generator{settings: s, bank: NewBank(s)}
}

// SetProgress installs a callback invoked after every pass.
func (g *Generator) SetProgress(fn func(model.Progress)) {
	g.progress = fn
}

// Abort requests a user stop. The run ends with ProcessStoped.
func (g *Generator) Abort() {
	g.aborted.Store(true)
	g.stop.Store(true)
}

// Timeout ends the run early; the best solution so far is kept.
func (g *Generator) Timeout() {
	g.timedOut.Store(true)
	g.stop.Store(true)
}

// Generate nests the pieces. Fatal states come back as an error wrapping
// the matching model.LayoutError; a timeout with a usable solution is not
// an error and is reported in the result state.
func (g *Generator) Generate(pieces []model.Piece) (model.LayoutResult, error) {
	s := g.settings
	start := time.Now()

	if err := s.Validate(); err != nil {
		return g.fail(fmt.Errorf("%w: %w", model.PrepareLayoutError, err))
	}
	g.bank.SetDetails(pieces)
	if err := g.bank.PrepareDetails(s.TogetherWithNotches); err != nil {
		return g.fail(err)
	}

	pageW, pageH := s.PageWidth(), s.PageHeight()
	g.stripWidth, g.stripHeight, g.stripped = g.stripDimensions(pageW, pageH)
	if g.stripped {
		g.logf("strip optimization: %.1f x %.1f mm strips", g.stripWidth, g.stripHeight)
	}

	policy := NewRetryPolicy(s, g.bank.IsRotationNeeded(s.FollowGrainline))
	timer := time.AfterFunc(s.NestingDuration(), g.Timeout)
	defer timer.Stop()

	var best []*Paper
	pass := 0
	for !g.stop.Load() {
		pass++
		shift := policy.Shift
		papers, state, err := g.generation(policy)
		if err != nil {
			return g.fail(err)
		}
		if g.stop.Load() {
			break
		}

		outcome := PassOutcome{State: state, PaperCount: len(papers), Efficiency: totalEfficiency(papers)}
		action, keep := policy.Next(outcome)
		if keep {
			best = papers
		}
		g.logf("pass %d: shift %.3f mm, rotation %v/%d, %s, %d papers, %.2f%% -> %s",
			pass, shift, policy.Rotate, policy.RotationNumber, state.String(), outcome.PaperCount, outcome.Efficiency, action)
		g.report(start, pass, shift, policy)
		if action == ActionStop {
			break
		}
	}

	switch {
	case g.aborted.Load():
		return g.fail(model.ProcessStoped)
	case !policy.HasResult() && g.timedOut.Load():
		return g.fail(model.Timeout)
	case !policy.HasResult():
		return g.fail(model.EmptyPaperError)
	}

	state := model.NoError
	if g.timedOut.Load() {
		state = model.Timeout
	}
	_, efficiency := policy.Best()
	return model.LayoutResult{
		Sheets:     g.finish(best, pageW, pageH),
		Efficiency: efficiency,
		State:      state,
		Passes:     pass,
	}, nil
}

// generation runs one full nesting pass with the policy's current knobs.
func (g *Generator) generation(policy *RetryPolicy) ([]*Paper, model.LayoutError, error) {
	if err := g.bank.PrepareUnsorted(); err != nil {
		return nil, model.PrepareLayoutError, err
	}
	opts := PaperOptions{
		Shift:           policy.Shift,
		Rotate:          policy.Rotate,
		RotationNumber:  policy.RotationNumber,
		FollowGrainline: g.settings.FollowGrainline,
		SaveLength:      g.settings.SaveLength,
	}

	var papers []*Paper
	for g.bank.AllDetailsCount() > 0 {
		paper := NewPaper(g.stripWidth, g.stripHeight, opts)
		for {
			if g.stop.Load() {
				return nil, model.NoError, nil
			}
			idx := g.bank.GetNext()
			if idx == NoMoreDetails {
				break
			}
			ok, err := paper.Arrange(g.bank.Detail(idx), &g.stop)
			if err != nil {
				return nil, model.TerminatedByException, err
			}
			if ok {
				g.bank.Arranged(idx)
			} else {
				g.bank.NotArranged(idx)
			}
		}
		if paper.Count() == 0 {
			return nil, model.EmptyPaperError, nil
		}
		papers = append(papers, paper)
		if n := g.bank.FailedToArrange(); n > 0 {
			g.logf("paper %d: %d pieces deferred to the next paper", len(papers), n)
		}
		g.bank.NextRound()
	}
	return papers, model.NoError, nil
}

// stripDimensions splits the growth axis into equal strips when strip
// optimization is on and at least two strips of the biggest piece fit.
func (g *Generator) stripDimensions(pageW, pageH float64) (float64, float64, bool) {
	s := g.settings
	if !s.StripOptimization {
		return pageW, pageH, false
	}
	b := g.bank.BiggestDiagonal()*float64(s.Multiplier) + s.LayoutWidth
	if pageH >= pageW {
		if pageH >= 2*b {
			return pageW, pageH / math.Floor(pageH/b), true
		}
	} else if pageW >= 2*b {
		return pageW / math.Floor(pageW/b), pageH, true
	}
	return pageW, pageH, false
}

// finish turns the kept papers into output sheets.
func (g *Generator) finish(papers []*Paper, pageW, pageH float64) []model.SheetResult {
	s := g.settings
	portrait := pageH >= pageW
	pages := make([]page, len(papers))
	for i, p := range papers {
		pages[i] = pageFromPaper(p)
	}
	if g.stripped {
		pages = gatherStrips(pages, pageW, pageH, s.LayoutWidth)
	}
	if s.AutoCropWidth {
		cropWidth(pages, portrait)
	}
	if s.AutoCropLength {
		cropLength(pages, portrait)
	}
	if s.UnitePages {
		pages = unitePages(pages, portrait, UnitePagesLimit)
	}
	return toSheets(pages, s.Margins)
}

func (g *Generator) report(start time.Time, pass int, shift float64, policy *RetryPolicy) {
	if g.progress == nil {
		return
	}
	count, efficiency := policy.Best()
	g.progress(model.Progress{
		Elapsed:    time.Since(start),
		Pass:       pass,
		Shift:      shift,
		PaperCount: count,
		Efficiency: efficiency,
	})
}

func (g *Generator) fail(err error) (model.LayoutResult, error) {
	state := model.TerminatedByException
	var le model.LayoutError
	if errors.As(err, &le) {
		state = le
	}
	g.logf("nesting failed: %v", err)
	return model.LayoutResult{State: state}, err
}

func (g *Generator) logf(format string, args ...any) {
	if g.settings.Verbose {
		log.Printf(format, args...)
	}
}

// totalEfficiency is the placed area over the summed detail bounds.
func totalEfficiency(papers []*Paper) float64 {
	var used, box float64
	for _, p := range papers {
		used += p.UsedArea()
		box += geometry.RectArea(p.BoundingRectOfDetails())
	}
	if box <= 0 {
		return 0
	}
	return used / box * 100.0
}
