package model

import (
	"fmt"
	"time"
)

// LayoutError is the terminal state of a nesting run.
type LayoutError int

const (
	NoError LayoutError = iota
	PrepareLayoutError
	EmptyPaperError
	Timeout
	ProcessStoped
	TerminatedByException
)

func (e LayoutError) String() string {
	switch e {
	case NoError:
		return "NoError"
	case PrepareLayoutError:
		return "PrepareLayoutError"
	case EmptyPaperError:
		return "EmptyPaperError"
	case Timeout:
		return "Timeout"
	case ProcessStoped:
		return "ProcessStoped"
	case TerminatedByException:
		return "TerminatedByException"
	default:
		return fmt.Sprintf("LayoutError(%d)", int(e))
	}
}

// Error makes LayoutError usable with errors.Is.
func (e LayoutError) Error() string {
	return e.Message()
}

// Message returns the user facing description of the state.
func (e LayoutError) Message() string {
	switch e {
	case NoError:
		return "layout finished"
	case PrepareLayoutError:
		return "couldn't prepare data for creation layout: check the gap width and the piece list"
	case EmptyPaperError:
		return "one or more pieces are bigger than the paper"
	case Timeout:
		return "timeout: the nesting time budget ran out"
	case ProcessStoped:
		return "process has been stopped"
	case TerminatedByException:
		return "process has been terminated by an internal error"
	default:
		return "unknown layout state"
	}
}

// MarshalText writes the state by name.
func (e LayoutError) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (e *LayoutError) UnmarshalText(text []byte) error {
	for s := NoError; s <= TerminatedByException; s++ {
		if s.String() == string(text) {
			*e = s
			return nil
		}
	}
	return fmt.Errorf("unknown layout state %q", text)
}

// ExitCode maps a state to the batch-mode process exit code.
func (e LayoutError) ExitCode() int {
	switch e {
	case NoError, Timeout:
		return 0
	case PrepareLayoutError:
		return 65 // EX_DATAERR
	case EmptyPaperError:
		return 66
	case ProcessStoped:
		return 67
	case TerminatedByException:
		return 70 // EX_SOFTWARE
	default:
		return 1
	}
}

// Placement is one piece resolved onto a sheet.
type Placement struct {
	PieceID   string    `json:"piece_id"`
	Name      string    `json:"name"`
	Copy      int       `json:"copy"` // 0-based copy index after quantity expansion
	Transform Transform `json:"transform"`
	Mirrored  bool      `json:"mirrored"`
	Outline   Outline   `json:"outline"` // resolved detail boundary in sheet coordinates
	Min       Point2D   `json:"min"`
	Max       Point2D   `json:"max"`
	Area      float64   `json:"area"`
}

// SheetResult is one output page with its placements.
type SheetResult struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Margins    Margins     `json:"margins"`
	Placements []Placement `json:"placements"`
}

// UsedArea returns the total area of the placed pieces.
func (sr SheetResult) UsedArea() float64 {
	var total float64
	for _, p := range sr.Placements {
		total += p.Area
	}
	return total
}

// BoundingBox returns the extent of all placements.
func (sr SheetResult) BoundingBox() (min, max Point2D) {
	for i, p := range sr.Placements {
		if i == 0 {
			min, max = p.Min, p.Max
			continue
		}
		min.X = minf(min.X, p.Min.X)
		min.Y = minf(min.Y, p.Min.Y)
		max.X = maxf(max.X, p.Max.X)
		max.Y = maxf(max.Y, p.Max.Y)
	}
	return min, max
}

// Efficiency returns used area over the bounding box of the placements.
func (sr SheetResult) Efficiency() float64 {
	min, max := sr.BoundingBox()
	box := (max.X - min.X) * (max.Y - min.Y)
	if box <= 0 {
		return 0
	}
	return sr.UsedArea() / box * 100.0
}

// LayoutResult holds the full nesting solution.
type LayoutResult struct {
	Sheets     []SheetResult `json:"sheets"`
	Efficiency float64       `json:"efficiency"` // percent
	State      LayoutError   `json:"state"`
	Passes     int           `json:"passes"`
}

// PaperCount returns the number of output pages.
func (lr LayoutResult) PaperCount() int {
	return len(lr.Sheets)
}

// PlacedCount returns the number of placed pieces across all pages.
func (lr LayoutResult) PlacedCount() int {
	n := 0
	for _, s := range lr.Sheets {
		n += len(s.Placements)
	}
	return n
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Progress is reported after every nesting pass.
type Progress struct {
	Elapsed    time.Duration
	Pass       int
	Shift      float64 // anchor spacing of the pass just finished, mm
	PaperCount int     // best solution so far
	Efficiency float64 // best solution so far, percent
}
