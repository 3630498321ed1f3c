package model

import (
	"errors"
	"fmt"
	"time"
)

// GroupingStrategy controls how the bank orders pieces inside a priority group.
type GroupingStrategy string

const (
	GroupThree      GroupingStrategy = "three"      // big, middle, small terciles
	GroupTwo        GroupingStrategy = "two"        // big, small halves
	GroupDescending GroupingStrategy = "descending" // strictly largest first
)

// Margins of the printable area on a paper, in mm.
type Margins struct {
	Left   float64 `json:"left" toml:"left"`
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
}

// LayoutSettings holds every option recognised by the nesting engine.
type LayoutSettings struct {
	PaperWidth  float64 `json:"paper_width" toml:"paper_width"`   // mm
	PaperHeight float64 `json:"paper_height" toml:"paper_height"` // mm
	Margins     Margins `json:"margins" toml:"margins"`
	LayoutWidth float64 `json:"layout_width" toml:"layout_width"` // gap between pieces, mm

	Rotate         bool `json:"rotate" toml:"rotate"`
	RotationNumber int  `json:"rotation_number" toml:"rotation_number"` // discrete angles in 360°

	FollowGrainline     bool             `json:"follow_grainline" toml:"follow_grainline"`
	ManualPriority      bool             `json:"manual_priority" toml:"manual_priority"`
	NestQuantity        bool             `json:"nest_quantity" toml:"nest_quantity"`
	TogetherWithNotches bool             `json:"together_with_notches" toml:"together_with_notches"`
	GroupingStrategy    GroupingStrategy `json:"grouping_strategy" toml:"grouping_strategy"`

	AutoCropLength         bool `json:"auto_crop_length" toml:"auto_crop_length"`
	AutoCropWidth          bool `json:"auto_crop_width" toml:"auto_crop_width"`
	SaveLength             bool `json:"save_length" toml:"save_length"`
	PreferOneSheetSolution bool `json:"prefer_one_sheet_solution" toml:"prefer_one_sheet_solution"`
	UnitePages             bool `json:"unite_pages" toml:"unite_pages"`
	StripOptimization      bool `json:"strip_optimization" toml:"strip_optimization"`
	Multiplier             int  `json:"multiplier" toml:"multiplier"` // strip length multiplier, 1-10

	NestingTime           int     `json:"nesting_time" toml:"nesting_time"`                     // minutes, 1-60
	EfficiencyCoefficient float64 `json:"efficiency_coefficient" toml:"efficiency_coefficient"` // percent, 0 = disabled

	Verbose bool `json:"verbose" toml:"verbose"`
}

// DefaultLayoutSettings returns settings for an A0 portrait sheet.
func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		PaperWidth:       841,
		PaperHeight:      1189,
		Margins:          Margins{Left: 5, Top: 5, Right: 5, Bottom: 5},
		LayoutWidth:      2.5,
		Rotate:           false,
		RotationNumber:   2,
		GroupingStrategy: GroupThree,
		Multiplier:       1,
		NestingTime:      1,
	}
}

// NestingDuration returns the nesting time budget.
func (s LayoutSettings) NestingDuration() time.Duration {
	return time.Duration(s.NestingTime) * time.Minute
}

// PageWidth returns the printable width.
func (s LayoutSettings) PageWidth() float64 {
	return s.PaperWidth - s.Margins.Left - s.Margins.Right
}

// PageHeight returns the printable height.
func (s LayoutSettings) PageHeight() float64 {
	return s.PaperHeight - s.Margins.Top - s.Margins.Bottom
}

// Validate checks the ranges of every option.
func (s LayoutSettings) Validate() error {
	var errs []error
	if s.PaperWidth <= 0 || s.PaperHeight <= 0 {
		errs = append(errs, fmt.Errorf("paper size must be positive, got %.1fx%.1f", s.PaperWidth, s.PaperHeight))
	}
	if s.PageWidth() <= 0 || s.PageHeight() <= 0 {
		errs = append(errs, errors.New("margins leave no printable area"))
	}
	if s.LayoutWidth <= 0 {
		errs = append(errs, fmt.Errorf("layout width must be positive, got %.2f", s.LayoutWidth))
	}
	if s.RotationNumber < 1 {
		errs = append(errs, fmt.Errorf("rotation number must be at least 1, got %d", s.RotationNumber))
	}
	if s.Multiplier < 1 || s.Multiplier > 10 {
		errs = append(errs, fmt.Errorf("multiplier must be within 1-10, got %d", s.Multiplier))
	}
	if s.NestingTime < 1 || s.NestingTime > 60 {
		errs = append(errs, fmt.Errorf("nesting time must be within 1-60 minutes, got %d", s.NestingTime))
	}
	if s.EfficiencyCoefficient < 0 || s.EfficiencyCoefficient > 100 {
		errs = append(errs, fmt.Errorf("efficiency coefficient must be within 0-100, got %.1f", s.EfficiencyCoefficient))
	}
	switch s.GroupingStrategy {
	case GroupThree, GroupTwo, GroupDescending:
	default:
		errs = append(errs, fmt.Errorf("unknown grouping strategy %q", s.GroupingStrategy))
	}
	return errors.Join(errs...)
}
