package engine

import (
	"fmt"

	"github.com/piwi3910/PatternNest/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.LayoutSettings
}

// ComparisonResult holds the nesting result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Result       model.LayoutResult
	Err          error
	SheetsUsed   int
	PlacedCount  int
	WastePercent float64
}

// CompareScenarios runs the generator for each scenario and returns the results
// in scenario order. This enables side-by-side comparison of different
// nesting parameters (e.g., grouping strategies, rotation, gap widths).
func CompareScenarios(scenarios []ComparisonScenario, pieces []model.Piece) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		gen := NewGenerator(scenario.Settings)
		result, err := gen.Generate(pieces)

		cr := ComparisonResult{
			Scenario: scenario,
			Result:   result,
			Err:      err,
		}
		if err == nil {
			cr.SheetsUsed = result.PaperCount()
			cr.PlacedCount = result.PlacedCount()
			cr.WastePercent = 100.0 - result.Efficiency
		}
		results = append(results, cr)
	}

	return results
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.LayoutSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: the other grouping strategies
	for _, strategy := range []model.GroupingStrategy{model.GroupThree, model.GroupTwo, model.GroupDescending} {
		if strategy == base.GroupingStrategy {
			continue
		}
		alt := base
		alt.GroupingStrategy = strategy
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Grouping: %s", strategy),
			Settings: alt,
		})
	}

	// Scenario: toggle rotation
	rot := base
	rot.Rotate = !base.Rotate
	name := "No Rotation"
	if rot.Rotate {
		name = fmt.Sprintf("Rotation x%d", rot.RotationNumber)
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Settings: rot})

	// Scenario: prefer shorter material
	if !base.SaveLength {
		saveLength := base
		saveLength.SaveLength = true
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Save Length",
			Settings: saveLength,
		})
	}

	// Scenario: tighter gap
	if base.LayoutWidth > 1.0 {
		tight := base
		tight.LayoutWidth = base.LayoutWidth * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Gap %.1fmm (half)", tight.LayoutWidth),
			Settings: tight,
		})
	}

	return scenarios
}
