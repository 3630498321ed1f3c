package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/maruel/natural"

	"github.com/piwi3910/PatternNest/internal/engine"
	"github.com/piwi3910/PatternNest/internal/model"
)

type CLIOpts struct {
	doLog      bool
	configPath string
	jobPath    string
	importPath string
	saveJob    string
	outPath    string
	compare    bool
	list       bool
	abortAfter time.Duration
}

func parseCLIOpts(args []string) (CLIOpts, error) {
	var opt CLIOpts
	fs := flag.NewFlagSet("patternnest", flag.ContinueOnError)
	fs.BoolVar(&opt.doLog, "log", false, "Print nesting passes and progress to stderr")
	fs.StringVar(&opt.configPath, "config", "", "Application config file (default ~/.patternnest/config.toml)")
	fs.StringVar(&opt.jobPath, "job", "", "Job file with settings and pieces (.json or .toml)")
	fs.StringVar(&opt.importPath, "import", "", "Import pieces from a .csv, .xlsx or .dxf file")
	fs.StringVar(&opt.saveJob, "save-job", "", "Save the loaded job, including imported pieces, to this file")
	fs.StringVar(&opt.outPath, "out", "", "Write the nesting result as JSON to this file")
	fs.BoolVar(&opt.compare, "compare", false, "Nest with several setting variants and compare them")
	fs.BoolVar(&opt.list, "list", false, "List the pieces of the job and exit")
	fs.DurationVar(&opt.abortAfter, "abort-after", 0, "Stop nesting after this long, as if the user cancelled")
	if err := fs.Parse(args); err != nil {
		return CLIOpts{}, err
	}
	if opt.jobPath == "" && opt.importPath == "" {
		return CLIOpts{}, fmt.Errorf("either -job or -import is required")
	}
	return opt, nil
}

// sortedNames returns names in natural order, so "Piece 2" comes before "Piece 10".
func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })
	return out
}

func listPieces(w io.Writer, pieces []model.Piece) {
	byName := make(map[string]model.Piece, len(pieces))
	names := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if _, dup := byName[p.Name]; !dup {
			names = append(names, p.Name)
		}
		byName[p.Name] = p
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tQTY\tAREA mm²\tPRIORITY\tGRAIN\tFLIP")
	for _, name := range sortedNames(names) {
		p := byName[name]
		flip := "free"
		switch {
		case p.ForceFlipping:
			flip = "force"
		case p.ForbidFlipping:
			flip = "forbid"
		}
		if p.Symmetrical {
			flip += " (pair)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\t%v\t%s\n", p.Name, p.Quantity, p.Square(), p.Priority, p.Grainline.Enabled, flip)
	}
	tw.Flush()
}

func printSummary(w io.Writer, result model.LayoutResult) {
	fmt.Fprintf(w, "State: %s\n", result.State.String())
	fmt.Fprintf(w, "Sheets: %d, pieces placed: %d, efficiency: %.2f%%, passes: %d\n",
		result.PaperCount(), result.PlacedCount(), result.Efficiency, result.Passes)
	for i, sheet := range result.Sheets {
		names := make([]string, len(sheet.Placements))
		for k, pl := range sheet.Placements {
			names[k] = pl.Name
		}
		fmt.Fprintf(w, "  sheet %d: %.1f x %.1f mm, %d pieces, %.2f%%\n",
			i+1, sheet.Width, sheet.Height, len(sheet.Placements), sheet.Efficiency())
		for _, name := range sortedNames(names) {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tSHEETS\tPLACED\tWASTE\tRESULT")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%s\n", r.Scenario.Name, r.SheetsUsed, r.PlacedCount, r.WastePercent, r.Result.State.String())
	}
	tw.Flush()
}
