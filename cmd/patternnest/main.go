// PatternNest — automatic nesting of garment pattern pieces
//
// A batch tool that lays out pattern pieces on paper or fabric sheets,
// refining the layout until the time budget or the efficiency target is
// reached.
//
// Build:
//   go build -o patternnest ./cmd/patternnest
//
// Usage:
//   patternnest -job shirt.toml -out shirt-layout.json
//   patternnest -import pieces.csv -compare
//   patternnest -import pattern.dxf -save-job pattern.toml -log

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/piwi3910/PatternNest/internal/engine"
	"github.com/piwi3910/PatternNest/internal/importer"
	"github.com/piwi3910/PatternNest/internal/model"
	"github.com/piwi3910/PatternNest/internal/project"
)

// exit codes outside the LayoutError range
const (
	exitUsage = 2
	exitIO    = 74 // EX_IOERR
)

func main() {
	opt, err := parseCLIOpts(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "patternnest: %v\n", err)
		}
		os.Exit(exitUsage)
	}

	if opt.doLog {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	os.Exit(run(opt))
}

func run(opt CLIOpts) int {
	configPath := opt.configPath
	if configPath == "" {
		configPath = project.DefaultConfigPath()
	}
	config, err := project.LoadAppConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Couldn't read config %s, using defaults: %v\n", configPath, err)
		config = model.DefaultAppConfig()
	}

	job, code := loadJob(opt, config)
	if code != 0 {
		return code
	}
	job.Settings.Verbose = job.Settings.Verbose || opt.doLog || config.Verbose

	if opt.saveJob != "" {
		if err := project.SaveJob(opt.saveJob, job); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return exitIO
		}
		log.Printf("Saved job to %s\n", opt.saveJob)
	}

	if opt.list {
		listPieces(os.Stdout, job.Pieces)
		return 0
	}

	if opt.compare {
		results := engine.CompareScenarios(engine.BuildDefaultScenarios(job.Settings), job.Pieces)
		printComparison(os.Stdout, results)
		return 0
	}

	result, err := nest(opt, job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Nesting failed: %v\n", err)
		return result.State.ExitCode()
	}
	if result.State == model.Timeout {
		fmt.Fprintf(os.Stderr, "%s, keeping the best layout found\n", result.State.Message())
	}
	printSummary(os.Stdout, result)

	if opt.outPath != "" {
		if err := project.WriteResult(opt.outPath, job, result); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return exitIO
		}
		fmt.Printf("Result written to %s\n", opt.outPath)
	}

	if opt.jobPath != "" {
		if abs, err := filepath.Abs(opt.jobPath); err == nil {
			project.RememberJob(&config, abs)
			if err := project.SaveAppConfig(configPath, config); err != nil {
				log.Printf("Couldn't update recent jobs: %v\n", err)
			}
		}
	}
	return result.State.ExitCode()
}

// loadJob builds the job from a job file, an imported piece list, or both.
func loadJob(opt CLIOpts, config model.AppConfig) (project.Job, int) {
	var job project.Job
	if opt.jobPath != "" {
		var err error
		job, err = project.LoadJob(opt.jobPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return project.Job{}, exitIO
		}
	} else {
		name := strings.TrimSuffix(filepath.Base(opt.importPath), filepath.Ext(opt.importPath))
		job = project.NewJob(name, config)
	}

	if opt.importPath != "" {
		res := importer.ImportFile(opt.importPath)
		for _, w := range res.Warnings {
			log.Printf("import: %s\n", w)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "import: %s\n", e)
		}
		if len(res.Pieces) == 0 {
			fmt.Fprintf(os.Stderr, "No pieces imported from %s\n", opt.importPath)
			return project.Job{}, model.PrepareLayoutError.ExitCode()
		}
		job.Pieces = append(job.Pieces, res.Pieces...)
	}
	return job, 0
}

// nest runs the generator, aborting on SIGINT or after -abort-after.
func nest(opt CLIOpts, job project.Job) (model.LayoutResult, error) {
	gen := engine.NewGenerator(job.Settings)
	gen.SetProgress(func(p model.Progress) {
		log.Printf("pass %d after %s: shift %.3f mm, best %d sheets at %.2f%%\n",
			p.Pass, p.Elapsed.Round(time.Millisecond), p.Shift, p.PaperCount, p.Efficiency)
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt:
			log.Println("Interrupted, stopping")
			gen.Abort()
		case <-done:
		}
	}()

	if opt.abortAfter > 0 {
		timer := time.AfterFunc(opt.abortAfter, gen.Abort)
		defer timer.Stop()
	}

	log.Printf("Nesting %d pieces on %.0f x %.0f mm\n", len(job.Pieces), job.Settings.PaperWidth, job.Settings.PaperHeight)
	return gen.Generate(job.Pieces)
}
