package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/PatternNest/internal/model"
)

func sampleJob() Job {
	job := NewJob("shirt", model.DefaultAppConfig())
	front := model.NewRectPiece("Front", 300, 500, 2)
	front.Grainline = model.Grainline{
		Enabled: true,
		Start:   model.Point2D{X: 150, Y: 50},
		End:     model.Point2D{X: 150, Y: 450},
		Arrows:  model.ArrowsTwoWays,
	}
	front.Priority = 1
	sleeve := model.NewPiece("Sleeve", model.Outline{{X: 0, Y: 0}, {X: 0, Y: 400}, {X: 250, Y: 400}, {X: 200, Y: 0}}, 2)
	sleeve.Symmetrical = true
	sleeve.ForbidFlipping = true
	sleeve.Passmarks = []model.Segment{{Start: model.Point2D{X: 0, Y: 200}, End: model.Point2D{X: -5, Y: 200}}}
	job.Pieces = append(job.Pieces, front, sleeve)
	job.Settings.Rotate = true
	job.Settings.RotationNumber = 4
	return job
}

func TestSaveAndLoadJob(t *testing.T) {
	for _, name := range []string{"shirt.json", "shirt.toml"} {
		path := filepath.Join(t.TempDir(), name)
		job := sampleJob()

		if err := SaveJob(path, job); err != nil {
			t.Fatalf("%s: SaveJob failed: %v", name, err)
		}
		loaded, err := LoadJob(path)
		if err != nil {
			t.Fatalf("%s: LoadJob failed: %v", name, err)
		}

		if loaded.Name != "shirt" {
			t.Errorf("%s: expected name shirt, got %s", name, loaded.Name)
		}
		if !loaded.Settings.Rotate || loaded.Settings.RotationNumber != 4 {
			t.Errorf("%s: rotation settings lost: %+v", name, loaded.Settings)
		}
		if len(loaded.Pieces) != 2 {
			t.Fatalf("%s: expected 2 pieces, got %d", name, len(loaded.Pieces))
		}
		front, sleeve := loaded.Pieces[0], loaded.Pieces[1]
		if front.ID != job.Pieces[0].ID {
			t.Errorf("%s: piece ID changed from %s to %s", name, job.Pieces[0].ID, front.ID)
		}
		if !front.Grainline.Enabled || front.Grainline.Arrows != model.ArrowsTwoWays {
			t.Errorf("%s: grainline lost: %+v", name, front.Grainline)
		}
		if front.Priority != 1 {
			t.Errorf("%s: expected priority 1, got %d", name, front.Priority)
		}
		if len(sleeve.Outline) != 4 || sleeve.Outline[3].X != 200 {
			t.Errorf("%s: sleeve outline mangled: %v", name, sleeve.Outline)
		}
		if !sleeve.Symmetrical || !sleeve.ForbidFlipping {
			t.Errorf("%s: flip flags lost", name)
		}
		if len(sleeve.Passmarks) != 1 {
			t.Errorf("%s: expected 1 passmark, got %d", name, len(sleeve.Passmarks))
		}
	}
}

func TestLoadJobAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.toml")
	data := `name = "minimal"

[settings]
layout_width = 3.0

[[pieces]]
outline = [{x = 0.0, y = 0.0}, {x = 0.0, y = 10.0}, {x = 10.0, y = 10.0}]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}
	defaults := model.DefaultLayoutSettings()
	if job.Settings.LayoutWidth != 3.0 {
		t.Errorf("expected layout width 3.0, got %f", job.Settings.LayoutWidth)
	}
	if job.Settings.PaperWidth != defaults.PaperWidth {
		t.Errorf("expected default paper width %f, got %f", defaults.PaperWidth, job.Settings.PaperWidth)
	}
	if job.Settings.GroupingStrategy != defaults.GroupingStrategy {
		t.Errorf("expected default grouping, got %q", job.Settings.GroupingStrategy)
	}
	p := job.Pieces[0]
	if p.ID == "" {
		t.Error("expected a generated piece ID")
	}
	if p.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", p.Quantity)
	}
	if p.Name != "Piece 1" {
		t.Errorf("expected generated name, got %q", p.Name)
	}
}

func TestLoadJobErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadJob(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing job file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{pieces: ["), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadJob(bad)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("expected the path in the error, got %v", err)
	}
}

func TestNewJobUsesAppConfig(t *testing.T) {
	cfg := model.DefaultAppConfig()
	cfg.DefaultPaperWidth = 1500
	cfg.DefaultNestingTime = 3

	job := NewJob("pants", cfg)
	if job.Settings.PaperWidth != 1500 {
		t.Errorf("expected paper width 1500, got %f", job.Settings.PaperWidth)
	}
	if job.Settings.NestingTime != 3 {
		t.Errorf("expected nesting time 3, got %d", job.Settings.NestingTime)
	}
	if job.Pieces == nil {
		t.Error("Pieces should not be nil")
	}
}
