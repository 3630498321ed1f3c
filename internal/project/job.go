package project

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/PatternNest/internal/model"
)

// Job is a nesting job file: the layout settings and the pieces to nest.
type Job struct {
	Name     string               `json:"name" toml:"name"`
	Settings model.LayoutSettings `json:"settings" toml:"settings"`
	Pieces   []model.Piece        `json:"pieces" toml:"pieces"`
}

// NewJob creates an empty job that inherits the user's saved defaults.
func NewJob(name string, config model.AppConfig) Job {
	settings := model.DefaultLayoutSettings()
	config.ApplyToSettings(&settings)
	return Job{Name: name, Settings: settings, Pieces: []model.Piece{}}
}

// SaveJob writes a job as TOML when the path ends in .toml, JSON otherwise.
func SaveJob(path string, job Job) error {
	if err := writeFile(path, job); err != nil {
		return fmt.Errorf("failed to save job %s: %w", path, err)
	}
	return nil
}

// LoadJob reads a job file. Settings missing from the file take their
// default values; pieces without an ID get one and a zero quantity
// becomes one.
func LoadJob(path string) (Job, error) {
	job := Job{Settings: model.DefaultLayoutSettings()}
	if err := readFile(path, &job); err != nil {
		return Job{}, fmt.Errorf("failed to load job %s: %w", path, err)
	}
	for i := range job.Pieces {
		p := &job.Pieces[i]
		if p.ID == "" {
			p.ID = uuid.New().String()[:8]
		}
		if p.Quantity < 1 {
			p.Quantity = 1
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("Piece %d", i+1)
		}
	}
	if job.Pieces == nil {
		job.Pieces = []model.Piece{}
	}
	return job, nil
}
