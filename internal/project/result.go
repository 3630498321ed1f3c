package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/PatternNest/internal/model"
)

// resultVersion is the format version written into result files.
const resultVersion = "1.0.0"

// ResultFile is the top-level structure of a saved nesting result.
type ResultFile struct {
	Version   string               `json:"version"`
	CreatedAt string               `json:"created_at"`
	Job       string               `json:"job"`
	Settings  model.LayoutSettings `json:"settings"`
	Result    model.LayoutResult   `json:"result"`
}

// WriteResult saves a nesting result together with the job settings that
// produced it as a single JSON file.
func WriteResult(path string, job Job, result model.LayoutResult) error {
	out := ResultFile{
		Version:   resultVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Job:       job.Name,
		Settings:  job.Settings,
		Result:    result,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// ReadResult reads a result file written by WriteResult.
func ReadResult(path string) (ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultFile{}, fmt.Errorf("failed to read result file: %w", err)
	}
	var rf ResultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return ResultFile{}, fmt.Errorf("failed to parse result file: %w", err)
	}
	if rf.Version == "" {
		return ResultFile{}, fmt.Errorf("invalid result file: missing version field")
	}
	return rf, nil
}
