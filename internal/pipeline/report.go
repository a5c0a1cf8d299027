package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFilename is the manifest written into the output directory.
const ReportFilename = "report.json"

// Report is the JSON manifest of one batch run.
type Report struct {
	RunID    string       `json:"runId"`
	Backend  string       `json:"backend"`
	Stages   []string     `json:"stages"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Images   []ImageEntry `json:"images"`
}

// ImageEntry records one processed image.
type ImageEntry struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	SrcWidth  int    `json:"srcWidth"`
	SrcHeight int    `json:"srcHeight"`
	OutSide   int    `json:"outSide"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// WriteReport stores the manifest atomically (temp file + rename) so a
// crash never leaves a truncated report behind.
func WriteReport(dir string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, ReportFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// ReadReport loads a previously written manifest.
func ReadReport(dir string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReportFilename))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
