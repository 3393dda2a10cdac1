// Package models defines the domain types for postmigrate.
package models

import "time"

// File statuses.
const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

// FileResult is the outcome of migrating one source post.
type FileResult struct {
	Source    string   `yaml:"source"`
	Output    string   `yaml:"output,omitempty"`
	Title     string   `yaml:"title,omitempty"`
	Slug      string   `yaml:"slug,omitempty"`
	Timestamp string   `yaml:"date,omitempty"`
	Checksum  string   `yaml:"checksum,omitempty"`
	Status    string   `yaml:"status"`
	Error     string   `yaml:"error,omitempty"`
	Warnings  []string `yaml:"warnings,omitempty"`
}

// OK reports whether the file was converted.
func (r FileResult) OK() bool {
	return r.Status == StatusConverted
}

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID      int64        `yaml:"run_id,omitempty"`
	Pattern    string       `yaml:"pattern"`
	ResultsDir string       `yaml:"results_dir"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Total      int          `yaml:"total"`
	Converted  int          `yaml:"converted"`
	Failed     int          `yaml:"failed"`
	Files      []FileResult `yaml:"files"`
}

// Add appends r and updates the counters.
func (s *RunSummary) Add(r FileResult) {
	s.Files = append(s.Files, r)
	s.Total++
	if r.OK() {
		s.Converted++
	} else {
		s.Failed++
	}
}
