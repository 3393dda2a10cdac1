// Package report renders run summaries for people and tools.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/starford/postmigrate/internal/models"
)

// SummaryLine returns the one-line aggregate printed at the end of a run.
func SummaryLine(s models.RunSummary) string {
	return fmt.Sprintf("%d of %d files successfully converted!", s.Converted, s.Total)
}

// WriteManifest writes s as a YAML document to path, creating parent
// directories as needed.
func WriteManifest(path string, s models.RunSummary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create manifest: %w", err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close manifest: %w", err)
	}
	return nil
}

// Encode writes s as YAML to w.
func Encode(w io.Writer, s models.RunSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return enc.Close()
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (models.RunSummary, error) {
	var s models.RunSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("report: read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("report: parse manifest: %w", err)
	}
	return s, nil
}

// PrintRun writes a human-readable listing of s to w.
func PrintRun(w io.Writer, s models.RunSummary) {
	fmt.Fprintf(w, "run %d  %s  pattern=%q  output=%q\n",
		s.RunID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Pattern, s.ResultsDir)
	for _, f := range s.Files {
		if f.OK() {
			fmt.Fprintf(w, "  ok    %s -> %s\n", f.Source, f.Output)
		} else {
			fmt.Fprintf(w, "  FAIL  %s: %s\n", f.Source, f.Error)
		}
		for _, warn := range f.Warnings {
			fmt.Fprintf(w, "        warning: %s\n", warn)
		}
	}
	fmt.Fprintln(w, SummaryLine(s))
}
