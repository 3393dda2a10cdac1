package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/starford/postmigrate/internal/apperr"
)

// placeholderTime is appended to every date because legacy posts carry no
// time of day.
const placeholderTime = "T22:40:32.169Z"

// Options are the per-run switches that shape destinations and content.
// Every combination is valid.
type Options struct {
	ResultsDir   string `yaml:"results_dir"`
	NoFolders    bool   `yaml:"no_folders"`
	KeepDates    bool   `yaml:"keep_dates"`
	NoURLReplace bool   `yaml:"no_url_replace"`
	NoSlug       bool   `yaml:"no_slug"`
}

// Destination is where a single post ends up and the metadata injected into it.
type Destination struct {
	OutputPath   string
	RetainedName string
	Timestamp    string
	Slug         string
}

// Timestamp formats d with the fixed placeholder time of day.
func (d ParsedDate) Timestamp() string {
	return d.Year + "-" + d.Month + "-" + d.Day + placeholderTime
}

// Dir returns the directory that must exist before OutputPath is written.
func (d Destination) Dir() string {
	return filepath.Dir(d.OutputPath)
}

// PlanDestination computes the destination for the post file name under
// opts. It is a pure function of its inputs and touches no file system.
//
// The extension is everything from the first dot onward, so
// "2020-01-01-v1.2-notes.md" plans as "v1".
func PlanDestination(name string, opts Options) (Destination, error) {
	date, ok := ExtractDate(name)
	if !ok {
		return Destination{}, fmt.Errorf("%w in file name %s", apperr.ErrNoDateFound, name)
	}

	nameNoExt := extensionRe.ReplaceAllString(name, "")
	slug := replaceFirst(datePrefixRe, nameNoExt, "")

	retained := slug
	if opts.KeepDates {
		retained = nameNoExt
	}
	if retained == "" {
		return Destination{}, fmt.Errorf("%w: %s", apperr.ErrEmptyName, name)
	}

	var out string
	if opts.NoFolders {
		out = filepath.Join(opts.ResultsDir, retained+".md")
	} else {
		out = filepath.Join(opts.ResultsDir, retained, "index.md")
	}

	return Destination{
		OutputPath:   out,
		RetainedName: retained,
		Timestamp:    date.Timestamp(),
		Slug:         slug,
	}, nil
}
