// Package storage defines the output-root file-system abstraction.
package storage

// Provider is the interface for output file operations. All paths are
// relative to the output root.
type Provider interface {
	// Rel maps a path under the root to a root-relative path.
	Rel(path string) (string, error)
	// EnsureDir creates dir and its parents; existing directories are fine.
	EnsureDir(dir string) error
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}

var _ Provider = (*FS)(nil)
