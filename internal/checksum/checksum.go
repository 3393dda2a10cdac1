// Package checksum fingerprints post contents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tracker remembers the last digest seen per path. It is goroutine-safe.
type Tracker struct {
	mu   sync.Mutex
	sums map[string]string
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{sums: make(map[string]string)}
}

// Changed records data for path and reports whether it differs from what was
// recorded before. The first observation of a path counts as a change.
func (t *Tracker) Changed(path string, data []byte) bool {
	sum := Sum(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sums[path] == sum {
		return false
	}
	t.sums[path] = sum
	return true
}

// Forget drops the recorded digest for path.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	delete(t.sums, path)
	t.mu.Unlock()
}
