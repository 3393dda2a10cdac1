package batch

import (
	"fmt"
	"strings"
	"sync"
)

// CollisionPolicy decides what happens when two sources plan the same output.
type CollisionPolicy string

const (
	// CollisionOverwrite lets every claimant write; the last writer wins.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionError fails every claimant after the first.
	CollisionError CollisionPolicy = "error"
)

// ParseCollisionPolicy maps a flag or config value to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CollisionOverwrite, CollisionError:
		return p, nil
	case "":
		return CollisionOverwrite, nil
	default:
		return "", fmt.Errorf("invalid collision policy %q (use 'overwrite' or 'error')", s)
	}
}

// claims tracks which source owns each output path. All methods are
// goroutine-safe.
type claims struct {
	mu     sync.Mutex
	owners map[string]string // output path → source path
}

func newClaims() *claims {
	return &claims{owners: make(map[string]string)}
}

// claim registers source as the owner of output unless another source got
// there first, in which case that owner is returned with ok=false.
func (c *claims) claim(output, source string) (owner string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, exists := c.owners[output]
	if !exists || owner == source {
		c.owners[output] = source
		return source, true
	}
	return owner, false
}
