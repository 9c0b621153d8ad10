// Package lockfile enforces the single-running-instance rule. Two bot
// processes polling the same token would split the update stream and corrupt
// in-memory conversation state, so the lock must be held for the whole
// process lifetime.
package lockfile

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Guard is an OS-level exclusive lock on a file path.
type Guard struct {
	fl *flock.Flock
}

// New prepares a guard for the given lock file path without acquiring it.
func New(path string) *Guard {
	return &Guard{fl: flock.New(path)}
}

// Acquire takes the lock without blocking. It returns an error when another
// process already holds it.
func (g *Guard) Acquire() error {
	locked, err := g.fl.TryLock()
	if err != nil {
		return fmt.Errorf("instance lock %s: %w", g.fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("instance lock %s: already held by another process", g.fl.Path())
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (g *Guard) Release() error {
	return g.fl.Unlock()
}

// Path returns the lock file location.
func (g *Guard) Path() string {
	return g.fl.Path()
}
