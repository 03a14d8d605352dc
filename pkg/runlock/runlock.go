// Package runlock serializes ingestion runs across processes with an
// advisory file lock.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
)

// Lock is a held run lock. Release it with Unlock.
type Lock struct {
	fl *flock.Flock
}

// Acquire tries to take the named lock without blocking. A lock already held
// by another process returns apperrors.ErrLockHeld so callers can map it to a
// distinct exit path instead of a generic failure.
func Acquire(dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}

	fl := flock.New(filepath.Join(dir, name+".lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %s: %w", name, err)
	}
	if !locked {
		return nil, apperrors.ErrLockHeld
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. Safe to call once per acquired lock.
func (l *Lock) Unlock() error {
	return l.fl.Unlock()
}
