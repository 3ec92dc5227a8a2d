package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file created in the directory being organized.
const LockName = ".media-organizer.lock"

// ErrLocked is returned when another run already holds the lock.
var ErrLocked = errors.New("another run is already organizing this directory")

// Lock is an exclusive advisory lock on a directory.
type Lock struct {
	fl *flock.Flock
}

// LockDir takes the lock for dir without blocking.
func LockDir(dir string) (*Lock, error) {
	fl := flock.New(filepath.Join(dir, LockName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", dir, ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Unlock releases the lock and removes the lock file.
func (l *Lock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(l.fl.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
