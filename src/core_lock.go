package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".photo-organizer.lock"

// lockDestination takes an exclusive advisory lock on the destination root.
// The returned func releases it and removes the lock file.
func lockDestination(dest string) (func(), error) {
	fl := flock.New(filepath.Join(dest, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock destination: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDestinationLocked, dest)
	}
	return func() {
		fl.Unlock()
		os.Remove(fl.Path())
	}, nil
}
