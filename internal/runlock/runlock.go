// Package runlock serializes runs that write into the same output
// directory. Two concurrent stitch runs would race on the shared
// {prefix}_clip_{n}.mp4 names and corrupt each other's resume state.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".vidstitch.lock"

// Lock guards an output directory with an advisory file lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for dir, failing immediately if another run holds
// it. Callers must Release when the run ends.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run is already writing to %s", dir)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
