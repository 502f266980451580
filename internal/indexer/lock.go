package indexer

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// processLock is a cross-process exclusive lock over a single folder's
// storage directory, so a CLI invocation and an MCP server process on the
// same machine never run overlapping transactions. Adapted from the
// teacher's internal/embed/lock.go FileLock, narrowed to the single
// non-blocking TryLock/Unlock pair the indexer needs.
type processLock struct {
	fl *flock.Flock
}

func newProcessLock(storageDir string) (*processLock, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, err
	}
	return &processLock{fl: flock.New(filepath.Join(storageDir, ".lock"))}, nil
}

// tryLock attempts to acquire the lock without blocking, returning false
// (no error) if another process currently holds it.
func (l *processLock) tryLock() (bool, error) {
	return l.fl.TryLock()
}

func (l *processLock) unlock() error {
	return l.fl.Unlock()
}
