package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// rotatingWriter is an io.Writer that rotates the underlying file once it
// exceeds maxSize bytes, keeping at most maxFiles rotated generations.
// Adapted from the teacher's internal/logging.RotatingWriter, but
// retention works by archiving the full file under a sortable UTC
// timestamp suffix and pruning the oldest archives by lexical order,
// rather than the teacher's numbered rename chain (path.1 -> path.2 ->
// ...) that shifts every generation up by one on each rotation.
type rotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	written int64
}

func newRotatingWriter(path string, maxSizeMB, maxFiles int) (*rotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	w := &rotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "ragdex: log rotation failed: %v\n", err)
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *rotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	_ = w.file.Sync()
	return w.file.Close()
}

func (w *rotatingWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

// rotate closes the current file, archives it under a timestamp suffix,
// prunes archives beyond the retention count, and opens a fresh file at
// the original path.
func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		w.file = nil
	}

	if _, statErr := os.Stat(w.path); statErr == nil {
		archived := fmt.Sprintf("%s.%s", w.path, time.Now().UTC().Format("20060102T150405.000000000"))
		if err := os.Rename(w.path, archived); err != nil {
			return fmt.Errorf("archive log file: %w", err)
		}
	}

	if err := w.pruneArchives(); err != nil {
		fmt.Fprintf(os.Stderr, "ragdex: log retention prune failed: %v\n", err)
	}

	w.written = 0
	return w.openFile()
}

// pruneArchives deletes the oldest rotated archives once there are more
// than maxFiles of them. Archive names carry a sortable UTC timestamp
// suffix, so lexical order of the glob matches is also chronological
// order, oldest first.
func (w *rotatingWriter) pruneArchives() error {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return fmt.Errorf("glob rotated files: %w", err)
	}
	if len(matches) <= w.maxFiles {
		return nil
	}

	sort.Strings(matches)
	excess := len(matches) - w.maxFiles
	for _, m := range matches[:excess] {
		_ = os.Remove(m)
	}
	return nil
}
