package watch

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// addRecursive registers every directory under root with fsw, since
// fsnotify watches are not recursive.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func statIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
