package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFiltersByExtensionAndExcludedFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "readme.md"), "# hi")
	writeFile(t, filepath.Join(root, "node_modules", "lib.go"), "package lib")

	results, err := Scan(root, Options{
		IncludeExtensions: []string{".go"},
		ExcludeFolders:    []string{"node_modules"},
		MaxFileSize:       1 << 20,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].RelativePath)
}

func TestScanSkipsByName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "main_test.go"), "package main")

	results, err := Scan(root, Options{
		IncludeExtensions: []string{".go"},
		SkipFiles:         []string{"main_test.go"},
		MaxFileSize:       1 << 20,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].RelativePath)
}

func TestScanSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big.go"), string(make([]byte, 2048)))

	results, err := Scan(root, Options{
		IncludeExtensions: []string{".go"},
		MaxFileSize:       1024,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScanRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored.go\n")
	writeFile(t, filepath.Join(root, "ignored.go"), "package main")
	writeFile(t, filepath.Join(root, "kept.go"), "package main")

	results, err := Scan(root, Options{
		IncludeExtensions: []string{".go"},
		MaxFileSize:       1 << 20,
		RespectGitignore:  true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "kept.go", results[0].RelativePath)
}
