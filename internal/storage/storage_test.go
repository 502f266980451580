package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdex/ragdex/pkg/types"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	chunks := map[string]*types.Chunk{
		"a.go::0": {ID: "a.go::0", FilePath: "a.go", ModifiedAt: 123, Content: "hi", Embedding: []float32{1, 2}},
	}
	files := map[string]*types.FileState{
		"a.go": {ModifiedAt: 123, Size: 2, ContentHash: "abc", ChunkIDs: []string{"a.go::0"}},
	}

	require.NoError(t, s.Save(chunks, files, 999))

	loaded := s.Load()
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, "hi", loaded.Chunks["a.go::0"].Content)
	require.Len(t, loaded.Files, 1)
	assert.Equal(t, "abc", loaded.Files["a.go"].ContentHash)
	require.NotNil(t, loaded.LastIndexedAt)
	assert.Equal(t, int64(999), *loaded.LastIndexedAt)
}

func TestLoadMissingFilesYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	loaded := s.Load()
	assert.Empty(t, loaded.Chunks)
	assert.Empty(t, loaded.Files)
	assert.Nil(t, loaded.LastIndexedAt)
}

func TestLoadCorruptFilesYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.MkdirAll(s.dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, dbFileName), []byte("{ broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, idxFileName), []byte("{ broken"), 0o644))

	loaded := s.Load()
	assert.Empty(t, loaded.Chunks)
	assert.Empty(t, loaded.Files)

	require.NoError(t, s.Save(map[string]*types.Chunk{}, map[string]*types.FileState{}, 1))
}

func TestLoadDropsOnlyMalformedRecordsFromAnOtherwiseValidArray(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.MkdirAll(s.dir, 0o755))

	db := `{"version":1,"chunks":[
		{"id":"good.go::0","filePath":"good.go","modifiedAt":1,"content":"hi","embedding":[1,2]},
		{"id":"bad-embedding.go::0","filePath":"bad-embedding.go","modifiedAt":1,"content":"hi","embedding":"bogus"},
		{"id":"bad-modifiedat.go::0","filePath":"bad-modifiedat.go","modifiedAt":"bogus","content":"hi","embedding":[1]},
		{"filePath":"missing-id.go","modifiedAt":1,"content":"hi","embedding":[1]}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, dbFileName), []byte(db), 0o644))

	idx := `{"version":1,"updatedAt":1,"files":{
		"good.go":{"modifiedAt":1,"size":2,"contentHash":"abc","chunkIds":["good.go::0"]},
		"bad-chunkids.go":{"modifiedAt":1,"size":2,"contentHash":"abc","chunkIds":"bogus"},
		"bad-modifiedat.go":{"modifiedAt":"bogus","size":2,"contentHash":"abc","chunkIds":["x"]},
		"missing-chunkids.go":{"modifiedAt":1,"size":2,"contentHash":"abc"}
	}}`
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, idxFileName), []byte(idx), 0o644))

	loaded := s.Load()

	require.Len(t, loaded.Chunks, 1, "only the single well-formed chunk record should survive")
	assert.Contains(t, loaded.Chunks, "good.go::0")

	require.Len(t, loaded.Files, 1, "only the single well-formed file-state record should survive")
	assert.Contains(t, loaded.Files, "good.go")
}

func TestSizeAndClear(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	assert.Equal(t, int64(0), s.Size())

	require.NoError(t, s.Save(map[string]*types.Chunk{
		"x": {ID: "x", Content: "hello"},
	}, map[string]*types.FileState{}, 1))
	assert.Greater(t, s.Size(), int64(0))

	require.NoError(t, s.Clear())
	_, err := os.Stat(s.dir)
	assert.True(t, os.IsNotExist(err))

	// Clear on an already-missing directory is success.
	require.NoError(t, s.Clear())
}
