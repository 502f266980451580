// Package storage persists a folder's chunks and file states as two JSON
// files under "{storagePath}/.rag-ts/". Grounded on the teacher's
// JSON-persistence style (internal/config/config.go's load-or-default
// tolerant reader) rather than its SQLite metadata store, since spec.md
// §6 pins the persisted format to ".rag-db"/".rag-index" JSON documents.
// Save writes to a temp file and renames over the target, following the
// teacher's internal/logging/writer.go Sync-then-rename discipline, to
// avoid leaving a half-written file on a crash mid-save.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ragdex/ragdex/internal/errorsx"
	"github.com/ragdex/ragdex/pkg/types"
)

const (
	dbVersion   = 1
	dbFileName  = ".rag-db"
	idxFileName = ".rag-index"
	storageDir  = ".rag-ts"
)

// dbWriteDocument is the shape Save marshals for ".rag-db".
type dbWriteDocument struct {
	Version int            `json:"version"`
	Chunks  []*types.Chunk `json:"chunks"`
}

// dbReadDocument defers decoding of each chunk record so that one
// malformed record doesn't fail the whole array: a typed
// []*types.Chunk field would abort decoding the entire slice the
// moment a single element has the wrong shape.
type dbReadDocument struct {
	Version int               `json:"version"`
	Chunks  []json.RawMessage `json:"chunks"`
}

// indexWriteDocument is the shape Save marshals for ".rag-index".
type indexWriteDocument struct {
	Version   int                         `json:"version"`
	UpdatedAt int64                       `json:"updatedAt"`
	Files     map[string]*types.FileState `json:"files"`
}

// indexReadDocument mirrors dbReadDocument's per-record deferral for
// file-state entries.
type indexReadDocument struct {
	Version   int                        `json:"version"`
	UpdatedAt int64                      `json:"updatedAt"`
	Files     map[string]json.RawMessage `json:"files"`
}

// Store reads/writes a single folder's persisted chunks and file states.
type Store struct {
	dir string // {storagePath}/.rag-ts
}

// New returns a Store rooted at storagePath's ".rag-ts" subdirectory.
func New(storagePath string) *Store {
	return &Store{dir: filepath.Join(storagePath, storageDir)}
}

// Loaded is the result of a successful Load.
type Loaded struct {
	Chunks        map[string]*types.Chunk
	Files         map[string]*types.FileState
	LastIndexedAt *int64
}

// Load reads both persisted files best-effort: a missing or unreadable
// file, a parse failure, or a version mismatch all yield an empty result
// for that file rather than an error. Within an otherwise well-formed
// document, individual records with an invalid shape (missing id,
// non-array embedding, non-numeric modifiedAt, non-array chunkIds) are
// decoded one record at a time and dropped rather than aborting the
// whole array.
func (s *Store) Load() *Loaded {
	result := &Loaded{
		Chunks: make(map[string]*types.Chunk),
		Files:  make(map[string]*types.FileState),
	}

	var db dbReadDocument
	if readJSON(filepath.Join(s.dir, dbFileName), &db) && db.Version == dbVersion {
		for _, raw := range db.Chunks {
			c, ok := decodeChunkRecord(raw)
			if !ok {
				continue
			}
			result.Chunks[c.ID] = c
		}
	}

	var idx indexReadDocument
	if readJSON(filepath.Join(s.dir, idxFileName), &idx) && idx.Version == dbVersion {
		for relPath, raw := range idx.Files {
			fs, ok := decodeFileStateRecord(raw)
			if !ok {
				continue
			}
			result.Files[relPath] = fs
		}
		if idx.UpdatedAt > 0 {
			ts := idx.UpdatedAt
			result.LastIndexedAt = &ts
		}
	}

	return result
}

// decodeChunkRecord validates a single raw chunk record's shape before
// decoding it into a *types.Chunk, so that one record with e.g.
// "embedding":"bogus" drops only that record instead of, via a single
// typed array decode, silently discarding every chunk in the document.
func decodeChunkRecord(raw json.RawMessage) (*types.Chunk, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}

	idRaw, hasID := fields["id"]
	if !hasID {
		return nil, false
	}
	var id string
	if err := json.Unmarshal(idRaw, &id); err != nil || id == "" {
		return nil, false
	}

	if embRaw, hasEmb := fields["embedding"]; hasEmb {
		var probe []float32
		if err := json.Unmarshal(embRaw, &probe); err != nil {
			return nil, false
		}
	}

	if modRaw, hasMod := fields["modifiedAt"]; hasMod {
		var probe int64
		if err := json.Unmarshal(modRaw, &probe); err != nil {
			return nil, false
		}
	}

	var c types.Chunk
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	if c.Embedding == nil {
		c.Embedding = []float32{}
	}
	return &c, true
}

// decodeFileStateRecord is decodeChunkRecord's counterpart for a single
// file-state record.
func decodeFileStateRecord(raw json.RawMessage) (*types.FileState, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}

	chunkIDsRaw, hasChunkIDs := fields["chunkIds"]
	if !hasChunkIDs {
		return nil, false
	}
	var chunkIDs []string
	if err := json.Unmarshal(chunkIDsRaw, &chunkIDs); err != nil {
		return nil, false
	}

	if modRaw, hasMod := fields["modifiedAt"]; hasMod {
		var probe int64
		if err := json.Unmarshal(modRaw, &probe); err != nil {
			return nil, false
		}
	}

	var fs types.FileState
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, false
	}
	return &fs, true
}

// Save writes both files, overwriting prior contents. Both writes must
// succeed before Save returns; order between the two files is
// unspecified.
func (s *Store) Save(chunks map[string]*types.Chunk, files map[string]*types.FileState, updatedAt int64) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errorsx.Wrap(errorsx.PersistenceFailure, err)
	}

	chunkList := make([]*types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		chunkList = append(chunkList, c)
	}
	db := dbWriteDocument{Version: dbVersion, Chunks: chunkList}
	if err := writeJSONAtomic(filepath.Join(s.dir, dbFileName), db); err != nil {
		return errorsx.Wrap(errorsx.PersistenceFailure, err)
	}

	idx := indexWriteDocument{Version: dbVersion, UpdatedAt: updatedAt, Files: files}
	if err := writeJSONAtomic(filepath.Join(s.dir, idxFileName), idx); err != nil {
		return errorsx.Wrap(errorsx.PersistenceFailure, err)
	}

	return nil
}

// Size returns the size in bytes of the ".rag-db" file, or 0 if absent.
func (s *Store) Size() int64 {
	info, err := os.Stat(filepath.Join(s.dir, dbFileName))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear removes the whole storage directory. Missing is success.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return errorsx.Wrap(errorsx.PersistenceFailure, err)
	}
	return nil
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
