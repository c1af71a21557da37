// internal/index/index.go
//
// Package index owns the in-memory mapping from lookup key to definition
// record across all known files. Records are bucketed per source file so a
// file's record set can be replaced atomically while lookups are in flight.
package index

import (
	"sort"
	"strings"
	"sync"

	"defkeep/internal/model"
)

// Index is safe for concurrent use. Mutations rebuild the key map wholesale
// and swap it under the write lock, so a reader never observes a
// half-updated file.
type Index struct {
	mu    sync.RWMutex
	files map[string][]*model.Definition
	keys  map[string]*model.Definition
}

func New() *Index {
	return &Index{
		files: make(map[string][]*model.Definition),
		keys:  make(map[string]*model.Definition),
	}
}

// RebuildAll replaces the entire index contents.
func (ix *Index) RebuildAll(files map[string][]*model.Definition) {
	buckets := make(map[string][]*model.Definition, len(files))
	for path, defs := range files {
		if len(defs) > 0 {
			buckets[path] = defs
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.files = buckets
	ix.keys = buildKeys(buckets)
}

// ReindexFile replaces only the records owned by path. An empty record set
// removes the file from the index.
func (ix *Index) ReindexFile(path string, defs []*model.Definition) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(defs) == 0 {
		delete(ix.files, path)
	} else {
		ix.files[path] = defs
	}
	ix.keys = buildKeys(ix.files)
}

// RemoveFile drops all records owned by path.
func (ix *Index) RemoveFile(path string) {
	ix.ReindexFile(path, nil)
}

// Lookup finds the record registered under key. Matching is case-insensitive
// and covers both words and aliases.
func (ix *Index) Lookup(key string) (*model.Definition, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	def, ok := ix.keys[strings.ToLower(key)]
	return def, ok
}

// AllKeys returns every registered lookup key, sorted.
func (ix *Index) AllKeys() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	keys := make([]string, 0, len(ix.keys))
	for k := range ix.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilesOfType returns the sorted paths of files whose records are of type t.
func (ix *Index) FilesOfType(t model.FileType) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var paths []string
	for path, defs := range ix.files {
		if len(defs) > 0 && defs[0].FileType == t {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// FirstOfFile returns the first record of a file, which for an atomic file
// is its only record.
func (ix *Index) FirstOfFile(path string) (*model.Definition, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	defs := ix.files[path]
	if len(defs) == 0 {
		return nil, false
	}
	return defs[0], true
}

// DefinitionsOfFile returns all records of a file in parse order.
func (ix *Index) DefinitionsOfFile(path string) []*model.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.files[path]
}

// buildKeys derives a fresh lookup map from the file buckets. Files are
// visited in sorted path order so cross-file key collisions resolve
// deterministically: the lexicographically last file wins.
func buildKeys(files map[string][]*model.Definition) map[string]*model.Definition {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	keys := make(map[string]*model.Definition)
	for _, path := range paths {
		for _, def := range files[path] {
			keys[def.Key] = def
			for _, alias := range def.Aliases {
				keys[strings.ToLower(alias)] = def
			}
		}
	}
	return keys
}
