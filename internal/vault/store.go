// internal/vault/store.go
//
// Package vault is the file-store collaborator: it enumerates definition
// files under a root directory, reads their raw text, and maintains a
// best-effort frontmatter header cache. The cache may lag a raw edit;
// consumers must tolerate staleness and fall back to raw-text scanning.
package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"defkeep/internal/parser"
)

// Store exposes a vault directory of markdown files. Paths are always
// slash-separated and relative to the root.
type Store struct {
	root string

	mu      sync.RWMutex
	headers map[string]*parser.FileHeader
}

func NewStore(root string) *Store {
	return &Store{
		root:    root,
		headers: make(map[string]*parser.FileHeader),
	}
}

func (s *Store) Root() string {
	return s.root
}

// ListFiles returns the sorted vault-relative paths of every markdown file.
func (s *Store) ListFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the raw text of a vault file.
func (s *Store) Read(path string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Header returns the cached frontmatter header for path, or nil when no
// cache entry exists. The entry reflects the content at the last refresh and
// may be stale relative to the file on disk.
func (s *Store) Header(path string) *parser.FileHeader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headers[path]
}

// RefreshHeader re-derives the cache entry for path from raw content.
func (s *Store) RefreshHeader(path, raw string) {
	h := parser.DecodeHeader(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.headers, path)
		return
	}
	s.headers[path] = h
}

// DropHeader removes the cache entry for a file that left scope.
func (s *Store) DropHeader(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.headers, path)
}
