// internal/parser/atomic.go
package parser

import (
	"path/filepath"
	"strings"

	"defkeep/internal/model"
)

// AtomicParser parses one-term-per-file definitions: the file basename is the
// word and everything after the header block is the definition body.
type AtomicParser struct {
	Plurals bool // augment aliases with mechanical plural forms
}

// Parse returns exactly one record for a well-formed atomic file. header may
// be nil or stale; the raw scanner re-derives aliases and the header boundary
// in that case.
func (p AtomicParser) Parse(path, raw string, header *FileHeader) []model.Definition {
	word := baseName(path)
	if word == "" {
		return nil
	}

	var aliases []string
	bodyOffset := 0
	if header != nil {
		aliases = header.Aliases
		bodyOffset = header.BodyOffset
	} else if h, ok := (RawScanner{}).Extract(path, raw); ok {
		aliases = h.Aliases
		bodyOffset = h.BodyOffset
	}
	if bodyOffset < 0 || bodyOffset > len(raw) {
		// Stale cache can report an offset past the current content.
		bodyOffset = 0
	}

	aliases = cleanAliases(word, aliases)
	if p.Plurals {
		aliases = cleanAliases(word, append(aliases, Plurals(append([]string{word}, aliases...))...))
	}

	return []model.Definition{{
		Key:      strings.ToLower(word),
		Word:     word,
		Aliases:  aliases,
		Body:     raw[bodyOffset:],
		FilePath: path,
		FileType: model.FileTypeAtomic,
		LinkText: path,
	}}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cleanAliases drops empties, duplicates, and anything equal to the word
// itself (case-insensitive).
func cleanAliases(word string, aliases []string) []string {
	seen := map[string]bool{strings.ToLower(word): true}
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
