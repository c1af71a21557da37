// internal/parser/header.go
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileHeader is the structured data carried by a file's leading frontmatter
// block. A header may come from the vault's cache (which can lag an edit) or
// from scanning the raw text directly.
type FileHeader struct {
	DefType    string         // declared file type discriminator ("def-type" key)
	Aliases    []string       // declared alias list
	Flashcard  map[string]any // raw "flashcard" block, if any
	BodyOffset int            // byte offset where the body starts
}

// HeaderExtractor produces a FileHeader for a file, or reports that none is
// available. The cache-backed and raw-scan implementations are selected by
// availability: the raw scanner is the fallback for stale or missing caches.
type HeaderExtractor interface {
	Extract(path, raw string) (*FileHeader, bool)
}

// CacheExtractor serves headers out of an external cache keyed by file path.
type CacheExtractor struct {
	Get func(path string) *FileHeader
}

func (c CacheExtractor) Extract(path, _ string) (*FileHeader, bool) {
	if c.Get == nil {
		return nil, false
	}
	h := c.Get(path)
	return h, h != nil
}

// RawScanner derives the header directly from raw text. It only understands
// the subset of frontmatter the parsers need (def-type, aliases) so that a
// cache that has not caught up with an edit never blocks indexing.
type RawScanner struct{}

var (
	defTypeLineRe = regexp.MustCompile(`(?i)^\s*def-type\s*:\s*(.+?)\s*$`)
	aliasesLineRe = regexp.MustCompile(`(?i)^\s*aliases\s*:\s*(.*?)\s*$`)
	listItemRe    = regexp.MustCompile(`^\s*-\s*(.+?)\s*$`)
)

func (RawScanner) Extract(_, raw string) (*FileHeader, bool) {
	block, bodyOffset, ok := frontmatterBlock(raw)
	if !ok {
		return nil, false
	}

	h := &FileHeader{BodyOffset: bodyOffset}
	inAliases := false
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := defTypeLineRe.FindStringSubmatch(line); m != nil {
			h.DefType = strings.ToLower(strings.TrimSpace(m[1]))
			inAliases = false
			continue
		}
		if m := aliasesLineRe.FindStringSubmatch(line); m != nil {
			inAliases = true
			if inline := strings.TrimSpace(m[1]); inline != "" {
				for _, a := range strings.Split(inline, ",") {
					if a = strings.TrimSpace(a); a != "" {
						h.Aliases = append(h.Aliases, a)
					}
				}
			}
			continue
		}
		if inAliases {
			if m := listItemRe.FindStringSubmatch(line); m != nil {
				h.Aliases = append(h.Aliases, m[1])
			} else if strings.TrimSpace(line) != "" {
				inAliases = false
			}
		}
	}
	return h, true
}

// DecodeHeader parses the frontmatter block of raw as YAML. It is how the
// vault populates its header cache. Malformed YAML yields nil rather than an
// error; callers fall back to the raw scanner.
func DecodeHeader(raw string) *FileHeader {
	block, bodyOffset, ok := frontmatterBlock(raw)
	if !ok {
		return nil
	}

	var doc struct {
		DefType   string         `yaml:"def-type"`
		Aliases   []string       `yaml:"aliases"`
		Flashcard map[string]any `yaml:"flashcard"`
	}
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil
	}

	aliases := make([]string, 0, len(doc.Aliases))
	for _, a := range doc.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return &FileHeader{
		DefType:    strings.ToLower(strings.TrimSpace(doc.DefType)),
		Aliases:    aliases,
		Flashcard:  doc.Flashcard,
		BodyOffset: bodyOffset,
	}
}

// frontmatterBlock returns the text between the leading "---" fences and the
// byte offset of the first line after the closing fence.
func frontmatterBlock(raw string) (block string, bodyOffset int, ok bool) {
	lines := strings.SplitAfter(raw, "\n")
	if len(lines) == 0 || !isFence(lines[0]) {
		return "", 0, false
	}
	offset := len(lines[0])
	var b strings.Builder
	for _, line := range lines[1:] {
		offset += len(line)
		if isFence(line) {
			return b.String(), offset, true
		}
		b.WriteString(line)
	}
	return "", 0, false
}

func isFence(line string) bool {
	return strings.TrimRight(line, " \t\r\n") == "---"
}
