// internal/parser/consolidated.go
package parser

import (
	"strings"

	"defkeep/internal/model"
)

// ConsolidatedParser parses many-terms-per-file definitions. The body is
// segmented by divider lines; each segment carries a "# Word" heading, an
// optional fully-italicised alias line, and the definition text.
type ConsolidatedParser struct {
	Dash       bool // treat --- lines as dividers
	Underscore bool // treat ___ lines as dividers
	Plurals    bool
}

// Parse returns one record per well-formed segment. Segments without a word
// heading are skipped; malformed content never produces an error.
func (p ConsolidatedParser) Parse(path, raw string, header *FileHeader) []model.Definition {
	bodyOffset := 0
	if header != nil {
		bodyOffset = header.BodyOffset
	} else if h, ok := (RawScanner{}).Extract(path, raw); ok {
		bodyOffset = h.BodyOffset
	}
	if bodyOffset < 0 || bodyOffset > len(raw) {
		bodyOffset = 0
	}

	var defs []model.Definition
	lines := strings.Split(raw[bodyOffset:], "\n")
	segment := make([]string, 0, len(lines))
	flush := func() {
		if def, ok := p.parseSegment(path, segment); ok {
			defs = append(defs, def)
		}
		segment = segment[:0]
	}
	for _, line := range lines {
		if p.isDivider(strings.TrimRight(line, " \t\r")) {
			flush()
			continue
		}
		segment = append(segment, strings.TrimRight(line, "\r"))
	}
	flush()
	return defs
}

func (p ConsolidatedParser) parseSegment(path string, lines []string) (model.Definition, bool) {
	word := ""
	var aliases []string
	var body []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if word == "" {
			if rest, ok := strings.CutPrefix(trimmed, "# "); ok {
				word = strings.TrimSpace(rest)
			}
			// Text before the first heading is ignored.
			continue
		}
		if aliases == nil && len(body) == 0 {
			if a, ok := aliasLine(trimmed); ok {
				aliases = a
				continue
			}
		}
		body = append(body, line)
	}

	if word == "" {
		return model.Definition{}, false
	}

	aliases = cleanAliases(word, aliases)
	if p.Plurals {
		aliases = cleanAliases(word, append(aliases, Plurals(append([]string{word}, aliases...))...))
	}

	return model.Definition{
		Key:      strings.ToLower(word),
		Word:     word,
		Aliases:  aliases,
		Body:     strings.TrimSpace(strings.Join(body, "\n")),
		FilePath: path,
		FileType: model.FileTypeConsolidated,
		LinkText: path + "#" + word,
	}, true
}

// aliasLine recognises a line that is nothing but an italicised alias list,
// e.g. *alias one, alias two* or _alias_.
func aliasLine(line string) ([]string, bool) {
	inner := ""
	switch {
	case len(line) > 2 && strings.HasPrefix(line, "*") && strings.HasSuffix(line, "*"):
		inner = line[1 : len(line)-1]
	case len(line) > 2 && strings.HasPrefix(line, "_") && strings.HasSuffix(line, "_"):
		inner = line[1 : len(line)-1]
	default:
		return nil, false
	}
	if strings.ContainsAny(inner, "*_") {
		return nil, false
	}
	var aliases []string
	for _, a := range strings.Split(inner, ",") {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases, len(aliases) > 0
}

// isDivider matches a line consisting of three or more of an enabled divider
// rune. The line must already be right-trimmed.
func (p ConsolidatedParser) isDivider(line string) bool {
	if len(line) < 3 {
		return false
	}
	if p.Dash && strings.Count(line, "-") == len(line) {
		return true
	}
	if p.Underscore && strings.Count(line, "_") == len(line) {
		return true
	}
	return false
}
