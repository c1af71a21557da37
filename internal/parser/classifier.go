// internal/parser/classifier.go
package parser

import "defkeep/internal/model"

// Classifier decides which parse strategy applies to a file.
type Classifier struct {
	// Default applies when neither the header nor the raw text declares a
	// type. Empty means "not a definition source".
	Default model.FileType
}

// Classify resolves the file type from the header if it carries a valid
// discriminator, then from a raw-text scan, then from the configured default.
// The second return is false when the file should not be parsed at all.
func (c Classifier) Classify(raw string, header *FileHeader) (model.FileType, bool) {
	if header != nil {
		if t := model.FileType(header.DefType); t.Valid() {
			return t, true
		}
	}

	// The header cache may not have caught up with an edit yet; scan the
	// raw frontmatter before giving up.
	if h, ok := (RawScanner{}).Extract("", raw); ok {
		if t := model.FileType(h.DefType); t.Valid() {
			return t, true
		}
	}

	if c.Default.Valid() {
		return c.Default, true
	}
	return "", false
}
