// internal/model/definition.go
package model

// FileType discriminates the two definition file conventions.
type FileType string

const (
	// FileTypeAtomic: one term per file, the whole body is the definition.
	FileTypeAtomic FileType = "atomic"
	// FileTypeConsolidated: many terms per file, segmented by divider lines.
	FileTypeConsolidated FileType = "consolidated"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	return t == FileTypeAtomic || t == FileTypeConsolidated
}

// Definition is one term parsed out of a vault file.
type Definition struct {
	Key      string   `json:"key"`  // lowercased Word, the primary lookup key
	Word     string   `json:"word"` // display form as authored
	Aliases  []string `json:"aliases,omitempty"`
	Body     string   `json:"body"` // opaque markdown-like text, header block excluded
	FilePath string   `json:"file_path"`
	FileType FileType `json:"file_type"`
	LinkText string   `json:"link_text"` // path, or path#Word for consolidated entries
}

// ConsolidatedFileListing groups the records of one consolidated file for browsing.
type ConsolidatedFileListing struct {
	FilePath    string        `json:"file_path"`
	Definitions []*Definition `json:"definitions"`
}
