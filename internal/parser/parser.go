// internal/parser/parser.go
//
// Package parser turns raw vault file text into definition records. Parsing
// is deliberately forgiving: definition files are user-edited prose, so
// malformed content degrades to fewer records instead of returning errors.
package parser

import (
	"defkeep/internal/config"
	"defkeep/internal/model"
)

// FileParser bundles the type classifier with the two parse strategies.
type FileParser struct {
	classifier   Classifier
	atomic       AtomicParser
	consolidated ConsolidatedParser
}

// New builds a FileParser from the parser section of the configuration.
func New(cfg config.ParserConfig) *FileParser {
	return &FileParser{
		classifier: Classifier{Default: model.FileType(cfg.DefaultFileType)},
		atomic:     AtomicParser{Plurals: cfg.AutoPlurals},
		consolidated: ConsolidatedParser{
			Dash:       cfg.Divider.Dash,
			Underscore: cfg.Divider.Underscore,
			Plurals:    cfg.AutoPlurals,
		},
	}
}

// Parse produces the definition records of one file. header is the
// best-effort cached header and may be nil or stale. A file with no usable
// type discriminator is not a definition source and yields no records.
func (p *FileParser) Parse(path, raw string, header *FileHeader) []model.Definition {
	fileType, ok := p.classifier.Classify(raw, header)
	if !ok {
		return nil
	}
	switch fileType {
	case model.FileTypeAtomic:
		return p.atomic.Parse(path, raw, header)
	case model.FileTypeConsolidated:
		return p.consolidated.Parse(path, raw, header)
	default:
		return nil
	}
}
