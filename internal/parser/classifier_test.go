// internal/parser/classifier_test.go
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"defkeep/internal/model"
)

func TestClassifier(t *testing.T) {
	tests := []struct {
		name     string
		c        Classifier
		raw      string
		header   *FileHeader
		wantType model.FileType
		wantOK   bool
	}{
		{
			name:     "header discriminator wins",
			c:        Classifier{Default: model.FileTypeConsolidated},
			raw:      "---\ndef-type: consolidated\n---\n",
			header:   &FileHeader{DefType: "atomic"},
			wantType: model.FileTypeAtomic,
			wantOK:   true,
		},
		{
			name:     "stale header falls through to raw scan",
			c:        Classifier{},
			raw:      "---\ndef-type: consolidated\n---\nbody",
			header:   &FileHeader{DefType: "bogus"},
			wantType: model.FileTypeConsolidated,
			wantOK:   true,
		},
		{
			name:     "nil header uses raw scan",
			c:        Classifier{},
			raw:      "---\ndef-type: atomic\n---\nbody",
			header:   nil,
			wantType: model.FileTypeAtomic,
			wantOK:   true,
		},
		{
			name:     "undeclared file takes the default",
			c:        Classifier{Default: model.FileTypeConsolidated},
			raw:      "# Plain\nnote",
			header:   nil,
			wantType: model.FileTypeConsolidated,
			wantOK:   true,
		},
		{
			name:   "no declaration and no default",
			c:      Classifier{},
			raw:    "# Plain\nnote",
			header: nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.c.Classify(tt.raw, tt.header)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, got)
			}
		})
	}
}
