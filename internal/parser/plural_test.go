// internal/parser/plural_test.go
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"cat", "cats"},
		{"box", "boxes"},
		{"bus", "buses"},
		{"quiz", "quizes"},
		{"match", "matches"},
		{"brush", "brushes"},
		{"city", "cities"},
		{"day", "days"},
		{"knife", "knives"},
		{"leaf", "leaves"},
		{"Proxy", "Proxies"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pluralize(tt.word), "Pluralize(%q)", tt.word)
	}
}

func TestPlurals(t *testing.T) {
	got := Plurals([]string{"cat", "", "glass"})
	// "glass" pluralizes to "glasses"; the empty word vanishes.
	assert.Equal(t, []string{"cats", "glasses"}, got)
}
