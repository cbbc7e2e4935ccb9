package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"single word", "Microsoft", []string{"Microsoft"}},
		{"several words", "our corporate   official", []string{"our", "corporate", "official"}},
		{"operators are plain words", "internet AND access", []string{"internet", "AND", "access"}},
		{"punctuation kept", "aardvark!", []string{"aardvark!"}},
		{"blank", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.query))
		})
	}
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []string{"internet", "access", "bt"}, Merge("internet access", []string{"bt"}))
	assert.Equal(t, []string{"is", ""}, Merge("is", []string{""}))
	assert.Empty(t, Merge("", nil))
}
