package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicCounter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "short", text: "hi", want: 1},
		{name: "exact multiple", text: "12345678", want: 2},
		{name: "rounds up", text: "123456789", want: 3},
		{name: "multibyte runes", text: "héllo wörld", want: 3},
		{name: "long text", text: strings.Repeat("word ", 100), want: 125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := HeuristicCounter{}.CountTokens(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTiktokenCounter_DefaultEncoding(t *testing.T) {
	t.Parallel()

	c := NewTiktokenCounter("")
	assert.Equal(t, "cl100k_base", c.encoding)
}
