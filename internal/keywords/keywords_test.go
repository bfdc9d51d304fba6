package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRanksByFrequency(t *testing.T) {
	text := strings.Join([]string{
		"kubernetes", "kubernetes", "kubernetes",
		"deployment", "deployment",
		"ingress",
	}, " ")

	got := Extract(text, 10)
	assert.Equal(t, []string{"kubernetes", "deployment", "ingress"}, got)
}

func TestExtractTiesBreakByFirstEncounter(t *testing.T) {
	got := Extract("zebra apple zebra apple mango mango", 10)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, got)
}

func TestExtractCapsAtMax(t *testing.T) {
	got := Extract("alpha beta gamma delta epsilon", 3)
	require.Len(t, got, 3)
}

func TestExtractOnlyNoiseReturnsEmpty(t *testing.T) {
	// Stop-words and two-letter words only.
	got := Extract("the and is of to it we at on my", 10)
	assert.Empty(t, got)
}

func TestExtractFilters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "digits dropped",
			text: "12345 67890 compiler",
			want: []string{"compiler"},
		},
		{
			name: "alphanumeric tokens dropped",
			text: "ipv6 http2 networking",
			want: []string{"networking"},
		},
		{
			name: "punctuation split",
			text: "tides, tides; tides!",
			want: []string{"tides"},
		},
		{
			name: "domain noise dropped",
			text: "gemini bard google astronomy",
			want: []string{"astronomy"},
		},
		{
			name: "case folded",
			text: "Tides TIDES tides",
			want: []string{"tides"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text, 10))
		})
	}
}

func TestExtractZeroMax(t *testing.T) {
	assert.Nil(t, Extract("anything here", 0))
}

func TestExtractDeterministic(t *testing.T) {
	text := "orbit orbit lunar tide tide solar lunar gravity"
	first := Extract(text, 10)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Extract(text, 10))
	}
}
