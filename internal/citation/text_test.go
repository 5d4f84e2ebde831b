package citation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "", truncate("", 5))
	assert.Equal(t, "", truncate("abc", 0))
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("This is with the Orbital orbital launch launch system", 2)
	assert.Equal(t, []string{"orbital", "launch"}, got)

	got = extractKeywords("They said that it was", 15)
	assert.Empty(t, got)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Hi. This one is long enough! Short? Another sentence here")
	assert.Equal(t, []string{"This one is long enough", "Another sentence here"}, got)
}

func TestBestMatchingSentence(t *testing.T) {
	t.Run("prefers sentence with title words", func(t *testing.T) {
		got := bestMatchingSentence(
			"Markets were calm today. Tesla unveiled battery tech at an event.",
			"Tesla Unveils New Battery Tech",
		)
		require.NotNil(t, got)
		assert.Equal(t, "Tesla unveiled battery tech at an event", *got)
	})

	t.Run("falls back to first sentence", func(t *testing.T) {
		got := bestMatchingSentence("First sentence is here. Second sentence is here.", "Zebra Crossing")
		require.NotNil(t, got)
		assert.Equal(t, "First sentence is here", *got)
	})

	t.Run("nil without usable sentences", func(t *testing.T) {
		assert.Nil(t, bestMatchingSentence("ok. fine!", "Anything"))
	})

	t.Run("truncated to 200 characters", func(t *testing.T) {
		got := bestMatchingSentence(strings.Repeat("a", 300)+".", "")
		require.NotNil(t, got)
		assert.Len(t, *got, 200)
	})
}
