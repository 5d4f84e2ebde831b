package citation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detectionCase struct {
	name  string
	input Input
}

func sampleInputs() []detectionCase {
	return []detectionCase{
		{
			name: "verbatim title with source",
			input: Input{
				Title:    "Tesla Unveils New Battery Tech",
				Content:  "...",
				Query:    "tesla battery",
				Response: "Tesla Unveils New Battery Tech was covered widely. Source: https://reuters.com/tesla-battery",
			},
		},
		{
			name: "unrelated response",
			input: Input{
				Title:    "Local Bakery Wins Award",
				Content:  "Sweet Treats Bakery received a state award for best pastries.",
				Query:    "bakery awards",
				Response: "I don't have any details on that topic.",
			},
		},
		{
			name: "keyword overlap",
			input: Input{
				Title:    "Quantum Chips Reach Market",
				Content:  "Researchers shipped quantum processors to early customers after years of testing.",
				Query:    "quantum processors",
				Response: "Quantum chips are now on the market. Researchers say early customers are testing quantum processors.",
			},
		},
		{
			name: "concepts only",
			input: Input{
				Title:    "",
				Content:  "The startup hired a new CEO to grow revenue.",
				Query:    "startup leadership",
				Response: "A startup with strong revenue and a CEO.",
			},
		},
		{
			name: "entities only",
			input: Input{
				Title:    "AI",
				Content:  "Ace Bio Inc and Fox Lab Co teamed up.",
				Query:    "biotech partnerships",
				Response: "Ace Bio Inc and Fox Lab are mentioned.",
			},
		},
		{
			name:  "all empty",
			input: Input{},
		},
	}
}

func TestDetectVerbatimTitle(t *testing.T) {
	response := "Tesla Unveils New Battery Tech was covered widely. Source: https://reuters.com/tesla-battery"
	result := Detect("Tesla Unveils New Battery Tech", "...", "tesla battery", response)

	assert.True(t, result.Cited)
	assert.Equal(t, 90, result.Confidence)
	require.NotNil(t, result.CitationText)
	assert.Equal(t, "Tesla Unveils New Battery Tech", *result.CitationText)
	require.NotNil(t, result.Context)
	assert.Equal(t, response, *result.Context)
	assert.Equal(t, []string{"https://reuters.com/tesla-battery"}, result.SourceURLs)
	assert.Equal(t, StrategyExactTitle, result.Strategy)
}

func TestDetectTitleMatchIsCaseInsensitive(t *testing.T) {
	result := Detect("Tesla Unveils New Battery Tech", "", "", "reports say TESLA UNVEILS NEW BATTERY TECH today")
	assert.True(t, result.Cited)
	assert.GreaterOrEqual(t, result.Confidence, 90)
}

func TestDetectNoOverlap(t *testing.T) {
	result := Detect(
		"Local Bakery Wins Award",
		"Sweet Treats Bakery received a state award for best pastries.",
		"bakery awards",
		"I don't have any details on that topic.",
	)

	assert.False(t, result.Cited)
	assert.Equal(t, 0, result.Confidence)
	assert.Nil(t, result.CitationText)
	assert.Nil(t, result.Context)
	assert.Empty(t, result.SourceURLs)
	assert.NotNil(t, result.SourceURLs)
}

func TestDetectEntityOnlyCitation(t *testing.T) {
	result := Detect("AI", "Ace Bio Inc and Fox Lab Co teamed up.", "biotech partnerships", "Ace Bio Inc and Fox Lab are mentioned.")

	assert.True(t, result.Cited)
	assert.Equal(t, 40, result.Confidence)
	assert.Equal(t, StrategyEntityMatch, result.Strategy)
	require.NotNil(t, result.CitationText)
	assert.Equal(t, "Ace Bio Inc and Fox Lab are mentioned", *result.CitationText)
}

func TestDetectBelowThresholdIsNotCited(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		response string
	}{
		// One of four title words matches: 12.5 points.
		{"quarter of the title", "Quantum Chips Reach Orbit", "The quantum era."},
		{"single shared word", "Local Bakery Wins Award", "Local news only today."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.title, "", "", tt.response)
			assert.False(t, result.Cited)
			assert.Equal(t, 0, result.Confidence)
			assert.Equal(t, StrategyKeywordDensity, result.Strategy)
			assert.Nil(t, result.CitationText)
			assert.Nil(t, result.Context)
			assert.NotNil(t, result.SourceURLs)
			assert.Empty(t, result.SourceURLs)
		})
	}
}

func TestDetectResultShapeOnHostileResponses(t *testing.T) {
	const title = "Tesla Unveils New Battery Tech"
	responses := []string{
		title + " per HTTPS://www.reuters.com/a and Source: Http://example.com/b",
		title + " at https://www.reuters.com/a, again at HTTPS://www.reuters.com/a",
		title + " [HTTP://arxiv.org/abs/1234] (HtTpS://www.bbc.com/news/x).",
		"Tesla news only. See HTTPS://www.reuters.com/a",
		"Battery tech startup market with a new CEO.",
		"ftp://files.example.com mailto:x@example.com javascript:alert(1)",
		"",
	}

	for i, response := range responses {
		t.Run(fmt.Sprintf("response_%d", i), func(t *testing.T) {
			result := Detect(title, "Tesla announced a battery cell.", "tesla battery", response)

			if !result.Cited {
				assert.Equal(t, 0, result.Confidence)
				assert.Nil(t, result.CitationText)
				assert.Nil(t, result.Context)
				assert.Empty(t, result.SourceURLs)
				return
			}

			assert.Greater(t, result.Confidence, CitedThreshold)
			seen := map[string]bool{}
			for _, u := range result.SourceURLs {
				assert.Regexp(t, `^https?://`, u)
				assert.False(t, seen[u], "duplicate url %s", u)
				seen[u] = true
			}
		})
	}
}

func TestDetectContextIsBoundedPrefix(t *testing.T) {
	response := "Tesla Unveils New Battery Tech " + strings.Repeat("é", 1200)
	result := Detect("Tesla Unveils New Battery Tech", "", "", response)

	require.NotNil(t, result.Context)
	assert.True(t, strings.HasPrefix(response, *result.Context))
	assert.Equal(t, 800, len([]rune(*result.Context)))
}

func TestDetectProperties(t *testing.T) {
	for _, tc := range sampleInputs() {
		t.Run(tc.name, func(t *testing.T) {
			first := NewDetector().Detect(tc.input)
			second := NewDetector().Detect(tc.input)
			assert.Equal(t, first, second, "detection must be idempotent")

			assert.GreaterOrEqual(t, first.Confidence, 0)
			assert.LessOrEqual(t, first.Confidence, 100)
			assert.Equal(t, first.Cited, first.Confidence > CitedThreshold)

			assert.LessOrEqual(t, len(first.SourceURLs), MaxSourceURLs)
			seen := map[string]bool{}
			for _, u := range first.SourceURLs {
				assert.Regexp(t, `^https?://`, u)
				assert.False(t, seen[u], "duplicate url %s", u)
				seen[u] = true
			}

			if first.Context != nil {
				assert.True(t, strings.HasPrefix(tc.input.Response, *first.Context))
				assert.LessOrEqual(t, len([]rune(*first.Context)), 800)
			}
		})
	}
}

func TestEarlyExitSelectsSameWinner(t *testing.T) {
	fast := NewDetector()
	full := NewDetector(WithExhaustiveEvaluation())

	for _, tc := range sampleInputs() {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, full.Detect(tc.input), fast.Detect(tc.input))
		})
	}
}

func TestEarlyExitSkipsLaterStrategies(t *testing.T) {
	called := false
	d := NewDetector(WithStrategies(
		Strategy{Name: "strong", Score: func(Input) StrategyResult { return StrategyResult{Confidence: 85} }},
		Strategy{Name: "later", Score: func(Input) StrategyResult { called = true; return StrategyResult{} }},
	))

	result := d.Detect(Input{Response: "anything at all here."})
	assert.False(t, called)
	assert.Equal(t, "strong", result.Strategy)
	assert.Equal(t, 85, result.Confidence)
}

func TestTiesKeepEarlierStrategy(t *testing.T) {
	first := "first text"
	second := "second text"
	d := NewDetector(WithStrategies(
		Strategy{Name: "a", Score: func(Input) StrategyResult { return StrategyResult{Confidence: 40, CitationText: &first} }},
		Strategy{Name: "b", Score: func(Input) StrategyResult { return StrategyResult{Confidence: 40, CitationText: &second} }},
	))

	result := d.Detect(Input{Response: "some response text."})
	assert.Equal(t, "a", result.Strategy)
	require.NotNil(t, result.CitationText)
	assert.Equal(t, first, *result.CitationText)
}

func TestPanickingStrategyFallsBack(t *testing.T) {
	d := NewDetector(WithStrategies(Strategy{
		Name:  "broken",
		Score: func(Input) StrategyResult { panic("boom") },
	}))

	result := d.Detect(Input{Title: "Tesla Battery", Response: "tesla battery news"})
	assert.True(t, result.Cited)
	assert.Equal(t, 60, result.Confidence)
	assert.Equal(t, StrategyFallback, result.Strategy)
	require.NotNil(t, result.CitationText)
	assert.Equal(t, "tesla battery news", *result.CitationText)
	require.NotNil(t, result.Context)
	assert.Equal(t, "tesla battery news", *result.Context)

	result = d.Detect(Input{Title: "Tesla Battery", Response: "nothing relevant"})
	assert.False(t, result.Cited)
	assert.Equal(t, 0, result.Confidence)
	assert.Nil(t, result.CitationText)
}

func TestFallbackThreshold(t *testing.T) {
	tests := []struct {
		title      string
		response   string
		cited      bool
		confidence int
	}{
		{"alpha beta", "alpha only", false, 0},
		{"alpha beta gamma", "alpha and beta", true, 40},
		{"", "anything", false, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.title), func(t *testing.T) {
			result := fallbackDetect(Input{Title: tt.title, Response: tt.response})
			assert.Equal(t, tt.cited, result.Cited)
			assert.Equal(t, tt.confidence, result.Confidence)
		})
	}
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, clampConfidence(-3))
	assert.Equal(t, 100, clampConfidence(140))
	assert.Equal(t, 38, clampConfidence(37.5))
	assert.Equal(t, 37, clampConfidence(37.4))
}
