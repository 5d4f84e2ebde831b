package citation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]{4,}`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// stopwords are dropped from content keywords.
var stopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "they": {}, "have": {},
	"been": {}, "will": {}, "were": {}, "said": {}, "what": {}, "when": {},
	"where": {}, "would": {}, "there": {}, "their": {},
}

func toLower(s string) string { return strings.ToLower(s) }

// contains reports whether needle occurs in haystack; an empty needle never matches.
func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func lowerFields(s string) []string {
	return strings.Fields(toLower(s))
}

// titleWords returns the lowercased title words longer than three characters.
func titleWords(title string) []string {
	var out []string
	for _, w := range lowerFields(title) {
		if utf8.RuneCountInString(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// extractKeywords returns up to limit distinct lowercased content words of four or
// more characters that are not stopwords, in order of first appearance.
func extractKeywords(content string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range wordPattern.FindAllString(toLower(content), -1) {
		if len(out) >= limit {
			break
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func countContained(haystack string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if contains(haystack, toLower(needle)) {
			n++
		}
	}
	return n
}

// splitSentences splits on terminal punctuation and keeps sentences longer than ten characters.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > 10 {
			out = append(out, s)
		}
	}
	return out
}

// bestMatchingSentence picks the response sentence that best reflects the title.
func bestMatchingSentence(response, title string) *string {
	sentences := splitSentences(response)
	if len(sentences) == 0 {
		return nil
	}

	words := titleWords(title)
	required := 2
	if len(words) <= 2 {
		required = 1
	}

	if len(words) > 0 {
		for _, s := range sentences {
			if countContained(toLower(s), words) >= required {
				out := truncate(s, 200)
				return &out
			}
		}
	}

	out := truncate(sentences[0], 200)
	return &out
}
