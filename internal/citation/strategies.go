package citation

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Strategy names, also used as metric labels.
const (
	StrategyExactTitle     = "exact_title"
	StrategyKeywordDensity = "keyword_density"
	StrategySemantic       = "semantic_similarity"
	StrategyEntityMatch    = "entity_match"
	StrategyFallback       = "fallback"
)

const (
	maxContentKeywords = 15
	maxConceptsPerText = 10
	minEntityLength    = 3
	maxEntityLength    = 29
)

// LabeledPattern is a compiled pattern with the category it detects.
type LabeledPattern struct {
	Label   string
	Pattern *regexp.Regexp
}

// ConceptPatterns are the concept categories compared by the semantic strategy.
var ConceptPatterns = []LabeledPattern{
	{Label: "organization", Pattern: regexp.MustCompile(`(?i)\b(?:company|corporation|startup|business|firm|enterprise)\b`)},
	{Label: "technology", Pattern: regexp.MustCompile(`(?i)\b(?:technology|software|platform|service|product|solution)\b`)},
	{Label: "business", Pattern: regexp.MustCompile(`(?i)\b(?:funding|investment|revenue|market|industry|sector)\b`)},
	{Label: "role", Pattern: regexp.MustCompile(`(?i)\b(?:ceo|founder|executive|president|director|manager)\b`)},
}

// EntityPatterns find candidate named entities in story content. Matches are
// anchored on word boundaries, so a phrase right after punctuation, as in
// "(Acme Corp", is still found.
var EntityPatterns = []LabeledPattern{
	{Label: "capitalized_phrase", Pattern: regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}(?:\s+[A-Z][a-zA-Z]{2,}){1,2}\b`)},
	{Label: "camel_case", Pattern: regexp.MustCompile(`\b[A-Z][a-z]+(?:[A-Z][a-z0-9]*)+\b`)},
}

// DefaultStrategies returns the strategies in evaluation order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyExactTitle, Score: exactTitleMatch},
		{Name: StrategyKeywordDensity, Score: keywordDensity},
		{Name: StrategySemantic, Score: semanticSimilarity},
		{Name: StrategyEntityMatch, Score: entityMatch},
	}
}

func exactTitleMatch(in Input) StrategyResult {
	title := strings.TrimSpace(in.Title)
	if title == "" || !contains(toLower(in.Response), toLower(title)) {
		return StrategyResult{Strategy: StrategyExactTitle}
	}
	text := in.Title
	ctx := truncate(in.Response, strategyContextLength)
	return StrategyResult{
		Strategy:     StrategyExactTitle,
		Confidence:   90,
		CitationText: &text,
		Context:      &ctx,
	}
}

func keywordDensity(in Input) StrategyResult {
	response := toLower(in.Response)

	var titleScore float64
	if words := titleWords(in.Title); len(words) > 0 {
		titleScore = float64(countContained(response, words)) / float64(len(words)) * 50
	}

	keywords := extractKeywords(in.Content, maxContentKeywords)
	keywordScore := math.Min(float64(countContained(response, keywords)*8), 50)

	return StrategyResult{
		Strategy:   StrategyKeywordDensity,
		Confidence: math.Min(titleScore+keywordScore, 85),
	}
}

func semanticSimilarity(in Input) StrategyResult {
	storyConcepts := append(extractConcepts(in.Title), extractConcepts(in.Content)...)
	matches := 0
	for _, rc := range extractConcepts(in.Response) {
		for _, sc := range storyConcepts {
			if strings.Contains(rc, sc) || strings.Contains(sc, rc) {
				matches++
				break
			}
		}
	}
	return StrategyResult{
		Strategy:   StrategySemantic,
		Confidence: math.Min(float64(matches*15), 70),
	}
}

func entityMatch(in Input) StrategyResult {
	matches := countContained(toLower(in.Response), extractEntities(in.Content))
	return StrategyResult{
		Strategy:   StrategyEntityMatch,
		Confidence: math.Min(float64(matches*20), 75),
	}
}

// extractConcepts returns the lowercased concept matches in text, in pattern order,
// capped at maxConceptsPerText. Repeated terms are kept.
func extractConcepts(text string) []string {
	var out []string
	for _, p := range ConceptPatterns {
		for _, m := range p.Pattern.FindAllString(text, -1) {
			if len(out) >= maxConceptsPerText {
				return out
			}
			out = append(out, toLower(m))
		}
	}
	return out
}

// extractEntities returns distinct candidate entities between 3 and 29 characters.
func extractEntities(content string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range EntityPatterns {
		for _, m := range p.Pattern.FindAllString(content, -1) {
			m = strings.TrimSpace(m)
			n := utf8.RuneCountInString(m)
			if n < minEntityLength || n > maxEntityLength {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
