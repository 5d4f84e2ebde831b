// Package citation decides whether an LLM response cites a tracked story.
//
// Detection runs a fixed, ordered set of heuristic strategies over the story
// title/content and the raw response, keeps the highest-confidence result and
// attaches the source URLs found in the response. A Detector holds no mutable
// state and is safe for concurrent use.
package citation

import (
	"math"
)

const (
	// CitedThreshold is the confidence a winning strategy must exceed to count as a citation.
	CitedThreshold = 25
	// EarlyExitConfidence stops strategy evaluation once the running maximum reaches it.
	EarlyExitConfidence = 80

	contextLength         = 800
	strategyContextLength = 300
	fallbackThreshold     = 30
)

// Input is a single detection request.
type Input struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

// StrategyResult is the candidate produced by one strategy.
type StrategyResult struct {
	Strategy     string   `json:"strategy"`
	Confidence   float64  `json:"confidence"`
	CitationText *string  `json:"citation_text"`
	Context      *string  `json:"context"`
	SourceURLs   []string `json:"source_urls"`
}

// Result is the outcome of a detection call.
type Result struct {
	Cited        bool     `json:"cited"`
	Confidence   int      `json:"confidence"`
	CitationText *string  `json:"citation_text"`
	Context      *string  `json:"context"`
	SourceURLs   []string `json:"source_urls"`
	Strategy     string   `json:"strategy"`
}

// Strategy scores one input. Strategies must be pure.
type Strategy struct {
	Name  string
	Score func(in Input) StrategyResult
}

// Detector runs strategies in order and picks the strongest result.
type Detector struct {
	strategies []Strategy
	exhaustive bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Detector) {
		d.strategies = strategies
	}
}

// WithExhaustiveEvaluation disables the early exit so every strategy runs.
func WithExhaustiveEvaluation() Option {
	return func(d *Detector) {
		d.exhaustive = true
	}
}

// NewDetector builds a detector with the default strategies unless overridden.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDetector = NewDetector()

// Detect runs the default detector.
func Detect(title, content, query, response string) Result {
	return defaultDetector.Detect(Input{Title: title, Content: content, Query: query, Response: response})
}

// Detect never panics. If a strategy panics, the simplified fallback result is returned instead.
func (d *Detector) Detect(in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = safeFallback(in)
		}
	}()

	best, ok := d.evaluate(in)
	if !ok || best.Confidence <= CitedThreshold {
		return notCited(best)
	}

	text := best.CitationText
	if text == nil {
		text = bestMatchingSentence(in.Response, in.Title)
	}
	ctx := truncate(in.Response, contextLength)

	return Result{
		Cited:        true,
		Confidence:   clampConfidence(best.Confidence),
		CitationText: text,
		Context:      &ctx,
		SourceURLs:   ExtractSourceURLs(in.Response),
		Strategy:     best.Strategy,
	}
}

// evaluate returns the winning strategy result. Ties keep the earlier strategy.
func (d *Detector) evaluate(in Input) (StrategyResult, bool) {
	var best StrategyResult
	found := false
	for _, s := range d.strategies {
		res := s.Score(in)
		if res.Strategy == "" {
			res.Strategy = s.Name
		}
		if !found || res.Confidence > best.Confidence {
			best = res
			found = true
		}
		if !d.exhaustive && best.Confidence >= EarlyExitConfidence {
			break
		}
	}
	return best, found
}

// notCited reports no citation. The strategy name is kept as metadata; the
// confidence of a losing candidate is not.
func notCited(best StrategyResult) Result {
	return Result{
		Cited:      false,
		Confidence: 0,
		SourceURLs: []string{},
		Strategy:   best.Strategy,
	}
}

func safeFallback(in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = notCited(StrategyResult{Strategy: StrategyFallback})
		}
	}()
	return fallbackDetect(in)
}

// fallbackDetect is the simplified title-word check used when the main pipeline fails.
func fallbackDetect(in Input) Result {
	words := lowerFields(in.Title)
	if len(words) == 0 {
		return notCited(StrategyResult{Strategy: StrategyFallback})
	}

	response := toLower(in.Response)
	matches := 0
	for _, w := range words {
		if contains(response, w) {
			matches++
		}
	}
	confidence := float64(matches) / float64(len(words)) * 60
	if confidence <= fallbackThreshold {
		return notCited(StrategyResult{Strategy: StrategyFallback})
	}

	ctx := truncate(in.Response, strategyContextLength)
	return Result{
		Cited:        true,
		Confidence:   clampConfidence(confidence),
		CitationText: bestMatchingSentence(in.Response, in.Title),
		Context:      &ctx,
		SourceURLs:   []string{},
		Strategy:     StrategyFallback,
	}
}

func clampConfidence(c float64) int {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return int(math.Round(c))
}
