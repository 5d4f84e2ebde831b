// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Story statuses
const (
	StoryStatusActive   = "active"
	StoryStatusPaused   = "paused"
	StoryStatusArchived = "archived"
)

// Query types
const (
	QueryTypeStoryMention       = "story_mention"
	QueryTypeCompetitorAnalysis = "competitor_analysis"
	QueryTypeIndustryNews       = "industry_news"
)

// Query origins
const (
	GeneratedByManual   = "manual"
	GeneratedByAI       = "ai"
	GeneratedByTemplate = "template"
)

// Story is a tracked piece of published content.
type Story struct {
	StoryID     uuid.UUID      `json:"story_id" db:"story_id"`
	Title       string         `json:"title" db:"title"`
	Content     string         `json:"content" db:"content"`
	Category    *string        `json:"category,omitempty" db:"category"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Websites    pq.StringArray `json:"websites" db:"websites"` // Story's own domains for primary/secondary classification
	Status      string         `json:"status" db:"status"`
	PublishedAt *time.Time     `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// SearchQuery is a query sent to LLM platforms on behalf of a story.
type SearchQuery struct {
	QueryID     uuid.UUID `json:"query_id" db:"query_id"`
	StoryID     uuid.UUID `json:"story_id" db:"story_id"`
	Query       string    `json:"query" db:"query"`
	QueryType   string    `json:"query_type" db:"query_type"`
	GeneratedBy string    `json:"generated_by" db:"generated_by"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SearchResult stores one LLM call and the detector verdict on it.
type SearchResult struct {
	ResultID        uuid.UUID `json:"result_id" db:"result_id"`
	QueryID         uuid.UUID `json:"query_id" db:"query_id"`
	StoryID         uuid.UUID `json:"story_id" db:"story_id"`
	Platform        string    `json:"platform" db:"platform"`
	Model           string    `json:"model" db:"model"`
	Response        string    `json:"response" db:"response"`
	Cited           bool      `json:"cited" db:"cited"`
	CitationContext *string   `json:"citation_context,omitempty" db:"citation_context"`
	Confidence      int       `json:"confidence" db:"confidence"`
	Strategy        string    `json:"strategy" db:"strategy"`
	InputTokens     int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens    int       `json:"output_tokens" db:"output_tokens"`
	TotalCost       float64   `json:"total_cost" db:"total_cost"`
	SearchedAt      time.Time `json:"searched_at" db:"searched_at"`
}

// Citation is a confirmed reference to a story in an LLM response.
type Citation struct {
	CitationID     uuid.UUID      `json:"citation_id" db:"citation_id"`
	StoryID        uuid.UUID      `json:"story_id" db:"story_id"`
	SearchResultID uuid.UUID      `json:"search_result_id" db:"search_result_id"`
	Platform       string         `json:"platform" db:"platform"`
	Query          string         `json:"query" db:"query"`
	CitationText   string         `json:"citation_text" db:"citation_text"`
	Context        *string        `json:"context,omitempty" db:"context"`
	SourceURLs     pq.StringArray `json:"source_urls" db:"source_urls"`
	Confidence     int            `json:"confidence" db:"confidence"`
	Strategy       string         `json:"strategy" db:"strategy"`
	FoundAt        time.Time      `json:"found_at" db:"found_at"`
}

// CitationSource is one classified URL attached to a citation.
type CitationSource struct {
	SourceID   uuid.UUID `json:"source_id" db:"source_id"`
	CitationID uuid.UUID `json:"citation_id" db:"citation_id"`
	URL        string    `json:"url" db:"url"`
	Domain     string    `json:"domain" db:"domain"`
	Type       string    `json:"type" db:"type"` // primary, secondary
	Kind       string    `json:"kind" db:"kind"` // news, academic, other
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SearchSummary is the outcome of running every active query for a story.
type SearchSummary struct {
	StoryID            uuid.UUID `json:"story_id"`
	TotalQueries       int       `json:"total_queries"`
	SuccessfulSearches int       `json:"successful_searches"`
	CitationsFound     int       `json:"citations_found"`
	TotalCost          float64   `json:"total_cost"`
	Errors             []string  `json:"errors,omitempty"`
}

// QueryRunResult is the outcome of a single query run.
type QueryRunResult struct {
	SearchResult *SearchResult `json:"search_result"`
	Citation     *Citation     `json:"citation,omitempty"`
}
