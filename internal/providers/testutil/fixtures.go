package testutil

import (
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SampleConfig returns a test configuration
func SampleConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		OpenAIAPIKey:      "test-openai-key",
		AnthropicAPIKey:   "test-anthropic-key",
		SearchConcurrency: 2,
		LLM: config.LLMConfig{
			Model:           "gpt-4.1",
			QueryModel:      "gpt-4.1",
			Timeout:         5 * time.Second,
			MaxRetries:      0,
			BreakerFailures: 5,
		},
	}
}

// SampleStory returns a tracked story with a primary website.
func SampleStory() *models.Story {
	category := "technology"
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Story{
		StoryID:   uuid.MustParse("6f1c2a9e-3b7d-4c1e-9a52-1d2e3f4a5b6c"),
		Title:     "Tesla Unveils New Battery Tech",
		Content:   "Tesla announced a battery cell with longer range and faster charging for its vehicles.",
		Category:  &category,
		Tags:      pq.StringArray{"electric vehicles", "batteries"},
		Websites:  pq.StringArray{"https://www.tesla.com"},
		Status:    models.StoryStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SampleQueries returns active queries for SampleStory.
func SampleQueries(storyID uuid.UUID) []*models.SearchQuery {
	texts := []string{
		"What is new in Tesla battery technology?",
		"Latest electric vehicle battery news",
		"Who makes the longest range EV batteries?",
	}
	out := make([]*models.SearchQuery, 0, len(texts))
	for i, q := range texts {
		out = append(out, &models.SearchQuery{
			QueryID:     uuid.New(),
			StoryID:     storyID,
			Query:       q,
			QueryType:   models.QueryTypeStoryMention,
			GeneratedBy: models.GeneratedByTemplate,
			IsActive:    true,
			CreatedAt:   time.Date(2025, 3, 1, 12, i, 0, 0, time.UTC),
		})
	}
	return out
}

// SampleCitedResponse mentions SampleStory verbatim and links a source.
func SampleCitedResponse() string {
	return "Tesla Unveils New Battery Tech was widely reported. Source: https://reuters.com/tesla-battery " +
		"and the company post at https://www.tesla.com/blog/battery-day."
}

// SampleUncitedResponse shares nothing with SampleStory.
func SampleUncitedResponse() string {
	return "I don't have any details on that topic."
}
