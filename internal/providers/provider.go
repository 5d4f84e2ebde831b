package providers

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when a model answers with no text.
	ErrEmptyResponse = errors.New("provider returned an empty response")
	// ErrUnsupportedModel is returned by NewProvider for unknown model names.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrStructuredUnsupported is returned when a provider cannot produce schema-constrained output.
	ErrStructuredUnsupported = errors.New("provider does not support structured output")
)

// AIResponse contains the response from an AI provider
type AIResponse struct {
	Response     string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// LLMProvider sends a search query to one LLM platform.
type LLMProvider interface {
	Search(ctx context.Context, query string) (*AIResponse, error)
	GetProviderName() string
	GetModelName() string
}

// StructuredCompleter produces JSON that conforms to a schema.
type StructuredCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema any) (*AIResponse, error)
}

const searchSystemPrompt = "You are a helpful assistant. Answer the question thoroughly and cite the articles, reports and URLs you draw on."
