package testutil

import (
	"context"
	"sync"

	"github.com/AI-Template-SDK/story-citations/internal/providers"
)

// MockCostService is a mock implementation of CostService for testing
type MockCostService struct {
	CalculateCostFunc func(provider, model string, inputTokens, outputTokens int) float64
}

func (m *MockCostService) CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(provider, model, inputTokens, outputTokens)
	}
	return 0.0015 // Default mock cost
}

// NewMockCostService creates a new mock cost service
func NewMockCostService() *MockCostService {
	return &MockCostService{}
}

// MockProvider is an LLMProvider and StructuredCompleter driven by funcs.
// It records every query it receives and is safe for concurrent use.
type MockProvider struct {
	Name             string
	Model            string
	SearchFunc       func(ctx context.Context, query string) (*providers.AIResponse, error)
	CompleteJSONFunc func(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema any) (*providers.AIResponse, error)

	mu      sync.Mutex
	queries []string
}

// NewMockProvider returns a provider that answers every query with response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{
		Name:  "mock",
		Model: "mock-model",
		SearchFunc: func(ctx context.Context, query string) (*providers.AIResponse, error) {
			return &providers.AIResponse{Response: response, InputTokens: 100, OutputTokens: 50, Cost: 0.0015}, nil
		},
	}
}

func (m *MockProvider) Search(ctx context.Context, query string) (*providers.AIResponse, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.SearchFunc == nil {
		return nil, providers.ErrEmptyResponse
	}
	return m.SearchFunc(ctx, query)
}

func (m *MockProvider) CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema any) (*providers.AIResponse, error) {
	if m.CompleteJSONFunc == nil {
		return nil, providers.ErrStructuredUnsupported
	}
	return m.CompleteJSONFunc(ctx, systemPrompt, userPrompt, schemaName, schema)
}

func (m *MockProvider) GetProviderName() string { return m.Name }

func (m *MockProvider) GetModelName() string { return m.Model }

// Queries returns the queries received so far.
func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
