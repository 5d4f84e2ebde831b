package providers

import "strings"

// CostService prices a provider call.
type CostService interface {
	CalculateCost(provider string, model string, inputTokens int, outputTokens int) float64
}

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// Cost per 1M tokens
var costPerToken = map[string]struct{ input, output float64 }{
	"gpt-5":                      {input: 1.25, output: 10.00},
	"gpt-5-mini":                 {input: 0.25, output: 2.00},
	"gpt-4.1":                    {input: 3.00, output: 12.00},
	"gpt-4.1-mini":               {input: 0.80, output: 3.20},
	"gpt-4o":                     {input: 2.50, output: 10.00},
	"gpt-4o-mini":                {input: 0.15, output: 0.60},
	"claude-sonnet-4-20250514":   {input: 3.00, output: 15.00},
	"claude-opus-4-20250514":     {input: 15.00, output: 75.00},
	"claude-3-5-haiku-20241022":  {input: 0.80, output: 4.00},
	"claude-3-7-sonnet-20250219": {input: 3.00, output: 15.00},
}

func (s *costService) CalculateCost(provider string, model string, inputTokens int, outputTokens int) float64 {
	modelCosts, exists := costPerToken[strings.ToLower(model)]
	if !exists {
		// Default to the provider's flagship pricing if model not found
		modelCosts = costPerToken[s.defaultModel(provider)]
	}

	inputCost := (float64(inputTokens) / 1_000_000.0) * modelCosts.input
	outputCost := (float64(outputTokens) / 1_000_000.0) * modelCosts.output
	return inputCost + outputCost
}

func (s *costService) defaultModel(provider string) string {
	provider = strings.ToLower(provider)
	if strings.Contains(provider, "anthropic") || strings.Contains(provider, "claude") {
		return "claude-sonnet-4-20250514"
	}
	return "gpt-4.1"
}
