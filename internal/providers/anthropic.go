package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicProvider struct {
	client      anthropic.Client
	model       string
	costService CostService
}

func NewAnthropicProvider(cfg *config.Config, model string, costService CostService) LLMProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
	)
	return newAnthropicProvider(client, model, costService)
}

func newAnthropicProvider(client anthropic.Client, model string, costService CostService) *anthropicProvider {
	if costService == nil {
		costService = NewCostService()
	}
	return &anthropicProvider{
		client:      client,
		model:       model,
		costService: costService,
	}
}

func (p *anthropicProvider) GetProviderName() string {
	return "anthropic"
}

func (p *anthropicProvider) GetModelName() string {
	return p.model
}

func (p *anthropicProvider) Search(ctx context.Context, query string) (*AIResponse, error) {
	messages := []anthropic.MessageParam{{
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: query},
		}},
		Role: anthropic.MessageParamRoleUser,
	}}

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2000,
		System: []anthropic.TextBlockParam{
			{Text: searchSystemPrompt},
		},
		Messages:    messages,
		Temperature: anthropic.Float(0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	text := p.extractResponseText(*response)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	inputTokens := int(response.Usage.InputTokens)
	outputTokens := int(response.Usage.OutputTokens)
	return &AIResponse{
		Response:     text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, inputTokens, outputTokens),
	}, nil
}

func (p *anthropicProvider) extractResponseText(response anthropic.Message) string {
	var textParts []string

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}

	return strings.Join(textParts, "\n")
}
