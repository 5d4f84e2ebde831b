package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const azureAPIVersion = "2024-12-01-preview"

type openAIProvider struct {
	client      openai.Client
	model       string
	deployment  string // Azure deployment name, used as the model parameter when set
	costService CostService
}

func NewOpenAIProvider(cfg *config.Config, model string, costService CostService) LLMProvider {
	var opts []option.RequestOption
	deployment := ""

	if cfg.AzureOpenAIEndpoint != "" && cfg.AzureOpenAIKey != "" && cfg.AzureOpenAIDeploymentName != "" {
		opts = append(opts,
			azure.WithEndpoint(cfg.AzureOpenAIEndpoint, azureAPIVersion),
			azure.WithAPIKey(cfg.AzureOpenAIKey),
		)
		deployment = cfg.AzureOpenAIDeploymentName
		log.Info().
			Str("component", "OpenAIProvider").
			Str("endpoint", cfg.AzureOpenAIEndpoint).
			Str("deployment", deployment).
			Str("model", model).
			Msg("using Azure OpenAI")
	} else {
		opts = append(opts, option.WithAPIKey(cfg.OpenAIAPIKey))
		log.Info().
			Str("component", "OpenAIProvider").
			Str("model", model).
			Msg("using standard OpenAI")
	}

	return newOpenAIProvider(openai.NewClient(opts...), model, deployment, costService)
}

func newOpenAIProvider(client openai.Client, model, deployment string, costService CostService) *openAIProvider {
	if costService == nil {
		costService = NewCostService()
	}
	return &openAIProvider{
		client:      client,
		model:       model,
		deployment:  deployment,
		costService: costService,
	}
}

func (p *openAIProvider) GetProviderName() string {
	return "openai"
}

func (p *openAIProvider) GetModelName() string {
	return p.model
}

func (p *openAIProvider) modelParam() openai.ChatModel {
	if p.deployment != "" {
		return openai.ChatModel(p.deployment)
	}
	return openai.ChatModel(p.model)
}

// Search sends the query as a plain chat completion so the raw answer text reaches the detector.
func (p *openAIProvider) Search(ctx context.Context, query string) (*AIResponse, error) {
	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(searchSystemPrompt),
			openai.UserMessage(query),
		},
		Model:       p.modelParam(),
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return p.toResponse(response)
}

// CompleteJSON requests a strict JSON-schema response.
func (p *openAIProvider) CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema any) (*AIResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schemaName,
		Schema: schema,
		Strict: openai.Bool(true),
	}

	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: p.modelParam(),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		return nil, fmt.Errorf("structured completion failed: %w", err)
	}

	return p.toResponse(response)
}

func (p *openAIProvider) toResponse(response *openai.ChatCompletion) (*AIResponse, error) {
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned: %w", ErrEmptyResponse)
	}

	content := response.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyResponse
	}

	inputTokens := int(response.Usage.PromptTokens)
	outputTokens := int(response.Usage.CompletionTokens)
	return &AIResponse{
		Response:     content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost(p.GetProviderName(), p.model, inputTokens, outputTokens),
	}, nil
}
