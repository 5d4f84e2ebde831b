package providers

import (
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/rs/zerolog/log"
)

// NewProvider creates the appropriate AI provider based on the model name
func NewProvider(modelName string, cfg *config.Config, costService CostService) (LLMProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is nil")
	}
	modelLower := strings.ToLower(strings.TrimSpace(modelName))
	if modelLower == "" {
		return nil, fmt.Errorf("%w: empty model name", ErrUnsupportedModel)
	}

	// OpenAI provider (gpt-4.1, o3, etc.), optionally through Azure
	if isOpenAIModel(modelLower) {
		azureReady := cfg.AzureOpenAIEndpoint != "" && cfg.AzureOpenAIKey != "" && cfg.AzureOpenAIDeploymentName != ""
		if cfg.OpenAIAPIKey == "" && !azureReady {
			return nil, fmt.Errorf("OpenAI API key is empty in config")
		}
		log.Info().Str("component", "ProviderFactory").Str("model", modelName).Msg("selected OpenAI provider")
		return NewOpenAIProvider(cfg, modelName, costService), nil
	}

	// Anthropic provider
	if strings.Contains(modelLower, "claude") || strings.Contains(modelLower, "sonnet") ||
		strings.Contains(modelLower, "opus") || strings.Contains(modelLower, "haiku") {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key is empty in config")
		}
		log.Info().Str("component", "ProviderFactory").Str("model", modelName).Msg("selected Anthropic provider")
		return NewAnthropicProvider(cfg, modelName, costService), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelName)
}

func isOpenAIModel(modelLower string) bool {
	return strings.Contains(modelLower, "gpt") ||
		strings.Contains(modelLower, "4.1") ||
		strings.HasPrefix(modelLower, "o1") ||
		strings.HasPrefix(modelLower, "o3") ||
		strings.HasPrefix(modelLower, "o4")
}
