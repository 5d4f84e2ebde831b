// main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/AI-Template-SDK/story-citations/internal/logging"
	"github.com/AI-Template-SDK/story-citations/internal/providers"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/AI-Template-SDK/story-citations/services"
	"github.com/AI-Template-SDK/story-citations/workflows"
)

// buildProvider resolves a model name to a provider wrapped with rate limiting,
// retries and a circuit breaker.
func buildProvider(model string, cfg *config.Config, costService providers.CostService, logger zerolog.Logger) (*providers.ResilientProvider, error) {
	inner, err := providers.NewProvider(model, cfg, costService)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider for model %s: %w", model, err)
	}
	return providers.NewResilientProvider(inner, providers.ResilienceOptions{
		Timeout:         cfg.LLM.Timeout,
		MaxRetries:      cfg.LLM.MaxRetries,
		RateLimitRPS:    cfg.LLM.RateLimitRPS,
		BreakerFailures: cfg.LLM.BreakerFailures,
		Logger:          logger,
	}), nil
}

func buildIndexer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) services.CitationIndexer {
	if !cfg.Typesense.Enabled() {
		logger.Info().Msg("TYPESENSE_HOST not set, citation indexing disabled")
		return services.NewNoopCitationIndexer()
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.Typesense.URL()),
		typesense.WithAPIKey(cfg.Typesense.APIKey),
	)
	indexer := services.NewTypesenseCitationIndexer(client, logger)
	if err := indexer.EnsureCollection(ctx); err != nil {
		logger.Fatal().Err(err).Str("host", cfg.Typesense.Host).Msg("Failed to prepare Typesense collection")
	}
	return indexer
}

func main() {
	envNote := "Loaded .env file"
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			envNote = fmt.Sprintf("No .env or dev.env file loaded: %v", err)
		} else {
			envNote = "Loaded dev.env file for local development"
		}
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Environment)
	log.Logger = logger

	logger.Info().
		Str("environment", cfg.Environment).
		Str("port", cfg.Port).
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.Name).
		Str("llm_model", cfg.LLM.Model).
		Str("query_model", cfg.LLM.QueryModel).
		Msg(envNote)

	if cfg.OpenAIAPIKey == "" && cfg.AzureOpenAIKey == "" {
		logger.Warn().Msg("OpenAI API key not loaded")
	}
	if cfg.AnthropicAPIKey == "" {
		logger.Warn().Msg("Anthropic API key not loaded")
	}

	ctx := context.Background()
	db, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	repoManager := repositories.NewManager(db)
	if err := repoManager.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	logger.Info().Msg("Database connected and schema ready")

	if cfg.IsDevelopment() || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		logger.Info().Msg("Running in development mode - signing key verification disabled")
	}

	indexer := buildIndexer(ctx, cfg, logger)

	costService := providers.NewCostService()
	searchProvider, err := buildProvider(cfg.LLM.Model, cfg, costService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create search provider")
	}

	// Query generation degrades to templates when its model cannot be built.
	var queryLLM providers.StructuredCompleter
	if queryProvider, err := buildProvider(cfg.LLM.QueryModel, cfg, costService, logger); err != nil {
		logger.Warn().Err(err).Msg("Query model unavailable, using template queries only")
	} else {
		queryLLM = queryProvider
	}

	queryGenerator := services.NewQueryGeneratorService(queryLLM, repoManager, logger)
	citationSearch := services.NewCitationSearchService(searchProvider, repoManager, indexer, cfg.SearchConcurrency, logger)
	notifier := workflows.NewSlackNotifier(cfg.SlackWebhookURL)

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "story-citations",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Inngest client")
	}

	citationSearchProcessor := workflows.NewCitationSearchProcessor(repoManager.StoryRepo, repoManager.QueryRepo, citationSearch, notifier, logger)
	citationSearchProcessor.SetClient(client)
	citationSearchProcessor.SearchStoryCitations()

	queryGenerationProcessor := workflows.NewQueryGenerationProcessor(queryGenerator, logger)
	queryGenerationProcessor.SetClient(client)
	queryGenerationProcessor.GenerateStoryQueries()

	scheduledProcessor := workflows.NewScheduledProcessor(repoManager.StoryRepo, logger)
	scheduledProcessor.SetClient(client)
	scheduledProcessor.DailyCitationSweep()

	logger.Info().Msg("All processors initialized and functions registered")

	mux := http.NewServeMux()
	mux.Handle("/api/inngest", client.Serve())
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint for ALB health check
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"story-citations","status":"running"}`))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/test/trigger-story", triggerStoryHandler(client, logger))

	logger.Info().Str("port", cfg.Port).Msg("Starting Story Citations service")
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server stopped")
	}
}

// eventSender is the part of the Inngest client the trigger endpoint needs.
type eventSender interface {
	Send(ctx context.Context, evt any) (string, error)
}

// triggerStoryHandler sends a citation search for ?story_id=. With generate=true it
// generates queries first and chains the search.
func triggerStoryHandler(client eventSender, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		storyID, err := uuid.Parse(r.URL.Query().Get("story_id"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"story_id must be a UUID"}`))
			return
		}

		evt := inngestgo.Event{
			Name: workflows.EventCitationSearch,
			Data: map[string]interface{}{"story_id": storyID.String(), "triggered_by": "manual_test"},
		}
		if r.URL.Query().Get("generate") == "true" {
			evt = inngestgo.Event{
				Name: workflows.EventQueryGeneration,
				Data: map[string]interface{}{"story_id": storyID.String(), "run_search": true, "triggered_by": "manual_test"},
			}
		}

		result, err := client.Send(r.Context(), evt)
		if err != nil {
			logger.Error().Err(err).Str("story_id", storyID.String()).Msg("Failed to send test event")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf(`{"error":"Failed to send event: %v"}`, err)))
			return
		}

		logger.Info().Str("event", evt.Name).Str("event_id", result).Msg("Test event sent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"status":"success","event":"%s","story_id":"%s","event_ids":["%s"]}`, evt.Name, storyID, result)))
	}
}
