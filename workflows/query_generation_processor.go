// workflows/query_generation_processor.go
package workflows

import (
	"context"
	"fmt"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/story-citations/services"
)

type QueryGenerationProcessor struct {
	queryGenerator services.QueryGeneratorService
	client         inngestgo.Client
	logger         zerolog.Logger
}

func NewQueryGenerationProcessor(queryGenerator services.QueryGeneratorService, logger zerolog.Logger) *QueryGenerationProcessor {
	return &QueryGenerationProcessor{
		queryGenerator: queryGenerator,
		logger:         logger.With().Str("component", "QueryGenerationProcessor").Logger(),
	}
}

func (p *QueryGenerationProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *QueryGenerationProcessor) GenerateStoryQueries() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "story-query-generation",
			Name:    "Story Query Generation - AI and Template Search Queries",
			Retries: inngestgo.IntPtr(2),
		},
		inngestgo.EventTrigger(EventQueryGeneration, nil),
		func(ctx context.Context, input inngestgo.Input[StoryQueryGenerationEvent]) (any, error) {
			data := input.Event.Data
			storyID, err := parseStoryID(data.StoryID)
			if err != nil {
				return nil, err
			}

			created, err := step.Run(ctx, "generate-queries", func(ctx context.Context) (int, error) {
				queries, err := p.queryGenerator.GenerateAndStore(ctx, storyID)
				if err != nil {
					return 0, err
				}
				return len(queries), nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to generate queries for story %s: %w", storyID, err)
			}
			p.logger.Info().Str("story_id", data.StoryID).Int("created", created).Msg("generated search queries")

			searchTriggered := false
			if data.RunSearch {
				_, err := step.Run(ctx, "trigger-citation-search", func(ctx context.Context) (string, error) {
					return p.client.Send(ctx, inngestgo.Event{
						Name: EventCitationSearch,
						Data: citationSearchEventData(storyID, "query_generation"),
					})
				})
				if err != nil {
					return nil, fmt.Errorf("failed to trigger citation search for story %s: %w", storyID, err)
				}
				searchTriggered = true
			}

			return map[string]interface{}{
				"story_id":         data.StoryID,
				"queries_created":  created,
				"search_triggered": searchTriggered,
			}, nil
		},
	)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to create story query generation function")
	}
	return fn
}
