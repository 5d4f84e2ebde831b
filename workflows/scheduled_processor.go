// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/story-citations/internal/repositories"
)

type ScheduledProcessor struct {
	stories repositories.StoryRepository
	client  inngestgo.Client
	logger  zerolog.Logger
}

func NewScheduledProcessor(stories repositories.StoryRepository, logger zerolog.Logger) *ScheduledProcessor {
	return &ScheduledProcessor{
		stories: stories,
		logger:  logger.With().Str("component", "ScheduledProcessor").Logger(),
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *ScheduledProcessor) DailyCitationSweep() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-citation-sweep",
			Name: "Daily Citation Sweep - All Active Stories",
		},
		inngestgo.CronTrigger("0 3 * * *"), // Every day at 3 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now().UTC()

			storyIDs, err := step.Run(ctx, "get-active-stories", func(ctx context.Context) ([]uuid.UUID, error) {
				stories, err := p.stories.ListActive(ctx)
				if err != nil {
					return nil, err
				}
				ids := make([]uuid.UUID, 0, len(stories))
				for _, s := range stories {
					ids = append(ids, s.StoryID)
				}
				return ids, nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list active stories: %w", err)
			}

			// One step per story so a retry only resends what did not complete.
			triggered := 0
			for _, storyID := range storyIDs {
				stepName := fmt.Sprintf("trigger-citation-search-%s", storyID.String())
				_, err := step.Run(ctx, stepName, func(ctx context.Context) (string, error) {
					return p.client.Send(ctx, inngestgo.Event{
						Name: EventCitationSearch,
						Data: citationSearchEventData(storyID, "automatic_scheduler"),
					})
				})
				if err != nil {
					p.logger.Warn().Err(err).Str("story_id", storyID.String()).Msg("failed to send citation search event")
					continue
				}
				triggered++
			}

			return map[string]interface{}{
				"execution_date":      now.Format("2006-01-02"),
				"total_stories_found": len(storyIDs),
				"searches_triggered":  triggered,
				"message":             fmt.Sprintf("Triggered %d citation searches", triggered),
			}, nil
		},
	)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to create daily citation sweep function")
	}
	return fn
}
