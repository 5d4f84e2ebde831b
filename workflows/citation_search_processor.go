// workflows/citation_search_processor.go
package workflows

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/AI-Template-SDK/story-citations/services"
)

// queryOutcome is the memoized result of one query step. Failures are kept as
// values so a retry of the function does not re-run queries that already ran.
type queryOutcome struct {
	Query string  `json:"query"`
	Cited bool    `json:"cited"`
	Cost  float64 `json:"cost"`
	Error string  `json:"error,omitempty"`
}

// addQueryOutcome folds one query step into the run summary.
func addQueryOutcome(summary *models.SearchSummary, outcome queryOutcome) {
	if outcome.Error != "" {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", outcome.Query, outcome.Error))
		return
	}
	summary.SuccessfulSearches++
	summary.TotalCost += outcome.Cost
	if outcome.Cited {
		summary.CitationsFound++
	}
}

type CitationSearchProcessor struct {
	stories       repositories.StoryRepository
	queries       repositories.SearchQueryRepository
	searchService services.CitationSearchService
	notifier      *SlackNotifier
	client        inngestgo.Client
	logger        zerolog.Logger
}

func NewCitationSearchProcessor(
	stories repositories.StoryRepository,
	queries repositories.SearchQueryRepository,
	searchService services.CitationSearchService,
	notifier *SlackNotifier,
	logger zerolog.Logger,
) *CitationSearchProcessor {
	return &CitationSearchProcessor{
		stories:       stories,
		queries:       queries,
		searchService: searchService,
		notifier:      notifier,
		logger:        logger.With().Str("component", "CitationSearchProcessor").Logger(),
	}
}

func (p *CitationSearchProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *CitationSearchProcessor) SearchStoryCitations() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "story-citation-search",
			Name:    "Story Citation Search - Query LLMs and Detect Citations",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(EventCitationSearch, nil),
		func(ctx context.Context, input inngestgo.Input[StoryCitationSearchEvent]) (any, error) {
			rawID := input.Event.Data.StoryID
			p.logger.Info().Str("story_id", rawID).Str("triggered_by", input.Event.Data.TriggeredBy).Msg("starting citation search pipeline")

			storyID, err := parseStoryID(rawID)
			if err != nil {
				p.reportFailure(ctx, rawID, "", "invalid-event", err)
				return nil, err
			}

			// Step 1: load the story so failures can be reported with its title
			story, err := step.Run(ctx, "load-story", func(ctx context.Context) (*models.Story, error) {
				return p.stories.GetByID(ctx, storyID)
			})
			if err != nil {
				p.reportFailure(ctx, rawID, "", "load-story", err)
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			// Step 2: load the active queries
			queries, err := step.Run(ctx, "load-queries", func(ctx context.Context) ([]*models.SearchQuery, error) {
				return p.queries.ListActiveByStory(ctx, storyID)
			})
			if err != nil {
				p.reportFailure(ctx, rawID, story.Title, "load-queries", err)
				return nil, fmt.Errorf("step 2 failed: %w", err)
			}

			summary := &models.SearchSummary{StoryID: storyID, TotalQueries: len(queries)}
			if len(queries) == 0 {
				p.logger.Warn().Str("story_id", rawID).Msg("story has no active queries, nothing to search")
			}

			// Step 3: one step per query, so a retry only re-runs the queries that have not completed
			for _, q := range queries {
				outcome, err := step.Run(ctx, "search-query-"+q.QueryID.String(), func(ctx context.Context) (queryOutcome, error) {
					out := queryOutcome{Query: q.Query}
					res, err := p.searchService.RunQuery(ctx, story, q)
					if err != nil {
						out.Error = err.Error()
						return out, nil
					}
					out.Cited = res.Citation != nil
					out.Cost = res.SearchResult.TotalCost
					return out, nil
				})
				if err != nil {
					p.reportFailure(ctx, rawID, story.Title, "search-query", err)
					return nil, fmt.Errorf("step 3 failed for query %s: %w", q.QueryID, err)
				}
				addQueryOutcome(summary, outcome)
			}
			sort.Strings(summary.Errors)

			if summary.TotalQueries > 0 && summary.SuccessfulSearches == 0 {
				p.reportFailure(ctx, rawID, story.Title, "all-queries-failed",
					fmt.Errorf("%d of %d queries failed", len(summary.Errors), summary.TotalQueries))
			}

			return map[string]interface{}{
				"story_id":            rawID,
				"story_title":         story.Title,
				"status":              "completed",
				"total_queries":       summary.TotalQueries,
				"successful_searches": summary.SuccessfulSearches,
				"citations_found":     summary.CitationsFound,
				"total_cost":          summary.TotalCost,
				"errors":              summary.Errors,
			}, nil
		},
	)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to create story citation search function")
	}
	return fn
}

func (p *CitationSearchProcessor) reportFailure(ctx context.Context, storyID, title, reason string, err error) {
	if slackErr := p.notifier.ReportStoryFailure(ctx, "story-citation-search", storyID, title, reason, err); slackErr != nil && !errors.Is(slackErr, ErrSlackDisabled) {
		p.logger.Warn().Err(slackErr).Msg("failed to report pipeline failure to Slack")
	}
}
