// workflows/events.go
package workflows

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	EventCitationSearch  = "story/citations.search"
	EventQueryGeneration = "story/queries.generate"
)

type StoryCitationSearchEvent struct {
	StoryID     string `json:"story_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

type StoryQueryGenerationEvent struct {
	StoryID     string `json:"story_id"`
	RunSearch   bool   `json:"run_search,omitempty"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func parseStoryID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid story_id %q: %w", raw, err)
	}
	return id, nil
}

// citationSearchEventData is the payload sent to trigger a citation search.
func citationSearchEventData(storyID uuid.UUID, triggeredBy string) map[string]interface{} {
	return map[string]interface{}{
		"story_id":     storyID.String(),
		"triggered_by": triggeredBy,
	}
}
