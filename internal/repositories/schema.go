package repositories

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stories (
		story_id     UUID PRIMARY KEY,
		title        TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		category     TEXT,
		tags         TEXT[] NOT NULL DEFAULT '{}',
		websites     TEXT[] NOT NULL DEFAULT '{}',
		status       TEXT NOT NULL DEFAULT 'active',
		published_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS search_queries (
		query_id     UUID PRIMARY KEY,
		story_id     UUID NOT NULL REFERENCES stories(story_id) ON DELETE CASCADE,
		query        TEXT NOT NULL,
		query_type   TEXT NOT NULL DEFAULT 'story_mention',
		generated_by TEXT NOT NULL DEFAULT 'manual',
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS search_results (
		result_id        UUID PRIMARY KEY,
		query_id         UUID NOT NULL REFERENCES search_queries(query_id) ON DELETE CASCADE,
		story_id         UUID NOT NULL REFERENCES stories(story_id) ON DELETE CASCADE,
		platform         TEXT NOT NULL,
		model            TEXT NOT NULL,
		response         TEXT NOT NULL,
		cited            BOOLEAN NOT NULL,
		citation_context TEXT,
		confidence       INTEGER NOT NULL,
		strategy         TEXT NOT NULL DEFAULT '',
		input_tokens     INTEGER NOT NULL DEFAULT 0,
		output_tokens    INTEGER NOT NULL DEFAULT 0,
		total_cost       DOUBLE PRECISION NOT NULL DEFAULT 0,
		searched_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS citations (
		citation_id      UUID PRIMARY KEY,
		story_id         UUID NOT NULL REFERENCES stories(story_id) ON DELETE CASCADE,
		search_result_id UUID NOT NULL REFERENCES search_results(result_id) ON DELETE CASCADE,
		platform         TEXT NOT NULL,
		query            TEXT NOT NULL,
		citation_text    TEXT NOT NULL,
		context          TEXT,
		source_urls      TEXT[] NOT NULL DEFAULT '{}',
		confidence       INTEGER NOT NULL,
		strategy         TEXT NOT NULL DEFAULT '',
		found_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS citation_sources (
		source_id   UUID PRIMARY KEY,
		citation_id UUID NOT NULL REFERENCES citations(citation_id) ON DELETE CASCADE,
		url         TEXT NOT NULL,
		domain      TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		kind        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_queries_story ON search_queries(story_id) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_search_results_story ON search_results(story_id, searched_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_citations_story ON citations(story_id, found_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_citation_sources_citation ON citation_sources(citation_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
