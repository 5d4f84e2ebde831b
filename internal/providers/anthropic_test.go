package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, body string) *anthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return newAnthropicProvider(client, "claude-sonnet-4-20250514", nil)
}

func TestAnthropicSearch(t *testing.T) {
	provider := newTestAnthropicProvider(t, `{
		"id": "msg_test",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [
			{"type": "text", "text": "First part."},
			{"type": "text", "text": "Second part."}
		],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 1000, "output_tokens": 1000}
	}`)

	resp, err := provider.Search(context.Background(), "tesla battery news")
	require.NoError(t, err)

	assert.Equal(t, "First part.\nSecond part.", resp.Response)
	assert.Equal(t, 1000, resp.InputTokens)
	assert.InDelta(t, 0.018, resp.Cost, 1e-9)
	assert.Equal(t, "anthropic", provider.GetProviderName())
}

func TestAnthropicSearchEmptyResponse(t *testing.T) {
	provider := newTestAnthropicProvider(t, `{
		"id": "msg_test",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 0}
	}`)

	_, err := provider.Search(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}
