package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls   atomic.Int32
	respond func(call int32) (*AIResponse, error)
}

func (s *scriptedProvider) Search(ctx context.Context, query string) (*AIResponse, error) {
	return s.respond(s.calls.Add(1))
}

func (s *scriptedProvider) GetProviderName() string { return "scripted" }
func (s *scriptedProvider) GetModelName() string    { return "scripted-1" }

func testOptions(retries int) ResilienceOptions {
	return ResilienceOptions{
		Timeout:         time.Second,
		MaxRetries:      retries,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
		InitialBackoff:  time.Millisecond,
		Logger:          zerolog.Nop(),
	}
}

func TestResilientRetriesTransientErrors(t *testing.T) {
	inner := &scriptedProvider{respond: func(call int32) (*AIResponse, error) {
		if call < 3 {
			return nil, errors.New("502 bad gateway")
		}
		return &AIResponse{Response: "ok"}, nil
	}}

	p := NewResilientProvider(inner, testOptions(3))
	resp, err := p.Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Response)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	inner := &scriptedProvider{respond: func(int32) (*AIResponse, error) {
		return nil, errors.New("timeout")
	}}

	p := NewResilientProvider(inner, ResilienceOptions{
		Timeout:         time.Second,
		MaxRetries:      2,
		BreakerFailures: 10,
		InitialBackoff:  time.Millisecond,
		Logger:          zerolog.Nop(),
	})
	_, err := p.Search(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilientDoesNotRetryEmptyResponse(t *testing.T) {
	inner := &scriptedProvider{respond: func(int32) (*AIResponse, error) {
		return nil, ErrEmptyResponse
	}}

	p := NewResilientProvider(inner, testOptions(3))
	_, err := p.Search(context.Background(), "q")

	assert.True(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestResilientBreakerOpens(t *testing.T) {
	inner := &scriptedProvider{respond: func(int32) (*AIResponse, error) {
		return nil, errors.New("500")
	}}

	p := NewResilientProvider(inner, testOptions(0))
	for i := 0; i < 3; i++ {
		_, err := p.Search(context.Background(), "q")
		require.Error(t, err)
	}

	_, err := p.Search(context.Background(), "q")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilientStructuredUnsupported(t *testing.T) {
	inner := &scriptedProvider{respond: func(int32) (*AIResponse, error) { return &AIResponse{Response: "x"}, nil }}

	p := NewResilientProvider(inner, testOptions(0))
	_, err := p.CompleteJSON(context.Background(), "s", "u", "name", nil)

	assert.True(t, errors.Is(err, ErrStructuredUnsupported))
	assert.Equal(t, "scripted", p.GetProviderName())
	assert.Equal(t, "scripted-1", p.GetModelName())
}

func TestResilientHonorsCancelledContext(t *testing.T) {
	inner := &scriptedProvider{respond: func(int32) (*AIResponse, error) {
		return nil, errors.New("should not be called")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewResilientProvider(inner, testOptions(3))
	_, err := p.Search(ctx, "q")

	require.Error(t, err)
	assert.Equal(t, int32(0), inner.calls.Load())
}
