package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilienceOptions configure the wrapper returned by NewResilientProvider.
// Zero values fall back to the defaults below.
type ResilienceOptions struct {
	Timeout         time.Duration
	MaxRetries      int
	RateLimitRPS    float64
	BreakerFailures int
	BreakerCooldown time.Duration
	InitialBackoff  time.Duration
	Logger          zerolog.Logger
}

const (
	defaultTimeout         = 60 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
	defaultInitialBackoff  = 500 * time.Millisecond
	maxBackoffInterval     = 10 * time.Second
)

// ResilientProvider rate limits, retries and circuit-breaks calls to another provider.
type ResilientProvider struct {
	inner   LLMProvider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	opts    ResilienceOptions
	logger  zerolog.Logger
}

func NewResilientProvider(inner LLMProvider, opts ResilienceOptions) *ResilientProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = defaultBreakerCooldown
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}

	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}

	logger := opts.Logger.With().
		Str("component", "ResilientProvider").
		Str("provider", inner.GetProviderName()).
		Logger()

	failures := uint32(opts.BreakerFailures)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.GetProviderName() + ":" + inner.GetModelName(),
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &ResilientProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		opts:    opts,
		logger:  logger,
	}
}

func (p *ResilientProvider) GetProviderName() string {
	return p.inner.GetProviderName()
}

func (p *ResilientProvider) GetModelName() string {
	return p.inner.GetModelName()
}

func (p *ResilientProvider) Search(ctx context.Context, query string) (*AIResponse, error) {
	return p.do(ctx, "search", func(callCtx context.Context) (*AIResponse, error) {
		return p.inner.Search(callCtx, query)
	})
}

// CompleteJSON forwards to the wrapped provider when it supports structured output.
func (p *ResilientProvider) CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema any) (*AIResponse, error) {
	completer, ok := p.inner.(StructuredCompleter)
	if !ok {
		return nil, ErrStructuredUnsupported
	}
	return p.do(ctx, "complete_json", func(callCtx context.Context) (*AIResponse, error) {
		return completer.CompleteJSON(callCtx, systemPrompt, userPrompt, schemaName, schema)
	})
}

func (p *ResilientProvider) do(ctx context.Context, op string, call func(context.Context) (*AIResponse, error)) (*AIResponse, error) {
	var result *AIResponse
	attempt := 0

	operation := func() error {
		attempt++
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter wait: %w", err))
		}

		out, err := p.breaker.Execute(func() (interface{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
			defer cancel()

			start := time.Now()
			resp, err := call(callCtx)
			metrics.RecordLLMRequest(p.inner.GetProviderName(), err, time.Since(start))
			return resp, err
		})
		if err != nil {
			if isPermanent(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}

		result = out.(*AIResponse)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.opts.InitialBackoff
	policy.MaxInterval = maxBackoffInterval
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		p.logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("provider call failed, retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.opts.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("%s %s failed after %d attempt(s): %w", p.inner.GetProviderName(), op, attempt, err)
	}
	return result, nil
}

// isPermanent reports errors that a retry cannot fix.
func isPermanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}
