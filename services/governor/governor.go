package governor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantumfork/whatif/services/monitor"
	"github.com/quantumfork/whatif/services/providers"
	"github.com/quantumfork/whatif/services/ratelimit"
	"github.com/quantumfork/whatif/services/respcache"
)

// ErrExhausted is returned when every candidate in the fallback chain
// failed. The caller is expected to fall back to procedural generation
// rather than surfacing this to the end user.
var ErrExhausted = errors.New("all provider candidates failed")

// RateLimitedError is the advisory rate-limit-denied outcome. RetryAfter
// estimates when at least one token will be available; zero means the
// bucket never replenishes.
type RateLimitedError struct {
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %.1fs", e.RetryAfter.Seconds())
	}
	return "rate limit exceeded"
}

// IsRateLimited reports whether err is a rate-limit denial
func IsRateLimited(err error) bool {
	var rle *RateLimitedError
	return errors.As(err, &rle)
}

// Candidate is one entry in the ordered provider fallback chain
type Candidate struct {
	Model     string
	Provider  providers.Provider
	CostPer1K float64
}

// Governor wraps every outbound LLM request with the response cache, the
// token-bucket rate limiter, the provider fallback chain, and the call
// monitor. It owns no caller-facing state of its own.
type Governor struct {
	limiter     *ratelimit.Limiter
	cache       *respcache.Cache
	monitor     *monitor.CallMonitor
	candidates  []Candidate
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// New creates a governor over the given fallback chain
func New(
	limiter *ratelimit.Limiter,
	cache *respcache.Cache,
	mon *monitor.CallMonitor,
	candidates []Candidate,
	maxTokens int,
	temperature float64,
	logger *zap.Logger,
) *Governor {
	return &Governor{
		limiter:     limiter,
		cache:       cache,
		monitor:     mon,
		candidates:  candidates,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate runs one governed generation request: cache check, rate-limit
// check, then the candidate chain with early return on first success.
//
// A cache hit records a zero-cost call under the provider's cache
// identity and returns immediately, consuming no token. A denial returns
// RateLimitedError without touching any provider. A per-candidate failure
// is recorded against that candidate's model and the chain advances; when
// every candidate fails, ErrExhausted is returned and nothing is cached.
func (g *Governor) Generate(ctx context.Context, prompt, namespace string) (json.RawMessage, error) {
	if cached := g.cache.Get(prompt, namespace); cached != nil {
		if payload, ok := cached.(json.RawMessage); ok {
			g.monitor.Record(g.cacheIdentity(), 0, 0, false)
			g.logger.Debug("cache hit", zap.String("namespace", namespace))
			return payload, nil
		}
	}

	allowed, wait := g.limiter.Allow()
	if !allowed {
		g.logger.Warn("generation denied by rate limiter",
			zap.String("namespace", namespace),
			zap.Duration("retry_after", wait))
		return nil, &RateLimitedError{RetryAfter: wait}
	}

	for _, candidate := range g.candidates {
		payload, tokens, err := g.attempt(ctx, candidate, prompt)
		if err != nil {
			g.monitor.Record(candidate.Model, 0, 0, true)
			g.logger.Warn("candidate failed, advancing chain",
				zap.String("model", candidate.Model),
				zap.String("namespace", namespace),
				zap.Error(err))
			continue
		}

		cost := float64(tokens) * candidate.CostPer1K / 1000
		g.monitor.Record(candidate.Model, tokens, cost, false)
		g.cache.Set(prompt, namespace, payload)

		g.logger.Info("generation succeeded",
			zap.String("model", candidate.Model),
			zap.String("namespace", namespace),
			zap.Int("tokens", tokens),
			zap.Float64("cost", cost))
		return payload, nil
	}

	g.logger.Warn("fallback chain exhausted", zap.String("namespace", namespace))
	return nil, ErrExhausted
}

// Status reports the limiter, cache, and monitor state in one snapshot
func (g *Governor) Status() StatusReport {
	return StatusReport{
		RateLimiter: g.limiter.Status(),
		Cache:       g.cache.GetStats(),
		Monitor:     g.monitor.Stats(),
	}
}

// ClearCache drops all cached responses, keeping cumulative counters
func (g *Governor) ClearCache() {
	g.cache.Clear()
}

// StatusReport aggregates the state of all three governed components
type StatusReport struct {
	RateLimiter ratelimit.Status `json:"rate_limiter"`
	Cache       respcache.Stats  `json:"cache"`
	Monitor     monitor.Stats    `json:"monitor"`
}

// attempt performs one candidate call and validates the payload is JSON
func (g *Governor) attempt(ctx context.Context, candidate Candidate, prompt string) (json.RawMessage, int, error) {
	resp, err := candidate.Provider.ChatCompletion(ctx, &providers.ChatRequest{
		Model:       candidate.Model,
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, 0, err
	}

	if len(resp.Choices) == 0 {
		return nil, 0, fmt.Errorf("empty response from %s", candidate.Model)
	}

	content := []byte(resp.Choices[0].Message.Content)
	if !json.Valid(content) {
		return nil, 0, fmt.Errorf("non-JSON payload from %s", candidate.Model)
	}

	return json.RawMessage(content), resp.Usage.TotalTokens, nil
}

// cacheIdentity is the synthetic monitor identity for cache hits
func (g *Governor) cacheIdentity() string {
	if len(g.candidates) > 0 {
		return g.candidates[0].Provider.Name() + monitor.CacheIdentitySuffix
	}
	return "cache"
}
