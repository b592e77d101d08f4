package governor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/quantumfork/whatif/services/monitor"
	"github.com/quantumfork/whatif/services/providers"
	"github.com/quantumfork/whatif/services/ratelimit"
	"github.com/quantumfork/whatif/services/respcache"
)

// fakeProvider returns a canned response or error and counts calls
type fakeProvider struct {
	name    string
	content string
	tokens  int
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{
		ID:       "fake",
		Model:    req.Model,
		Provider: f.name,
		Choices: []providers.Choice{
			{Message: providers.Message{Role: "assistant", Content: f.content}},
		},
		Usage: providers.Usage{TotalTokens: f.tokens},
	}, nil
}

func (f *fakeProvider) ValidateModel(string) error { return nil }

func (f *fakeProvider) GetModelInfo(string) (*providers.ModelInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeProvider) ListModels() []string { return nil }

func newTestGovernor(capacity int, candidates []Candidate) (*Governor, *monitor.CallMonitor, *respcache.Cache) {
	limiter := ratelimit.NewLimiter(capacity, 0)
	cache := respcache.New(10, time.Hour)
	mon := monitor.NewCallMonitor()
	gov := New(limiter, cache, mon, candidates, 1024, 0.7, zap.NewNop())
	return gov, mon, cache
}

func TestGovernor_SuccessCachesAndRecords(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{"title":"The Expected Path"}`, tokens: 200}
	gov, mon, _ := newTestGovernor(10, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	payload, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"title":"The Expected Path"}`, string(payload))
	assert.Equal(t, 1, provider.calls)

	stats := mon.Stats()
	entry := stats.ByIdentity["openai/gpt-4o"]
	assert.Equal(t, 1, entry.Calls)
	assert.Equal(t, 200, entry.Tokens)
	assert.InDelta(t, 0.001, entry.Cost, 1e-9) // 200 tokens * $0.005/1K
	assert.Equal(t, 0, entry.Errors)
}

func TestGovernor_CacheHitSkipsProviderAndLimiter(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{"title":"cached"}`, tokens: 100}
	gov, mon, _ := newTestGovernor(1, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	// First call consumes the only token and populates the cache
	_, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)

	// Second identical call: bucket is empty but the hit bypasses it
	payload, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"title":"cached"}`, string(payload))
	assert.Equal(t, 1, provider.calls)

	stats := mon.Stats()
	cacheEntry := stats.ByIdentity["openrouter_cache"]
	assert.Equal(t, 1, cacheEntry.Calls)
	assert.Equal(t, 0.0, cacheEntry.Cost)
}

func TestGovernor_RateLimitDenialSkipsProviders(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{}`}
	gov, _, _ := newTestGovernor(0, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	_, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 0, provider.calls)
}

func TestGovernor_FallbackChain(t *testing.T) {
	failing1 := &fakeProvider{name: "openrouter", err: errors.New("network down")}
	failing2 := &fakeProvider{name: "openrouter", err: errors.New("timeout")}
	winner := &fakeProvider{name: "openrouter", content: `{"title":"third time lucky"}`, tokens: 50}

	gov, mon, _ := newTestGovernor(10, []Candidate{
		{Model: "anthropic/claude-sonnet-4-5-20250929", Provider: failing1, CostPer1K: 0.003},
		{Model: "openai/gpt-4o", Provider: failing2, CostPer1K: 0.005},
		{Model: "google/gemini-2.0-flash", Provider: winner, CostPer1K: 0.0001},
	})

	payload, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"title":"third time lucky"}`, string(payload))

	stats := mon.Stats()
	assert.Equal(t, 1, stats.ByIdentity["anthropic/claude-sonnet-4-5-20250929"].Errors)
	assert.Equal(t, 1, stats.ByIdentity["openai/gpt-4o"].Errors)
	assert.Equal(t, 0, stats.ByIdentity["google/gemini-2.0-flash"].Errors)
	assert.Equal(t, 1, stats.ByIdentity["google/gemini-2.0-flash"].Calls)
}

func TestGovernor_MalformedPayloadAdvancesChain(t *testing.T) {
	badJSON := &fakeProvider{name: "openrouter", content: "Sure! Here is your JSON: {..."}
	good := &fakeProvider{name: "openrouter", content: `{"ok":true}`, tokens: 10}

	gov, mon, _ := newTestGovernor(10, []Candidate{
		{Model: "anthropic/claude-sonnet-4-5-20250929", Provider: badJSON, CostPer1K: 0.003},
		{Model: "openai/gpt-4o", Provider: good, CostPer1K: 0.005},
	})

	payload, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
	assert.Equal(t, 1, mon.Stats().ByIdentity["anthropic/claude-sonnet-4-5-20250929"].Errors)
}

func TestGovernor_AllCandidatesFail(t *testing.T) {
	failing := &fakeProvider{name: "openrouter", err: errors.New("boom")}
	gov, mon, cache := newTestGovernor(10, []Candidate{
		{Model: "openai/gpt-4o", Provider: failing, CostPer1K: 0.005},
	})

	_, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.ErrorIs(t, err, ErrExhausted)

	// Nothing cached on total failure
	assert.Nil(t, cache.Get("prompt", "ns_0"))
	assert.Equal(t, 1, mon.Stats().ByIdentity["openai/gpt-4o"].Errors)
}

func TestGovernor_DistinctNamespacesAreDistinctEntries(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{"n":1}`, tokens: 10}
	gov, _, _ := newTestGovernor(10, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	_, err := gov.Generate(context.Background(), "same prompt", "ns_0")
	assert.NoError(t, err)
	_, err = gov.Generate(context.Background(), "same prompt", "ns_1")
	assert.NoError(t, err)

	// Same prompt, different branch namespace: two provider calls
	assert.Equal(t, 2, provider.calls)
}

func TestGovernor_Status(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{}`, tokens: 10}
	gov, _, _ := newTestGovernor(5, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	_, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)

	report := gov.Status()
	assert.Equal(t, 5, report.RateLimiter.MaxTokens)
	assert.Equal(t, 4, report.RateLimiter.AvailableTokens)
	assert.Equal(t, 1, report.Cache.Size)
	assert.Equal(t, 1, report.Monitor.TotalCalls)
}

func TestGovernor_ClearCache(t *testing.T) {
	provider := &fakeProvider{name: "openrouter", content: `{}`, tokens: 10}
	gov, _, cache := newTestGovernor(10, []Candidate{
		{Model: "openai/gpt-4o", Provider: provider, CostPer1K: 0.005},
	})

	_, err := gov.Generate(context.Background(), "prompt", "ns_0")
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.GetStats().Size)

	gov.ClearCache()
	assert.Equal(t, 0, cache.GetStats().Size)
}

func TestRateLimitedError_Message(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 1500 * time.Millisecond}
	assert.Contains(t, err.Error(), "1.5s")

	unbounded := &RateLimitedError{}
	assert.Equal(t, "rate limit exceeded", unbounded.Error())
}
