package monitor

import "sync"

// CacheIdentitySuffix is appended to a provider name to form the
// synthetic identity under which zero-cost cache hits are recorded.
const CacheIdentitySuffix = "_cache"

// IdentityStats holds per-identity usage counters
type IdentityStats struct {
	Calls  int     `json:"calls"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
	Errors int     `json:"errors"`
}

// Stats aggregates usage across every identity ever recorded
type Stats struct {
	TotalCalls  int                      `json:"total_calls"`
	TotalTokens int                      `json:"total_tokens"`
	TotalCost   float64                  `json:"total_cost"`
	ByIdentity  map[string]IdentityStats `json:"by_identity"`
}

// CallMonitor is an accounting ledger of outbound LLM calls, tokens
// consumed, and estimated cost, partitioned by provider/model identity.
// Counters are monotonically non-decreasing for the process lifetime.
type CallMonitor struct {
	mu     sync.Mutex
	calls  map[string]int
	tokens map[string]int
	costs  map[string]float64
	errors map[string]int
}

// NewCallMonitor creates an empty ledger
func NewCallMonitor() *CallMonitor {
	return &CallMonitor{
		calls:  make(map[string]int),
		tokens: make(map[string]int),
		costs:  make(map[string]float64),
		errors: make(map[string]int),
	}
}

// Record accounts one call against identity. The call count always
// increments; tokens and cost accumulate; isError additionally bumps the
// error count. Recording is best-effort accounting and never fails.
func (m *CallMonitor) Record(identity string, tokens int, cost float64, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[identity]++
	m.tokens[identity] += tokens
	m.costs[identity] += cost
	if isError {
		m.errors[identity]++
	}
}

// Stats returns the full ledger; totals equal the sum across identities
func (m *CallMonitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		ByIdentity: make(map[string]IdentityStats, len(m.calls)),
	}
	for identity, calls := range m.calls {
		entry := IdentityStats{
			Calls:  calls,
			Tokens: m.tokens[identity],
			Cost:   m.costs[identity],
			Errors: m.errors[identity],
		}
		stats.ByIdentity[identity] = entry
		stats.TotalCalls += entry.Calls
		stats.TotalTokens += entry.Tokens
		stats.TotalCost += entry.Cost
	}
	return stats
}
