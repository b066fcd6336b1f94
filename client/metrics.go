package client

import "sync"

// Stats are cumulative counters for the request gateway.
type Stats struct {
	// Requests counts outbound HTTP calls, retries included.
	Requests uint64
	// Retries counts resends after a 401.
	Retries uint64
	// Refreshes counts refresh network calls actually made, not the
	// callers coalesced onto them.
	Refreshes uint64
	// RefreshFailures counts refresh calls that did not yield a token.
	RefreshFailures uint64
	// SessionExpiries counts failure episodes that cleared the session.
	SessionExpiries uint64
}

type metricsCollector struct {
	mu    sync.Mutex
	stats Stats
}

func (m *metricsCollector) request() {
	m.mu.Lock()
	m.stats.Requests++
	m.mu.Unlock()
}

func (m *metricsCollector) retry() {
	m.mu.Lock()
	m.stats.Retries++
	m.mu.Unlock()
}

func (m *metricsCollector) refresh() {
	m.mu.Lock()
	m.stats.Refreshes++
	m.mu.Unlock()
}

func (m *metricsCollector) refreshFailure() {
	m.mu.Lock()
	m.stats.RefreshFailures++
	m.mu.Unlock()
}

func (m *metricsCollector) sessionExpiry() {
	m.mu.Lock()
	m.stats.SessionExpiries++
	m.mu.Unlock()
}

func (m *metricsCollector) snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Stats returns a snapshot of the gateway counters.
func (c *Client) Stats() Stats {
	return c.metrics.snapshot()
}
