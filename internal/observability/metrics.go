package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps process-local request counters. Counters are cheap enough to
// take on every request and live only until the process exits; anything
// longer-lived belongs in the database.
type Metrics struct {
	mu        sync.Mutex
	requests  map[string]int64
	errors    map[string]int64
	latencies map[string]time.Duration
}

// NewMetrics initializes counter storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests:  make(map[string]int64),
		errors:    make(map[string]int64),
		latencies: make(map[string]time.Duration),
	}
}

// RecordRequest counts one handled request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.latencies[key] += duration
}

// RecordError counts one request that resolved to a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// RequestCount returns the number of requests recorded for one route/status.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey(path, method, status)]
}

func requestKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
