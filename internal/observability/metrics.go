package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	transitions  map[string]int64
	escalations  map[string]int64
	assignments  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		transitions:  make(map[string]int64),
		escalations:  make(map[string]int64),
		assignments:  make(map[string]int64),
	}
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts committed status moves by edge.
func (m *Metrics) RecordTransition(from, to domain.RequestStatus) {
	if m == nil {
		return
	}
	key := string(from) + ">" + string(to)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[key]++
}

// RecordEscalation counts escalations, split by SLA breach.
func (m *Metrics) RecordEscalation(slaBreached bool) {
	if m == nil {
		return
	}
	key := "manual"
	if slaBreached {
		key = "sla_breach"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations[key]++
}

// RecordAssignment counts assignment attempts by outcome.
func (m *Metrics) RecordAssignment(success bool) {
	if m == nil {
		return
	}
	key := "failed"
	if success {
		key = "assigned"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[key]++
}

// Snapshot returns a copy of all counters for the health endpoint.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"http_requests": copyCounters(m.requestCount),
		"http_errors":   copyCounters(m.errorCount),
		"transitions":   copyCounters(m.transitions),
		"escalations":   copyCounters(m.escalations),
		"assignments":   copyCounters(m.assignments),
	}
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
