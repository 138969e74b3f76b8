package observability

import (
	"sync"
	"time"
)

// MetricsClient receives cache hit/miss/timing events. Implementations must
// be safe for concurrent use. Reporting is best effort: the cache never
// fails an operation because a metric could not be recorded, and a nil
// MetricsClient is legal everywhere one is accepted.
type MetricsClient interface {
	// IncrementCounterWithLabels increments a named counter
	IncrementCounterWithLabels(name string, value float64, labels map[string]string)
	// RecordHistogram records a sampled value (latencies, sizes)
	RecordHistogram(name string, value float64, labels map[string]string)
	// RecordCacheOperation records the outcome and duration of a cache operation
	RecordCacheOperation(operation string, success bool, durationSeconds float64)
	// Close flushes and releases the client
	Close() error
}

// InMemoryMetricsClient is a MetricsClient that aggregates in process
// memory. It backs tests and local development; production deployments
// supply their own sink.
type InMemoryMetricsClient struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
}

// NewInMemoryMetricsClient creates an in-memory metrics client
func NewInMemoryMetricsClient() *InMemoryMetricsClient {
	return &InMemoryMetricsClient{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounterWithLabels increments a counter keyed by name and labels
func (m *InMemoryMetricsClient) IncrementCounterWithLabels(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)] += value
}

// RecordHistogram appends a histogram sample
func (m *InMemoryMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, labels)
	m.histograms[key] = append(m.histograms[key], value)
}

// RecordCacheOperation records a cache operation outcome
func (m *InMemoryMetricsClient) RecordCacheOperation(operation string, success bool, durationSeconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.IncrementCounterWithLabels("cache.operation", 1, map[string]string{
		"operation": operation,
		"status":    status,
	})
	m.RecordHistogram("cache.operation.duration", durationSeconds, map[string]string{
		"operation": operation,
	})
}

// Close is a no-op for the in-memory client
func (m *InMemoryMetricsClient) Close() error {
	return nil
}

// CounterValue returns the current value of a counter (test helper)
func (m *InMemoryMetricsClient) CounterValue(name string, labels map[string]string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metricKey(name, labels)]
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	key := name
	// Labels are few; ordered concatenation keeps keys stable
	for _, k := range sortedLabelKeys(labels) {
		key += "|" + k + "=" + labels[k]
	}
	return key
}

func sortedLabelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// DurationSeconds converts a duration to seconds with millisecond
// resolution, the histogram unit used by the cache packages
func DurationSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000.0
}
