package cache

import (
	"sync"
	"time"
)

// DefaultSampleWindow is the metric ring buffer capacity
const DefaultSampleWindow = 1024

// HitKind distinguishes how a lookup resolved
type HitKind string

const (
	HitExact      HitKind = "exact"
	HitSimilarity HitKind = "similarity"
	HitNone       HitKind = "miss"
)

// MetricSample records one strategy-level cache operation
type MetricSample struct {
	Key       string        `json:"key"`
	Strategy  string        `json:"strategy"`
	Hit       bool          `json:"hit"`
	Kind      HitKind       `json:"kind"`
	Latency   time.Duration `json:"latency"`
	Timestamp time.Time     `json:"timestamp"`
}

// SampleRing is a bounded ring buffer of the most recent samples; the
// oldest sample is evicted when the buffer is full. Safe for concurrent
// use.
type SampleRing struct {
	mu      sync.Mutex
	samples []MetricSample
	next    int
	full    bool
}

// NewSampleRing creates a ring holding the last capacity samples
func NewSampleRing(capacity int) *SampleRing {
	if capacity <= 0 {
		capacity = DefaultSampleWindow
	}
	return &SampleRing{samples: make([]MetricSample, capacity)}
}

// Add appends a sample, evicting the oldest when full
func (r *SampleRing) Add(sample MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = sample
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Samples returns a copy of the buffered samples, oldest first
func (r *SampleRing) Samples() []MetricSample {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]MetricSample, r.next)
		copy(out, r.samples[:r.next])
		return out
	}

	out := make([]MetricSample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	out = append(out, r.samples[:r.next]...)
	return out
}

// Summary aggregates hit/miss statistics over the ring window
type Summary struct {
	Total          int           `json:"total"`
	Hits           int           `json:"hits"`
	ExactHits      int           `json:"exact_hits"`
	SimilarityHits int           `json:"similarity_hits"`
	Misses         int           `json:"misses"`
	HitRate        float64       `json:"hit_rate"`
	AvgLatency     time.Duration `json:"avg_latency"`
}

// Summarize aggregates all buffered samples; strategy narrows to one
// strategy when non-empty
func (r *SampleRing) Summarize(strategy string) Summary {
	var s Summary
	var totalLatency time.Duration

	for _, sample := range r.Samples() {
		if strategy != "" && sample.Strategy != strategy {
			continue
		}
		s.Total++
		totalLatency += sample.Latency
		switch sample.Kind {
		case HitExact:
			s.Hits++
			s.ExactHits++
		case HitSimilarity:
			s.Hits++
			s.SimilarityHits++
		default:
			s.Misses++
		}
	}

	if s.Total > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Total)
		s.AvgLatency = totalLatency / time.Duration(s.Total)
	}
	return s
}
