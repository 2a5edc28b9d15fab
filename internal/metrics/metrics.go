package metrics

// Round-trip metrics for the radio link

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric represents one command/reply round trip
type Metric struct {
	Timestamp time.Time
	Command   string
	Success   bool
	RTTMs     float64
	RSSIdBm   int
	Retries   int
	Error     string
}

// Sink collects and aggregates metrics
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
	summary *Summary
}

func newSummary() *Summary {
	return &Summary{
		RTTBuckets:   make(map[string]int),
		RTTByCommand: make(map[string]*CommandStats),
	}
}

// Summary contains aggregated statistics
type Summary struct {
	TotalRoundTrips int
	SuccessfulOps   int
	FailedOps       int
	TimeoutCount    int
	MinRTT          float64
	MaxRTT          float64
	AvgRTT          float64
	P50RTT          float64
	P90RTT          float64
	P95RTT          float64
	P99RTT          float64
	MinRSSI         int
	MaxRSSI         int
	RTTBuckets      map[string]int
	RTTByCommand    map[string]*CommandStats
}

// CommandStats contains statistics for one command kind
type CommandStats struct {
	Count   int
	Success int
	Failed  int
	MinRTT  float64
	MaxRTT  float64
	AvgRTT  float64
	SumRTT  float64
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{
		metrics: make([]Metric, 0),
		summary: newSummary(),
	}
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = append(s.metrics, m)
	s.updateSummary(m)
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary returns the aggregated summary
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{
		TotalRoundTrips: s.summary.TotalRoundTrips,
		SuccessfulOps:   s.summary.SuccessfulOps,
		FailedOps:       s.summary.FailedOps,
		TimeoutCount:    s.summary.TimeoutCount,
		MinRTT:          s.summary.MinRTT,
		MaxRTT:          s.summary.MaxRTT,
		AvgRTT:          s.summary.AvgRTT,
		MinRSSI:         s.summary.MinRSSI,
		MaxRSSI:         s.summary.MaxRSSI,
		RTTBuckets:      make(map[string]int),
		RTTByCommand:    make(map[string]*CommandStats),
	}

	for cmd, stats := range s.summary.RTTByCommand {
		summary.RTTByCommand[cmd] = &CommandStats{
			Count:   stats.Count,
			Success: stats.Success,
			Failed:  stats.Failed,
			MinRTT:  stats.MinRTT,
			MaxRTT:  stats.MaxRTT,
			AvgRTT:  stats.AvgRTT,
			SumRTT:  stats.SumRTT,
		}
	}

	percentiles, buckets := summarizeRTT(s.metrics)
	summary.P50RTT = percentiles[0]
	summary.P90RTT = percentiles[1]
	summary.P95RTT = percentiles[2]
	summary.P99RTT = percentiles[3]
	for k, v := range buckets {
		summary.RTTBuckets[k] = v
	}

	return summary
}

// updateSummary updates the summary statistics with a new metric
func (s *Sink) updateSummary(m Metric) {
	s.summary.TotalRoundTrips++

	if m.Success {
		s.summary.SuccessfulOps++
	} else {
		s.summary.FailedOps++
		if strings.Contains(m.Error, "timeout") || strings.Contains(m.Error, "acknowledgment") {
			s.summary.TimeoutCount++
		}
	}

	if m.RSSIdBm != 0 {
		if s.summary.MinRSSI == 0 || m.RSSIdBm < s.summary.MinRSSI {
			s.summary.MinRSSI = m.RSSIdBm
		}
		if s.summary.MaxRSSI == 0 || m.RSSIdBm > s.summary.MaxRSSI {
			s.summary.MaxRSSI = m.RSSIdBm
		}
	}

	if m.Success && m.RTTMs > 0 {
		if s.summary.MinRTT == 0 || m.RTTMs < s.summary.MinRTT {
			s.summary.MinRTT = m.RTTMs
		}
		if m.RTTMs > s.summary.MaxRTT {
			s.summary.MaxRTT = m.RTTMs
		}

		totalRTT := s.summary.AvgRTT * float64(s.summary.SuccessfulOps-1)
		totalRTT += m.RTTMs
		s.summary.AvgRTT = totalRTT / float64(s.summary.SuccessfulOps)
	}

	stats, exists := s.summary.RTTByCommand[m.Command]
	if !exists {
		stats = &CommandStats{}
		s.summary.RTTByCommand[m.Command] = stats
	}
	stats.Count++
	if m.Success {
		stats.Success++
		if m.RTTMs > 0 {
			if stats.MinRTT == 0 || m.RTTMs < stats.MinRTT {
				stats.MinRTT = m.RTTMs
			}
			if m.RTTMs > stats.MaxRTT {
				stats.MaxRTT = m.RTTMs
			}
			stats.SumRTT += m.RTTMs
			stats.AvgRTT = stats.SumRTT / float64(stats.Success)
		}
	} else {
		stats.Failed++
	}
}

func summarizeRTT(metrics []Metric) ([4]float64, map[string]int) {
	rtts := make([]float64, 0, len(metrics))
	buckets := make(map[string]int)

	for _, m := range metrics {
		if m.Success && m.RTTMs > 0 {
			rtts = append(rtts, m.RTTMs)
			incrementBucket(buckets, m.RTTMs)
		}
	}

	return computePercentiles(rtts), buckets
}

// incrementBucket bins an RTT. LoRa round trips live in the hundreds of
// milliseconds; the sub-10ms bins only fill on UDP bench runs.
func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 10:
		buckets["lt_10ms"]++
	case value < 100:
		buckets["10_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	case value < 1000:
		buckets["500_1000ms"]++
	case value < 5000:
		buckets["1_5s"]++
	default:
		buckets["gt_5s"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
