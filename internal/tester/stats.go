package tester

import (
	"context"
	"math"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// sentinelLatency is reported for latency aggregates when no trial
// succeeded, instead of NaN.
const sentinelLatency = -1

// PingResult aggregates sequential quick-test trials against one
// protocol configuration.
type PingResult struct {
	Count     int `json:"count"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// LossPercent is the share of failed trials, 0-100.
	LossPercent float64 `json:"loss_percent"`

	// Latency aggregates are computed over successful trials only and
	// are -1 when every trial failed.
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MinLatencyMs float64 `json:"min_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	// Trials holds the per-trial latency in milliseconds, -1 for
	// failed trials.
	Trials []float64 `json:"trials"`
}

// ConnectionStats extends PingResult with the latency standard
// deviation over successful trials.
type ConnectionStats struct {
	PingResult
	StdDevLatencyMs float64 `json:"stddev_latency_ms"`
}

// PingTest runs count sequential quick tests with a small inter-trial
// delay. Trials never overlap: the statistics depend on one connection
// at a time.
func (t *Tester) PingTest(ctx context.Context, code string, cfg adapter.Config, count int) *PingResult {
	if count <= 0 {
		count = 1
	}

	res := &PingResult{Count: count, Trials: make([]float64, 0, count)}
	var latencies []float64

	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-time.After(interTrialDelay):
			case <-ctx.Done():
			}
		}

		trial := t.TestConnection(ctx, code, cfg, Options{Timeout: QuickTimeout})
		if trial.Success {
			res.Succeeded++
			latency := float64(trial.LatencyMs)
			latencies = append(latencies, latency)
			res.Trials = append(res.Trials, latency)
		} else {
			res.Failed++
			res.Trials = append(res.Trials, sentinelLatency)
		}
	}

	res.LossPercent = float64(res.Failed) / float64(count) * 100

	if len(latencies) == 0 {
		res.AvgLatencyMs = sentinelLatency
		res.MinLatencyMs = sentinelLatency
		res.MaxLatencyMs = sentinelLatency
		return res
	}

	res.MinLatencyMs = latencies[0]
	res.MaxLatencyMs = latencies[0]
	var sum float64
	for _, l := range latencies {
		sum += l
		if l < res.MinLatencyMs {
			res.MinLatencyMs = l
		}
		if l > res.MaxLatencyMs {
			res.MaxLatencyMs = l
		}
	}
	res.AvgLatencyMs = sum / float64(len(latencies))
	return res
}

// GetConnectionStats runs PingTest and adds the latency standard
// deviation, computed over successful trials only.
func (t *Tester) GetConnectionStats(ctx context.Context, code string, cfg adapter.Config, count int) *ConnectionStats {
	ping := t.PingTest(ctx, code, cfg, count)
	stats := &ConnectionStats{PingResult: *ping}

	if ping.Succeeded == 0 {
		stats.StdDevLatencyMs = sentinelLatency
		return stats
	}

	var sumSq float64
	n := 0
	for _, l := range ping.Trials {
		if l == sentinelLatency {
			continue
		}
		d := l - ping.AvgLatencyMs
		sumSq += d * d
		n++
	}
	stats.StdDevLatencyMs = math.Sqrt(sumSq / float64(n))
	return stats
}
