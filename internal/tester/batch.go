package tester

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// BatchItem is one entry in a batch test.
type BatchItem struct {
	Code   string         `json:"code"`
	Config adapter.Config `json:"config"`
}

// BatchOptions controls batch execution.
type BatchOptions struct {
	// Concurrency is the fixed window size; at most this many
	// connections are in flight at once. Zero means 1.
	Concurrency int

	// Timeout bounds each individual test. Zero means DefaultTimeout.
	Timeout time.Duration
}

// BatchItemResult pairs a batch entry with its outcome.
type BatchItemResult struct {
	Code   string              `json:"code"`
	Result *adapter.TestResult `json:"result"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

// BatchTest processes the items in fixed-size windows of
// opts.Concurrency, fully awaiting each window before starting the
// next. This bounds simultaneous in-flight connections.
func (t *Tester) BatchTest(ctx context.Context, items []BatchItem, opts BatchOptions) *BatchResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	out := &BatchResult{
		Total:   len(items),
		Results: make([]BatchItemResult, len(items)),
	}

	for start := 0; start < len(items); start += concurrency {
		end := start + concurrency
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				item := items[idx]
				res := t.TestConnection(ctx, item.Code, item.Config, Options{Timeout: opts.Timeout})
				out.Results[idx] = BatchItemResult{Code: item.Code, Result: res}
			}(i)
		}
		wg.Wait()
	}

	for _, r := range out.Results {
		if r.Result != nil && r.Result.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}
