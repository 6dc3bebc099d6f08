package tester

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// DiscoveryResult is the outcome of a device discovery request.
// Supported is false when the protocol's capability flag is off; in
// that case no adapter method was invoked.
type DiscoveryResult struct {
	Supported bool                       `json:"supported"`
	Devices   []adapter.DiscoveredDevice `json:"devices,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// DiscoverDevices delegates to the adapter's discovery scan only when
// its SupportsDiscovery capability is true; otherwise it returns an
// explicit not-supported result without touching the adapter.
func (t *Tester) DiscoverDevices(ctx context.Context, code string, cfg adapter.Config, timeout time.Duration) *DiscoveryResult {
	a, err := t.source.GetAdapter(code)
	if err != nil {
		return &DiscoveryResult{Error: fmt.Sprintf("unknown protocol: %v", err)}
	}

	if !a.Capabilities().SupportsDiscovery {
		return &DiscoveryResult{
			Supported: false,
			Error:     fmt.Sprintf("protocol %s does not support discovery", code),
		}
	}

	disc, ok := a.(adapter.Discoverer)
	if !ok {
		// Capability flag and interface disagree; treat as unsupported
		// rather than invoking a missing method.
		t.logger.Warn("discovery capability set but Discoverer not implemented", "code", code)
		return &DiscoveryResult{
			Supported: false,
			Error:     fmt.Sprintf("protocol %s does not support discovery", code),
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		devices []adapter.DiscoveredDevice
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		devices, derr := disc.Discover(opCtx, cfg)
		done <- outcome{devices, derr}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return &DiscoveryResult{Supported: true, Error: classify(out.err)}
		}
		return &DiscoveryResult{Supported: true, Devices: out.devices}
	case <-timer.C:
		return &DiscoveryResult{
			Supported: true,
			Error:     fmt.Sprintf("timeout: discovery exceeded %v", timeout),
		}
	}
}
