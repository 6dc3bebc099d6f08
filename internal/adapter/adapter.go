package adapter

import (
	"context"
	"fmt"
)

// Adapter is the uniform contract implemented by every protocol.
//
// Identity (Descriptor) and capability methods are pure and
// connection-free; they must be deterministic across repeated calls.
// Connect, Disconnect and Read may touch the transport and accept a
// context for cancellation.
//
// Handles returned by Connect are exclusively owned by the caller that
// obtained them. Adapters key internal connection state by handle ID
// but provide no cross-caller locking.
type Adapter interface {
	// Descriptor returns the immutable protocol identity, schema,
	// defaults and capabilities.
	Descriptor() Descriptor

	// Capabilities returns the fixed capability flags for the protocol.
	// Shorthand for Descriptor().Capabilities.
	Capabilities() Capabilities

	// Schema returns the configuration schema for the protocol.
	Schema() Schema

	// Defaults returns a copy of the default configuration.
	Defaults() Config

	// ValidateConfig performs protocol-specific cross-field checks.
	// It assumes the structural schema phase has already passed.
	// Malformed configuration is reported as data, never as an error.
	ValidateConfig(cfg Config) ValidationResult

	// Connect establishes a session (or, for connectionless protocols,
	// logically binds a target) and returns a tracked handle.
	// Failures wrap one of ErrUnreachable, ErrRefused, ErrAuthFailed
	// or ErrMalformed.
	Connect(ctx context.Context, cfg Config) (*Handle, error)

	// Disconnect releases the handle's resources. It is idempotent and
	// never errors on an already-closed handle.
	Disconnect(ctx context.Context, h *Handle) error

	// IsConnected reports whether the handle is live. It is cheap and
	// non-blocking; connectionless adapters report table membership.
	IsConnected(h *Handle) bool

	// Read performs a single-shot sample read and updates the handle's
	// last-activity timestamp.
	Read(ctx context.Context, h *Handle) (*Reading, error)
}

// DataHandler receives one inbound sample per invocation. Ordering is
// guaranteed only within a single subscription.
type DataHandler func(r *Reading)

// ErrorHandler receives at most one fatal subscription failure, after
// which the subscription is inactive.
type ErrorHandler func(err error)

// Subscriber is implemented by adapters whose SupportsSubscription
// capability is true.
type Subscriber interface {
	Subscribe(ctx context.Context, h *Handle, onData DataHandler, onErr ErrorHandler) (*Subscription, error)
}

// SubscribeToData opens a push stream on an existing handle after
// checking the adapter's subscription capability. Protocols without the
// capability yield ErrNotSupported before any transport activity.
func SubscribeToData(ctx context.Context, a Adapter, h *Handle, onData DataHandler, onErr ErrorHandler) (*Subscription, error) {
	code := a.Descriptor().Code
	if !a.Capabilities().SupportsSubscription {
		return nil, fmt.Errorf("protocol %s: subscribe: %w", code, ErrNotSupported)
	}
	sub, ok := a.(Subscriber)
	if !ok {
		// Capability flag and interface disagree; refuse rather than
		// invoke a missing method.
		return nil, fmt.Errorf("protocol %s: subscribe: %w", code, ErrNotSupported)
	}
	return sub.Subscribe(ctx, h, onData, onErr)
}

// Writer is implemented by adapters whose SupportsWrite capability
// is true.
type Writer interface {
	Write(ctx context.Context, h *Handle, values map[string]any) error
}

// Discoverer is implemented by adapters whose SupportsDiscovery
// capability is true.
type Discoverer interface {
	Discover(ctx context.Context, cfg Config) ([]DiscoveredDevice, error)
}

// Capabilities describes what an adapter supports. The set is fixed at
// adapter construction and checked at call sites; it replaces
// protocol-specific subtype interfaces.
type Capabilities struct {
	SupportsDiscovery      bool     `json:"supports_discovery"`
	SupportsWrite          bool     `json:"supports_write"`
	SupportsPolling        bool     `json:"supports_polling"`
	SupportsSubscription   bool     `json:"supports_subscription"`
	SupportsAuthentication bool     `json:"supports_authentication"`
	SupportsEncryption     bool     `json:"supports_encryption"`
	DataTypes              []string `json:"data_types"`
}

// DiscoveredDevice describes a device found by a discovery scan.
type DiscoveredDevice struct {
	Address  string         `json:"address"`
	Name     string         `json:"name,omitempty"`
	Model    string         `json:"model,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
