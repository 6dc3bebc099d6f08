package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry resolves protocol codes to adapters and answers descriptor
// and capability queries.
//
// The adapter map is populated once during construction and never
// mutated afterwards, so lookups need no locking. All public methods
// are safe for concurrent use.
type Registry struct {
	adapters map[string]adapter.Adapter
	order    []string // registration order, for stable listings

	catalog CatalogRepository // optional durable cache
	logger  Logger
}

// New builds a registry from a fixed adapter list. Registration is
// all-or-nothing: a duplicate protocol code or an invalid descriptor
// fails construction immediately.
func New(adapters ...adapter.Adapter) (*Registry, error) {
	r := &Registry{
		adapters: make(map[string]adapter.Adapter, len(adapters)),
		logger:   noopLogger{},
	}

	for _, a := range adapters {
		d := a.Descriptor()
		if d.Code == "" {
			return nil, fmt.Errorf("%w: empty protocol code", ErrInvalidDescriptor)
		}
		if !adapter.ValidCategory(d.Category) {
			return nil, fmt.Errorf("%w: %s has unknown category %q", ErrInvalidDescriptor, d.Code, d.Category)
		}
		if _, exists := r.adapters[d.Code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, d.Code)
		}
		r.adapters[d.Code] = a
		r.order = append(r.order, d.Code)
	}

	return r, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetCatalog attaches a durable protocol catalogue. The catalogue is a
// best-effort cache; the registry works fully without one.
func (r *Registry) SetCatalog(repo CatalogRepository) {
	r.catalog = repo
}

// GetAdapter returns the adapter registered for the given protocol
// code. Returns ErrProtocolNotFound for unknown codes.
func (r *Registry) GetAdapter(code string) (adapter.Adapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProtocolNotFound, code)
	}
	return a, nil
}

// AllProtocols returns the descriptors of every registered adapter in
// registration order. Descriptors are derived live from the adapters.
func (r *Registry) AllProtocols() []adapter.Descriptor {
	out := make([]adapter.Descriptor, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.adapters[code].Descriptor())
	}
	return out
}

// ProtocolsByCategory returns the descriptors of adapters in the given
// category, in registration order.
func (r *Registry) ProtocolsByCategory(cat adapter.Category) []adapter.Descriptor {
	var out []adapter.Descriptor
	for _, code := range r.order {
		d := r.adapters[code].Descriptor()
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// ProtocolDetails returns the descriptor for one protocol code. This is
// the primary read path and answers from memory only, so it works even
// when the durable catalogue is unreachable.
func (r *Registry) ProtocolDetails(code string) (adapter.Descriptor, error) {
	a, err := r.GetAdapter(code)
	if err != nil {
		return adapter.Descriptor{}, err
	}
	return a.Descriptor(), nil
}

// Codes returns all registered protocol codes sorted alphabetically.
func (r *Registry) Codes() []string {
	codes := make([]string, len(r.order))
	copy(codes, r.order)
	sort.Strings(codes)
	return codes
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	return len(r.adapters)
}

// CategoryStats counts registered adapters per category on demand.
func (r *Registry) CategoryStats() map[adapter.Category]int {
	stats := make(map[adapter.Category]int)
	for _, a := range r.adapters {
		stats[a.Descriptor().Category]++
	}
	return stats
}

// SyncToStore upserts every adapter's descriptor into the durable
// catalogue. Failures are logged and swallowed per adapter and never
// affect in-memory availability. It returns the number of descriptors
// successfully written.
func (r *Registry) SyncToStore(ctx context.Context) int {
	if r.catalog == nil {
		return 0
	}

	synced := 0
	for _, code := range r.order {
		rec, err := recordFromDescriptor(r.adapters[code].Descriptor())
		if err != nil {
			r.logger.Warn("skipping catalogue sync for protocol", "code", code, "error", err)
			continue
		}
		if err := r.catalog.UpsertByCode(ctx, rec); err != nil {
			r.logger.Warn("catalogue upsert failed", "code", code, "error", err)
			continue
		}
		synced++
	}

	r.logger.Info("protocol catalogue synced", "synced", synced, "total", len(r.order))
	return synced
}
