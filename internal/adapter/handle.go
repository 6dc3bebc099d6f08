package adapter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is the opaque session token returned by Connect.
//
// A handle is exclusively owned by the caller that obtained it and is
// live only while tracked by its owning adapter. Adapters attach
// transport state under Meta keyed by handle ID; callers treat the
// handle as opaque.
type Handle struct {
	ID           string         `json:"id"`
	SensorID     string         `json:"sensor_id,omitempty"`
	TenantID     string         `json:"tenant_id,omitempty"`
	ProtocolCode string         `json:"protocol_code"`
	CreatedAt    time.Time      `json:"created_at"`
	Meta         map[string]any `json:"-"`

	// lastActivity is guarded by mu so Touch is safe alongside reads.
	lastActivity time.Time
	mu           sync.Mutex
}

// NewHandle creates a handle for the given protocol with a fresh
// process-unique ID.
func NewHandle(protocolCode string, cfg Config) *Handle {
	now := time.Now().UTC()
	h := &Handle{
		ID:           GenerateHandleID(),
		ProtocolCode: protocolCode,
		CreatedAt:    now,
		Meta:         make(map[string]any),
		lastActivity: now,
	}
	if cfg != nil {
		if s, ok := cfg.String("sensorId"); ok {
			h.SensorID = s
		}
		if t, ok := cfg.String("tenantId"); ok {
			h.TenantID = t
		}
	}
	return h
}

// Touch records activity on the handle. Adapters call it on each
// successful read or write.
func (h *Handle) Touch() {
	h.mu.Lock()
	h.lastActivity = time.Now().UTC()
	h.mu.Unlock()
}

// LastActivity returns the time of the most recent successful
// read or write, or the creation time if none has occurred.
func (h *Handle) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

// GenerateHandleID creates a new process-unique handle identifier.
func GenerateHandleID() string {
	return uuid.New().String()
}

// HandleTable tracks the live handles owned by one adapter, keyed by
// handle ID. All methods are safe for concurrent use.
//
// Remove is idempotent, which is what makes adapter Disconnect safe to
// call twice.
type HandleTable struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewHandleTable creates an empty handle table.
func NewHandleTable() *HandleTable {
	return &HandleTable{handles: make(map[string]*Handle)}
}

// Put tracks a handle.
func (t *HandleTable) Put(h *Handle) {
	t.mu.Lock()
	t.handles[h.ID] = h
	t.mu.Unlock()
}

// Get returns the tracked handle with the given ID, or nil.
func (t *HandleTable) Get(id string) *Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handles[id]
}

// Has reports whether a handle with the given ID is tracked.
func (t *HandleTable) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handles[id]
	return ok
}

// Remove stops tracking the handle with the given ID and reports
// whether it was present. Removing an unknown ID is a no-op.
func (t *HandleTable) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handles[id]
	delete(t.handles, id)
	return ok
}

// Len returns the number of tracked handles.
func (t *HandleTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handles)
}
