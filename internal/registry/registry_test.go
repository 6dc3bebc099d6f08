package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// stubAdapter is a minimal adapter.Adapter for registry tests.
type stubAdapter struct {
	desc adapter.Descriptor
}

func (s *stubAdapter) Descriptor() adapter.Descriptor       { return s.desc }
func (s *stubAdapter) Capabilities() adapter.Capabilities   { return s.desc.Capabilities }
func (s *stubAdapter) Schema() adapter.Schema               { return s.desc.Schema }
func (s *stubAdapter) Defaults() adapter.Config             { return s.desc.Defaults.Clone() }
func (s *stubAdapter) ValidateConfig(adapter.Config) adapter.ValidationResult {
	return adapter.OK()
}
func (s *stubAdapter) Connect(context.Context, adapter.Config) (*adapter.Handle, error) {
	return nil, adapter.ErrUnreachable
}
func (s *stubAdapter) Disconnect(context.Context, *adapter.Handle) error { return nil }
func (s *stubAdapter) IsConnected(*adapter.Handle) bool                  { return false }
func (s *stubAdapter) Read(context.Context, *adapter.Handle) (*adapter.Reading, error) {
	return nil, adapter.ErrNotConnected
}

func stub(code string, cat adapter.Category) *stubAdapter {
	return &stubAdapter{desc: adapter.Descriptor{
		Code:           code,
		DisplayName:    code,
		Category:       cat,
		ConnectionType: adapter.ConnectionPolling,
		Capabilities:   adapter.Capabilities{SupportsPolling: true},
	}}
}

func TestNewRejectsDuplicateCodes(t *testing.T) {
	_, err := New(
		stub("MODBUS_TCP", adapter.CategoryIndustrial),
		stub("MODBUS_TCP", adapter.CategoryIndustrial),
	)
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestNewRejectsInvalidDescriptors(t *testing.T) {
	if _, err := New(stub("", adapter.CategoryIndustrial)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("empty code: expected ErrInvalidDescriptor, got %v", err)
	}
	if _, err := New(stub("X", "household")); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("bad category: expected ErrInvalidDescriptor, got %v", err)
	}
}

func TestGetAdapter(t *testing.T) {
	r, err := New(
		stub("MODBUS_TCP", adapter.CategoryIndustrial),
		stub("MQTT", adapter.CategoryIoT),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Every registered code resolves
	for _, code := range []string{"MODBUS_TCP", "MQTT"} {
		a, err := r.GetAdapter(code)
		if err != nil || a == nil {
			t.Errorf("GetAdapter(%q) = %v, %v", code, a, err)
		}
	}

	if _, err := r.GetAdapter("LORAWAN"); !errors.Is(err, ErrProtocolNotFound) {
		t.Errorf("expected ErrProtocolNotFound, got %v", err)
	}
}

func TestCapabilitiesDeterministic(t *testing.T) {
	r, err := New(stub("SNMP_V2C", adapter.CategoryIoT))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, _ := r.GetAdapter("SNMP_V2C")
	first := a.Capabilities()
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(a.Capabilities(), first) {
			t.Fatal("capabilities changed across repeated calls")
		}
	}
}

func TestProtocolListings(t *testing.T) {
	r, err := New(
		stub("MODBUS_TCP", adapter.CategoryIndustrial),
		stub("S7", adapter.CategoryIndustrial),
		stub("MQTT", adapter.CategoryIoT),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	all := r.AllProtocols()
	if len(all) != 3 {
		t.Fatalf("AllProtocols len = %d, want 3", len(all))
	}
	// Registration order preserved
	if all[0].Code != "MODBUS_TCP" || all[2].Code != "MQTT" {
		t.Errorf("unexpected listing order: %v", all)
	}

	industrial := r.ProtocolsByCategory(adapter.CategoryIndustrial)
	if len(industrial) != 2 {
		t.Errorf("industrial count = %d, want 2", len(industrial))
	}
	if got := r.ProtocolsByCategory(adapter.CategorySerial); len(got) != 0 {
		t.Errorf("serial count = %d, want 0", len(got))
	}

	stats := r.CategoryStats()
	if stats[adapter.CategoryIndustrial] != 2 || stats[adapter.CategoryIoT] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}

	if r.Count() != 3 {
		t.Errorf("Count = %d, want 3", r.Count())
	}
}

func TestProtocolDetailsWorksWithoutCatalog(t *testing.T) {
	r, err := New(stub("MODBUS_TCP", adapter.CategoryIndustrial))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Attach a catalogue that always fails; the memory read path must
	// be unaffected.
	r.SetCatalog(failingCatalog{})

	d, err := r.ProtocolDetails("MODBUS_TCP")
	if err != nil {
		t.Fatalf("ProtocolDetails: %v", err)
	}
	if d.Code != "MODBUS_TCP" {
		t.Errorf("descriptor code = %q", d.Code)
	}
}

// failingCatalog errors on every operation.
type failingCatalog struct{}

func (failingCatalog) UpsertByCode(context.Context, CatalogRecord) error {
	return errors.New("store unreachable")
}
func (failingCatalog) GetByCode(context.Context, string) (*CatalogRecord, error) {
	return nil, errors.New("store unreachable")
}
func (failingCatalog) List(context.Context) ([]CatalogRecord, error) {
	return nil, errors.New("store unreachable")
}

// recordingCatalog captures upserts and can fail selectively.
type recordingCatalog struct {
	records  map[string]CatalogRecord
	failCode string
}

func newRecordingCatalog() *recordingCatalog {
	return &recordingCatalog{records: make(map[string]CatalogRecord)}
}

func (c *recordingCatalog) UpsertByCode(_ context.Context, rec CatalogRecord) error {
	if rec.Code == c.failCode {
		return errors.New("disk full")
	}
	c.records[rec.Code] = rec
	return nil
}

func (c *recordingCatalog) GetByCode(_ context.Context, code string) (*CatalogRecord, error) {
	rec, ok := c.records[code]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return &rec, nil
}

func (c *recordingCatalog) List(context.Context) ([]CatalogRecord, error) {
	var out []CatalogRecord
	for _, rec := range c.records {
		out = append(out, rec)
	}
	return out, nil
}

func TestSyncToStoreBestEffort(t *testing.T) {
	r, err := New(
		stub("MODBUS_TCP", adapter.CategoryIndustrial),
		stub("MQTT", adapter.CategoryIoT),
		stub("SNMP_V2C", adapter.CategoryIoT),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cat := newRecordingCatalog()
	cat.failCode = "MQTT"
	r.SetCatalog(cat)

	synced := r.SyncToStore(context.Background())
	if synced != 2 {
		t.Errorf("synced = %d, want 2 (one upsert fails)", synced)
	}
	if _, ok := cat.records["MODBUS_TCP"]; !ok {
		t.Error("MODBUS_TCP not synced")
	}
	if _, ok := cat.records["MQTT"]; ok {
		t.Error("failed upsert should not be recorded")
	}

	// Availability after a partial sync failure is untouched
	if _, err := r.GetAdapter("MQTT"); err != nil {
		t.Errorf("adapter unavailable after sync failure: %v", err)
	}
}

func TestSyncToStoreWithoutCatalog(t *testing.T) {
	r, err := New(stub("MQTT", adapter.CategoryIoT))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if synced := r.SyncToStore(context.Background()); synced != 0 {
		t.Errorf("synced = %d without a catalogue, want 0", synced)
	}
}

func TestSyncedRecordCarriesDescriptor(t *testing.T) {
	a := stub("MODBUS_TCP", adapter.CategoryIndustrial)
	a.desc.Subcategory = "fieldbus"
	a.desc.Schema = adapter.Schema{Fields: map[string]adapter.Field{
		"host": {Type: adapter.FieldString, Required: true},
	}}

	r, err := New(a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cat := newRecordingCatalog()
	r.SetCatalog(cat)
	r.SyncToStore(context.Background())

	rec, err := cat.GetByCode(context.Background(), "MODBUS_TCP")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if rec.Category != "industrial" || rec.Subcategory != "fieldbus" {
		t.Errorf("unexpected record identity: %+v", rec)
	}
	if rec.SchemaJSON == "" || rec.CapabilityJSON == "" {
		t.Error("expected marshalled schema and capabilities")
	}
}
