package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/config"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/database"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/fieldlink-core/internal/registry"
	"github.com/nerrad567/fieldlink-core/internal/tester"
	"github.com/nerrad567/fieldlink-core/internal/validation"
)

// echoAdapter is a minimal in-memory protocol for handler tests.
type echoAdapter struct {
	handles *adapter.HandleTable
}

func newEchoAdapter() *echoAdapter {
	return &echoAdapter{handles: adapter.NewHandleTable()}
}

func (e *echoAdapter) Descriptor() adapter.Descriptor {
	return adapter.Descriptor{
		Code:           "ECHO",
		DisplayName:    "Echo",
		Category:       adapter.CategoryIoT,
		ConnectionType: adapter.ConnectionPolling,
		Schema:         e.Schema(),
		Defaults:       e.Defaults(),
		Capabilities:   e.Capabilities(),
	}
}

func (e *echoAdapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{SupportsPolling: true, DataTypes: []string{"number"}}
}

func (e *echoAdapter) Schema() adapter.Schema {
	return adapter.Schema{
		Fields: map[string]adapter.Field{
			"host": {Type: adapter.FieldString, Required: true},
			"port": {Type: adapter.FieldInteger, Default: 9000},
		},
		Order: []string{"host", "port"},
	}
}

func (e *echoAdapter) Defaults() adapter.Config { return e.Schema().Defaults() }

func (e *echoAdapter) ValidateConfig(adapter.Config) adapter.ValidationResult {
	return adapter.OK()
}

func (e *echoAdapter) Connect(_ context.Context, cfg adapter.Config) (*adapter.Handle, error) {
	h := adapter.NewHandle("ECHO", cfg)
	e.handles.Put(h)
	return h, nil
}

func (e *echoAdapter) Disconnect(_ context.Context, h *adapter.Handle) error {
	e.handles.Remove(h.ID)
	return nil
}

func (e *echoAdapter) IsConnected(h *adapter.Handle) bool { return e.handles.Has(h.ID) }

func (e *echoAdapter) Read(_ context.Context, h *adapter.Handle) (*adapter.Reading, error) {
	return &adapter.Reading{
		Timestamp: time.Now(),
		Values:    map[string]any{"value": 1.0},
		Quality:   100,
		Source:    "ECHO",
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg, err := registry.New(newEchoAdapter())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	validator := validation.New(reg)
	conntest := tester.New(reg, validator)

	store, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		Tester: config.TesterConfig{
			TimeoutSeconds:      2,
			QuickTimeoutSeconds: 1,
			BatchConcurrency:    2,
		},
		Logger:    logging.Default(),
		Registry:  reg,
		Validator: validator,
		Conntest:  conntest,
		Version:   "test",
		Store:     store,
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]any
	if status := getJSON(t, ts.URL+"/api/v1/health", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
	if body["protocols"] != float64(1) {
		t.Fatalf("protocols = %v", body["protocols"])
	}
	if body["database"] != "ok" {
		t.Fatalf("database = %v", body["database"])
	}
}

func TestListProtocols(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Count     int                  `json:"count"`
		Protocols []adapter.Descriptor `json:"protocols"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/protocols", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Count != 1 || body.Protocols[0].Code != "ECHO" {
		t.Fatalf("body = %+v", body)
	}
}

func TestListProtocols_UnknownCategory(t *testing.T) {
	ts := newTestServer(t)

	if status := getJSON(t, ts.URL+"/api/v1/protocols?category=quantum", nil); status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestGetSchema_UnknownProtocol(t *testing.T) {
	ts := newTestServer(t)

	if status := getJSON(t, ts.URL+"/api/v1/protocols/NOPE/schema", nil); status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestValidate_FailureIsData(t *testing.T) {
	ts := newTestServer(t)

	var result adapter.ValidationResult
	status := postJSON(t, ts.URL+"/api/v1/protocols/ECHO/validate",
		map[string]any{"config": map[string]any{}}, &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 even for invalid config", status)
	}
	if result.Valid {
		t.Fatal("missing host should be invalid")
	}
	if result.Errors[0].Field != "host" {
		t.Fatalf("errors = %v", result.Errors)
	}
}

func TestApplyDefaults(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Config adapter.Config `json:"config"`
	}
	status := postJSON(t, ts.URL+"/api/v1/protocols/ECHO/defaults",
		map[string]any{"config": map[string]any{"host": "h", "port": 1234}}, &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Config["port"] != float64(1234) {
		t.Fatalf("explicit port overridden: %v", body.Config)
	}
}

func TestTestConnection(t *testing.T) {
	ts := newTestServer(t)

	var result adapter.TestResult
	status := postJSON(t, ts.URL+"/api/v1/protocols/ECHO/test",
		map[string]any{"config": map[string]any{"host": "h"}, "fetch_sample": true}, &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Sample == nil {
		t.Fatal("expected a sample reading")
	}
}

func TestBatch_RequiresItems(t *testing.T) {
	ts := newTestServer(t)

	status := postJSON(t, ts.URL+"/api/v1/tests/batch", map[string]any{"items": []any{}}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestBatch(t *testing.T) {
	ts := newTestServer(t)

	var result tester.BatchResult
	status := postJSON(t, ts.URL+"/api/v1/tests/batch", map[string]any{
		"items": []map[string]any{
			{"code": "ECHO", "config": map[string]any{"host": "a"}},
			{"code": "ECHO", "config": map[string]any{"host": "b"}},
			{"code": "NOPE", "config": map[string]any{}},
		},
	}, &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if result.Total != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
}
