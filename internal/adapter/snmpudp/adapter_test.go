package snmpudp

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

type fakeAgent struct {
	pdus     []pdu
	getErr   error
	gets     int
	walks    int
	walkRoot string
	closed   int
}

func (f *fakeAgent) Get([]string) ([]pdu, error) {
	f.gets++
	return f.pdus, f.getErr
}

func (f *fakeAgent) Walk(root string) ([]pdu, error) {
	f.walks++
	f.walkRoot = root
	return f.pdus, f.getErr
}

func (f *fakeAgent) Close() error {
	f.closed++
	return nil
}

func newTestAdapter(fa *fakeAgent) *Adapter {
	a := New()
	a.dial = func(adapter.Config) (agent, error) { return fa, nil }
	return a
}

func TestValidateOIDSyntax(t *testing.T) {
	a := New()
	tests := []struct {
		name  string
		oids  []any
		valid bool
	}{
		{"dotted numeric", []any{"1.3.6.1.2.1.1.1.0"}, true},
		{"leading dot", []any{".1.3.6.1.2.1.1.5.0"}, true},
		{"several", []any{"1.3.6.1", "1.3.6.2"}, true},
		{"symbolic name", []any{"sysDescr.0"}, false},
		{"trailing dot", []any{"1.3.6."}, false},
		{"single arc", []any{"1"}, false},
		{"one bad among good", []any{"1.3.6.1", "bogus"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := a.ValidateConfig(adapter.Config{"oids": tc.oids})
			if res.Valid != tc.valid {
				t.Fatalf("oids %v: valid = %v, want %v (%v)", tc.oids, res.Valid, tc.valid, res.Errors)
			}
			if !tc.valid && res.Errors[0].Field != "oids" {
				t.Fatalf("field = %s, want oids", res.Errors[0].Field)
			}
		})
	}
}

func TestBindReadRelease(t *testing.T) {
	fa := &fakeAgent{pdus: []pdu{
		{OID: ".1.3.6.1.2.1.1.5.0", Value: []byte("ups-rack-4")},
		{OID: ".1.3.6.1.4.1.318.1.1.1.2.2.3.0", Value: 42},
	}}
	a := newTestAdapter(fa)

	h, err := a.Connect(context.Background(), adapter.Config{
		"host": "10.0.0.9",
		"oids": []any{"1.3.6.1.2.1.1.5.0", "1.3.6.1.4.1.318.1.1.1.2.2.3.0"},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !a.IsConnected(h) {
		t.Fatal("bound handle should report connected")
	}

	r, err := a.Read(context.Background(), h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Quality != 100 {
		t.Fatalf("quality = %d", r.Quality)
	}
	if r.Values["1.3.6.1.2.1.1.5.0"] != "ups-rack-4" {
		t.Fatalf("sysName = %v", r.Values["1.3.6.1.2.1.1.5.0"])
	}
	if r.Values["1.3.6.1.4.1.318.1.1.1.2.2.3.0"] != float64(42) {
		t.Fatalf("runtime = %v", r.Values["1.3.6.1.4.1.318.1.1.1.2.2.3.0"])
	}

	if err := a.Disconnect(context.Background(), h); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if fa.closed != 1 {
		t.Fatalf("agent closed %d times, want 1", fa.closed)
	}
	if a.IsConnected(h) {
		t.Fatal("released handle should report disconnected")
	}
	if err := a.Disconnect(context.Background(), h); err != nil {
		t.Fatalf("repeat Disconnect: %v", err)
	}
	if fa.closed != 1 {
		t.Fatal("repeat disconnect closed agent again")
	}
}

func TestReadTimeoutMapsToSentinel(t *testing.T) {
	fa := &fakeAgent{getErr: errors.New("request timeout (after 3 retries)")}
	a := newTestAdapter(fa)

	h, err := a.Connect(context.Background(), adapter.Config{
		"host": "10.0.0.9", "oids": []any{"1.3.6.1.2.1.1.5.0"},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	_, err = a.Read(context.Background(), h)
	if !errors.Is(err, adapter.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestReadUnknownHandle(t *testing.T) {
	a := newTestAdapter(&fakeAgent{})
	h := adapter.NewHandle(Code, adapter.Config{})
	if _, err := a.Read(context.Background(), h); !errors.Is(err, adapter.ErrHandleNotFound) {
		t.Fatalf("err = %v, want ErrHandleNotFound", err)
	}
}

func TestDiscoverReportsSystemGroup(t *testing.T) {
	fa := &fakeAgent{pdus: []pdu{
		{OID: ".1.3.6.1.2.1.1.1.0", Value: []byte("APC Smart-UPS 3000")},
		{OID: ".1.3.6.1.2.1.1.2.0", Value: "1.3.6.1.4.1.318.1.3.2.12"},
		{OID: ".1.3.6.1.2.1.1.5.0", Value: []byte("ups-rack-4")},
	}}
	a := newTestAdapter(fa)

	devices, err := a.Discover(context.Background(), adapter.Config{"host": "10.0.0.9"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(devices))
	}
	d := devices[0]
	if d.Address != "10.0.0.9" || d.Name != "ups-rack-4" || d.Model != "APC Smart-UPS 3000" {
		t.Fatalf("device = %+v", d)
	}
	if d.Metadata["sysObjectID"] != "1.3.6.1.4.1.318.1.3.2.12" {
		t.Fatalf("metadata = %v", d.Metadata)
	}
	if fa.walks != 1 || fa.walkRoot != "1.3.6.1.2.1.1" {
		t.Fatalf("walks = %d root = %q, want one system-subtree walk", fa.walks, fa.walkRoot)
	}
	if fa.gets != 0 {
		t.Fatalf("gets = %d, discovery should not issue GETs", fa.gets)
	}
	if fa.closed != 1 {
		t.Fatal("discovery agent not closed")
	}
}

func TestDiscoverSilentAgent(t *testing.T) {
	a := newTestAdapter(&fakeAgent{pdus: []pdu{
		{OID: ".1.3.6.1.2.1.1.5.0", Value: nil},
	}})

	devices, err := a.Discover(context.Background(), adapter.Config{"host": "10.0.0.9"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("got %d devices, want 0", len(devices))
	}
}
