// Package snmpudp implements the SNMP adapter.
//
// SNMP over UDP is connectionless: Connect binds a target and opens the
// socket, but nothing is proven about the agent until the first GET.
// IsConnected therefore reports handle-table membership only.
package snmpudp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// Code is the protocol identifier registered for this adapter.
const Code = "SNMP"

// Well-known OIDs from the MIB-II system group.
const (
	oidSystem      = "1.3.6.1.2.1.1"
	oidSysDescr    = "1.3.6.1.2.1.1.1.0"
	oidSysObjectID = "1.3.6.1.2.1.1.2.0"
	oidSysName     = "1.3.6.1.2.1.1.5.0"
)

var oidRegex = regexp.MustCompile(`^\.?\d+(\.\d+)+$`)

// Quality scores for agent responses.
const (
	qualityFull    = 100
	qualityPartial = 50
)

// pdu is one variable binding from an agent response.
type pdu struct {
	OID   string
	Value any
}

// agent abstracts the gosnmp client so tests can respond without a
// live device.
type agent interface {
	Get(oids []string) ([]pdu, error)
	Walk(rootOID string) ([]pdu, error)
	Close() error
}

type conn struct {
	agent agent
	cfg   adapter.Config
}

// Adapter is the SNMP protocol adapter.
type Adapter struct {
	mu    sync.RWMutex
	conns map[string]*conn

	// dial is replaceable in tests.
	dial func(cfg adapter.Config) (agent, error)
}

// New creates an SNMP adapter with no bound targets.
func New() *Adapter {
	return &Adapter{
		conns: make(map[string]*conn),
		dial:  dialAgent,
	}
}

func (a *Adapter) Descriptor() adapter.Descriptor {
	return adapter.Descriptor{
		Code:           Code,
		DisplayName:    "SNMP",
		Description:    "SNMP v1/v2c GET polling for network equipment and UPS/PDU gear",
		Category:       adapter.CategoryIndustrial,
		Subcategory:    "network",
		ConnectionType: adapter.ConnectionDatagram,
		Schema:         configSchema(),
		Defaults:       configSchema().Defaults(),
		Capabilities:   a.Capabilities(),
	}
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		SupportsPolling:   true,
		SupportsDiscovery: true,
		DataTypes:         []string{"number", "string"},
	}
}

func (a *Adapter) Schema() adapter.Schema { return configSchema() }

func (a *Adapter) Defaults() adapter.Config { return configSchema().Defaults() }

// ValidateConfig checks each requested OID for dotted numeric form.
func (a *Adapter) ValidateConfig(cfg adapter.Config) adapter.ValidationResult {
	res := adapter.OK()
	oids, _ := cfg.Strings("oids")
	for _, oid := range oids {
		if !oidRegex.MatchString(oid) {
			res = adapter.Merge(res, adapter.Fail("oids",
				fmt.Sprintf("%q is not a dotted numeric OID", oid),
				adapter.CodeSemantic))
		}
	}
	return res
}

// Connect opens the UDP socket and binds the target. No datagram is
// sent; an unreachable agent surfaces on the first Read.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) (*adapter.Handle, error) {
	ag, err := a.dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("snmp bind: %w", adapter.WrapConnectError(err))
	}
	if err := ctx.Err(); err != nil {
		_ = ag.Close()
		return nil, fmt.Errorf("snmp bind: %w", adapter.ErrTimeout)
	}

	h := adapter.NewHandle(Code, cfg)
	a.mu.Lock()
	a.conns[h.ID] = &conn{agent: ag, cfg: cfg.Clone()}
	a.mu.Unlock()
	return h, nil
}

func (a *Adapter) Disconnect(_ context.Context, h *adapter.Handle) error {
	if h == nil {
		return nil
	}
	a.mu.Lock()
	c, ok := a.conns[h.ID]
	delete(a.conns, h.ID)
	a.mu.Unlock()
	if !ok {
		return nil
	}
	if err := c.agent.Close(); err != nil {
		return fmt.Errorf("snmp close: %w", err)
	}
	return nil
}

// IsConnected reports table membership. UDP has no session to consult.
func (a *Adapter) IsConnected(h *adapter.Handle) bool {
	if h == nil {
		return false
	}
	a.mu.RLock()
	_, ok := a.conns[h.ID]
	a.mu.RUnlock()
	return ok
}

// Read issues one GET for the configured OIDs.
func (a *Adapter) Read(_ context.Context, h *adapter.Handle) (*adapter.Reading, error) {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("snmp read: %w", adapter.ErrHandleNotFound)
	}

	oids, _ := c.cfg.Strings("oids")
	if len(oids) == 0 {
		return nil, fmt.Errorf("snmp read: no oids configured: %w", adapter.ErrMalformed)
	}

	pdus, err := c.agent.Get(oids)
	if err != nil {
		return nil, fmt.Errorf("snmp get: %w", adapter.WrapConnectError(err))
	}

	values := make(map[string]any, len(pdus))
	quality := qualityFull
	for _, p := range pdus {
		v := convertValue(p.Value)
		if v == nil {
			quality = qualityPartial
			continue
		}
		values[strings.TrimPrefix(p.OID, ".")] = v
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("snmp get: empty response: %w", adapter.ErrMalformed)
	}

	h.Touch()
	host, _ := c.cfg.String("host")
	return &adapter.Reading{
		Timestamp: time.Now().UTC(),
		Values:    values,
		Quality:   quality,
		Source:    Code + "/" + host,
	}, nil
}

// Discover walks the MIB-II system subtree of the configured target and
// reports it as a device when the agent answers.
func (a *Adapter) Discover(ctx context.Context, cfg adapter.Config) ([]adapter.DiscoveredDevice, error) {
	ag, err := a.dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("snmp discover: %w", adapter.WrapConnectError(err))
	}
	defer func() { _ = ag.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snmp discover: %w", adapter.ErrTimeout)
	}

	pdus, err := ag.Walk(oidSystem)
	if err != nil {
		return nil, fmt.Errorf("snmp discover: %w", adapter.WrapConnectError(err))
	}

	host, _ := cfg.String("host")
	dev := adapter.DiscoveredDevice{Address: host, Metadata: map[string]any{}}
	for _, p := range pdus {
		switch strings.TrimPrefix(p.OID, ".") {
		case oidSysName:
			dev.Name, _ = convertValue(p.Value).(string)
		case oidSysDescr:
			dev.Model, _ = convertValue(p.Value).(string)
		case oidSysObjectID:
			dev.Metadata["sysObjectID"] = convertValue(p.Value)
		}
	}
	if dev.Name == "" && dev.Model == "" {
		return nil, nil
	}
	return []adapter.DiscoveredDevice{dev}, nil
}

// convertValue normalises agent values: octet strings become text,
// integer families become float64 for uniform numeric handling.
func convertValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float64:
		return t
	case nil:
		return nil
	default:
		return fmt.Sprint(t)
	}
}

// dialAgent builds a gosnmp client from connection config.
func dialAgent(cfg adapter.Config) (agent, error) {
	host, _ := cfg.String("host")
	port, ok := cfg.Int("port")
	if !ok {
		port = 161
	}
	community, ok := cfg.String("community")
	if !ok || community == "" {
		community = "public"
	}
	timeoutMs, ok := cfg.Int("timeout")
	if !ok {
		timeoutMs = 2000
	}
	retries, ok := cfg.Int("retries")
	if !ok {
		retries = 3
	}

	version := gosnmp.Version2c
	if v, _ := cfg.String("version"); v == "1" {
		version = gosnmp.Version1
	}

	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      uint16(port),
		Community: community,
		Version:   version,
		Timeout:   time.Duration(timeoutMs) * time.Millisecond,
		Retries:   retries,
	}
	if err := client.Connect(); err != nil {
		return nil, err
	}
	return &gosnmpAgent{client: client}, nil
}

// gosnmpAgent adapts *gosnmp.GoSNMP to the agent interface.
type gosnmpAgent struct {
	client *gosnmp.GoSNMP
}

func (g *gosnmpAgent) Get(oids []string) ([]pdu, error) {
	packet, err := g.client.Get(oids)
	if err != nil {
		return nil, err
	}
	out := make([]pdu, 0, len(packet.Variables))
	for _, v := range packet.Variables {
		out = append(out, pdu{OID: v.Name, Value: v.Value})
	}
	return out, nil
}

func (g *gosnmpAgent) Walk(rootOID string) ([]pdu, error) {
	vars, err := g.client.WalkAll(rootOID)
	if err != nil {
		return nil, err
	}
	out := make([]pdu, 0, len(vars))
	for _, v := range vars {
		out = append(out, pdu{OID: v.Name, Value: v.Value})
	}
	return out, nil
}

func (g *gosnmpAgent) Close() error {
	if g.client.Conn != nil {
		return g.client.Conn.Close()
	}
	return nil
}
