// Package modbustcp implements the Modbus TCP adapter.
//
// Modbus is a polling protocol: each handle owns a TCP client handler
// and reads are explicit register requests. There is no subscription
// surface; the poller drives the cadence from pollInterval.
package modbustcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grid-x/modbus"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// Code is the protocol identifier registered for this adapter.
const Code = "MODBUS_TCP"

// transport abstracts the grid-x modbus client so tests can substitute
// a fake without a live TCP endpoint.
type transport interface {
	ReadCoils(ctx context.Context, address, quantity uint16) ([]byte, error)
	ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]byte, error)
	ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]byte, error)
	WriteSingleRegister(ctx context.Context, address, value uint16) ([]byte, error)
	WriteMultipleRegisters(ctx context.Context, address, quantity uint16, value []byte) ([]byte, error)
}

type conn struct {
	client transport
	close  func() error
	cfg    adapter.Config
}

// Adapter is the Modbus TCP protocol adapter.
type Adapter struct {
	mu    sync.RWMutex
	conns map[string]*conn

	// dial is replaceable in tests.
	dial func(addr string, unitID byte, timeout time.Duration) (transport, func() error, error)
}

// New creates a Modbus TCP adapter with no open connections.
func New() *Adapter {
	return &Adapter{
		conns: make(map[string]*conn),
		dial:  dialTCP,
	}
}

func dialTCP(addr string, unitID byte, timeout time.Duration) (transport, func() error, error) {
	handler := modbus.NewTCPClientHandler(addr)
	handler.Timeout = timeout
	handler.SlaveID = unitID
	if err := handler.Connect(context.Background()); err != nil {
		return nil, nil, err
	}
	return modbus.NewClient(handler), handler.Close, nil
}

func (a *Adapter) Descriptor() adapter.Descriptor {
	return adapter.Descriptor{
		Code:           Code,
		DisplayName:    "Modbus TCP",
		Description:    "Modbus TCP register and coil access for PLCs, meters and gateways",
		Category:       adapter.CategoryIndustrial,
		Subcategory:    "fieldbus",
		ConnectionType: adapter.ConnectionPolling,
		Schema:         configSchema(),
		Defaults:       configSchema().Defaults(),
		Capabilities:   a.Capabilities(),
	}
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		SupportsPolling: true,
		SupportsWrite:   true,
		DataTypes:       []string{"number", "boolean"},
	}
}

func (a *Adapter) Schema() adapter.Schema { return configSchema() }

func (a *Adapter) Defaults() adapter.Config { return configSchema().Defaults() }

// ValidateConfig performs the semantic checks that the structural phase
// cannot express: register window bounds and function-code coherence.
func (a *Adapter) ValidateConfig(cfg adapter.Config) adapter.ValidationResult {
	res := adapter.OK()

	addr, _ := cfg.Int("registerAddress")
	count, _ := cfg.Int("registerCount")
	if count < 1 {
		count = 1
	}
	if addr+count > maxRegisterSpace {
		res = adapter.Merge(res, adapter.Fail("registerCount",
			fmt.Sprintf("register window %d+%d exceeds address space %d", addr, count, maxRegisterSpace),
			adapter.CodeSemantic))
	}

	fc, _ := cfg.Int("functionCode")
	switch fc {
	case 1, 2:
		if count > maxCoilRead {
			res = adapter.Merge(res, adapter.Fail("registerCount",
				fmt.Sprintf("coil reads are limited to %d points per request", maxCoilRead),
				adapter.CodeSemantic))
		}
	case 3, 4:
		if count > maxRegisterRead {
			res = adapter.Merge(res, adapter.Fail("registerCount",
				fmt.Sprintf("register reads are limited to %d registers per request", maxRegisterRead),
				adapter.CodeSemantic))
		}
	}

	return res
}

// Connect opens a TCP client handler to the device and registers a handle.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) (*adapter.Handle, error) {
	host, _ := cfg.String("host")
	port, ok := cfg.Int("port")
	if !ok {
		port = 502
	}
	unitID, _ := cfg.Int("unitId")
	timeoutMs, ok := cfg.Int("timeout")
	if !ok {
		timeoutMs = 5000
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client, closeFn, err := a.dial(addr, byte(unitID), time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("modbus connect %s: %w", addr, adapter.WrapConnectError(err))
	}

	if err := ctx.Err(); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("modbus connect %s: %w", addr, adapter.ErrTimeout)
	}

	h := adapter.NewHandle(Code, cfg)
	a.mu.Lock()
	a.conns[h.ID] = &conn{client: client, close: closeFn, cfg: cfg.Clone()}
	a.mu.Unlock()
	return h, nil
}

// Disconnect closes the handle's transport. Unknown handles are a no-op
// so repeated disconnects during cleanup stay safe.
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
	if err := c.close(); err != nil {
		return fmt.Errorf("modbus disconnect: %w", err)
	}
	return nil
}

// IsConnected reports whether the handle has a live transport. The TCP
// session itself is only proven by the next request, so this consults
// table membership plus the handler's presence.
func (a *Adapter) IsConnected(h *adapter.Handle) bool {
	if h == nil {
		return false
	}
	a.mu.RLock()
	_, ok := a.conns[h.ID]
	a.mu.RUnlock()
	return ok
}

// Read issues the configured register request and decodes the payload.
func (a *Adapter) Read(ctx context.Context, h *adapter.Handle) (*adapter.Reading, error) {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("modbus read: %w", adapter.ErrHandleNotFound)
	}

	addr, _ := c.cfg.Int("registerAddress")
	count, ok := c.cfg.Int("registerCount")
	if !ok || count < 1 {
		count = 1
	}
	fc, ok := c.cfg.Int("functionCode")
	if !ok {
		fc = 3
	}

	var (
		raw []byte
		err error
	)
	switch fc {
	case 1:
		raw, err = c.client.ReadCoils(ctx, uint16(addr), uint16(count))
	case 2:
		raw, err = c.client.ReadDiscreteInputs(ctx, uint16(addr), uint16(count))
	case 3:
		raw, err = c.client.ReadHoldingRegisters(ctx, uint16(addr), uint16(count))
	case 4:
		raw, err = c.client.ReadInputRegisters(ctx, uint16(addr), uint16(count))
	default:
		return nil, fmt.Errorf("modbus read: function code %d: %w", fc, adapter.ErrNotSupported)
	}
	if err != nil {
		return nil, fmt.Errorf("modbus read fc=%d addr=%d count=%d: %w", fc, addr, count, adapter.WrapConnectError(err))
	}

	h.Touch()
	values, quality := decode(fc, addr, count, raw)
	return &adapter.Reading{
		Timestamp: time.Now().UTC(),
		Values:    values,
		Quality:   quality,
		Source:    fmt.Sprintf("%s/%d", Code, addr),
		Metadata: map[string]any{
			"functionCode": fc,
			"address":      addr,
		},
	}, nil
}

// Write sets a holding register. Multi-register writes pack big-endian
// words the way the wire protocol expects.
func (a *Adapter) Write(ctx context.Context, h *adapter.Handle, values map[string]any) error {
	a.mu.RLock()
	c, ok := a.conns[h.ID]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("modbus write: %w", adapter.ErrHandleNotFound)
	}

	addr, _ := c.cfg.Int("registerAddress")
	cfg := adapter.Config(values)
	v, ok := cfg.Int("value")
	if !ok {
		return fmt.Errorf("modbus write: missing numeric value: %w", adapter.ErrMalformed)
	}
	if _, err := c.client.WriteSingleRegister(ctx, uint16(addr), uint16(v)); err != nil {
		return fmt.Errorf("modbus write addr=%d: %w", addr, adapter.WrapConnectError(err))
	}
	h.Touch()
	return nil
}

// Quality scores for decoded payloads.
const (
	qualityFull    = 100
	qualityPartial = 50
)

// decode turns a raw Modbus payload into keyed values. Registers are
// big-endian 16-bit words; coils and discrete inputs are packed bits.
// A truncated payload yields the values present with degraded quality.
func decode(fc, addr, count int, raw []byte) (map[string]any, int) {
	values := make(map[string]any, count)
	switch fc {
	case 1, 2:
		for i := 0; i < count; i++ {
			byteIdx := i / 8
			if byteIdx >= len(raw) {
				return values, qualityPartial
			}
			bit := raw[byteIdx]>>(uint(i)%8)&0x01 == 0x01
			values[fmt.Sprintf("coil_%d", addr+i)] = bit
		}
	default:
		for i := 0; i < count; i++ {
			off := i * 2
			if off+1 >= len(raw) {
				return values, qualityPartial
			}
			word := uint16(raw[off])<<8 | uint16(raw[off+1])
			values[fmt.Sprintf("register_%d", addr+i)] = float64(word)
		}
	}
	return values, qualityFull
}
