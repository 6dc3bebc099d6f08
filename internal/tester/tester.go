package tester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// Default operation timings.
const (
	// DefaultTimeout bounds each blocking step of a full test.
	DefaultTimeout = 10 * time.Second

	// QuickTimeout is the short bound used by QuickTest and the
	// statistical operations.
	QuickTimeout = 3 * time.Second

	// cleanupTimeout bounds the guaranteed disconnect path.
	cleanupTimeout = 5 * time.Second

	// interTrialDelay spaces sequential ping trials so they do not
	// overlap on the transport.
	interTrialDelay = 100 * time.Millisecond
)

// Logger defines the logging interface used by the Tester.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// AdapterSource resolves protocol codes to adapters; satisfied by
// *registry.Registry.
type AdapterSource interface {
	GetAdapter(code string) (adapter.Adapter, error)
}

// ConfigValidator runs the two-phase configuration pipeline; satisfied
// by *validation.Validator.
type ConfigValidator interface {
	Validate(code string, cfg adapter.Config) (adapter.ValidationResult, error)
}

// ReadingSink receives best-effort telemetry from tests. Implementations
// must not block; satisfied by *tsdb.Client.
type ReadingSink interface {
	WriteReading(code, handleID string, r *adapter.Reading)
	WriteTestLatency(code string, latencyMs int64, success bool)
}

// Tester runs timeout-bounded connection diagnostics on top of the
// registry and validator.
type Tester struct {
	source    AdapterSource
	validator ConfigValidator
	sink      ReadingSink // optional
	logger    Logger
}

// New creates a tester. The sink may be nil.
func New(source AdapterSource, validator ConfigValidator) *Tester {
	return &Tester{
		source:    source,
		validator: validator,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the tester.
func (t *Tester) SetLogger(logger Logger) {
	t.logger = logger
}

// SetSink attaches a telemetry sink for sampled readings and latencies.
func (t *Tester) SetSink(sink ReadingSink) {
	t.sink = sink
}

// Options controls a single connection test.
type Options struct {
	// Timeout bounds each blocking step. Zero means DefaultTimeout.
	Timeout time.Duration

	// FetchSample enables a best-effort read after connecting. A failed
	// sample read never fails the test.
	FetchSample bool
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// TestConnection runs a full validate-connect-(read)-disconnect cycle.
// Overall success reflects only the connect phase. The returned result
// is never nil and transport faults are captured, not propagated.
func (t *Tester) TestConnection(ctx context.Context, code string, cfg adapter.Config, opts Options) *adapter.TestResult {
	timeout := opts.timeout()
	diag := &adapter.Diagnostics{}

	// Phase 0: validation. Zero I/O happens unless this passes.
	validateStart := time.Now()
	vres, err := t.validator.Validate(code, cfg)
	diag.ValidateMs = msSince(validateStart)
	if err != nil {
		return failed(diag, fmt.Sprintf("unknown protocol: %v", err))
	}
	if !vres.Valid {
		return failed(diag, validationMessage(vres))
	}

	a, err := t.source.GetAdapter(code)
	if err != nil {
		return failed(diag, fmt.Sprintf("unknown protocol: %v", err))
	}

	// Phase 1: connect, raced against the timer.
	connectStart := time.Now()
	handle, err := t.connectWithTimeout(ctx, a, cfg, timeout)
	diag.ConnectMs = msSince(connectStart)
	if err != nil {
		res := failed(diag, classify(err))
		res.LatencyMs = diag.ConnectMs
		t.recordLatency(code, res)
		return res
	}

	// Guaranteed cleanup: the handle is disconnected on every exit
	// path, including a panicking read.
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if derr := a.Disconnect(cctx, handle); derr != nil {
			t.logger.Warn("test cleanup disconnect failed", "code", code, "error", derr)
		}
	}()

	result := &adapter.TestResult{
		Success:     true,
		LatencyMs:   diag.ConnectMs,
		Diagnostics: diag,
	}

	// Phase 2: optional sample read. Best-effort enrichment only.
	if opts.FetchSample {
		readStart := time.Now()
		reading, rerr := t.readWithTimeout(ctx, a, handle, timeout)
		diag.ReadMs = msSince(readStart)
		if rerr != nil {
			diag.SampleFailed = true
			t.logger.Debug("sample read failed during test", "code", code, "error", rerr)
		} else {
			result.Sample = reading
			if len(reading.Metadata) > 0 {
				diag.DeviceInfo = reading.Metadata
			}
			if t.sink != nil {
				t.sink.WriteReading(code, handle.ID, reading)
			}
		}
	}

	t.recordLatency(code, result)
	return result
}

// QuickTest runs a short-timeout test with sampling disabled and
// reports only whether the connect phase succeeded.
func (t *Tester) QuickTest(ctx context.Context, code string, cfg adapter.Config) bool {
	res := t.TestConnection(ctx, code, cfg, Options{Timeout: QuickTimeout})
	return res.Success
}

// connectWithTimeout races adapter.Connect against a timer. If the
// operation loses the race but later yields a handle, that handle is
// disconnected in the background so no tracked connection leaks.
func (t *Tester) connectWithTimeout(ctx context.Context, a adapter.Adapter, cfg adapter.Config, d time.Duration) (*adapter.Handle, error) {
	opCtx, cancel := context.WithCancel(ctx)

	type outcome struct {
		handle *adapter.Handle
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		h, err := a.Connect(opCtx, cfg)
		done <- outcome{h, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case out := <-done:
		cancel()
		return out.handle, out.err
	case <-timer.C:
		cancel()
		// Reap a late success so the handle does not leak.
		go func() {
			if out := <-done; out.handle != nil {
				cctx, ccancel := context.WithTimeout(context.Background(), cleanupTimeout)
				defer ccancel()
				if derr := a.Disconnect(cctx, out.handle); derr != nil {
					t.logger.Warn("late connect cleanup failed", "error", derr)
				}
			}
		}()
		return nil, fmt.Errorf("%w: connect exceeded %v", adapter.ErrTimeout, d)
	}
}

// readWithTimeout races adapter.Read against a timer.
func (t *Tester) readWithTimeout(ctx context.Context, a adapter.Adapter, h *adapter.Handle, d time.Duration) (*adapter.Reading, error) {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		reading *adapter.Reading
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := a.Read(opCtx, h)
		done <- outcome{r, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.reading, out.err
	case <-timer.C:
		return nil, fmt.Errorf("%w: read exceeded %v", adapter.ErrTimeout, d)
	}
}

func (t *Tester) recordLatency(code string, res *adapter.TestResult) {
	if t.sink != nil {
		t.sink.WriteTestLatency(code, res.LatencyMs, res.Success)
	}
}

// failed builds a failed result carrying the diagnostics so far.
func failed(diag *adapter.Diagnostics, msg string) *adapter.TestResult {
	return &adapter.TestResult{
		Success:     false,
		Error:       msg,
		Diagnostics: diag,
	}
}

// validationMessage renders the first field error as the failure
// reason, naming the field.
func validationMessage(res adapter.ValidationResult) string {
	if len(res.Errors) == 0 {
		return "validation failed"
	}
	first := res.Errors[0]
	return fmt.Sprintf("validation failed: %s: %s", first.Field, first.Message)
}

// classify maps a connection fault to a stable, human-readable reason.
func classify(err error) string {
	switch {
	case errors.Is(err, adapter.ErrTimeout):
		return fmt.Sprintf("timeout: %v", err)
	case errors.Is(err, adapter.ErrUnreachable):
		return fmt.Sprintf("unreachable: %v", err)
	case errors.Is(err, adapter.ErrRefused):
		return fmt.Sprintf("refused: %v", err)
	case errors.Is(err, adapter.ErrAuthFailed):
		return fmt.Sprintf("auth failed: %v", err)
	case errors.Is(err, adapter.ErrMalformed):
		return fmt.Sprintf("malformed response: %v", err)
	default:
		return fmt.Sprintf("connection failed: %v", err)
	}
}

func msSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
