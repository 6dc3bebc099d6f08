package adapter

import "time"

// Reading is one telemetry sample in normalised form, produced by Read
// or delivered through a subscription.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`

	// Values maps measurement names to sampled values. Values are
	// numbers, strings, booleans or nil.
	Values map[string]any `json:"values"`

	// Quality is a 0-100 confidence score for the sample.
	Quality int `json:"quality"`

	// Source identifies where the sample came from, typically the
	// protocol code plus an address fragment.
	Source string `json:"source"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// TestResult is the outcome of a self-contained connection test.
// Success reflects only the connect phase; a failed sample read leaves
// Success true and simply omits Sample.
type TestResult struct {
	Success   bool   `json:"success"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`

	// Sample is a best-effort enrichment read taken after connecting.
	Sample *Reading `json:"sample_data,omitempty"`

	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Diagnostics carries the timing breakdown and device information
// gathered during a connection test.
type Diagnostics struct {
	ValidateMs   int64          `json:"validate_ms"`
	ConnectMs    int64          `json:"connect_ms"`
	ReadMs       int64          `json:"read_ms,omitempty"`
	DeviceInfo   map[string]any `json:"device_info,omitempty"`
	SampleFailed bool           `json:"sample_failed,omitempty"`
}
