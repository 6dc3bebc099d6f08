package tsdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// WriteReading records a sampled reading from a connection test.
//
// Numeric and boolean values become fields; everything else is dropped
// to keep field types stable across writes. The write is non-blocking.
func (c *Client) WriteReading(code, handleID string, r *adapter.Reading) {
	if !c.IsConnected() || r == nil {
		return
	}

	fields := make(map[string]interface{}, len(r.Values))
	for k, v := range r.Values {
		switch t := v.(type) {
		case float64:
			fields[k] = t
		case int:
			fields[k] = float64(t)
		case bool:
			fields[k] = t
		}
	}
	if len(fields) == 0 {
		return
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		"sample_readings",
		map[string]string{
			"protocol": code,
			"handle":   handleID,
			"quality":  strconv.Itoa(r.Quality),
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WriteTestLatency records the outcome of one connection test.
//
// Used for per-protocol latency trend dashboards and failure-rate
// alerting.
func (c *Client) WriteTestLatency(code string, latencyMs int64, success bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_tests",
		map[string]string{
			"protocol": code,
		},
		map[string]interface{}{
			"latency_ms": latencyMs,
			"success":    success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
