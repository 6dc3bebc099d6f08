// Package tsdb records test telemetry in InfluxDB.
//
// This package manages:
//   - Connection lifecycle against an InfluxDB v2 server
//   - Non-blocking, batched writes of sampled readings
//   - Connection-test latency series for trend dashboards
//
// Writes never block the caller: points are buffered by the client and
// flushed on its own cadence, and async failures surface through an
// error callback. A disabled or disconnected client silently drops
// points; telemetry is best-effort by design of the callers.
package tsdb
