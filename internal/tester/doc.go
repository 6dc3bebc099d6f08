// Package tester orchestrates validate-connect-read-disconnect cycles
// against registered protocol adapters.
//
// The tester is the only component permitted ad-hoc connection cycles
// outside a managed session. Every blocking step is raced against a
// hard timer; on timeout the tester proceeds straight to cleanup and
// reports a timeout failure. A handle obtained by a test is always
// disconnected, on every exit path, including read errors and timeouts
// that resolve late.
//
// All operations return a result value with an explicit success flag;
// transport faults never escape as errors. Only BatchTest runs
// connections concurrently (bounded by its concurrency window); the
// statistical operations are strictly sequential because their numbers
// depend on non-overlapping trials.
package tester
