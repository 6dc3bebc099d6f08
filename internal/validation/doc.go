// Package validation implements the two-phase configuration validator.
//
// Phase one applies the generic structural rules declared in a
// protocol's schema: required, type (with coercion), min/max, enum,
// pattern and format. Phase two is only reached when phase one passes
// and delegates to the adapter's own cross-field checks, e.g. "OTAA
// mode requires appKey and appEui".
//
// Structural validators are compiled once per protocol code (regexps
// compiled, enum sets built) and cached. The cache is explicitly
// invalidatable per code or wholesale to support schema hot-reload.
//
// Validation failures are data (adapter.ValidationResult), never
// errors; the only error paths are unknown protocol codes.
package validation
