package adapter

import "errors"

// Connection fault sentinels. Adapters wrap transport failures around
// exactly one of these so callers can classify them:
//
//	if errors.Is(err, adapter.ErrUnreachable) {
//	    // host down / no route
//	}
var (
	// ErrUnreachable is returned when the target host cannot be reached.
	ErrUnreachable = errors.New("adapter: target unreachable")

	// ErrRefused is returned when the target actively refused the
	// connection.
	ErrRefused = errors.New("adapter: connection refused")

	// ErrAuthFailed is returned when the transport rejected the
	// configured credentials.
	ErrAuthFailed = errors.New("adapter: authentication failed")

	// ErrMalformed is returned when the peer sent a response the
	// transport could not parse.
	ErrMalformed = errors.New("adapter: malformed response")

	// ErrTimeout is raised by the connection tester's race-against-timer
	// wrapper, not by adapters themselves.
	ErrTimeout = errors.New("adapter: operation timed out")

	// ErrNotSupported is returned when an optional operation is invoked
	// against an adapter whose capability flag is false. Callers are
	// expected to check capabilities first; hitting this is a contract
	// violation, not a recoverable runtime condition.
	ErrNotSupported = errors.New("adapter: capability not supported")

	// ErrHandleNotFound is returned when an operation references a
	// handle the adapter is not tracking.
	ErrHandleNotFound = errors.New("adapter: handle not found")

	// ErrNotConnected is returned when a read or write is attempted on
	// a handle whose transport is no longer live.
	ErrNotConnected = errors.New("adapter: not connected")
)
