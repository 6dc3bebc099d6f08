package adapter

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// WrapConnectError wraps a transport dial failure with the matching
// cause sentinel so callers can classify it with errors.Is. Errors
// already carrying a sentinel pass through unchanged.
func WrapConnectError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrRefused) ||
		errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrTimeout) {
		return err
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %v", ErrRefused, err)
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	// Unclassifiable dial failures read as unreachable rather than
	// leaking a raw transport error to callers.
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
