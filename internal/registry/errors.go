package registry

import "errors"

// Domain errors for the registry package.
var (
	// ErrProtocolNotFound is returned when a protocol code is not
	// registered.
	ErrProtocolNotFound = errors.New("registry: protocol not found")

	// ErrDuplicateCode is returned when two adapters declare the same
	// protocol code.
	ErrDuplicateCode = errors.New("registry: duplicate protocol code")

	// ErrInvalidDescriptor is returned when an adapter's descriptor is
	// missing its code or declares an unknown category.
	ErrInvalidDescriptor = errors.New("registry: invalid descriptor")

	// ErrCatalogNotFound is returned by catalogue lookups for codes
	// that have never been synced.
	ErrCatalogNotFound = errors.New("registry: catalogue record not found")
)
