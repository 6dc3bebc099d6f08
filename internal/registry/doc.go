// Package registry holds the fixed protocol-adapter population and is
// the single source of truth for code-to-adapter resolution.
//
// The registry is built once at startup from a closed list of adapters
// and is read-only afterwards; duplicate protocol codes fail
// construction rather than silently overwriting. Descriptor queries
// (AllProtocols, ProtocolsByCategory, ProtocolDetails) derive their
// answers live from the adapters, never from a cache, so they are
// always current.
//
// A durable protocol catalogue can be attached via SetCatalog. Syncing
// descriptors into it is strictly best-effort: the catalogue is a
// derived cache, and read or write failures there never affect
// in-memory adapter availability.
package registry
