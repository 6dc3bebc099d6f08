// Package adapter defines the uniform contract that every protocol
// adapter in FieldLink Core implements.
//
// A single installation talks to devices over dozens of structurally
// different wire protocols: synchronous register polling (Modbus, S7,
// BACnet), connectionless datagram exchange (SNMP, CoAP, plain UDP) and
// persistent push streams (MQTT, OPC-UA, WebSocket). The adapter contract
// hides those differences behind one polymorphic surface:
//
//	connect -> read/subscribe -> disconnect
//
// plus a fixed capability set that tells callers which optional
// operations (write, subscribe, discover) a protocol supports.
//
// # Key Types
//
//   - Adapter: the mandatory contract every protocol implements
//   - Subscriber, Writer, Discoverer: optional capability interfaces,
//     present only when the matching capability flag is true
//   - Descriptor: identity + schema + defaults + capabilities for a
//     protocol, independent of any live connection
//   - Handle: opaque session token returned by Connect
//   - Reading: one telemetry sample in normalised form
//
// # Capability Gating
//
// Optional operations are modelled as separate interfaces rather than
// throwing stubs. Callers check the capability flag first and only then
// type-assert:
//
//	if a.Capabilities().SupportsSubscription {
//	    sub, err := a.(adapter.Subscriber).Subscribe(ctx, h, onData, onErr)
//	    ...
//	}
//
// SubscribeToData bundles the check and the assertion for push streams;
// invoking an optional operation without checking is a contract
// violation and reported as ErrNotSupported.
//
// # Failure Semantics
//
// Malformed configuration is data, not an error: semantic checks return
// a ValidationResult. Transport faults during Connect/Read/Disconnect
// are errors wrapped around one of the cause sentinels (ErrUnreachable,
// ErrRefused, ErrAuthFailed, ErrMalformed) so callers can classify them
// with errors.Is.
package adapter
