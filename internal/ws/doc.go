// Package ws implements the real-time synchronization layer: the broadcast
// hub, the participant connections, and the wire protocol.
//
// The package implements:
//   - Inbound/Outbound: the JSON message protocol, decoded once at the
//     boundary into a closed set of message kinds
//   - Client: one connected participant with a buffered send queue
//   - Hub: the participant registry with broadcast-to-all and
//     broadcast-except-sender fan-out
//   - Handler: connection upgrade, read/write pumps, and the message
//     handlers that mutate the session state store
//   - Service: wires the hub, the store, and the execution pipeline
//
// Consistency model: last-write-wins. Messages from one participant are
// processed in arrival order; no ordering is guaranteed across
// participants, and concurrent edits to the same language converge to
// whichever write lands last.
package ws
