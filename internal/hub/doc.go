// Package hub owns session coordination concerns.
//
// Ownership boundary:
// - client registry and identity
// - session history and subscriber fan-out
// - session table lifecycle (create, lookup, grace-period reap)
// - inbox snapshot synchronization
// - at-most-once action execution
// - protocol frame decode/dispatch/encode
//
// The hub does not own the transport: connections arrive as Conn handles
// from the web boundary. It does not own mailbox persistence or the AI
// boundary either; both are consumed through interfaces.
package hub
