// Package relay republishes instrumentation messages from the
// execution context as typed console/error records.
//
// It is the only component that touches the raw sandbox channel.
// Malformed or unrecognized messages are dropped, not surfaced;
// records land in a bounded buffer (oldest evicted past the cap) and
// fan out to subscribers such as WebSocket clients.
package relay
