// Package types defines the shared data model: projects, snippet
// files, console records, and the instrumentation message shape.
//
// These types cross package boundaries (store, assembler, relay,
// persistence, API) and carry the JSON tags used for both the
// persisted project record and the HTTP/WebSocket surface.
package types
