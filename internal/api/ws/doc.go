// Package ws streams the editor session over a WebSocket: inbound
// keystrokes coalesce per file before reaching the store, and console
// records plus scheduler state changes are pushed to every client.
package ws
