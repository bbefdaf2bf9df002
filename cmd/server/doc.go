// Package main is the entry point for the frontend sandbox server.
//
// The server hosts a browser-based HTML/CSS/JS scratchpad: a project
// of editable files, a debounced rebuild pipeline that assembles them
// into a single preview document, a sandboxed script runtime guarded
// by an execution watchdog, and a console relay that streams script
// output back to the editor.
//
// The pipeline:
//
//	Project Store → Update Scheduler → HTML Assembler → Runtime Bridge → Event Relay
//
// The server provides:
//   - REST API for file and project management
//   - WebSocket streaming for live edits and console output
//   - Preview document serving and DOM inspection queries
//   - Disk persistence with debounced autosave
//   - Zip and tarball export
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -data ./data
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with a final save
package main
