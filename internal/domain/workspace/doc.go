// Package workspace persists the project record and UI preferences
// to disk: the project as size-capped JSON written atomically, prefs
// as a separate TOML file. A debounced autosaver subscribes to store
// changes; an explicit Flush runs on shutdown.
package workspace
