// Package http exposes the sandbox over a REST API: project file
// management, preview control and inspection, console access, archive
// export, templates, and preferences.
package http
