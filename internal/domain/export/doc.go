// Package export serializes a project into downloadable archives.
// Entries are exactly the project's files by name with raw text
// content, in insertion order.
package export
