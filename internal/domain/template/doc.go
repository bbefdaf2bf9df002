// Package template provides the built-in default project and a
// library of starter templates discovered from disk manifests.
package template
