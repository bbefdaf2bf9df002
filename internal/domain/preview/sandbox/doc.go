// Package sandbox provides the isolated JavaScript execution context
// for assembled documents, built on goja.
//
// Isolation policy: no module system (require/process undefined), no
// timers, window.open returns null, location writes are inert. The
// only host channel is __sandpost, the one-way message function the
// instrumentation snippet posts through. The DOM is a read-mostly
// proxy over the parsed document; writes are recorded as mutations.
package sandbox
