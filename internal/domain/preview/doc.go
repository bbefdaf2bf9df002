// Package preview implements the preview pipeline's host side: the
// sandbox runtime bridge owning the single live execution context,
// and the update scheduler that coalesces edit bursts into
// debounced, watchdog-guarded rebuild cycles.
//
// State machine: Idle -> Pending -> Building -> Installed -> Idle,
// with Stalled reachable from Building when the watchdog fires.
package preview
