// Package project implements the project store: the canonical record
// of snippet files with entry/active pointers.
//
// The store is an explicitly owned, injectable object. Mutations are
// synchronous, atomic, and only reachable through operation methods;
// fallible operations return typed sentinel errors and never panic.
// Change subscribers (scheduler, autosaver) are notified after each
// committed mutation.
package project
