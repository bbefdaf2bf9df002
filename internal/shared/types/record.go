package types

import "time"

// RecordKind tags a console record as ordinary output or an error
type RecordKind string

const (
	RecordConsole RecordKind = "console"
	RecordError   RecordKind = "error"
)

// Console levels accepted from the instrumentation channel
const (
	LevelLog   = "log"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelInfo  = "info"
)

// ConsoleRecord is one entry in the host-side console panel, produced
// by the relay from instrumentation messages
type ConsoleRecord struct {
	ID        string     `json:"id"`
	Kind      RecordKind `json:"kind"`
	Level     string     `json:"level,omitempty"`
	Text      string     `json:"text"`
	Line      int        `json:"line,omitempty"`
	Column    int        `json:"column,omitempty"`
	Stack     string     `json:"stack,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// SandboxMessage is the wire shape of an instrumentation message
// emitted by the execution context. Unknown shapes are dropped.
type SandboxMessage struct {
	Type      string  `json:"type"`
	Token     string  `json:"token"`
	Level     string  `json:"level,omitempty"`
	Text      string  `json:"text"`
	Line      int     `json:"line,omitempty"`
	Column    int     `json:"column,omitempty"`
	Stack     string  `json:"stack,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}
