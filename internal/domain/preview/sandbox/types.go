package sandbox

// PostFunc is the one-way sandbox-to-host message channel. The
// instrumentation snippet calls it with a JSON-encoded payload.
type PostFunc func(payload string)

// Script is one executable script extracted from the document, with a
// source name so error positions stay meaningful.
type Script struct {
	Source string // e.g. "inline-1"
	Code   string
}

// Mutation records a DOM modification made by user code
type Mutation struct {
	Kind     string // "set_attribute", "set_text"
	Target   string // tag name or #id of the touched element
	Property string
	Value    string
}

// errorEvent carries an uncaught error to window 'error' listeners
type errorEvent struct {
	Message string
	Line    int
	Column  int
	Stack   string
}
