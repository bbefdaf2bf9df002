package relay

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"

	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
	"github.com/anzchy/frontend-sandbox/internal/shared/id"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

// DefaultCap bounds the console log length
const DefaultCap = 100

// Subscriber receives each published record
type Subscriber func(types.ConsoleRecord)

// Relay is the only consumer of the sandbox message channel. It
// decodes and validates instrumentation messages, drops anything
// malformed or stamped with a stale token, and publishes typed
// records into a bounded buffer with fan-out to subscribers.
type Relay struct {
	mu      sync.Mutex
	records []types.ConsoleRecord
	cap     int
	token   string

	subMu sync.RWMutex
	subs  map[string]Subscriber

	sanitizer *bluemonday.Policy
	metrics   *monitoring.Metrics
}

// New creates a relay with the given buffer cap
func New(capacity int) *Relay {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Relay{
		cap:       capacity,
		subs:      make(map[string]Subscriber),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// WithMetrics adds metrics tracking to the relay
func (r *Relay) WithMetrics(m *monitoring.Metrics) *Relay {
	r.metrics = m
	return r
}

// Activate pins the relay to the live instance token. Messages
// carrying any other token are dropped: a superseded context cannot
// pollute the console of its replacement.
func (r *Relay) Activate(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

// Ingest accepts one raw instrumentation payload. Unknown or
// malformed shapes are silently dropped, never surfaced as errors.
func (r *Relay) Ingest(payload string) {
	var msg types.SandboxMessage
	if err := sonic.UnmarshalString(payload, &msg); err != nil {
		r.drop("malformed")
		return
	}

	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	if msg.Token != token {
		r.drop("stale_token")
		return
	}

	rec, ok := r.validate(msg)
	if !ok {
		r.drop("invalid_shape")
		return
	}
	r.publish(rec)
}

// validate checks the tagged union shape
func (r *Relay) validate(msg types.SandboxMessage) (types.ConsoleRecord, bool) {
	rec := types.ConsoleRecord{
		ID:        id.Record(),
		Text:      r.sanitizer.Sanitize(msg.Text),
		Line:      msg.Line,
		Column:    msg.Column,
		Stack:     msg.Stack,
		Timestamp: time.Now(),
	}

	switch msg.Type {
	case string(types.RecordConsole):
		switch msg.Level {
		case types.LevelLog, types.LevelWarn, types.LevelError, types.LevelInfo:
		default:
			return types.ConsoleRecord{}, false
		}
		rec.Kind = types.RecordConsole
		rec.Level = msg.Level
	case string(types.RecordError):
		rec.Kind = types.RecordError
	default:
		return types.ConsoleRecord{}, false
	}
	return rec, true
}

// System publishes a host-originated record (watchdog timeouts).
// Bypasses token pinning: the host is always trusted.
func (r *Relay) System(kind types.RecordKind, text string) {
	rec := types.ConsoleRecord{
		ID:        id.Record(),
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
	}
	if kind == types.RecordConsole {
		rec.Level = types.LevelInfo
	}
	r.publish(rec)
}

func (r *Relay) publish(rec types.ConsoleRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	if len(r.records) > r.cap {
		r.records = r.records[len(r.records)-r.cap:]
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ConsoleRecords.WithLabelValues(string(rec.Kind)).Inc()
	}

	r.subMu.RLock()
	subs := make([]Subscriber, 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.subMu.RUnlock()
	for _, fn := range subs {
		fn(rec)
	}
}

func (r *Relay) drop(reason string) {
	if r.metrics != nil {
		r.metrics.RelayDropped.WithLabelValues(reason).Inc()
	}
}

// Records returns up to limit newest records in arrival order.
// limit <= 0 means all buffered records.
func (r *Relay) Records(limit int) []types.ConsoleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.ConsoleRecord, n)
	copy(out, r.records[len(r.records)-n:])
	return out
}

// Clear empties the record buffer
func (r *Relay) Clear() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// Subscribe registers a subscriber and returns its handle
func (r *Relay) Subscribe(fn Subscriber) string {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	key := id.Client()
	r.subs[key] = fn
	return key
}

// Unsubscribe removes a subscriber by handle
func (r *Relay) Unsubscribe(key string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	delete(r.subs, key)
}
