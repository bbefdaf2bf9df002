package preview

import (
	"fmt"
	"html"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/assemble"
	"github.com/anzchy/frontend-sandbox/internal/domain/preview/sandbox"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/shared/id"
)

// Bridge owns the single live execution context. Exactly one runtime
// instance is alive at a time; installing a new document tears down
// the previous instance before the new one is presented.
type Bridge struct {
	mu         sync.Mutex
	runtime    *sandbox.Runtime
	doc        *assemble.Document
	instanceID string
	stalled    bool

	relay  *relay.Relay
	logger *logging.Logger
}

// NewBridge creates a bridge wired to the relay. The relay is the
// only consumer of the runtime's message channel.
func NewBridge(r *relay.Relay, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bridge{relay: r, logger: logger}
}

// Install replaces the live context with a fresh one loaded with doc.
// The previous runtime is torn down synchronously and its resources
// released before the new instance runs. The returned channel closes
// when every script in the document ran to completion.
func (b *Bridge) Install(doc *assemble.Document) <-chan struct{} {
	b.mu.Lock()
	if b.runtime != nil {
		b.runtime.Close()
	}
	rt := sandbox.New(b.relay.Ingest, b.logger)
	b.runtime = rt
	b.doc = doc
	b.instanceID = id.Instance()
	b.stalled = false
	instanceID := b.instanceID
	b.mu.Unlock()

	// Pin the relay to this instance before any script can post
	b.relay.Activate(doc.Token)

	b.logger.Info("installing preview instance",
		zap.String("instance", instanceID),
		zap.String("entry", doc.Entry),
		zap.String("token", doc.Token),
	)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if err := rt.Load(doc.HTML); err != nil {
			b.logger.Debug("instance load ended early", zap.Error(err))
		}
	}()
	return loaded
}

// Stall tears down the live context and replaces the served document
// with a static error placeholder. No script runs in the placeholder.
func (b *Bridge) Stall(message string) {
	b.mu.Lock()
	if b.runtime != nil {
		b.runtime.Close()
		b.runtime = nil
	}
	b.doc = &assemble.Document{
		HTML:    stallDocument(message),
		Entry:   "",
		BuiltAt: time.Now(),
	}
	b.instanceID = id.Instance()
	b.stalled = true
	b.mu.Unlock()

	// Nothing live may post anymore; stale messages fail token pinning
	b.relay.Activate("")
}

// Teardown releases the live context without a replacement
func (b *Bridge) Teardown() {
	b.mu.Lock()
	if b.runtime != nil {
		b.runtime.Close()
		b.runtime = nil
	}
	b.mu.Unlock()
}

// Document returns the currently served document HTML. This is the
// iframe source for the editor UI.
func (b *Bridge) Document() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil {
		return "", false
	}
	return b.doc.HTML, true
}

// Status describes the live instance
type Status struct {
	InstanceID string    `json:"instance_id"`
	Token      string    `json:"token"`
	Entry      string    `json:"entry"`
	BuiltAt    time.Time `json:"built_at"`
	Stalled    bool      `json:"stalled"`
	Live       bool      `json:"live"`
}

// Status reports the current instance identity and state
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		InstanceID: b.instanceID,
		Stalled:    b.stalled,
		Live:       b.runtime != nil,
	}
	if b.doc != nil {
		s.Token = b.doc.Token
		s.Entry = b.doc.Entry
		s.BuiltAt = b.doc.BuiltAt
	}
	return s
}

// Mutations returns DOM mutations recorded by the live instance
func (b *Bridge) Mutations() []sandbox.Mutation {
	b.mu.Lock()
	rt := b.runtime
	b.mu.Unlock()
	if rt == nil {
		return nil
	}
	return rt.Mutations()
}

func stallDocument(message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Preview stalled</title></head>
<body style="background:#1e1e1e;color:#f48771;font-family:sans-serif">
<h2>Preview stopped</h2>
<p>%s</p>
</body>
</html>`, html.EscapeString(message))
}
