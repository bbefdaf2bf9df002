// Package id provides centralized ID generation.
//
// ULIDs with type-specific prefixes (bld_*, inst_*, rec_*) keep logs
// readable and make record streams lexicographically sortable by time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for debugging and type identification
const (
	BuildPrefix    = "bld"
	InstancePrefix = "inst"
	RecordPrefix   = "rec"
	ClientPrefix   = "cli"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// Build generates a build identity
func Build() string { return Default().GenerateWithPrefix(BuildPrefix) }

// Instance generates a runtime instance identity
func Instance() string { return Default().GenerateWithPrefix(InstancePrefix) }

// Record generates a console record identity
func Record() string { return Default().GenerateWithPrefix(RecordPrefix) }

// Client generates a WebSocket client identity
func Client() string { return Default().GenerateWithPrefix(ClientPrefix) }
