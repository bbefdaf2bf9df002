package project

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

// Op identifies a store mutation for change subscribers
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpRename  Op = "rename"
	OpDelete  Op = "delete"
	OpActive  Op = "active"
	OpEntry   Op = "entry"
	OpReplace Op = "replace"
)

// Change describes one committed mutation
type Change struct {
	Op   Op
	Name string
}

// Subscriber receives change notifications. Callbacks run
// synchronously after the mutation commits, still outside the lock.
type Subscriber func(Change)

// Store is the single source of truth for the project's files.
// All mutations are synchronous and atomic; no partial-update state
// is ever observable. Insertion order is preserved for assembly.
type Store struct {
	mu      sync.RWMutex
	project *types.Project

	subMu sync.RWMutex
	subs  []Subscriber

	metrics *monitoring.Metrics
}

// New creates a store seeded with the given project. The project must
// satisfy the store invariants.
func New(p *types.Project) (*Store, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	return &Store{project: p.Clone()}, nil
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// Validate checks project invariants: at least one file, entry and
// active pointers naming existing files, order agreeing with the map.
func Validate(p *types.Project) error {
	if p == nil || len(p.Files) == 0 {
		return fmt.Errorf("%w: project has no files", ErrInvalidState)
	}
	if len(p.Order) != len(p.Files) {
		return fmt.Errorf("%w: order and file set disagree", ErrInvalidState)
	}
	for _, name := range p.Order {
		if _, ok := p.Files[name]; !ok {
			return fmt.Errorf("%w: ordered name %q has no file", ErrInvalidState, name)
		}
	}
	if _, ok := p.Files[p.EntryFile]; !ok {
		return fmt.Errorf("%w: entry file %q does not exist", ErrInvalidState, p.EntryFile)
	}
	if _, ok := p.Files[p.ActiveFile]; !ok {
		return fmt.Errorf("%w: active file %q does not exist", ErrInvalidState, p.ActiveFile)
	}
	return nil
}

// Subscribe registers a change subscriber
func (s *Store) Subscribe(fn Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(op Op, name string) {
	s.subMu.RLock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(Change{Op: op, Name: name})
	}
}

func (s *Store) record(op Op, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.StoreOps.WithLabelValues(string(op), outcome).Inc()
	s.metrics.StoreFiles.Set(float64(s.FileCount()))
}

// Create inserts a new file with kind derived from its extension
func (s *Store) Create(name, content string) (f types.SnippetFile, err error) {
	defer func() { s.record(OpCreate, err) }()

	if vErr := utils.ValidateFileName(name); vErr != nil {
		return types.SnippetFile{}, fmt.Errorf("%w: %v", ErrInvalidName, vErr)
	}
	if vErr := utils.ValidateFileContent(content); vErr != nil {
		return types.SnippetFile{}, fmt.Errorf("%w: %v", ErrFileTooLarge, vErr)
	}

	s.mu.Lock()
	if _, exists := s.project.Files[name]; exists {
		s.mu.Unlock()
		return types.SnippetFile{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	f = types.SnippetFile{
		Name:         name,
		Content:      content,
		Kind:         types.KindFromName(name),
		LastModified: time.Now(),
	}
	s.project.Files[name] = f
	s.project.Order = append(s.project.Order, name)
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(OpCreate, name)
	return f, nil
}

// Update replaces a file's content. A missing name is a no-op, not an
// error: the editor may race a delete with an in-flight keystroke.
func (s *Store) Update(name, content string) (err error) {
	defer func() { s.record(OpUpdate, err) }()

	if vErr := utils.ValidateFileContent(content); vErr != nil {
		return fmt.Errorf("%w: %v", ErrFileTooLarge, vErr)
	}

	s.mu.Lock()
	f, exists := s.project.Files[name]
	if !exists {
		s.mu.Unlock()
		return nil
	}
	f.Content = content
	f.LastModified = time.Now()
	s.project.Files[name] = f
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(OpUpdate, name)
	return nil
}

// Rename moves a file to a new name, preserving content and order
// slot. Entry/active pointers follow the renamed file.
func (s *Store) Rename(oldName, newName string) (err error) {
	defer func() { s.record(OpRename, err) }()

	if vErr := utils.ValidateFileName(newName); vErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, vErr)
	}

	s.mu.Lock()
	f, exists := s.project.Files[oldName]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if newName == oldName {
		s.mu.Unlock()
		return nil
	}
	if _, taken := s.project.Files[newName]; taken {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateName, newName)
	}

	delete(s.project.Files, oldName)
	f.Name = newName
	f.Kind = types.KindFromName(newName)
	s.project.Files[newName] = f

	for i, n := range s.project.Order {
		if n == oldName {
			s.project.Order[i] = newName
			break
		}
	}
	if s.project.EntryFile == oldName {
		s.project.EntryFile = newName
	}
	if s.project.ActiveFile == oldName {
		s.project.ActiveFile = newName
	}
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(OpRename, newName)
	return nil
}

// Delete removes a file. The last remaining file is protected.
// Entry/active pointers are repointed at surviving files; the entry
// prefers a remaining HTML file.
func (s *Store) Delete(name string) (err error) {
	defer func() { s.record(OpDelete, err) }()

	s.mu.Lock()
	if _, exists := s.project.Files[name]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if len(s.project.Files) == 1 {
		s.mu.Unlock()
		return ErrLastFile
	}

	delete(s.project.Files, name)
	for i, n := range s.project.Order {
		if n == name {
			s.project.Order = append(s.project.Order[:i], s.project.Order[i+1:]...)
			break
		}
	}

	if s.project.ActiveFile == name {
		s.project.ActiveFile = s.project.Order[0]
	}
	if s.project.EntryFile == name {
		s.project.EntryFile = s.pickEntryLocked()
	}
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.notify(OpDelete, name)
	return nil
}

// pickEntryLocked prefers a remaining HTML file, else the first file
// in order. Caller holds mu.
func (s *Store) pickEntryLocked() string {
	for _, n := range s.project.Order {
		lower := strings.ToLower(n)
		if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
			return n
		}
	}
	return s.project.Order[0]
}

// SetActive updates the active-file pointer. Missing names are no-ops.
func (s *Store) SetActive(name string) {
	s.mu.Lock()
	if _, ok := s.project.Files[name]; !ok || s.project.ActiveFile == name {
		s.mu.Unlock()
		return
	}
	s.project.ActiveFile = name
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.record(OpActive, nil)
	s.notify(OpActive, name)
}

// SetEntry updates the entry-file pointer. Missing names are no-ops.
func (s *Store) SetEntry(name string) {
	s.mu.Lock()
	if _, ok := s.project.Files[name]; !ok || s.project.EntryFile == name {
		s.mu.Unlock()
		return
	}
	s.project.EntryFile = name
	s.project.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.record(OpEntry, nil)
	s.notify(OpEntry, name)
}

// Replace swaps in a whole new project (reset, template load, restore)
func (s *Store) Replace(p *types.Project) (err error) {
	defer func() { s.record(OpReplace, err) }()

	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	s.project = p.Clone()
	s.mu.Unlock()

	s.notify(OpReplace, "")
	return nil
}

// Get returns a file by name
func (s *Store) Get(name string) (types.SnippetFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.project.Files[name]
	return f, ok
}

// List returns all files in insertion order
func (s *Store) List() []types.SnippetFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.FilesInOrder()
}

// Glob returns names of files matching a doublestar pattern, in
// insertion order
func (s *Store) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for _, name := range s.project.Order {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

// Snapshot returns a deep copy of the whole project
func (s *Store) Snapshot() *types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Clone()
}

// FileCount returns the number of files
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.project.Files)
}

// Stats summarizes the project without exposing file contents
type Stats struct {
	Files      int       `json:"files"`
	TotalBytes int       `json:"total_bytes"`
	ActiveFile string    `json:"active_file"`
	EntryFile  string    `json:"entry_file"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Stats computes the project summary
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, f := range s.project.Files {
		total += len(f.Content)
	}
	return Stats{
		Files:      len(s.project.Files),
		TotalBytes: total,
		ActiveFile: s.project.ActiveFile,
		EntryFile:  s.project.EntryFile,
		UpdatedAt:  s.project.UpdatedAt,
	}
}

// Entry returns the current entry file name
func (s *Store) Entry() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.EntryFile
}

// Active returns the current active file name
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.ActiveFile
}
