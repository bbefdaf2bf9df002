package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

const manifestName = "template.yaml"

// Manifest describes one starter template on disk
type Manifest struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Entry       string   `yaml:"entry" json:"entry"`
	Files       []string `yaml:"files" json:"files"`

	dir string
}

// Library discovers starter templates under a directory tree. Each
// template is a directory holding a template.yaml manifest plus the
// files it lists.
type Library struct {
	dir    string
	logger *logging.Logger

	mu        sync.Mutex
	templates map[string]Manifest
}

// NewLibrary creates a library rooted at dir
func NewLibrary(dir string, logger *logging.Logger) *Library {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Library{dir: dir, logger: logger, templates: map[string]Manifest{}}
}

// Discover walks the template directory for manifests. A missing
// directory is not an error: the built-in default always exists.
func (l *Library) Discover() error {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		l.logger.Debug("no templates directory", zap.String("dir", l.dir))
		return nil
	}

	found := map[string]Manifest{}
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != manifestName {
			return err
		}

		m, loadErr := loadManifest(path)
		if loadErr != nil {
			l.logger.Warn("skipping bad template manifest",
				zap.String("path", path), zap.Error(loadErr))
			return nil
		}

		mu.Lock()
		found[m.Name] = m
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk templates: %w", err)
	}

	l.mu.Lock()
	l.templates = found
	l.mu.Unlock()
	l.logger.Info("templates discovered", zap.Int("count", len(found)))
	return nil
}

func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" || m.Entry == "" || len(m.Files) == 0 {
		return Manifest{}, fmt.Errorf("manifest missing name, entry, or files")
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// List returns the discovered manifests sorted by name
func (l *Library) List() []Manifest {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Manifest, 0, len(l.templates))
	for _, m := range l.templates {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load builds a project from a discovered template
func (l *Library) Load(name string) (*types.Project, error) {
	l.mu.Lock()
	m, ok := l.templates[name]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	now := time.Now()
	p := &types.Project{
		Version:   types.ProjectVersion,
		Name:      m.Name,
		Files:     map[string]types.SnippetFile{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, fname := range m.Files {
		if err := utils.ValidateFileName(fname); err != nil {
			return nil, fmt.Errorf("template file %q: %w", fname, err)
		}
		content, err := os.ReadFile(filepath.Join(m.dir, fname))
		if err != nil {
			return nil, fmt.Errorf("read template file %s: %w", fname, err)
		}
		if err := utils.ValidateFileContent(string(content)); err != nil {
			return nil, fmt.Errorf("template file %s: %w", fname, err)
		}
		p.Files[fname] = types.SnippetFile{
			Name:         fname,
			Content:      string(content),
			Kind:         types.KindFromName(fname),
			LastModified: now,
		}
		p.Order = append(p.Order, fname)
	}

	p.EntryFile = m.Entry
	p.ActiveFile = m.Entry
	if err := project.Validate(p); err != nil {
		return nil, fmt.Errorf("template %q yields invalid project: %w", name, err)
	}
	return p, nil
}
