package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

// Sentinel errors for persistence failures
var (
	ErrStorageFull = errors.New("project exceeds storage size cap")
	ErrNotExist    = errors.New("no persisted project")
)

const projectFile = "project.json"

// Workspace persists the project record to disk. Storage failure
// never takes down the in-memory project; the caller surfaces a
// message and continues.
type Workspace struct {
	dir      string
	maxBytes int

	mu       sync.Mutex
	autosave *time.Timer

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a workspace rooted at dir
func New(dir string, maxBytes int, logger *logging.Logger) (*Workspace, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &Workspace{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// WithMetrics adds metrics tracking to the workspace
func (w *Workspace) WithMetrics(m *monitoring.Metrics) *Workspace {
	w.metrics = m
	return w
}

// Save writes the project record as JSON. The serialized length is
// checked against the size cap before any byte hits disk; the write
// itself is atomic (tmp file + rename).
func (w *Workspace) Save(p *types.Project) error {
	data, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if len(data) > w.maxBytes {
		if w.metrics != nil {
			w.metrics.SaveErrors.Inc()
		}
		return fmt.Errorf("%w: %d bytes > %d", ErrStorageFull, len(data), w.maxBytes)
	}

	path := filepath.Join(w.dir, projectFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		if w.metrics != nil {
			w.metrics.SaveErrors.Inc()
		}
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if w.metrics != nil {
			w.metrics.SaveErrors.Inc()
		}
		return fmt.Errorf("commit project: %w", err)
	}

	if w.metrics != nil {
		w.metrics.SavesTotal.Inc()
	}
	w.logger.Debug("project saved", zap.Int("bytes", len(data)))
	return nil
}

// Load reads and validates the persisted project. A missing file
// returns ErrNotExist; a corrupt or invariant-violating record is an
// error, and the caller falls back to the default template.
func (w *Workspace) Load() (*types.Project, error) {
	data, err := os.ReadFile(filepath.Join(w.dir, projectFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read project: %w", err)
	}

	var p types.Project
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if p.Version != types.ProjectVersion {
		return nil, fmt.Errorf("unsupported project version %d", p.Version)
	}
	if err := project.Validate(&p); err != nil {
		return nil, fmt.Errorf("persisted project invalid: %w", err)
	}
	return &p, nil
}

// Autosaver returns a store subscriber that debounces mutations into
// saves. Persistence failure is logged, never propagated: the
// in-memory project stays usable.
func (w *Workspace) Autosaver(store *project.Store, debounce time.Duration) project.Subscriber {
	if debounce <= 0 {
		debounce = time.Second
	}
	return func(project.Change) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.autosave != nil {
			w.autosave.Stop()
		}
		w.autosave = time.AfterFunc(debounce, func() {
			if err := w.Save(store.Snapshot()); err != nil {
				w.logger.Warn("autosave failed", zap.Error(err))
			}
		})
	}
}

// Flush cancels any pending autosave and saves immediately
func (w *Workspace) Flush(store *project.Store) error {
	w.mu.Lock()
	if w.autosave != nil {
		w.autosave.Stop()
		w.autosave = nil
	}
	w.mu.Unlock()
	return w.Save(store.Snapshot())
}
