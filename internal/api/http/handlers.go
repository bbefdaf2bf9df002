package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anzchy/frontend-sandbox/internal/domain/preview"
	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/domain/template"
	"github.com/anzchy/frontend-sandbox/internal/domain/workspace"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
)

// Handlers holds HTTP handler dependencies
type Handlers struct {
	store     *project.Store
	scheduler *preview.Scheduler
	bridge    *preview.Bridge
	relay     *relay.Relay
	workspace *workspace.Workspace
	library   *template.Library
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	startTime time.Time
}

// NewHandlers creates the HTTP handler set
func NewHandlers(
	store *project.Store,
	scheduler *preview.Scheduler,
	bridge *preview.Bridge,
	r *relay.Relay,
	ws *workspace.Workspace,
	library *template.Library,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		store:     store,
		scheduler: scheduler,
		bridge:    bridge,
		relay:     r,
		workspace: ws,
		library:   library,
		logger:    logger,
		startTime: time.Now(),
	}
}

// WithMetrics adds metrics tracking to the handlers
func (h *Handlers) WithMetrics(m *monitoring.Metrics) *Handlers {
	h.metrics = m
	return h
}

// Root returns service info
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "frontend-sandbox",
		"status":  "running",
	})
}

// Health returns liveness plus a pipeline snapshot
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    time.Since(h.startTime).String(),
		"project":   h.store.Stats(),
		"scheduler": h.scheduler.State(),
	})
}

// fail maps domain errors to HTTP status codes and renders the
// uniform {"error": msg} body
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, project.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, project.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, project.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, workspace.ErrStorageFull):
		status = http.StatusInsufficientStorage
	case errors.Is(err, project.ErrInvalidName),
		errors.Is(err, project.ErrLastFile),
		errors.Is(err, project.ErrInvalidState):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
