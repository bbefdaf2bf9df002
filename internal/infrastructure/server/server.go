package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/anzchy/frontend-sandbox/internal/api/http"
	"github.com/anzchy/frontend-sandbox/internal/api/middleware"
	"github.com/anzchy/frontend-sandbox/internal/api/ws"
	"github.com/anzchy/frontend-sandbox/internal/domain/preview"
	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/domain/template"
	"github.com/anzchy/frontend-sandbox/internal/domain/workspace"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/config"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
)

// Server wires the preview pipeline behind the HTTP and WebSocket
// API and owns startup and graceful shutdown.
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	store     *project.Store
	workspace *workspace.Workspace
	scheduler *preview.Scheduler
	httpSrv   *http.Server
}

// New assembles the full pipeline: store seeded from the persisted
// workspace (or the default template), relay, bridge, scheduler, and
// the API router.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := monitoring.NewMetrics()

	wsp, err := workspace.New(cfg.Storage.Dir, cfg.Storage.MaxProjectBytes, logger)
	if err != nil {
		return nil, err
	}
	wsp.WithMetrics(metrics)

	proj, err := wsp.Load()
	if err != nil {
		if !errors.Is(err, workspace.ErrNotExist) {
			logger.Warn("persisted project unusable, starting fresh", zap.Error(err))
		}
		proj = template.Default()
	}
	store, err := project.New(proj)
	if err != nil {
		return nil, err
	}
	store.WithMetrics(metrics)

	library := template.NewLibrary(cfg.Storage.TemplatesDir, logger)
	if err := library.Discover(); err != nil {
		logger.Warn("template discovery failed", zap.Error(err))
	}

	r := relay.New(cfg.Preview.ConsoleCap).WithMetrics(metrics)
	bridge := preview.NewBridge(r, logger)
	scheduler := preview.NewScheduler(store, bridge, r, preview.SchedulerConfig{
		Debounce: cfg.Preview.Debounce(),
		Watchdog: cfg.Preview.Watchdog(),
	}, logger).WithMetrics(metrics)

	// Every committed mutation feeds both the rebuild debounce and
	// the autosave debounce
	store.Subscribe(scheduler.Notify)
	store.Subscribe(wsp.Autosaver(store, cfg.Storage.Autosave()))

	stream := ws.NewHandler(store, scheduler, r, cfg.Preview.EditDebounce(), logger).WithMetrics(metrics)

	handlers := apihttp.NewHandlers(store, scheduler, bridge, r, wsp, library, logger).WithMetrics(metrics)
	router := apihttp.NewRouter(handlers, apihttp.RouterConfig{
		RateLimit: cfg.RateLimit.Enabled,
		RateLimitConfig: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		Metrics:       metrics,
		StreamHandler: gin.HandlerFunc(stream.Serve),
	})

	return &Server{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		store:     store,
		workspace: wsp,
		scheduler: scheduler,
		httpSrv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the
// listener fails
func (s *Server) Run(ctx context.Context) error {
	// Build the initial preview before the first request arrives
	s.scheduler.Refresh()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.metrics.UpdateUptime()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains connections, stops the pipeline, and flushes the
// workspace to disk
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}

	s.scheduler.Stop()

	if err := s.workspace.Flush(s.store); err != nil {
		s.logger.Error("final save failed", zap.Error(err))
		return err
	}
	s.logger.Info("shutdown complete")
	return nil
}
