package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anzchy/frontend-sandbox/internal/api/middleware"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
)

// RouterConfig toggles optional middleware
type RouterConfig struct {
	RateLimit       bool
	RateLimitConfig middleware.RateLimitConfig
	Metrics         *monitoring.Metrics
	StreamHandler   gin.HandlerFunc
}

// NewRouter assembles the gin engine with middleware and routes
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Metrics != nil {
		router.Use(monitoring.Middleware(cfg.Metrics))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit {
		router.Use(middleware.RateLimit(cfg.RateLimitConfig))
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	proj := router.Group("/project")
	{
		proj.GET("", h.GetProject)
		proj.POST("/files", h.CreateFile)
		proj.PUT("/files/:name", h.UpdateFile)
		proj.POST("/files/:name/rename", h.RenameFile)
		proj.DELETE("/files/:name", h.DeleteFile)
		proj.POST("/active", h.SetActive)
		proj.POST("/entry", h.SetEntry)
		proj.GET("/search", h.SearchFiles)
		proj.POST("/reset", h.ResetProject)
		proj.POST("/import", h.ImportFile)
	}

	prev := router.Group("/preview")
	{
		prev.GET("", h.GetPreview)
		prev.GET("/document", h.GetPreviewDocument)
		prev.POST("/refresh", h.RefreshPreview)
		prev.GET("/stats", h.GetPreviewStats)
		prev.GET("/query", h.QueryPreview)
		prev.GET("/xpath", h.XPathPreview)
		prev.GET("/describe", h.DescribePreview)
	}

	router.GET("/console", h.GetConsole)
	router.DELETE("/console", h.ClearConsole)

	router.GET("/export/zip", h.ExportZip)
	router.GET("/export/tar.gz", h.ExportTarGz)

	router.GET("/templates", h.ListTemplates)

	router.GET("/prefs", h.GetPrefs)
	router.PUT("/prefs", h.PutPrefs)

	if cfg.StreamHandler != nil {
		router.GET("/stream", cfg.StreamHandler)
	}

	return router
}
