package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anzchy/frontend-sandbox/internal/domain/export"
	"github.com/anzchy/frontend-sandbox/internal/domain/inspect"
)

// GetPreview returns the live instance status
func (h *Handlers) GetPreview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scheduler": h.scheduler.State(),
		"instance":  h.bridge.Status(),
		"stats":     h.scheduler.Stats().Summary(),
	})
}

// GetPreviewDocument serves the assembled document as HTML. This is
// what the editor UI embeds as its preview pane source.
func (h *Handlers) GetPreviewDocument(c *gin.Context) {
	doc, ok := h.bridge.Document()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview has been built yet"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// RefreshPreview forces an immediate rebuild, bypassing the debounce
func (h *Handlers) RefreshPreview(c *gin.Context) {
	h.scheduler.Refresh()
	c.JSON(http.StatusOK, gin.H{
		"scheduler": h.scheduler.State(),
	})
}

// GetPreviewStats returns rebuild duration aggregates
func (h *Handlers) GetPreviewStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Stats().Summary())
}

// QueryPreview runs a CSS selector query over the served document
func (h *Handlers) QueryPreview(c *gin.Context) {
	selector := c.Query("selector")
	if selector == "" {
		badRequest(c, "selector query parameter is required")
		return
	}
	doc, ok := h.bridge.Document()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview has been built yet"})
		return
	}

	res, err := inspect.Selector(doc, selector)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// XPathPreview runs an XPath query over the served document
func (h *Handlers) XPathPreview(c *gin.Context) {
	expr := c.Query("expr")
	if expr == "" {
		badRequest(c, "expr query parameter is required")
		return
	}
	doc, ok := h.bridge.Document()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview has been built yet"})
		return
	}

	res, err := inspect.XPath(doc, expr)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// DescribePreview returns document-level metadata
func (h *Handlers) DescribePreview(c *gin.Context) {
	doc, ok := h.bridge.Document()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview has been built yet"})
		return
	}
	meta, err := inspect.Describe(doc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// GetConsole returns buffered console records, newest limit of them
func (h *Handlers) GetConsole(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records := h.relay.Records(limit)
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

// ClearConsole empties the console buffer
func (h *Handlers) ClearConsole(c *gin.Context) {
	h.relay.Clear()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// ExportZip streams the project as a zip archive
func (h *Handlers) ExportZip(c *gin.Context) {
	snap := h.store.Snapshot()
	data, err := export.Zip(snap)
	if err != nil {
		fail(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.Exports.WithLabelValues("zip").Inc()
	}
	name := export.ZipName(snap.Name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// ExportTarGz streams the project as a gzip-compressed tarball
func (h *Handlers) ExportTarGz(c *gin.Context) {
	snap := h.store.Snapshot()
	data, err := export.TarGz(snap)
	if err != nil {
		fail(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.Exports.WithLabelValues("tar.gz").Inc()
	}
	name := export.TarGzName(snap.Name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/gzip", data)
}
