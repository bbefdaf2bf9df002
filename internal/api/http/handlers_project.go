package http

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/template"
	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

// GetProject returns the full project snapshot
func (h *Handlers) GetProject(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

type createFileRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

// CreateFile adds a new file to the project
func (h *Handlers) CreateFile(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	f, err := h.store.Create(req.Name, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

type updateFileRequest struct {
	Content string `json:"content"`
}

// UpdateFile replaces a file's content
func (h *Handlers) UpdateFile(c *gin.Context) {
	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	name := c.Param("name")
	if _, ok := h.store.Get(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + name})
		return
	}
	if err := h.store.Update(name, req.Content); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "updated": true})
}

type renameFileRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// RenameFile moves a file to a new name
func (h *Handlers) RenameFile(c *gin.Context) {
	var req renameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "new_name is required")
		return
	}

	if err := h.store.Rename(c.Param("name"), req.NewName); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": req.NewName, "renamed": true})
}

// DeleteFile removes a file from the project
func (h *Handlers) DeleteFile(c *gin.Context) {
	name := c.Param("name")
	if err := h.store.Delete(name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "deleted": true})
}

type pointerRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetActive moves the editor's active-file pointer
func (h *Handlers) SetActive(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	if _, ok := h.store.Get(req.Name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + req.Name})
		return
	}
	h.store.SetActive(req.Name)
	c.JSON(http.StatusOK, gin.H{"active": req.Name})
}

// SetEntry moves the preview entry pointer
func (h *Handlers) SetEntry(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	if _, ok := h.store.Get(req.Name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + req.Name})
		return
	}
	h.store.SetEntry(req.Name)
	c.JSON(http.StatusOK, gin.H{"entry": req.Name})
}

// SearchFiles returns file names matching a glob pattern
func (h *Handlers) SearchFiles(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		badRequest(c, "pattern query parameter is required")
		return
	}

	matches, err := h.store.Glob(pattern)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if matches == nil {
		matches = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"pattern": pattern, "matches": matches})
}

type resetRequest struct {
	Template string `json:"template"`
}

// ResetProject replaces the project with a starter template. An empty
// or missing template name loads the built-in default.
func (h *Handlers) ResetProject(c *gin.Context) {
	var req resetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	p := template.Default()
	if req.Template != "" {
		loaded, err := h.library.Load(req.Template)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		p = loaded
	}

	if err := h.store.Replace(p); err != nil {
		fail(c, err)
		return
	}
	h.logger.Info("project reset", zap.String("template", req.Template))
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// ImportFile accepts a multipart upload, transcodes it to UTF-8, and
// adds it as a project file. Binary payloads are rejected.
func (h *Handlers) ImportFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field 'file' is required")
		return
	}
	if fh.Size > int64(utils.MaxFileBytes) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds the per-file size cap",
		})
		return
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, int64(utils.MaxFileBytes)+1))
	if err != nil {
		fail(c, err)
		return
	}
	if len(data) > utils.MaxFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds the per-file size cap",
		})
		return
	}

	content, err := utils.DecodeText(data)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = filepath.Base(fh.Filename)
	}
	f, storeErr := h.store.Create(name, content)
	if storeErr != nil {
		fail(c, storeErr)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// ListTemplates returns the discovered starter templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.library.List()})
}

// GetPrefs returns the persisted UI preferences
func (h *Handlers) GetPrefs(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.LoadPrefs())
}

// PutPrefs persists UI preferences
func (h *Handlers) PutPrefs(c *gin.Context) {
	prefs := h.workspace.LoadPrefs()
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.workspace.SavePrefs(prefs); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
