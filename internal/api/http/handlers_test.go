package http

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzchy/frontend-sandbox/internal/domain/preview"
	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/domain/template"
	"github.com/anzchy/frontend-sandbox/internal/domain/workspace"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	store     *project.Store
	relay     *relay.Relay
	scheduler *preview.Scheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := project.New(template.Default())
	require.NoError(t, err)

	wsp, err := workspace.New(t.TempDir(), 10<<20, nil)
	require.NoError(t, err)

	r := relay.New(100)
	bridge := preview.NewBridge(r, nil)
	scheduler := preview.NewScheduler(store, bridge, r, preview.SchedulerConfig{
		Debounce: 10 * time.Millisecond,
		Watchdog: 2 * time.Second,
	}, nil)
	store.Subscribe(scheduler.Notify)
	t.Cleanup(scheduler.Stop)

	library := template.NewLibrary(t.TempDir(), nil)
	h := NewHandlers(store, scheduler, bridge, r, wsp, library, nil)
	return &testServer{
		router:    NewRouter(h, RouterConfig{}),
		store:     store,
		relay:     r,
		scheduler: scheduler,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), out))
}

func TestGetProject(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/project", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var p types.Project
	decode(t, w, &p)
	assert.Len(t, p.Files, 3)
	assert.Equal(t, "index.html", p.EntryFile)
}

func TestCreateFile(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/project/files", gin.H{"name": "about.html", "content": "<p>hi</p>"})
	require.Equal(t, http.StatusCreated, w.Code)

	var f types.SnippetFile
	decode(t, w, &f)
	assert.Equal(t, "about.html", f.Name)
	assert.Equal(t, types.KindHTML, f.Kind)
}

func TestCreateFileDuplicate(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/project/files", gin.H{"name": "index.html"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateFileInvalidName(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/project/files", gin.H{"name": "../evil.html"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateFile(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPut, "/project/files/script.js", gin.H{"content": "console.log(2)"})
	require.Equal(t, http.StatusOK, w.Code)

	f, ok := ts.store.Get("script.js")
	require.True(t, ok)
	assert.Equal(t, "console.log(2)", f.Content)
}

func TestUpdateFileMissing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPut, "/project/files/ghost.js", gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenameFile(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/project/files/script.js/rename", gin.H{"new_name": "app.js"})
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := ts.store.Get("app.js")
	assert.True(t, ok)
	_, ok = ts.store.Get("script.js")
	assert.False(t, ok)
}

func TestDeleteFile(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodDelete, "/project/files/styles.css", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, ts.store.FileCount())
}

func TestDeleteFileMissing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodDelete, "/project/files/ghost.css", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLastFileRejected(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/project/files/styles.css", nil).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/project/files/script.js", nil).Code)

	w := ts.do(t, http.MethodDelete, "/project/files/index.html", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, ts.store.FileCount())
}

func TestSetEntry(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/project/files", gin.H{"name": "alt.html", "content": "<p></p>"})

	w := ts.do(t, http.MethodPost, "/project/entry", gin.H{"name": "alt.html"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alt.html", ts.store.Entry())
}

func TestSetEntryMissing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/project/entry", gin.H{"name": "ghost.html"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchFiles(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/project/search?pattern=*.css", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Matches []string `json:"matches"`
	}
	decode(t, w, &out)
	assert.Equal(t, []string{"styles.css"}, out.Matches)
}

func TestSearchFilesMissingPattern(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/project/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetProject(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/project/files", gin.H{"name": "extra.js"})
	require.Equal(t, 4, ts.store.FileCount())

	w := ts.do(t, http.MethodPost, "/project/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, ts.store.FileCount())
}

func TestResetProjectUnknownTemplate(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/project/reset", gin.H{"template": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func importRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/project/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportFile(t *testing.T) {
	ts := newTestServer(t)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, importRequest(t, "notes.txt", []byte("plain text payload")))
	require.Equal(t, http.StatusCreated, w.Code)

	f, ok := ts.store.Get("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "plain text payload", f.Content)
}

func TestImportBinaryRejected(t *testing.T) {
	ts := newTestServer(t)
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, importRequest(t, "image.txt", png))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "binary")
}

func TestConsoleRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.relay.System(types.RecordConsole, "host note")

	w := ts.do(t, http.MethodGet, "/console", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Count   int                   `json:"count"`
		Records []types.ConsoleRecord `json:"records"`
	}
	decode(t, w, &out)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "host note", out.Records[0].Text)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/console", nil).Code)
	w = ts.do(t, http.MethodGet, "/console", nil)
	decode(t, w, &out)
	assert.Equal(t, 0, out.Count)
}

func TestConsoleBadLimit(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/console?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewDocumentBeforeBuild(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/preview/document", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewRefreshAndDocument(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/preview/refresh", nil).Code)

	w := ts.do(t, http.MethodGet, "/preview/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Hello, Sandbox!")
}

func TestPreviewQuery(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/preview/refresh", nil)

	w := ts.do(t, http.MethodGet, "/preview/query?selector=h1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Count int `json:"count"`
	}
	decode(t, w, &res)
	assert.Equal(t, 1, res.Count)
}

func TestPreviewXPath(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/preview/refresh", nil)

	w := ts.do(t, http.MethodGet, "/preview/xpath?expr=//h1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Count int `json:"count"`
	}
	decode(t, w, &res)
	assert.Equal(t, 1, res.Count)
}

func TestPreviewStats(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/preview/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var s preview.Summary
	decode(t, w, &s)
	assert.Equal(t, 0, s.Timeouts)
}

func TestExportZip(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/export/zip", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".zip")

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 3)
}

func TestExportTarGz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/export/tar.gz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
}

func TestTemplatesEmpty(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "templates")
}

func TestPrefsRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/prefs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prefs workspace.Prefs
	decode(t, w, &prefs)
	assert.Equal(t, "dark", prefs.Theme)

	prefs.Theme = "light"
	w = ts.do(t, http.MethodPut, "/prefs", prefs)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/prefs", nil)
	decode(t, w, &prefs)
	assert.Equal(t, "light", prefs.Theme)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "healthy"))
}
