package project

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

func testProject(names ...string) *types.Project {
	if len(names) == 0 {
		names = []string{"index.html", "styles.css", "script.js"}
	}
	p := &types.Project{
		Version:   types.ProjectVersion,
		Name:      "test",
		Files:     make(map[string]types.SnippetFile),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, n := range names {
		p.Files[n] = types.SnippetFile{
			Name:         n,
			Kind:         types.KindFromName(n),
			LastModified: time.Now(),
		}
		p.Order = append(p.Order, n)
	}
	p.EntryFile = names[0]
	p.ActiveFile = names[0]
	return p
}

func newStore(t *testing.T, names ...string) *Store {
	t.Helper()
	s, err := New(testProject(names...))
	require.NoError(t, err)
	return s
}

func TestCreate(t *testing.T) {
	s := newStore(t)

	f, err := s.Create("extra.css", "body{}")
	require.NoError(t, err)
	assert.Equal(t, types.KindCSS, f.Kind)
	assert.Equal(t, "body{}", f.Content)

	got, ok := s.Get("extra.css")
	assert.True(t, ok)
	assert.Equal(t, f.Name, got.Name)
}

func TestCreateRejectsInvalidNames(t *testing.T) {
	s := newStore(t)

	cases := []string{"", "a.exe", "no-extension", ".hidden.css", "dir/x.html",
		strings.Repeat("a", 120) + ".css"}
	for _, name := range cases {
		_, err := s.Create(name, "")
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
	assert.Equal(t, 3, s.FileCount(), "file set must be unchanged")
}

func TestCreateRejectsDuplicates(t *testing.T) {
	s := newStore(t)

	_, err := s.Create("index.html", "")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateRejectsOversizedContent(t *testing.T) {
	s := newStore(t)

	_, err := s.Create("big.txt", strings.Repeat("x", 1<<20+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUpdate(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Update("styles.css", "h1{color:red}"))
	f, _ := s.Get("styles.css")
	assert.Equal(t, "h1{color:red}", f.Content)

	// Missing file is a no-op, not an error
	assert.NoError(t, s.Update("ghost.css", "x"))
	assert.Equal(t, 3, s.FileCount())
}

func TestRenameAtomicity(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Update("index.html", "<h1>hi</h1>"))
	s.SetActive("index.html")

	require.NoError(t, s.Rename("index.html", "main.html"))

	_, oldExists := s.Get("index.html")
	assert.False(t, oldExists)

	f, ok := s.Get("main.html")
	require.True(t, ok)
	assert.Equal(t, "<h1>hi</h1>", f.Content)
	assert.Equal(t, types.KindHTML, f.Kind)

	// Pointers follow the rename
	assert.Equal(t, "main.html", s.Entry())
	assert.Equal(t, "main.html", s.Active())

	// Order slot preserved
	assert.Equal(t, "main.html", s.List()[0].Name)
}

func TestRenameErrors(t *testing.T) {
	s := newStore(t)

	assert.ErrorIs(t, s.Rename("ghost.html", "x.html"), ErrNotFound)
	assert.ErrorIs(t, s.Rename("index.html", "styles.css"), ErrDuplicateName)
	assert.ErrorIs(t, s.Rename("index.html", "bad name.html"), ErrInvalidName)

	// Self-rename is a no-op
	assert.NoError(t, s.Rename("index.html", "index.html"))
}

func TestDelete(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Delete("styles.css"))
	assert.Equal(t, 2, s.FileCount())
	assert.ErrorIs(t, s.Delete("styles.css"), ErrNotFound)
}

func TestDeleteLastFileProtected(t *testing.T) {
	s := newStore(t, "only.html")

	err := s.Delete("only.html")
	assert.ErrorIs(t, err, ErrLastFile)
	assert.Equal(t, 1, s.FileCount())
}

func TestDeleteRepointsEntryToHTML(t *testing.T) {
	s := newStore(t, "a.css", "b.html", "c.js")
	s.SetEntry("a.css")
	s.SetActive("a.css")

	require.NoError(t, s.Delete("a.css"))

	// Entry prefers the remaining HTML file
	assert.Equal(t, "b.html", s.Entry())
	// Active falls back to an existing file
	_, ok := s.Get(s.Active())
	assert.True(t, ok)
}

func TestDeleteEntryFallbackWithoutHTML(t *testing.T) {
	s := newStore(t, "a.html", "b.css", "c.js")

	require.NoError(t, s.Delete("a.html"))
	assert.Equal(t, "b.css", s.Entry())
}

func TestSetActiveAndEntryIgnoreMissing(t *testing.T) {
	s := newStore(t)

	s.SetActive("ghost.js")
	s.SetEntry("ghost.js")
	assert.Equal(t, "index.html", s.Active())
	assert.Equal(t, "index.html", s.Entry())

	s.SetActive("script.js")
	assert.Equal(t, "script.js", s.Active())
}

func TestInvariantsUnderOpSequence(t *testing.T) {
	s := newStore(t)

	ops := []func(){
		func() { s.Create("a.css", "") },
		func() { s.Delete("styles.css") },
		func() { s.Rename("a.css", "b.css") },
		func() { s.Delete("index.html") },
		func() { s.Create("new.html", "<p>x</p>") },
		func() { s.SetEntry("new.html") },
		func() { s.Delete("new.html") },
		func() { s.Delete("script.js") },
		func() { s.Delete("b.css") }, // last file, must fail
	}

	for _, op := range ops {
		op()
		snap := s.Snapshot()
		require.NoError(t, Validate(snap), "invariants broken after op")
		assert.GreaterOrEqual(t, len(snap.Files), 1)
	}
}

func TestGlob(t *testing.T) {
	s := newStore(t)

	names, err := s.Glob("*.css")
	require.NoError(t, err)
	assert.Equal(t, []string{"styles.css"}, names)

	names, err = s.Glob("{index,script}.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "script.js"}, names)

	_, err = s.Glob("[bad")
	assert.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	s := newStore(t)

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	s.Create("x.css", "")
	s.Update("x.css", "a{}")
	s.Rename("x.css", "y.css")
	s.Delete("y.css")

	require.Len(t, changes, 4)
	assert.Equal(t, OpCreate, changes[0].Op)
	assert.Equal(t, OpUpdate, changes[1].Op)
	assert.Equal(t, "y.css", changes[2].Name)
	assert.Equal(t, OpDelete, changes[3].Op)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := newStore(t)

	snap := s.Snapshot()
	snap.Files["index.html"] = types.SnippetFile{Name: "index.html", Content: "mutated"}
	snap.Order[0] = "mutated"

	f, _ := s.Get("index.html")
	assert.NotEqual(t, "mutated", f.Content)
	assert.Equal(t, "index.html", s.List()[0].Name)
}

func TestReplaceValidates(t *testing.T) {
	s := newStore(t)

	bad := testProject()
	bad.EntryFile = "ghost.html"
	assert.ErrorIs(t, s.Replace(bad), ErrInvalidState)

	good := testProject("solo.html")
	require.NoError(t, s.Replace(good))
	assert.Equal(t, 1, s.FileCount())
	assert.Equal(t, "solo.html", s.Entry())
}

func TestStats(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Update("styles.css", "body{margin:0}"))

	st := s.Stats()
	assert.Equal(t, 3, st.Files)
	assert.Equal(t, len("body{margin:0}"), st.TotalBytes)
	assert.Equal(t, "index.html", st.EntryFile)
	assert.Equal(t, "index.html", st.ActiveFile)
	assert.False(t, st.UpdatedAt.IsZero())
}
