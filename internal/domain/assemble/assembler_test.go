package assemble

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

func buildProject(files ...types.SnippetFile) *types.Project {
	p := &types.Project{
		Version:   types.ProjectVersion,
		Name:      "test",
		Files:     make(map[string]types.SnippetFile),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, f := range files {
		f.Kind = types.KindFromName(f.Name)
		p.Files[f.Name] = f
		p.Order = append(p.Order, f.Name)
	}
	if len(files) > 0 {
		p.EntryFile = files[0].Name
		p.ActiveFile = files[0].Name
	}
	return p
}

func TestBuildIdempotence(t *testing.T) {
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<html><head></head><body><h1>x</h1></body></html>"},
		types.SnippetFile{Name: "styles.css", Content: "body{margin:0}"},
		types.SnippetFile{Name: "script.js", Content: "console.log(1)"},
	)

	a := Build(p, "index.html")
	b := Build(p, "index.html")
	assert.Equal(t, a.HTML, b.HTML, "same inputs must yield byte-identical output")
	assert.Equal(t, a.Token, b.Token)
}

func TestBuildTokenTracksInputs(t *testing.T) {
	p := buildProject(types.SnippetFile{Name: "index.html", Content: "<html></html>"})
	a := Build(p, "index.html")

	p.Files["index.html"] = types.SnippetFile{Name: "index.html", Content: "<html> </html>", Kind: types.KindHTML}
	b := Build(p, "index.html")
	assert.NotEqual(t, a.Token, b.Token)
}

func TestBuildPlaceholderWhenNoEntry(t *testing.T) {
	p := buildProject(types.SnippetFile{Name: "styles.css", Content: "body{}"})

	doc := Build(p, "missing.html")
	assert.Contains(t, doc.HTML, "no HTML entry file found")
	assert.Contains(t, doc.HTML, "__sandpost", "placeholder still carries instrumentation")
}

func TestBuildPlaceholderWhenEntryNotHTML(t *testing.T) {
	p := buildProject(types.SnippetFile{Name: "notes.txt", Content: "hello"})

	doc := Build(p, "notes.txt")
	assert.Contains(t, doc.HTML, "no HTML entry file found")
}

func TestCSSInjectedBeforeHeadClose(t *testing.T) {
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<html><head><title>t</title></head><body></body></html>"},
		types.SnippetFile{Name: "b.css", Content: "body{color:red}"},
	)

	doc := Build(p, "index.html")
	assert.Equal(t, 1, strings.Count(doc.HTML, "<style>"), "exactly one style block")
	styleAt := strings.Index(doc.HTML, "<style>body{color:red}</style>")
	headCloseAt := strings.Index(doc.HTML, "</head>")
	require.GreaterOrEqual(t, styleAt, 0)
	assert.Less(t, styleAt, headCloseAt, "style block sits before </head>")
}

func TestCSSConcatenationOrder(t *testing.T) {
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<html><head></head><body></body></html>"},
		types.SnippetFile{Name: "a.css", Content: "a{}"},
		types.SnippetFile{Name: "z.css", Content: "z{}"},
	)

	doc := Build(p, "index.html")
	assert.Contains(t, doc.HTML, "<style>a{}\nz{}</style>", "insertion order, newline separated")
}

func TestJSInjectedBeforeBodyClose(t *testing.T) {
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<html><body><p>hi</p></body></html>"},
		types.SnippetFile{Name: "app.js", Content: "console.log('a')"},
		types.SnippetFile{Name: "util.js", Content: "console.log('b')"},
	)

	doc := Build(p, "index.html")
	jsAt := strings.Index(doc.HTML, "<script>console.log('a')\nconsole.log('b')</script>")
	bodyCloseAt := strings.Index(doc.HTML, "</body>")
	require.GreaterOrEqual(t, jsAt, 0)
	assert.Less(t, jsAt, bodyCloseAt)
}

func TestSnippetBeforeInlineScript(t *testing.T) {
	p := buildProject(types.SnippetFile{
		Name:    "index.html",
		Content: "<body><script>console.log('x')</script></body>",
	})

	doc := Build(p, "index.html")
	snippetAt := strings.Index(doc.HTML, "__sandpost")
	userAt := strings.Index(doc.HTML, "console.log('x')")
	require.GreaterOrEqual(t, snippetAt, 0)
	require.GreaterOrEqual(t, userAt, 0)
	assert.Less(t, snippetAt, userAt, "instrumentation must run before user script")
}

func TestSnippetPlacement(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		check func(t *testing.T, out string)
	}{
		{
			name: "after opening head",
			html: "<html><head><title>t</title></head><body></body></html>",
			check: func(t *testing.T, out string) {
				headAt := strings.Index(out, "<head>")
				snippetAt := strings.Index(out, "__sandpost")
				titleAt := strings.Index(out, "<title>")
				assert.Less(t, headAt, snippetAt)
				assert.Less(t, snippetAt, titleAt)
			},
		},
		{
			name: "synthesized head after html",
			html: "<html><body></body></html>",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "<html><head><script>")
			},
		},
		{
			name: "prepended when no html tag",
			html: "<p>bare fragment</p>",
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "<script>"))
			},
		},
		{
			name: "case-insensitive with attributes",
			html: `<HTML><HEAD lang="en"></HEAD><BODY></BODY></HTML>`,
			check: func(t *testing.T, out string) {
				headAt := strings.Index(out, `<HEAD lang="en">`)
				snippetAt := strings.Index(out, "__sandpost")
				assert.Less(t, headAt, snippetAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProject(types.SnippetFile{Name: "index.html", Content: tt.html})
			tt.check(t, Build(p, "index.html").HTML)
		})
	}
}

func TestCSSFallbackPositions(t *testing.T) {
	// No </head>: style goes before <body>
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<html><body><p>x</p></body></html>"},
		types.SnippetFile{Name: "a.css", Content: "p{}"},
	)
	out := Build(p, "index.html").HTML
	styleAt := strings.Index(out, "<style>p{}</style>")
	bodyAt := strings.Index(out, "<body>")
	require.GreaterOrEqual(t, styleAt, 0)
	assert.Less(t, styleAt, bodyAt)

	// Neither </head> nor <body>: prepended
	p = buildProject(
		types.SnippetFile{Name: "index.html", Content: "<p>bare</p>"},
		types.SnippetFile{Name: "a.css", Content: "p{}"},
	)
	out = Build(p, "index.html").HTML
	assert.Less(t, strings.Index(out, "<style>"), strings.Index(out, "<p>bare</p>"))
}

func TestJSAppendedWithoutBodyClose(t *testing.T) {
	p := buildProject(
		types.SnippetFile{Name: "index.html", Content: "<p>bare</p>"},
		types.SnippetFile{Name: "a.js", Content: "1+1"},
	)
	out := Build(p, "index.html").HTML
	assert.True(t, strings.HasSuffix(out, "<script>1+1</script>"))
}

func TestLinkAndScriptSrcNotFollowed(t *testing.T) {
	p := buildProject(
		types.SnippetFile{
			Name:    "index.html",
			Content: `<html><head><link rel="stylesheet" href="other.css"></head><body><script src="other.js"></script></body></html>`,
		},
		types.SnippetFile{Name: "styles.css", Content: "b{}"},
	)

	// Content is matched purely by kind, not by href/src values
	out := Build(p, "index.html").HTML
	assert.Contains(t, out, `href="other.css"`)
	assert.Contains(t, out, "<style>b{}</style>")
}
