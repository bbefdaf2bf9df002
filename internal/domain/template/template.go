package template

import (
	"time"

	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

const defaultIndexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>My Sandbox</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <h1>Hello, Sandbox!</h1>
  <p>Edit the files on the left and watch the preview update.</p>
  <script src="script.js"></script>
</body>
</html>
`

const defaultStylesCSS = `body {
  background: #1e1e1e;
  color: #d4d4d4;
  font-family: -apple-system, "Segoe UI", sans-serif;
  margin: 2rem;
}

h1 {
  color: #569cd6;
}
`

const defaultScriptJS = `console.log('Hello from the sandbox!');
`

// Default seeds the three-file starter project used on first run and
// on reset
func Default() *types.Project {
	now := time.Now()
	p := &types.Project{
		Version:    types.ProjectVersion,
		Name:       "My Project",
		Files:      map[string]types.SnippetFile{},
		ActiveFile: "index.html",
		EntryFile:  "index.html",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, f := range []struct {
		name, content string
	}{
		{"index.html", defaultIndexHTML},
		{"styles.css", defaultStylesCSS},
		{"script.js", defaultScriptJS},
	} {
		p.Files[f.name] = types.SnippetFile{
			Name:         f.name,
			Content:      f.content,
			Kind:         types.KindFromName(f.name),
			LastModified: now,
		}
		p.Order = append(p.Order, f.name)
	}
	return p
}
