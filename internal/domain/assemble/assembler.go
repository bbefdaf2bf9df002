package assemble

import (
	"regexp"
	"strings"
	"time"

	"github.com/anzchy/frontend-sandbox/internal/shared/types"
	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

// Document is the ephemeral artifact of one rebuild: a single
// self-contained HTML string plus the instance token stamped into its
// instrumentation snippet.
type Document struct {
	HTML    string
	Token   string
	Entry   string
	BuiltAt time.Time
}

// Case-insensitive, attribute-tolerant tag locators
var (
	openHead  = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	closeHead = regexp.MustCompile(`(?i)</head\s*>`)
	openHTML  = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
	openBody  = regexp.MustCompile(`(?i)<body(\s[^>]*)?>`)
	closeBody = regexp.MustCompile(`(?i)</body\s*>`)
)

const placeholderHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Preview</title></head>
<body>
<p style="color:#888;font-family:sans-serif">no HTML entry file found</p>
</body>
</html>`

// Build assembles the project snapshot into one HTML document with
// CSS and JS inlined and the instrumentation snippet injected.
//
// Pure and deterministic: identical inputs yield byte-identical
// output. It never fails; a missing or non-HTML entry degrades to a
// placeholder document.
func Build(p *types.Project, entryName string) *Document {
	token := token(p, entryName)

	entry, ok := p.Files[entryName]
	if !ok || entry.Kind != types.KindHTML {
		return &Document{
			HTML:    injectSnippet(placeholderHTML, token),
			Token:   token,
			Entry:   entryName,
			BuiltAt: time.Now(),
		}
	}

	// Concatenate css/js blocks in file insertion order
	var cssParts, jsParts []string
	for _, f := range p.FilesInOrder() {
		switch f.Kind {
		case types.KindCSS:
			cssParts = append(cssParts, f.Content)
		case types.KindJavaScript:
			jsParts = append(jsParts, f.Content)
		}
	}

	html := entry.Content
	html = injectSnippet(html, token)
	if len(cssParts) > 0 {
		html = injectStyle(html, strings.Join(cssParts, "\n"))
	}
	if len(jsParts) > 0 {
		html = injectScript(html, strings.Join(jsParts, "\n"))
	}

	return &Document{
		HTML:    html,
		Token:   token,
		Entry:   entryName,
		BuiltAt: time.Now(),
	}
}

// token fingerprints the build inputs. Depends only on file names,
// contents, and the entry name, so determinism holds.
func token(p *types.Project, entryName string) string {
	fields := make([]string, 0, len(p.Order)*2+1)
	fields = append(fields, entryName)
	for _, f := range p.FilesInOrder() {
		fields = append(fields, f.Name, f.Content)
	}
	return utils.FingerprintFields(fields...)
}

// injectSnippet places the instrumentation script as early as
// possible: after <head>, else inside a synthesized <head> after
// <html>, else prepended to the whole document.
func injectSnippet(html, token string) string {
	script := "<script>" + Snippet(token) + "</script>"

	if loc := openHead.FindStringIndex(html); loc != nil {
		return html[:loc[1]] + script + html[loc[1]:]
	}
	if loc := openHTML.FindStringIndex(html); loc != nil {
		return html[:loc[1]] + "<head>" + script + "</head>" + html[loc[1]:]
	}
	return script + html
}

// injectStyle inserts one style block before </head>, else before
// <body>, else prepends.
func injectStyle(html, css string) string {
	block := "<style>" + css + "</style>"

	if loc := closeHead.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + block + html[loc[0]:]
	}
	if loc := openBody.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + block + html[loc[0]:]
	}
	return block + html
}

// injectScript inserts one script block before </body>, else appends.
func injectScript(html, js string) string {
	block := "<script>" + js + "</script>"

	if loc := closeBody.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + block + html[loc[0]:]
	}
	return html + block
}
