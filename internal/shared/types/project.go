package types

import (
	"path/filepath"
	"strings"
	"time"
)

// FileKind classifies a snippet file by its extension
type FileKind string

const (
	KindHTML       FileKind = "html"
	KindCSS        FileKind = "css"
	KindJavaScript FileKind = "javascript"
	KindJSON       FileKind = "json"
	KindText       FileKind = "text"
)

// KindFromName derives a file kind from the file's extension
func KindFromName(name string) FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return KindHTML
	case ".css":
		return KindCSS
	case ".js":
		return KindJavaScript
	case ".json":
		return KindJSON
	default:
		return KindText
	}
}

// SnippetFile is one editable text file within a project.
// Identity equals name; renaming changes identity.
type SnippetFile struct {
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Kind         FileKind  `json:"kind"`
	LastModified time.Time `json:"last_modified"`
}

// Project is a named container of snippet files with one designated
// entry file and one active (currently edited) file.
type Project struct {
	Version    int                    `json:"version"`
	Name       string                 `json:"name"`
	Files      map[string]SnippetFile `json:"files"`
	Order      []string               `json:"order"`
	ActiveFile string                 `json:"active_file"`
	EntryFile  string                 `json:"entry_file"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// ProjectVersion is the persisted record schema version
const ProjectVersion = 1

// Clone returns a deep copy of the project
func (p *Project) Clone() *Project {
	files := make(map[string]SnippetFile, len(p.Files))
	for name, f := range p.Files {
		files[name] = f
	}
	order := make([]string, len(p.Order))
	copy(order, p.Order)

	return &Project{
		Version:    p.Version,
		Name:       p.Name,
		Files:      files,
		Order:      order,
		ActiveFile: p.ActiveFile,
		EntryFile:  p.EntryFile,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// FilesInOrder returns the project's files in insertion order
func (p *Project) FilesInOrder() []SnippetFile {
	out := make([]SnippetFile, 0, len(p.Order))
	for _, name := range p.Order {
		if f, ok := p.Files[name]; ok {
			out = append(out, f)
		}
	}
	return out
}
