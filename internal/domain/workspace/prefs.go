package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const prefsFile = "prefs.toml"

// Prefs are UI preferences persisted separately from the project
// record. Never part of the core project; an invalid file degrades
// to defaults.
type Prefs struct {
	Theme          string  `toml:"theme" json:"theme"`
	EditorFontSize int     `toml:"editor_font_size" json:"editor_font_size"`
	FilePanelRatio float64 `toml:"file_panel_ratio" json:"file_panel_ratio"`
	PreviewRatio   float64 `toml:"preview_ratio" json:"preview_ratio"`
}

// DefaultPrefs returns the out-of-the-box UI preferences
func DefaultPrefs() Prefs {
	return Prefs{
		Theme:          "dark",
		EditorFontSize: 14,
		FilePanelRatio: 0.2,
		PreviewRatio:   0.4,
	}
}

// LoadPrefs reads prefs from the workspace, falling back to defaults
// when the file is missing or malformed
func (w *Workspace) LoadPrefs() Prefs {
	data, err := os.ReadFile(filepath.Join(w.dir, prefsFile))
	if err != nil {
		return DefaultPrefs()
	}
	prefs := DefaultPrefs()
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return DefaultPrefs()
	}
	return prefs
}

// SavePrefs writes prefs as TOML
func (w *Workspace) SavePrefs(p Prefs) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, prefsFile), data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
