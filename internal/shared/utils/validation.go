package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Size caps enforced uniformly at every write path
const (
	MaxFileBytes    = 1 << 20  // 1MB per file
	MaxProjectBytes = 10 << 20 // 10MB serialized project
	MaxNameLength   = 100
)

// fileNameRe: leading alphanumeric, then alphanumerics/dot/underscore/
// hyphen, ending in a dotted alphabetic extension
var fileNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.[A-Za-z]+$`)

// allowedExtensions for snippet files
var allowedExtensions = map[string]bool{
	"html": true,
	"htm":  true,
	"css":  true,
	"js":   true,
	"json": true,
	"txt":  true,
}

// ValidateFileName checks a snippet file name against the naming rule
// and the allowed extension set
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file name is empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("file name exceeds %d characters", MaxNameLength)
	}
	if !fileNameRe.MatchString(name) {
		return fmt.Errorf("invalid file name %q", name)
	}

	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	if !allowedExtensions[ext] {
		return fmt.Errorf("extension %q is not allowed", ext)
	}
	return nil
}

// ValidateFileContent checks the per-file size cap
func ValidateFileContent(content string) error {
	if len(content) > MaxFileBytes {
		return fmt.Errorf("file content exceeds %d bytes", MaxFileBytes)
	}
	return nil
}

var (
	nonArchiveChars = regexp.MustCompile(`[^a-z0-9\-_ ]+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// SanitizeArchiveName normalizes a project name into a safe archive
// basename: lowercased, non-alphanumeric/hyphen/underscore stripped,
// whitespace runs collapsed to single hyphens. Falls back to
// "project" when nothing survives.
func SanitizeArchiveName(name string) string {
	s := strings.ToLower(name)
	s = nonArchiveChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespaceRuns.ReplaceAllString(s, "-")
	if s == "" {
		return "project"
	}
	return s
}
