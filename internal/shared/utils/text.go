package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectCharset guesses the character encoding of raw text bytes.
// Returns "utf-8" when detection fails.
func DetectCharset(data []byte) string {
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil || res.Charset == "" {
		return "utf-8"
	}
	return strings.ToLower(res.Charset)
}

// DecodeText validates that the payload is textual and transcodes it
// to UTF-8. Binary payloads are rejected by MIME sniff.
func DecodeText(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !isTextual(mt) {
		return "", fmt.Errorf("binary content (%s) is not importable", mt.String())
	}

	label := DetectCharset(data)
	r, err := charset.NewReaderLabel(label, strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("transcode failed: %w", err)
	}
	return string(decoded), nil
}

func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	switch {
	case strings.HasPrefix(mt.String(), "text/"),
		strings.Contains(mt.String(), "json"),
		strings.Contains(mt.String(), "javascript"),
		strings.Contains(mt.String(), "xml"):
		return true
	}
	return false
}
