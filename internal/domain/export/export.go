package export

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/anzchy/frontend-sandbox/internal/shared/types"
	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

// ZipName returns the archive filename for a project
func ZipName(projectName string) string {
	return utils.SanitizeArchiveName(projectName) + ".zip"
}

// TarGzName returns the tarball filename for a project
func TarGzName(projectName string) string {
	return utils.SanitizeArchiveName(projectName) + ".tar.gz"
}

// Zip packs the project's files, by name with raw text content, in
// insertion order. Round-trip safe: reading the archive back yields
// the exact name-to-content pairs.
func Zip(p *types.Project) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range p.FilesInOrder() {
		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.LastModified,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("zip write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// TarGz packs the same entries as Zip into a gzip-compressed tarball
func TarGz(p *types.Project) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, f := range p.FilesInOrder() {
		hdr := &tar.Header{
			Name:    f.Name,
			Mode:    0o644,
			Size:    int64(len(f.Content)),
			ModTime: f.LastModified,
		}
		if hdr.ModTime.IsZero() {
			hdr.ModTime = time.Now()
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("tar header %s: %w", f.Name, err)
		}
		if _, err := tw.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("tar write %s: %w", f.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finalize tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("finalize gzip: %w", err)
	}
	return buf.Bytes(), nil
}
