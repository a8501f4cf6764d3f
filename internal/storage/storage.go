// Package storage defines where preprocessed corpora are archived.
package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// ContentTypeCSV is the content type of archived corpora.
const ContentTypeCSV = "text/csv; charset=utf-8"

// BlobStore persists an object and returns a URI that locates it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// ObjectPath builds the archive key <prefix>/<runID>/<base name of file>.
func ObjectPath(prefix, runID, file string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if runID != "" {
		parts = append(parts, runID)
	}
	parts = append(parts, filepath.Base(file))
	return path.Join(parts...)
}
