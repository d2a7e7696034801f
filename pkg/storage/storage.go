package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AttachmentStore persists uploaded files and returns the path or URL clients use to fetch them.
type AttachmentStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	// Delete removes a file by the path Save returned. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}

// UniqueName keeps the original extension and replaces the rest with a UUID,
// so user-supplied names never reach the filesystem or bucket.
func UniqueName(original string) string {
	return uuid.New().String() + Extension(original)
}

// Extension returns the lowercased extension including the dot, or "" when it
// is missing or contains anything but letters and digits.
func Extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// FileType is the extension without the dot, used as the attachment's file_type.
func FileType(name string) string {
	return strings.TrimPrefix(Extension(name), ".")
}
