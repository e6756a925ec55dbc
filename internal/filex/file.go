// Package filex contains file helpers for the console: making sure the
// session database directory exists and loading news image attachments.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize caps the image attached to a news item.
const MaxAttachmentSize = 10 << 20

var (
	ErrAttachmentTooLarge = errors.New("attachment too large")
	ErrNotAnImage         = errors.New("attachment is not an image")
)

// Attachment is a file loaded from disk ready for a multipart upload.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// EnsureParentDir creates the directory that will hold path. Paths without a
// directory component (or SQLite ":memory:" style DSNs) are left alone.
func EnsureParentDir(path string) error {
	if path == "" || strings.HasPrefix(path, ":") || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadImage loads an image attachment from path, refusing files above
// MaxAttachmentSize and files whose sniffed content type is not image/*.
func ReadImage(path string) (*Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if len(data) > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, ct)
	}

	return &Attachment{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}
