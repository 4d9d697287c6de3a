// Package intake owns the raw submission boundary: evidence image
// storage. Address resolution stays client-side; descriptions pass
// through the core opaquely.
package intake

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nagriksetu/report-service/internal/config"
	"github.com/nagriksetu/report-service/pkg/util"
)

// UploadStore persists evidence images on local disk under unique
// filenames. Only the relative filename is recorded on the ticket.
type UploadStore struct {
	dir     string
	maxSize int64
}

// NewUploadStore ensures the upload directory exists.
func NewUploadStore(cfg config.UploadConfig) (*UploadStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: cfg.Dir, maxSize: cfg.MaxSizeBytes}, nil
}

// Dir returns the upload directory for static serving.
func (u *UploadStore) Dir() string {
	return u.dir
}

// SaveImage writes the uploaded file under a uuid-based name and returns
// the stored filename.
func (u *UploadStore) SaveImage(header *multipart.FileHeader) (string, error) {
	if u.maxSize > 0 && header.Size > u.maxSize {
		return "", util.NewInvalidInput("image too large", map[string]any{
			"size_bytes": header.Size,
			"max_bytes":  u.maxSize,
		})
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.NewString() + ext

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(u.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return filename, nil
}

// Discard removes a stored image that ended up unreferenced, as when
// the report it arrived with merged into an existing ticket.
func (u *UploadStore) Discard(filename string) error {
	if filename == "" {
		return nil
	}
	return os.Remove(filepath.Join(u.dir, filename))
}
