package blob

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

// allowedExtensions is the upload allowlist.
var allowedExtensions = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {},
	".zip": {}, ".rar": {},
}

// Store writes attachments to local disk under generated names. Callers
// keep only the returned metadata; the stored name is the lookup key.
type Store struct {
	dir     string
	maxSize int64
}

// NewStore prepares the upload directory.
func NewStore(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	maxSize := cfg.MaxFileSizeByte
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Store{dir: cfg.UploadDir, maxSize: maxSize}, nil
}

// Validate checks a file header against the allowlist and size cap
// without storing anything.
func (s *Store) Validate(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperrors.NewValidationError("file type not allowed", map[string]any{
			"file":      header.Filename,
			"extension": ext,
		})
	}
	if header.Size > s.maxSize {
		return apperrors.NewValidationError("file too large", map[string]any{
			"file":    header.Filename,
			"maxSize": s.maxSize,
		})
	}
	return nil
}

// Save validates and persists one uploaded file, returning its attachment
// metadata.
func (s *Store) Save(header *multipart.FileHeader) (domain.Attachment, error) {
	if err := s.Validate(header); err != nil {
		return domain.Attachment{}, err
	}

	src, err := header.Open()
	if err != nil {
		return domain.Attachment{}, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storedName := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, storedName))
	if err != nil {
		return domain.Attachment{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(filepath.Join(s.dir, storedName))
		return domain.Attachment{}, err
	}

	return domain.Attachment{
		StoredName:   storedName,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		UploadedAt:   time.Now(),
	}, nil
}

// SaveAll stores up to max files, rejecting oversized batches.
func (s *Store) SaveAll(headers []*multipart.FileHeader, max int) ([]domain.Attachment, error) {
	if len(headers) > max {
		return nil, apperrors.NewValidationError("too many files", map[string]any{"max": max})
	}
	attachments := make([]domain.Attachment, 0, len(headers))
	for _, header := range headers {
		att, err := s.Save(header)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, nil
}

// Open returns a reader for a stored attachment.
func (s *Store) Open(storedName string) (io.ReadCloser, error) {
	// Stored names are uuid+ext; reject anything path-like.
	if strings.ContainsAny(storedName, "/\\") || strings.Contains(storedName, "..") {
		return nil, apperrors.NewValidationError("invalid attachment name", nil)
	}
	return os.Open(filepath.Join(s.dir, storedName))
}
