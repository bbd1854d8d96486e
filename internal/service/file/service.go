package file

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
)

// FileService stores attendance proof photos and hands back opaque
// references. Image bytes are never interpreted here.
type FileService interface {
	// UploadAttendanceProof stores a check-in/check-out photo and returns its
	// storage reference. kind is "check-in" or "check-out".
	UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, kind string) (string, error)

	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadAttendanceProof implements FileService.
func (s *fileServiceImpl) UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, kind string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowedExts := []string{".jpg", ".jpeg", ".png"}

	isValid := false
	for _, allowed := range allowedExts {
		if ext == allowed {
			isValid = true
			break
		}
	}

	if !isValid {
		return "", fmt.Errorf("invalid file type: only jpg, jpeg, png allowed")
	}

	contentType := "image/jpeg"
	if ext == ".png" {
		contentType = "image/png"
	}

	newFilename := fmt.Sprintf("%s-%s-%s%s", kind, date.Format("2006-01-02"), uuid.New().String(), ext)
	path := filepath.Join("attendance", userID, newFilename)

	uploadedPath, err := s.storage.Upload(ctx, file, path, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance proof: %w", err)
	}

	return uploadedPath, nil
}

// DeleteFile implements FileService.
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// GetFileURL implements FileService.
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}
