package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidContent is returned for uploads of a type or size that is not accepted
var ErrInvalidContent = errors.New("invalid file content")

// LocalStorage handles file storage on the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// SaveSignature stores a captured signature image under signatures/<kind>/<yyyy>/<mm>
// and returns its relative path
func (s *LocalStorage) SaveSignature(ctx context.Context, image []byte, kind string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(image) == 0 || int64(len(image)) > MaxFileSize() {
		return "", fmt.Errorf("%w: signature of %d bytes", ErrInvalidContent, len(image))
	}

	contentType := http.DetectContentType(image)
	ext, ok := signatureExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidContent, contentType)
	}

	return s.UploadFromBytes(image, "signature"+ext, filepath.Join("signatures", sanitize(kind)))
}

// UploadFromBytes saves bytes to a file and returns its relative path
func (s *LocalStorage) UploadFromBytes(data []byte, filename string, subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir, s.now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	uniqueFilename := generateID() + filepath.Ext(filename)
	filePath := filepath.Join(dir, uniqueFilename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return filepath.ToSlash(relPath), nil
}

// DeleteSignature removes a stored signature image
func (s *LocalStorage) DeleteSignature(ctx context.Context, relativePath string) error {
	if !strings.HasPrefix(relativePath, "signatures/") {
		return fmt.Errorf("%w: not a signature path", ErrInvalidContent)
	}
	return s.Delete(relativePath)
}

// Download returns a file for reading
func (s *LocalStorage) Download(relativePath string) (*os.File, error) {
	full, err := s.resolve(relativePath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete removes a file
func (s *LocalStorage) Delete(relativePath string) error {
	full, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	full, err := s.resolve(relativePath)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// resolve joins a stored relative path to the base, refusing paths that escape it
func (s *LocalStorage) resolve(relativePath string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(relativePath))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q outside storage", ErrInvalidContent, relativePath)
	}
	return full, nil
}

func sanitize(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	kind = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, kind)
	if kind == "" {
		return "unknown"
	}
	return kind
}

// generateID creates a unique identifier for filenames
func generateID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

var signatureExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// MaxFileSize returns the maximum accepted signature size (2MB)
func MaxFileSize() int64 {
	return 2 * 1024 * 1024
}
