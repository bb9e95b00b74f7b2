// Package storage persists uploaded item images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for uploads with an extension outside the
// accepted image formats.
var ErrUnsupportedType = errors.New("unsupported image type")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// MediaStore writes item images under a base directory and hands back
// relative paths suitable for storing on the item row.
type MediaStore struct {
	dir string
}

// NewMediaStore creates the base directory if needed.
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	return &MediaStore{dir: dir}, nil
}

// Save writes an uploaded image for itemID and returns the relative path.
// The original filename contributes only its extension; the stored name is
// the item ID so re-uploads overwrite instead of accumulating.
func (s *MediaStore) Save(itemID uuid.UUID, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	relPath := itemID.String() + ext
	fullPath := filepath.Join(s.dir, relPath)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)

		return "", fmt.Errorf("write media file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}

	return relPath, nil
}

// Read returns the raw bytes of a previously stored image.
func (s *MediaStore) Read(relPath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Clean("/"+relPath)))
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}

	return data, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (s *MediaStore) Remove(relPath string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Clean("/"+relPath)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}

	return nil
}
