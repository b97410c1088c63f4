package storage

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"mjmgmt/internal/common"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	MaxImageCount = 20
	MaxImageSize  = 5 * 1024 * 1024 // 5MB per file
	PublicPrefix  = "/uploads/"
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".heic": true,
	".heif": true,
}

// UploadStore writes listing images to a local directory and serves them
// back under PublicPrefix.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir %s: %w", dir, err)
	}
	return &UploadStore{dir: dir}, nil
}

func (s *UploadStore) Dir() string {
	return s.dir
}

// SaveAll persists every uploaded file and returns their public paths in
// upload order. Count, size and extension limits mirror the API contract;
// a violation rejects the whole batch before anything is written.
func (s *UploadStore) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if len(files) > MaxImageCount {
		return nil, fmt.Errorf("at most %d images are allowed: %w", MaxImageCount, common.ErrValidation)
	}
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExtensions[ext] {
			return nil, fmt.Errorf("images only (jpeg, jpg, png, heic, heif): %w", common.ErrValidation)
		}
		if fh.Size > MaxImageSize {
			return nil, fmt.Errorf("image %s exceeds the 5MB limit: %w", fh.Filename, common.ErrValidation)
		}
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := s.save(fh)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *UploadStore) save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	base := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	name := slug.Make(base) + "-" + uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write image file %s: %w", name, err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes the file behind a public image path.
func (s *UploadStore) Remove(imagePath string) error {
	name := filepath.Base(imagePath)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", name, err)
	}
	return nil
}

// RemoveBestEffort deletes the file behind a public image path, logging
// and swallowing any failure. Used by the batch cleanup paths.
func (s *UploadStore) RemoveBestEffort(imagePath string) {
	if err := s.Remove(imagePath); err != nil {
		log.Printf("Failed to delete image %s: %v", imagePath, err)
	}
}
