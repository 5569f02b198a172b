// Package storage persists uploaded document blobs and serves them back by
// key.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is the blob store the upload and extraction paths depend on.
type Store interface {
	// Save writes the blob under a new key derived from ownerID and
	// fileName and returns the key and a serveable URL.
	Save(ownerID uuid.UUID, fileName string, content []byte) (key string, url string, err error)
	// Get reads a blob by key; a missing key is (nil, *ErrBlobNotFound).
	Get(key string) ([]byte, error)
	// Delete removes a blob; deleting a missing key is not an error.
	Delete(key string) error
}

// ErrBlobNotFound indicates a key with no stored blob.
type ErrBlobNotFound struct {
	Key string
}

func (e *ErrBlobNotFound) Error() string {
	return fmt.Sprintf("blob not found: %s", e.Key)
}

// FileStore keeps blobs on the local filesystem under a root directory,
// one subdirectory per owner.
type FileStore struct {
	root    string
	baseURL string
}

// NewFileStore creates the root directory if needed. baseURL prefixes the
// returned blob URLs.
func NewFileStore(root, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *FileStore) Save(ownerID uuid.UUID, fileName string, content []byte) (string, string, error) {
	key := fmt.Sprintf("%s/%s%s", ownerID, uuid.New(), sanitizeExt(fileName))

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create owner directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write blob: %w", err)
	}

	return key, s.baseURL + "/" + key, nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ErrBlobNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return content, nil
}

func (s *FileStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve maps a key to a path under the root and rejects traversal.
func (s *FileStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// sanitizeExt keeps only a plausible file extension from the uploaded name.
func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
