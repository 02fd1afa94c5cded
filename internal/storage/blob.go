// Package storage provides the durable key/value blob stores that hold the
// serialized task list.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned when a blob key cannot be used as a storage name.
var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore is a string-valued key/value store. Each Set overwrites the whole
// value stored under the key.
type BlobStore interface {
	// Get returns the value stored under key. found is false when nothing has
	// been stored yet.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// ValidateKey rejects keys that are empty or would escape the store directory.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidKey, key)
	}
	return nil
}

// lockFileName is shared by every file store writing into one directory.
const lockFileName = ".routine.lock"

type fileBlobStore struct {
	dir string
}

// NewFileBlobStore creates a BlobStore that keeps each key in <dir>/<key>.json.
func NewFileBlobStore(dir string) BlobStore {
	return &fileBlobStore{dir: dir}
}

func (s *fileBlobStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *fileBlobStore) lockPath() string {
	return filepath.Join(s.dir, lockFileName)
}

func (s *fileBlobStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes the value to a temporary file and renames it over the target,
// holding an exclusive lock so concurrent routine processes do not interleave.
func (s *fileBlobStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("writing blob %s: creating directory: %w", key, err)
	}

	unlock, err := acquireBlobLock(ctx, s.lockPath())
	if err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	defer func() { _ = unlock() }()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing blob %s: creating temp file: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing blob %s: closing temp file: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing blob %s: replacing file: %w", key, err)
	}
	return nil
}

func (s *fileBlobStore) Close() error {
	return nil
}
