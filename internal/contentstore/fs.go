package contentstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabipgz/haras-project/internal/apperr"
)

var fsHandlePattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// FS is a content-addressed store on the local file system, used in
// development instead of a remote pinning service. The handle is the
// SHA-256 of the content; blobs are never rewritten.
type FS struct {
	root string
}

// NewFS creates a store rooted at dir. The directory must exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("contentstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("contentstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("contentstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Put writes the blob atomically: tmp file, fsync, rename.
func (f *FS) Put(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	handle := hex.EncodeToString(sum[:])
	dest := filepath.Join(f.root, handle)

	if _, err := os.Stat(dest); err == nil {
		return handle, nil
	}

	tmp, err := os.CreateTemp(f.root, ".haras-tmp-*")
	if err != nil {
		return "", fmt.Errorf("contentstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("contentstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("contentstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("contentstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("contentstore: rename: %w", err)
	}
	success = true
	return handle, nil
}

// Get reads a blob by its content hash.
func (f *FS) Get(_ context.Context, handle string) ([]byte, error) {
	if !f.IsHandle(handle) {
		return nil, fmt.Errorf("%w: content handle %q", apperr.ErrNotFound, handle)
	}
	data, err := os.ReadFile(filepath.Join(f.root, handle))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: content handle %q", apperr.ErrNotFound, handle)
		}
		return nil, fmt.Errorf("contentstore: read %s: %w", handle, err)
	}
	return data, nil
}

// IsHandle reports whether s looks like a hex SHA-256 handle.
func (f *FS) IsHandle(s string) bool {
	return fsHandlePattern.MatchString(s)
}
