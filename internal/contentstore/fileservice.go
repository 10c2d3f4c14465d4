package contentstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gabipgz/haras-project/internal/apperr"
	"github.com/gabipgz/haras-project/internal/ledger"
)

var fileHandlePattern = regexp.MustCompile(`^0\.0\.\d+$`)

// FileService stores blobs as immutable ledger files. Handles are the
// ledger's entity ids (0.0.<num>), which is also what the mint-time
// metadata of existing assets carries.
type FileService struct {
	ledger ledger.Client
}

// NewFileService creates a Store over the ledger file service.
func NewFileService(c ledger.Client) *FileService {
	return &FileService{ledger: c}
}

// Put creates an immutable file and returns its id.
func (s *FileService) Put(ctx context.Context, data []byte) (string, error) {
	return s.ledger.CreateFile(ctx, data)
}

// Get retrieves file contents. A malformed handle is ErrNotFound; a
// well-formed handle the ledger cannot resolve surfaces with the
// ledger's own error context.
func (s *FileService) Get(ctx context.Context, handle string) ([]byte, error) {
	if !s.IsHandle(handle) {
		return nil, fmt.Errorf("%w: content handle %q", apperr.ErrNotFound, handle)
	}
	return s.ledger.FileContents(ctx, handle)
}

// IsHandle reports whether s looks like a ledger file id.
func (s *FileService) IsHandle(h string) bool {
	return fileHandlePattern.MatchString(h)
}
