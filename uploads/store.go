// Package uploads serves previously uploaded files from the local
// filesystem. Request paths are resolved against the configured public
// prefix and storage root before any file is touched.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ruilibao/live-server/internal/pathutil"
)

// ErrNotFound is returned for files that do not exist under the storage
// root. Handlers collapse it and pathutil.ErrTraversal into one generic
// response.
var ErrNotFound = errors.New("file not found")

// Store resolves request paths and opens files under the storage root.
type Store struct {
	publicPrefix string
	storageRoot  string
}

// NewStore creates an upload store over an existing storage root.
func NewStore(publicPrefix, storageRoot string) (*Store, error) {
	if err := os.MkdirAll(storageRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", storageRoot, err)
	}

	if _, err := os.Stat(storageRoot); err != nil {
		return nil, fmt.Errorf("storage root %s is not accessible: %w", storageRoot, err)
	}

	return &Store{
		publicPrefix: publicPrefix,
		storageRoot:  storageRoot,
	}, nil
}

// Open resolves a request path and opens the file for reading. The
// returned size and modification time feed the response headers.
func (s *Store) Open(ctx context.Context, requestPath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := pathutil.Resolve(requestPath, s.publicPrefix, s.storageRoot)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, ErrNotFound
	}

	return file, info, nil
}
