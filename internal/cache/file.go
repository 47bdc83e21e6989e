package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"salofyi/internal/fsutil"
)

// FileStore keeps every entry as <dir>/<key>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. The directory is created
// on the first Put.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "./_cache"
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	return data, err
}

func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	return fsutil.WriteFileAtomic(s.path(key), data, 0o644)
}

func (s *FileStore) Close() error { return nil }
