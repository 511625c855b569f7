package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FS stores each entry as a file in a directory of a billy filesystem.
// Writes go to a temporary file that is renamed into place, so a reader
// never sees a partial blob. Access is serialized like a single device.
type FS struct {
	mu  sync.Mutex
	fs  billy.Filesystem
	dir string
}

// NewFS creates an FS store rooted at dir, creating the directory if needed.
func NewFS(fs billy.Filesystem, dir string) (*FS, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs store: create %s: %w", dir, err)
	}
	return &FS{fs: fs, dir: dir}, nil
}

func (f *FS) path(key string) string {
	return f.fs.Join(f.dir, key+".blob")
}

// Read returns the contents of the file for key.
func (f *FS) Read(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := util.ReadFile(f.fs, f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fs store: read %s: %w", key, err)
	}
	return b, true, nil
}

// Write replaces the file for key with val.
func (f *FS) Write(_ context.Context, key string, val []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	final := f.path(key)
	tmp := final + ".tmp"
	if err := util.WriteFile(f.fs, tmp, val, 0o644); err != nil {
		return fmt.Errorf("fs store: write %s: %w", key, err)
	}
	if err := f.fs.Rename(tmp, final); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("fs store: rename %s: %w", key, err)
	}
	return nil
}
