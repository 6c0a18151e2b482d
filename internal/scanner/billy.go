package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillySource reads a go-billy filesystem. Symlinks are never followed and
// every directory is considered to be on one device, so WalkOptions have no
// effect.
type BillySource struct {
	fs billy.Filesystem
}

// NewBillySource wraps fsys
func NewBillySource(fsys billy.Filesystem) *BillySource {
	return &BillySource{fs: fsys}
}

// NewMemorySource returns a source backed by an empty in-memory filesystem
func NewMemorySource() *BillySource {
	return &BillySource{fs: memfs.New()}
}

// Filesystem returns the wrapped filesystem
func (b *BillySource) Filesystem() billy.Filesystem {
	return b.fs
}

// Stat returns information about path
func (b *BillySource) Stat(path string) (fs.FileInfo, error) {
	return b.fs.Stat(path)
}

// Dirs enumerates every directory under root
func (b *BillySource) Dirs(ctx context.Context, root string, _ WalkOptions) ([]string, error) {
	root = filepath.Clean(root)
	var dirs []string

	err := util.Walk(b.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info == nil {
			if err != nil && path == root {
				return err
			}
			return nil
		}
		if info.IsDir() {
			dirs = append(dirs, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortPreOrder(dirs)
	return dirs, nil
}

// Files lists the regular files directly inside dir
func (b *BillySource) Files(dir string) ([]string, error) {
	infos, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

var _ Source = (*BillySource)(nil)
