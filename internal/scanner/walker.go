package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/lumipallolabs/filegap/internal/logging"
)

// Walker reads the local filesystem, enumerating directories in parallel
// with fastwalk
type Walker struct {
	workers int
}

// NewWalker creates a new parallel filesystem walker
func NewWalker(workers int) *Walker {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Walker{workers: workers}
}

// Stat returns information about path, following symlinks
func (w *Walker) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Dirs enumerates every directory under root using fastwalk. With
// FollowSymlinks, the real tree is walked first so that every real
// directory keeps its own path; symlinked directories not already visited
// are then walked and reported under the link's path.
func (w *Walker) Dirs(ctx context.Context, root string, opts WalkOptions) ([]string, error) {
	root = filepath.Clean(root)

	// Get platform-specific root info for mount point detection
	rootInfo := getPlatformRootInfo(root)

	if !opts.FollowSymlinks {
		t := &treeWalk{opts: opts, rootInfo: rootInfo}
		dirs, err := t.walk(ctx, root, root, w.workers)
		if err != nil {
			return nil, err
		}
		sortPreOrder(dirs)
		return dirs, nil
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	t := &treeWalk{opts: opts, rootInfo: rootInfo, follow: true}
	if info, err := os.Stat(realRoot); err == nil {
		t.visit(realRoot, info)
	}

	dirs, err := t.walk(ctx, realRoot, root, w.workers)
	if err != nil {
		return nil, err
	}

	// Links found while walking a linked tree are queued behind the rest
	for i := 0; i < len(t.links); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// fastwalk reports links in no particular order
		sortPreOrder(t.links[i:])
		link := t.links[i]

		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			logging.Scanner.Printf("walk %s: %v", link, err)
			continue
		}
		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			continue
		}
		if opts.OneFileSystem && !sameDevice(info, rootInfo) {
			continue
		}
		if !t.visit(target, info) {
			logging.Scanner.Printf("walk %s: already visited", link)
			continue
		}

		linked, err := t.walk(ctx, target, link, w.workers)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.Scanner.Printf("walk %s: %v", link, err)
			continue
		}
		dirs = append(dirs, linked...)
	}

	sortPreOrder(dirs)
	return dirs, nil
}

// treeWalk holds the state shared by the walks of one Dirs call
type treeWalk struct {
	opts     WalkOptions
	rootInfo platformRootInfo
	follow   bool

	// Real directories already enumerated, by identity
	seen sync.Map

	mu    sync.Mutex
	links []string // symlinks met so far, as reported paths
}

// visit records the directory at realPath and reports whether it is new.
// The device and inode identify it where available, the real path elsewhere.
func (t *treeWalk) visit(realPath string, info fs.FileInfo) bool {
	var key any = realPath
	if id, ok := dirIdentity(info); ok {
		key = id
	}
	_, exists := t.seen.LoadOrStore(key, true)
	return !exists
}

// walk enumerates the real directory tree at realRoot without following
// symlinks. Paths are reported relative to reportRoot, root included.
func (t *treeWalk) walk(ctx context.Context, realRoot, reportRoot string, workers int) ([]string, error) {
	report := func(path string) string {
		if realRoot == reportRoot {
			return path
		}
		rel, err := filepath.Rel(realRoot, path)
		if err != nil {
			return path
		}
		return filepath.Join(reportRoot, rel)
	}

	// fastwalk calls back from several goroutines; collect over a channel
	dirCh := make(chan string, 1024)
	var dirs []string
	var collectWg sync.WaitGroup

	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		collected := []string{reportRoot}
		for d := range dirCh {
			collected = append(collected, d)
		}
		dirs = collected
	}()

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: workers,
	}

	walkErr := fastwalk.Walk(conf, realRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == realRoot {
				return err
			}
			logging.Scanner.Printf("walk %s: %v", path, err)
			return nil
		}

		if path == realRoot || d == nil {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if t.follow {
				t.mu.Lock()
				t.links = append(t.links, report(path))
				t.mu.Unlock()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if t.opts.OneFileSystem || t.follow {
			info, err := d.Info()
			if err == nil {
				if t.opts.OneFileSystem && !sameDevice(info, t.rootInfo) {
					return fs.SkipDir
				}
				if t.follow && !t.visit(path, info) {
					return fs.SkipDir
				}
			}
		}

		dirCh <- report(path)
		return nil
	})

	close(dirCh)
	collectWg.Wait()

	if walkErr != nil {
		return nil, walkErr
	}
	return dirs, nil
}

// Files lists the regular files directly inside dir. Symlinks count when
// they resolve to a regular file.
func (w *Walker) Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Type().IsRegular():
			names = append(names, e.Name())
		case e.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err == nil && info.Mode().IsRegular() {
				names = append(names, e.Name())
			}
		}
	}
	return names, nil
}

// Ensure Walker implements Source
var _ Source = (*Walker)(nil)
