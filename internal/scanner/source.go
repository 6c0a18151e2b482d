package scanner

//go:generate mockgen -destination=mock_source.go -package=scanner github.com/lumipallolabs/filegap/internal/scanner Source

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lumipallolabs/filegap/internal/match"
	"golang.org/x/sync/errgroup"
)

// WalkOptions controls directory enumeration
type WalkOptions struct {
	// FollowSymlinks descends into symlinked directories. Each real
	// directory is visited at most once.
	FollowSymlinks bool
	// OneFileSystem skips directories on a different device than the root
	OneFileSystem bool
}

// Source gives the scanner access to a directory tree
type Source interface {
	// Stat returns information about path
	Stat(path string) (fs.FileInfo, error)

	// Dirs returns every directory under root, root included, in
	// depth-first pre-order with siblings sorted by name
	Dirs(ctx context.Context, root string, opts WalkOptions) ([]string, error)

	// Files returns the names of the regular files directly inside dir
	Files(dir string) ([]string, error)
}

// listing holds the file names of one folder, or why there are none
type listing struct {
	names    []string
	err      error
	excluded bool
}

// list fetches the file listings for dirs in parallel. Excluded folders are
// never read. A failed listing is recorded per folder; only cancellation or
// a panic in the source fails the whole batch.
func (s *Scanner) list(ctx context.Context, dirs []string, exclusions []string) ([]listing, error) {
	out := make([]listing, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, dir := range dirs {
		if match.ShouldExclude(dir, exclusions) {
			out[i].excluded = true
			continue
		}

		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("list %s: panic: %v", dir, p)
				}
			}()

			names, listErr := s.source.Files(dir)
			out[i] = listing{names: names, err: listErr}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// sortPreOrder orders paths so that every directory comes before its
// children and siblings are sorted by name, the order of a tree listing.
func sortPreOrder(paths []string) {
	parts := make(map[string][]string, len(paths))
	for _, p := range paths {
		parts[p] = strings.Split(filepath.Clean(p), string(filepath.Separator))
	}
	slices.SortFunc(paths, func(a, b string) int {
		return slices.Compare(parts[a], parts[b])
	})
}
