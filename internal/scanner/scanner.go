package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/match"
)

// Configuration errors, reported before a scan begins
var (
	ErrEmptyRoot      = errors.New("no folder selected")
	ErrEmptyTarget    = errors.New("no file name given")
	ErrRootNotFound   = errors.New("folder does not exist")
	ErrRootNotDir     = errors.New("not a folder")
	ErrRootUnreadable = errors.New("folder cannot be read")
)

// Request describes one scan
type Request struct {
	Root       string
	Target     string
	Exclusions []string

	FollowSymlinks bool
	OneFileSystem  bool
}

// NewRequest builds a request from raw user input: a folder path, a file
// name and a comma-separated exclusion list.
func NewRequest(root, target, exclusions string) (Request, error) {
	req := Request{
		Root:       strings.TrimSpace(root),
		Target:     strings.TrimSpace(target),
		Exclusions: match.ParseExclusions(exclusions),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the fields that do not need the filesystem
func (r Request) Validate() error {
	if strings.TrimSpace(r.Root) == "" {
		return ErrEmptyRoot
	}
	if strings.TrimSpace(r.Target) == "" {
		return ErrEmptyTarget
	}
	return nil
}

func (r Request) walkOptions() WalkOptions {
	return WalkOptions{
		FollowSymlinks: r.FollowSymlinks,
		OneFileSystem:  r.OneFileSystem,
	}
}

// Progress reports the position in the directory enumeration
type Progress struct {
	Current int
	Total   int
}

// Percent returns progress as 0-100; an empty enumeration counts as done
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// Done returns true once every enumerated folder has been processed
func (p Progress) Done() bool {
	return p.Current >= p.Total
}

// Result is the outcome of a finished scan
type Result struct {
	Missing []string

	Total      int // folders enumerated
	Checked    int // folders whose files were compared
	Excluded   int
	Unreadable int
}

// Reporter receives scan output as it happens. Calls are made from the
// scanning goroutine, one at a time.
type Reporter interface {
	Progress(p Progress)
	Missing(path string)
}

// ReporterFuncs adapts plain functions to Reporter; nil fields are ignored
type ReporterFuncs struct {
	OnProgress func(Progress)
	OnMissing  func(string)
}

func (r ReporterFuncs) Progress(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

func (r ReporterFuncs) Missing(path string) {
	if r.OnMissing != nil {
		r.OnMissing(path)
	}
}

// Scanner finds folders that do not contain the target file
type Scanner struct {
	source  Source
	workers int
}

// New creates a scanner reading from source, listing up to workers folders
// in parallel
func New(source Source, workers int) *Scanner {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Scanner{
		source:  source,
		workers: workers,
	}
}

// DefaultWorkers is used when no worker count is configured
const DefaultWorkers = 8

// Validate checks that the request can be scanned: both fields are set and
// the root is a readable directory.
func (s *Scanner) Validate(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	info, err := s.source.Stat(req.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRootNotFound, req.Root)
		}
		return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, req.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, req.Root)
	}
	if _, err := s.source.Files(req.Root); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnreadable, req.Root, err)
	}
	return nil
}

// Scan enumerates every folder under req.Root, then checks each one in
// enumeration order. Missing folders and progress are reported as they are
// found. Cancelling ctx stops the scan between folders and returns ctx.Err().
func (s *Scanner) Scan(ctx context.Context, req Request, r Reporter) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = ReporterFuncs{}
	}

	dirs, err := s.source.Dirs(ctx, filepath.Clean(req.Root), req.walkOptions())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("enumerate %s: %w", req.Root, err)
	}

	return s.check(ctx, req, dirs, r)
}

// check runs the second pass over an already enumerated folder list
func (s *Scanner) check(ctx context.Context, req Request, dirs []string, r Reporter) (*Result, error) {
	total := len(dirs)
	res := &Result{
		Missing: []string{},
		Total:   total,
	}

	batch := s.workers * 4
	for start := 0; start < total; start += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batch, total)
		listings, err := s.list(ctx, dirs[start:end], req.Exclusions)
		if err != nil {
			return nil, err
		}

		for i, l := range listings {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			dir := dirs[start+i]
			switch {
			case l.excluded:
				res.Excluded++
			case l.err != nil:
				res.Unreadable++
				logging.Scanner.Printf("skip unreadable %s: %v", dir, l.err)
			default:
				res.Checked++
				if !match.IsFileFoundIn(l.names, req.Target) {
					path := filepath.Clean(dir)
					res.Missing = append(res.Missing, path)
					r.Missing(path)
				}
			}

			r.Progress(Progress{Current: start + i + 1, Total: total})
		}
	}

	return res, nil
}
