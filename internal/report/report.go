// Package report renders scan events for the console, either as
// human-readable lines or as JSON lines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lumipallolabs/filegap/internal/config"
	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned by Consume when the scan was cancelled
var ErrCancelled = errors.New("scan cancelled")

// Format selects the output encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat converts a flag value to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown format %q, must be text or json", s)
	}
}

// progressInterval limits how often the progress line is redrawn
const progressInterval = 100 * time.Millisecond

// Options configures a Printer
type Options struct {
	Format Format
	Color  string // config.ColorAuto, ColorAlways or ColorNever
	Quiet  bool   // only print missing folders
}

// Summary is what Consume saw of one scan
type Summary struct {
	Missing    []string
	Total      int
	Excluded   int
	Unreadable int
	Elapsed    time.Duration
}

// Printer writes scan events to the console. Missing folders go to out;
// progress and the summary go to errOut so out stays pipeable.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	opts   Options

	showProgress bool
	progressLen  int
	lastDraw     time.Time
	started      time.Time

	missingColor *color.Color
	okColor      *color.Color
	infoColor    *color.Color
	errColor     *color.Color
}

// New creates a Printer
func New(out, errOut io.Writer, opts Options) *Printer {
	p := &Printer{
		out:          out,
		errOut:       errOut,
		opts:         opts,
		showProgress: opts.Format == FormatText && !opts.Quiet && isTerminal(errOut),
		missingColor: color.New(color.FgYellow),
		okColor:      color.New(color.FgGreen, color.Bold),
		infoColor:    color.New(color.FgCyan),
		errColor:     color.New(color.FgRed, color.Bold),
	}

	for _, c := range []*color.Color{p.missingColor, p.okColor, p.infoColor, p.errColor} {
		switch opts.Color {
		case config.ColorAlways:
			c.EnableColor()
		case config.ColorNever:
			c.DisableColor()
		default:
			if !isTerminal(out) {
				c.DisableColor()
			}
		}
	}
	return p
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Consume handles events until the channel closes. It returns an error when
// the scan failed or was cancelled.
func (p *Printer) Consume(events <-chan core.Event) (Summary, error) {
	var sum Summary
	var result error
	p.started = time.Now()

	for e := range events {
		p.Handle(e)
		if err := sum.add(e); err != nil {
			result = err
		}
	}

	sum.Elapsed = time.Since(p.started)
	return sum, result
}

// Collect drains events without printing anything
func Collect(events <-chan core.Event) (Summary, error) {
	var sum Summary
	var result error
	start := time.Now()

	for e := range events {
		if err := sum.add(e); err != nil {
			result = err
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, result
}

// add records e, returning the error a terminal event carries
func (s *Summary) add(e core.Event) error {
	switch e := e.(type) {
	case core.FolderMissingEvent:
		s.Missing = append(s.Missing, e.Path)
	case core.ScanCompletedEvent:
		s.Total = e.Total
		s.Excluded = e.Excluded
		s.Unreadable = e.Unreadable
	case core.ScanCancelledEvent:
		return ErrCancelled
	case core.ScanFailedEvent:
		return e.Err
	}
	return nil
}

// Handle renders a single event
func (p *Printer) Handle(e core.Event) {
	if p.opts.Format == FormatJSON {
		p.writeJSON(e)
		return
	}

	switch e := e.(type) {
	case core.ScanStartedEvent:
		if !p.opts.Quiet {
			p.clearProgress()
			p.infoColor.Fprintf(p.errOut, "Scanning %s for %q\n", e.Request.Root, e.Request.Target)
		}

	case core.ProgressEvent:
		p.drawProgress(e)

	case core.FolderMissingEvent:
		p.clearProgress()
		p.missingColor.Fprintln(p.out, e.Path)

	case core.ScanCompletedEvent:
		p.clearProgress()
		if p.opts.Quiet {
			return
		}
		if e.MissingCount == 0 {
			p.okColor.Fprintln(p.errOut, SummaryText(e.MissingCount))
		} else {
			p.errColor.Fprintln(p.errOut, SummaryText(e.MissingCount))
		}
		fmt.Fprintf(p.errOut, "%d folders enumerated, %d excluded, %d unreadable\n",
			e.Total, e.Excluded, e.Unreadable)

	case core.ScanCancelledEvent:
		p.clearProgress()
		p.errColor.Fprintf(p.errOut, "Scan cancelled after %d missing folder(s)\n", e.MissingCount)

	case core.ScanFailedEvent:
		p.clearProgress()
		p.errColor.Fprintf(p.errOut, "Scan failed: %v\n", e.Err)
	}
}

// Diff prints how the missing folders changed between two scans: "+ path"
// for newly missing folders and "- path" for resolved ones
func (p *Printer) Diff(d core.MissingDiff) {
	if p.opts.Format == FormatJSON {
		data, err := json.Marshal(struct {
			Type     string   `json:"type"`
			Added    []string `json:"added"`
			Resolved []string `json:"resolved"`
		}{"diff", nonNil(d.Added), nonNil(d.Resolved)})
		if err == nil {
			fmt.Fprintln(p.out, string(data))
		}
		return
	}

	if d.Empty() {
		if !p.opts.Quiet {
			p.infoColor.Fprintln(p.errOut, "No changes in missing folders")
		}
		return
	}
	for _, path := range d.Added {
		p.missingColor.Fprintln(p.out, "+ "+path)
	}
	for _, path := range d.Resolved {
		p.okColor.Fprintln(p.out, "- "+path)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SummaryText returns the one-line result of a completed scan
func SummaryText(missing int) string {
	if missing == 0 {
		return "File found in all folders!"
	}
	return fmt.Sprintf("File missing in %d folder(s)", missing)
}

// ProgressText formats a progress event for a status line
func ProgressText(current, total int) string {
	return fmt.Sprintf("Scanning... %d/%d folders checked", current, total)
}

func (p *Printer) drawProgress(e core.ProgressEvent) {
	if !p.showProgress {
		return
	}
	// Always draw the last step so the final state is visible
	if e.Current < e.Total && time.Since(p.lastDraw) < progressInterval {
		return
	}
	p.lastDraw = time.Now()

	line := fmt.Sprintf("%s (%.0f%%)", ProgressText(e.Current, e.Total), e.Percent())
	p.clearProgress()
	fmt.Fprint(p.errOut, line)
	p.progressLen = len(line)
}

func (p *Printer) clearProgress() {
	if p.progressLen == 0 {
		return
	}
	fmt.Fprint(p.errOut, "\r"+strings.Repeat(" ", p.progressLen)+"\r")
	p.progressLen = 0
}

// jsonEvent is the JSON lines encoding of an event
type jsonEvent struct {
	Type         string   `json:"type"`
	ScanID       string   `json:"scan_id"`
	Root         string   `json:"root,omitempty"`
	Target       string   `json:"target,omitempty"`
	Current      int      `json:"current,omitempty"`
	Total        int      `json:"total,omitempty"`
	Path         string   `json:"path,omitempty"`
	MissingCount *int     `json:"missing_count,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func (p *Printer) writeJSON(e core.Event) {
	je := jsonEvent{ScanID: e.ID().String()}

	switch e := e.(type) {
	case core.ScanStartedEvent:
		je.Type = "started"
		je.Root = e.Request.Root
		je.Target = e.Request.Target
	case core.ProgressEvent:
		if p.opts.Quiet {
			return
		}
		je.Type = "progress"
		je.Current = e.Current
		je.Total = e.Total
	case core.FolderMissingEvent:
		je.Type = "missing"
		je.Path = e.Path
	case core.ScanCompletedEvent:
		je.Type = "completed"
		je.MissingCount = &e.MissingCount
		je.Total = e.Total
		je.Missing = e.Missing
	case core.ScanCancelledEvent:
		je.Type = "cancelled"
		je.MissingCount = &e.MissingCount
	case core.ScanFailedEvent:
		je.Type = "failed"
		je.Error = e.Err.Error()
	default:
		return
	}

	data, err := json.Marshal(je)
	if err != nil {
		return
	}
	fmt.Fprintln(p.out, string(data))
}
