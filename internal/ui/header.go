package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lumipallolabs/filegap/internal/core"
)

// Header displays the search and its status (2 lines)
type Header struct {
	root       string
	target     string
	exclusions []string
	state      core.ScanState
	width      int
	version    string
}

// NewHeader creates a new header component
func NewHeader(version string) Header {
	return Header{version: version}
}

// SetSearch sets the folder, target and exclusions shown
func (h *Header) SetSearch(root, target string, exclusions []string) {
	h.root = root
	h.target = target
	h.exclusions = exclusions
}

// SetState sets the scan state shown on the right
func (h *Header) SetState(state core.ScanState) {
	h.state = state
}

// SetWidth sets the header width
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header
// Line 1: FileGap 0.1.0                          Missing in 3 folder(s)
// Line 2: Folder: /data  File: report.pdf        Excluding: node_modules
func (h Header) View() string {
	nameStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(ColorDim)
	labelStyle := lipgloss.NewStyle().Foreground(ColorDim)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true)

	// === LINE 1: App name (left) | Status (right) ===
	appName := nameStyle.Render("FileGap") + versionStyle.Render(" "+h.version)
	line1 := spread(appName, h.status(), h.width)

	// === LINE 2: Search (left) | Exclusions (right) ===
	var search string
	if h.root != "" {
		search = labelStyle.Render("Folder: ") + valueStyle.Render(h.root) +
			labelStyle.Render("  File: ") + valueStyle.Render(h.target)
	}
	var excl string
	if len(h.exclusions) > 0 {
		excl = labelStyle.Render("Excluding: ") + versionStyle.Render(strings.Join(h.exclusions, ", "))
	}
	line2 := spread(search, excl, h.width)

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

// status describes the scan state in a few words
func (h Header) status() string {
	s := h.state
	switch s.Phase {
	case core.PhaseScanning:
		return lipgloss.NewStyle().Foreground(ColorCyan).Render(
			fmt.Sprintf("Scanning %d/%d", s.Progress.Current, s.Progress.Total))
	case core.PhaseComplete:
		if s.AllFound() {
			return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Render("File found in all folders!")
		}
		return lipgloss.NewStyle().Foreground(ColorWarning).Bold(true).Render(
			fmt.Sprintf("Missing in %d folder(s)", s.MissingCount))
	case core.PhaseCancelled:
		return lipgloss.NewStyle().Foreground(ColorDim).Render("Cancelled")
	case core.PhaseFailed:
		return lipgloss.NewStyle().Foreground(ColorDanger).Bold(true).Render("Failed")
	}
	return ""
}

// spread places left and right on one line of the given width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
