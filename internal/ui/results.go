package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// ResultsPanel lists missing folders as they stream in
type ResultsPanel struct {
	paths    []string
	selected int
	vp       viewport.Model
	width    int
	height   int
}

// NewResultsPanel creates an empty results panel
func NewResultsPanel() ResultsPanel {
	return ResultsPanel{vp: viewport.New(0, 0)}
}

// Reset clears the list
func (r *ResultsPanel) Reset() {
	r.paths = nil
	r.selected = 0
	r.vp.GotoTop()
	r.refresh()
}

// Add appends a missing folder
func (r *ResultsPanel) Add(path string) {
	r.paths = append(r.paths, path)
	r.refresh()
}

// Len returns the number of listed folders
func (r ResultsPanel) Len() int {
	return len(r.paths)
}

// Paths returns the listed folders
func (r ResultsPanel) Paths() []string {
	return r.paths
}

// Selected returns the selected folder, or "" when the list is empty
func (r ResultsPanel) Selected() string {
	if r.selected < 0 || r.selected >= len(r.paths) {
		return ""
	}
	return r.paths[r.selected]
}

// SetSize sets the outer dimensions of the panel
func (r *ResultsPanel) SetSize(w, h int) {
	r.width = w
	r.height = h
	// Border and padding
	r.vp.Width = max(1, w-4)
	r.vp.Height = max(1, h-2)
	r.refresh()
}

// MoveUp moves selection up by n
func (r *ResultsPanel) MoveUp(n int) {
	r.selectIndex(r.selected - n)
}

// MoveDown moves selection down by n
func (r *ResultsPanel) MoveDown(n int) {
	r.selectIndex(r.selected + n)
}

// GoToTop selects the first folder
func (r *ResultsPanel) GoToTop() {
	r.selectIndex(0)
}

// GoToBottom selects the last folder
func (r *ResultsPanel) GoToBottom() {
	r.selectIndex(len(r.paths) - 1)
}

// PageSize returns the number of visible rows
func (r ResultsPanel) PageSize() int {
	return max(1, r.vp.Height)
}

func (r *ResultsPanel) selectIndex(i int) {
	if len(r.paths) == 0 {
		r.selected = 0
		return
	}
	r.selected = min(max(i, 0), len(r.paths)-1)

	// Keep the selection visible
	if r.selected < r.vp.YOffset {
		r.vp.SetYOffset(r.selected)
	} else if r.selected >= r.vp.YOffset+r.vp.Height {
		r.vp.SetYOffset(r.selected - r.vp.Height + 1)
	}
	r.refresh()
}

// refresh re-renders the list into the viewport
func (r *ResultsPanel) refresh() {
	lines := make([]string, len(r.paths))
	for i, p := range r.paths {
		style := ListItemStyle
		if i == r.selected {
			style = ListItemSelected
		}
		lines[i] = style.Render(truncateLeft(p, r.vp.Width))
	}
	offset := r.vp.YOffset
	r.vp.SetContent(strings.Join(lines, "\n"))
	r.vp.SetYOffset(offset)
}

// View renders the panel
func (r ResultsPanel) View() string {
	content := r.vp.View()
	if len(r.paths) == 0 {
		content = lipgloss.NewStyle().Foreground(ColorMuted).Render("No missing folders yet")
	}
	return ListPanelStyle.
		Width(max(1, r.width-2)).
		Height(max(1, r.height-2)).
		Render(content)
}

// truncateLeft shortens s to width, keeping the end of the path visible
func truncateLeft(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[1:]
	}
	return "…" + string(runes)
}
