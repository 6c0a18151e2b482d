package ui

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// infoSampleLimit caps how many files are sniffed per folder
	infoSampleLimit = 32
	infoDebounce    = 150 * time.Millisecond
)

// FolderInfo summarizes what a missing folder holds instead of the target
type FolderInfo struct {
	Path    string
	Files   int
	Dirs    int
	Types   []string // most common content types first
	ModTime time.Time
	Err     error
}

type (
	folderInfoMsg   struct{ info FolderInfo }
	infoDebounceMsg struct{ version int }
)

// loadFolderInfo reads path in the background
func loadFolderInfo(path string) tea.Cmd {
	return func() tea.Msg {
		return folderInfoMsg{info: inspectFolder(path)}
	}
}

// inspectFolder counts entries in path and sniffs the content type of up to
// infoSampleLimit files
func inspectFolder(path string) FolderInfo {
	info := FolderInfo{Path: path}

	if st, err := os.Stat(path); err == nil {
		info.ModTime = st.ModTime()
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		info.Err = err
		return info
	}

	counts := make(map[string]int)
	sampled := 0
	for _, e := range entries {
		if e.IsDir() {
			info.Dirs++
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		info.Files++
		if sampled >= infoSampleLimit {
			continue
		}
		sampled++

		mtype, err := mimetype.DetectFile(filepath.Join(path, e.Name()))
		if err != nil {
			continue
		}
		counts[typeLabel(mtype)]++
	}

	for t := range counts {
		info.Types = append(info.Types, t)
	}
	slices.SortFunc(info.Types, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return info
}

// typeLabel turns a detected MIME type into a short label
func typeLabel(m *mimetype.MIME) string {
	if ext := m.Extension(); ext != "" {
		return strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	if m.Is("text/plain") {
		return "TEXT"
	}
	return m.String()
}

// View renders the info as a one line bar
func (i FolderInfo) View(width int) string {
	if i.Path == "" {
		return ""
	}
	dimStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	valueStyle := lipgloss.NewStyle().Foreground(ColorText)
	sep := dimStyle.Render(" │ ")

	if i.Err != nil {
		return lipgloss.NewStyle().Foreground(ColorDanger).MaxWidth(width).Render(i.Err.Error())
	}

	parts := []string{
		valueStyle.Render(fmt.Sprintf("%d files", i.Files)),
		valueStyle.Render(fmt.Sprintf("%d folders", i.Dirs)),
	}
	if len(i.Types) > 0 {
		types := i.Types
		if len(types) > 4 {
			types = types[:4]
		}
		parts = append(parts, dimStyle.Render("Types: ")+valueStyle.Render(strings.Join(types, ", ")))
	}
	if !i.ModTime.IsZero() {
		parts = append(parts, dimStyle.Render("Modified: ")+valueStyle.Render(i.ModTime.Format("Jan 2, 2006 15:04")))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(" " + strings.Join(parts, sep))
}
