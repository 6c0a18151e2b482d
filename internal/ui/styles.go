package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colors - cyberpunk/neon palette
var (
	ColorPrimary = lipgloss.Color("#C084FC") // soft violet
	ColorSuccess = lipgloss.Color("#39FF14") // neon green
	ColorWarning = lipgloss.Color("#FBBF24") // amber
	ColorDanger  = lipgloss.Color("#FF5555") // red
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorDim     = lipgloss.Color("#9CA3AF")
	ColorBorder  = lipgloss.Color("#4A5568")
	ColorCyan    = lipgloss.Color("#00FFFF") // neon cyan
	ColorText    = lipgloss.Color("#E4E4E7")
)

// Styles
var (
	ListPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	ListItemSelected = lipgloss.NewStyle().
				Background(ColorPrimary).
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	FormLabelStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Width(12)

	FormLabelFocused = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true).
				Width(12)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Padding(0, 1)

	// Help overlay key style (no background for cleaner look)
	HelpOverlayKey = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Padding(0, 1)
)

// FormatElapsed formats a scan duration for display
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Truncate(time.Second).String()
	}
}
