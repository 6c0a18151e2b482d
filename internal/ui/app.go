// Package ui implements the interactive terminal interface using Bubbletea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/config"
	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/scanner"
)

// Screen identifies what fills the main area
type Screen int

const (
	ScreenForm Screen = iota
	ScreenResults
)

// Message types for Bubble Tea
type (
	scanStartMsg   struct{}
	spinnerTickMsg struct{}
)

// scanEventMsg carries a scan event and the channel it arrived on
type scanEventMsg struct {
	ch    <-chan core.Event
	event core.Event
}

// watchEventMsg carries a watcher event and the channel it arrived on
type watchEventMsg struct {
	ch    <-chan core.Event
	event core.Event
}

// Spinner frames - modern braille dots spinner
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTickInterval = 80 * time.Millisecond

// Options configures the application
type Options struct {
	Version    string
	Folder     string
	Target     string
	Exclusions string // comma-separated, as typed
	Config     *config.Config
	Watch      bool // rescan when the tree changes
}

// App is the main TUI application model
type App struct {
	// Core controller (business logic)
	ctrl *core.Controller
	opts Options

	// UI Components
	header   Header
	form     Form
	results  ResultsPanel
	progress progress.Model
	help     HelpOverlay
	helpBar  help.Model
	keys     KeyMap

	// UI state (TUI-specific)
	screen       Screen
	err          error
	status       string
	info         FolderInfo
	infoVersion  int
	lastMissing  []string
	hasCompleted bool

	// Event channels (for continuing to listen after each event)
	scanID        uuid.UUID
	scanEventCh   <-chan core.Event
	watchEventCh  <-chan core.Event
	watchedRoot   string
	pendingRescan bool

	// Dimensions
	width  int
	height int
}

// NewApp creates a new application instance
func NewApp(ctrl *core.Controller, opts Options) App {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}

	app := App{
		ctrl:    ctrl,
		opts:    opts,
		header:  NewHeader(opts.Version),
		form:    NewForm(opts.Folder, opts.Target, opts.Exclusions),
		results: NewResultsPanel(),
		progress: progress.New(
			progress.WithGradient(string(ColorCyan), string(ColorPrimary)),
			progress.WithoutPercentage(),
		),
		help:    NewHelpOverlay(opts.Version),
		helpBar: newHelpBar(),
		keys:    DefaultKeyMap(),
		screen:  ScreenForm,
	}

	if opts.Folder != "" && opts.Target != "" {
		app.screen = ScreenResults
	}
	return app
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	if a.screen == ScreenResults {
		return func() tea.Msg {
			return scanStartMsg{}
		}
	}
	return a.form.Focus()
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case scanStartMsg:
		return a.startScan()

	case scanEventMsg:
		return a.handleScanEvent(msg)

	case watchEventMsg:
		return a.handleWatchEvent(msg)

	case infoDebounceMsg:
		if msg.version == a.infoVersion {
			if path := a.results.Selected(); path != "" {
				return a, loadFolderInfo(path)
			}
		}
		return a, nil

	case folderInfoMsg:
		if msg.info.Path == a.results.Selected() {
			a.info = msg.info
		}
		return a, nil

	case spinnerTickMsg:
		if a.ctrl.State().IsScanning() {
			a.header.SetState(a.ctrl.State())
			return a, spinnerTick()
		}
		return a, nil
	}

	if a.screen == ScreenForm {
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	}
	return a, nil
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerTickInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startScan validates the form and begins scanning
func (a App) startScan() (tea.Model, tea.Cmd) {
	folder, target, exclusions := a.form.Values()
	req, err := scanner.NewRequest(folder, target, exclusions)
	if err == nil {
		req = a.opts.Config.ApplyTo(req)
		var ch <-chan core.Event
		ch, err = a.ctrl.StartScan(context.Background(), req)
		if err == nil {
			return a.beginScan(ch)
		}
	}

	logging.Debug.Printf("[TUI] scan not started: %v", err)
	a.form.SetError(err)
	a.screen = ScreenForm
	return a, a.form.Focus()
}

// rescan repeats the last scan
func (a App) rescan() (tea.Model, tea.Cmd) {
	ch, err := a.ctrl.Rescan(context.Background())
	if err != nil {
		if errors.Is(err, core.ErrScanInProgress) {
			a.pendingRescan = true
			return a, nil
		}
		a.err = err
		return a, nil
	}
	return a.beginScan(ch)
}

// beginScan resets the view for a new scan and starts listening
func (a App) beginScan(ch <-chan core.Event) (tea.Model, tea.Cmd) {
	if old := a.scanEventCh; old != nil {
		// Unblock the previous scan in case its events were never read
		go func() {
			for range old {
			}
		}()
	}

	a.scanEventCh = ch
	a.scanID = uuid.Nil
	a.screen = ScreenResults
	a.err = nil
	a.status = ""
	a.pendingRescan = false
	a.info = FolderInfo{}
	a.form.SetError(nil)
	a.results.Reset()
	a.header.SetState(a.ctrl.State())

	return a, tea.Batch(listenForScanEvents(ch), spinnerTick())
}

// listenForScanEvents creates a command that listens for scan events
func listenForScanEvents(ch <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil // Channel closed
		}
		return scanEventMsg{ch: ch, event: event}
	}
}

// listenForWatchEvents creates a command that listens for watcher events
func listenForWatchEvents(ch <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil // Channel closed
		}
		return watchEventMsg{ch: ch, event: event}
	}
}

// handleScanEvent processes scan events and continues listening
func (a App) handleScanEvent(msg scanEventMsg) (tea.Model, tea.Cmd) {
	// Events from a replaced channel are dropped without re-arming
	if msg.ch != a.scanEventCh {
		return a, nil
	}
	listen := listenForScanEvents(msg.ch)

	if e, ok := msg.event.(core.ScanStartedEvent); ok {
		a.scanID = e.ScanID
		a.header.SetSearch(e.Request.Root, e.Request.Target, e.Request.Exclusions)
		a.header.SetState(a.ctrl.State())
		return a, listen
	}
	if msg.event.ID() != a.scanID {
		logging.Debug.Printf("[TUI] ignoring event of stale scan %s", msg.event.ID())
		return a, listen
	}

	a.header.SetState(a.ctrl.State())

	switch e := msg.event.(type) {
	case core.ProgressEvent:
		return a, listen

	case core.FolderMissingEvent:
		a.results.Add(e.Path)
		if a.results.Len() == 1 {
			return a, tea.Batch(listen, loadFolderInfo(e.Path))
		}
		return a, listen

	case core.ScanCompletedEvent:
		a.status = a.completionStatus(e)
		a.lastMissing = e.Missing
		a.hasCompleted = true
		return a.afterScan()

	case core.ScanCancelledEvent:
		a.status = fmt.Sprintf("Cancelled after %d missing folder(s)", e.MissingCount)
		return a.afterScan()

	case core.ScanFailedEvent:
		a.err = e.Err
		return a.afterScan()
	}
	return a, listen
}

// completionStatus summarizes a finished scan, including what changed since
// the previous one
func (a App) completionStatus(e core.ScanCompletedEvent) string {
	state := a.ctrl.State()
	status := fmt.Sprintf("%d folders checked in %s", e.Total, FormatElapsed(state.Elapsed()))
	if e.Excluded > 0 || e.Unreadable > 0 {
		status += fmt.Sprintf(", %d excluded, %d unreadable", e.Excluded, e.Unreadable)
	}
	if a.hasCompleted {
		if d := core.DiffMissing(a.lastMissing, e.Missing); !d.Empty() {
			status += fmt.Sprintf(" (%d new, %d resolved)", len(d.Added), len(d.Resolved))
		}
	}
	return status
}

// afterScan starts the watcher or a queued rescan once a scan has ended
func (a App) afterScan() (tea.Model, tea.Cmd) {
	if a.pendingRescan {
		return a.rescan()
	}
	if !a.opts.Watch {
		return a, nil
	}

	root := a.ctrl.State().Request.Root
	if root == a.watchedRoot && a.watchEventCh != nil {
		return a, nil
	}
	ch, err := a.ctrl.StartWatching(context.Background(), root, a.opts.Config.WatchDebounce)
	if err != nil {
		logging.Debug.Printf("[TUI] watch %s: %v", root, err)
		a.status += " (not watching: " + err.Error() + ")"
		return a, nil
	}
	a.watchedRoot = root
	a.watchEventCh = ch
	return a, listenForWatchEvents(ch)
}

// handleWatchEvent rescans when the watched tree changed
func (a App) handleWatchEvent(msg watchEventMsg) (tea.Model, tea.Cmd) {
	if msg.ch != a.watchEventCh {
		return a, nil
	}
	listen := listenForWatchEvents(msg.ch)

	if _, ok := msg.event.(core.TreeChangedEvent); !ok {
		return a, listen
	}
	if a.ctrl.State().IsScanning() || a.screen != ScreenResults {
		a.pendingRescan = true
		return a, listen
	}

	model, cmd := a.rescan()
	return model, tea.Batch(listen, cmd)
}

// handleKey handles keyboard input
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay - any key closes it
	if a.help.IsVisible() {
		a.help.SetVisible(false)
		return a, nil
	}

	if msg.String() == "ctrl+c" {
		a.ctrl.Stop()
		return a, tea.Quit
	}

	if a.screen == ScreenForm {
		return a.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.ctrl.Stop()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.Toggle()
		return a, nil

	case key.Matches(msg, a.keys.Rescan):
		if !a.ctrl.State().IsScanning() {
			return a.rescan()
		}
		return a, nil

	case key.Matches(msg, a.keys.Cancel):
		a.ctrl.Cancel()
		return a, nil

	case key.Matches(msg, a.keys.Edit):
		if a.ctrl.State().IsScanning() {
			return a, nil
		}
		a.screen = ScreenForm
		return a, a.form.Focus()

	case key.Matches(msg, a.keys.Up):
		a.results.MoveUp(1)
	case key.Matches(msg, a.keys.Down):
		a.results.MoveDown(1)
	case key.Matches(msg, a.keys.PageUp):
		a.results.MoveUp(a.results.PageSize())
	case key.Matches(msg, a.keys.PageDown):
		a.results.MoveDown(a.results.PageSize())
	case key.Matches(msg, a.keys.Top):
		a.results.GoToTop()
	case key.Matches(msg, a.keys.Bottom):
		a.results.GoToBottom()
	default:
		return a, nil
	}
	return a, a.selectionChanged()
}

// handleFormKey handles keyboard input while the form is shown
func (a App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		if a.ctrl.State().HasRun() {
			a.screen = ScreenResults
			return a, nil
		}
		a.ctrl.Stop()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Submit):
		return a.startScan()

	case key.Matches(msg, a.keys.NextField):
		return a, a.form.Move(1)

	case key.Matches(msg, a.keys.PrevField):
		return a, a.form.Move(-1)
	}

	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	return a, cmd
}

// selectionChanged schedules loading info for the newly selected folder
func (a *App) selectionChanged() tea.Cmd {
	a.infoVersion++
	version := a.infoVersion
	return tea.Tick(infoDebounce, func(t time.Time) tea.Msg {
		return infoDebounceMsg{version: version}
	})
}

// updateLayout calculates component sizes
func (a *App) updateLayout() {
	headerHeight := 2
	statusHeight := 1
	infoHeight := 1
	helpBarHeight := 1

	panelHeight := a.height - headerHeight - statusHeight - infoHeight - helpBarHeight
	if panelHeight < 3 {
		panelHeight = 3
	}

	a.header.SetWidth(a.width)
	a.form.SetWidth(min(a.width, 80))
	a.results.SetSize(a.width, panelHeight)
	a.progress.Width = max(10, a.width/3)
	a.help.SetSize(a.width, a.height)
	a.helpBar.Width = a.width
}

// View implements tea.Model
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		if a.ctrl.State().IsScanning() {
			return "Scanning..."
		}
		return "Loading..."
	}

	if a.help.IsVisible() {
		return a.help.View()
	}

	var sections []string
	sections = append(sections, a.header.View())

	if a.screen == ScreenForm {
		body := lipgloss.Place(a.width, max(1, a.height-3), lipgloss.Center, lipgloss.Center, a.form.View())
		sections = append(sections, body, a.helpBar.View(formKeys{a.keys}))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, a.statusLine(), a.results.View(), a.info.View(a.width), a.helpBar.View(a.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// statusLine shows progress while scanning, then the outcome
func (a App) statusLine() string {
	if a.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", a.err))
	}

	state := a.ctrl.State()
	if state.IsScanning() {
		spinnerIdx := int(time.Now().UnixMilli()/spinnerTickInterval.Milliseconds()) % len(spinnerFrames)
		spin := lipgloss.NewStyle().Foreground(ColorCyan).Bold(true).Render(spinnerFrames[spinnerIdx])

		p := state.Progress
		text := lipgloss.NewStyle().Foreground(ColorCyan).Render(
			fmt.Sprintf("Scanning... %d/%d folders checked", p.Current, p.Total))
		return strings.Join([]string{" " + spin, a.progress.ViewAs(p.Percent() / 100), text}, " ")
	}

	return lipgloss.NewStyle().Foreground(ColorDim).Padding(0, 1).Render(a.status)
}

// Screen returns the active screen
func (a App) Screen() Screen {
	return a.screen
}

// Missing returns the folders listed so far
func (a App) Missing() []string {
	return a.results.Paths()
}
