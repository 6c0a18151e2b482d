package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var root = filepath.Join(string(filepath.Separator), "data")

func newController(t *testing.T, tree map[string][]string) *core.Controller {
	t.Helper()
	src := scanner.NewMemorySource()
	fsys := src.Filesystem()
	require.NoError(t, fsys.MkdirAll(root, 0755))
	for dir, files := range tree {
		full := filepath.Join(root, dir)
		require.NoError(t, fsys.MkdirAll(full, 0755))
		for _, f := range files {
			require.NoError(t, util.WriteFile(fsys, filepath.Join(full, f), nil, 0644))
		}
	}
	return core.NewController(scanner.New(src, 1))
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	require.True(t, ok)
	return app, cmd
}

// runScan feeds every event of the active scan back into the app
func runScan(t *testing.T, a App) App {
	t.Helper()
	ch := a.scanEventCh
	require.NotNil(t, ch)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return a
			}
			a, _ = update(t, a, scanEventMsg{ch: ch, event: e})
		case <-timeout:
			t.Fatal("timed out waiting for scan events")
			return a
		}
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestAppStartsScanFromOptions(t *testing.T) {
	ctrl := newController(t, map[string][]string{
		".": {"x.txt"},
		"A": {"x.txt"},
		"B": nil,
	})
	app := NewApp(ctrl, Options{Version: "test", Folder: root, Target: "x.txt"})
	assert.Equal(t, ScreenResults, app.Screen())

	cmd := app.Init()
	require.NotNil(t, cmd)
	_, ok := cmd().(scanStartMsg)
	require.True(t, ok)

	app, _ = update(t, app, tea.WindowSizeMsg{Width: 100, Height: 30})
	app, _ = update(t, app, scanStartMsg{})
	app = runScan(t, app)

	assert.Equal(t, []string{filepath.Join(root, "B")}, app.Missing())
	assert.Equal(t, core.PhaseComplete, ctrl.State().Phase)
	assert.Contains(t, app.status, "3 folders checked")
	assert.Contains(t, app.View(), "Missing in 1 folder(s)")
}

func TestAppFormValidation(t *testing.T) {
	ctrl := newController(t, nil)
	app := NewApp(ctrl, Options{Folder: root})
	assert.Equal(t, ScreenForm, app.Screen())
	assert.Equal(t, fieldTarget, app.form.Focused())

	// Target is still empty
	app, _ = update(t, app, keyMsg("enter"))
	assert.Equal(t, ScreenForm, app.Screen())
	assert.ErrorIs(t, app.form.err, scanner.ErrEmptyTarget)

	for _, r := range "x.txt" {
		app, _ = update(t, app, keyMsg(string(r)))
	}
	app, _ = update(t, app, keyMsg("enter"))
	assert.Equal(t, ScreenResults, app.Screen())
	assert.Nil(t, app.form.err)

	app = runScan(t, app)
	assert.Equal(t, []string{root}, app.Missing())
}

func TestAppFormRejectsMissingFolder(t *testing.T) {
	app := NewApp(newController(t, nil), Options{Folder: filepath.Join(root, "nope"), Target: "x"})
	app, _ = update(t, app, scanStartMsg{})

	assert.Equal(t, ScreenForm, app.Screen())
	assert.ErrorIs(t, app.form.err, scanner.ErrRootNotFound)
}

func TestAppIgnoresStaleEvents(t *testing.T) {
	app := NewApp(newController(t, map[string][]string{"A": nil}), Options{Folder: root, Target: "x"})
	app, _ = update(t, app, scanStartMsg{})
	current := app.scanEventCh

	// A channel the app is no longer listening to
	stale := make(chan core.Event, 1)
	app, cmd := update(t, app, scanEventMsg{ch: stale, event: core.FolderMissingEvent{ScanID: uuid.New(), Path: "/old"}})
	assert.Nil(t, cmd)
	assert.Empty(t, app.Missing())

	app = runScan(t, app)
	assert.Equal(t, current, app.scanEventCh)

	// An event with a foreign ScanID on the live channel is dropped too
	app, _ = update(t, app, scanEventMsg{ch: current, event: core.FolderMissingEvent{ScanID: uuid.New(), Path: "/other"}})
	assert.NotContains(t, app.Missing(), "/other")
}

func TestAppRescanShowsChanges(t *testing.T) {
	ctrl := newController(t, map[string][]string{".": {"x"}, "A": nil})
	app := NewApp(ctrl, Options{Folder: root, Target: "x"})
	app, _ = update(t, app, scanStartMsg{})
	app = runScan(t, app)
	first := ctrl.State().ID

	app, _ = update(t, app, keyMsg("r"))
	app = runScan(t, app)

	assert.NotEqual(t, first, ctrl.State().ID)
	assert.Equal(t, []string{filepath.Join(root, "A")}, app.Missing())
	assert.NotContains(t, app.status, "new")
}

func TestAppKeys(t *testing.T) {
	ctrl := newController(t, map[string][]string{"A": nil, "B": nil})
	app := NewApp(ctrl, Options{Folder: root, Target: "x"})
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 80, Height: 20})
	app, _ = update(t, app, scanStartMsg{})
	app = runScan(t, app)
	require.Len(t, app.Missing(), 3)

	app, cmd := update(t, app, keyMsg("j"))
	assert.NotNil(t, cmd)
	assert.Equal(t, filepath.Join(root, "A"), app.results.Selected())

	app, _ = update(t, app, keyMsg("G"))
	assert.Equal(t, filepath.Join(root, "B"), app.results.Selected())

	app, _ = update(t, app, keyMsg("?"))
	assert.True(t, app.help.IsVisible())
	app, _ = update(t, app, keyMsg("x"))
	assert.False(t, app.help.IsVisible())

	// Cancel with nothing running is harmless
	app, _ = update(t, app, keyMsg("c"))

	app, _ = update(t, app, keyMsg("e"))
	assert.Equal(t, ScreenForm, app.Screen())
	app, _ = update(t, app, keyMsg("esc"))
	assert.Equal(t, ScreenResults, app.Screen())

	_, cmd = update(t, app, keyMsg("q"))
	assert.True(t, isQuit(cmd))
}

func TestAppFolderInfoFollowsSelection(t *testing.T) {
	app := NewApp(newController(t, map[string][]string{"A": nil}), Options{Folder: root, Target: "x"})
	app, _ = update(t, app, scanStartMsg{})
	app = runScan(t, app)

	info := FolderInfo{Path: app.results.Selected(), Files: 2}
	app, _ = update(t, app, folderInfoMsg{info: info})
	assert.Equal(t, 2, app.info.Files)

	// Info for a folder that is no longer selected is dropped
	app, _ = update(t, app, folderInfoMsg{info: FolderInfo{Path: "/elsewhere", Files: 9}})
	assert.Equal(t, 2, app.info.Files)
}

func TestInspectFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("more text\n"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	info := inspectFolder(dir)
	require.NoError(t, info.Err)
	assert.Equal(t, 2, info.Files)
	assert.Equal(t, 1, info.Dirs)
	assert.Equal(t, []string{"TXT"}, info.Types)
	assert.Contains(t, info.View(120), "2 files")

	missing := inspectFolder(filepath.Join(dir, "gone"))
	assert.Error(t, missing.Err)
}

func TestTruncateLeft(t *testing.T) {
	assert.Equal(t, "/short", truncateLeft("/short", 20))
	assert.Equal(t, "…/c/d", truncateLeft("/a/b/c/d", 5))
}
