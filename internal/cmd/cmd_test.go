package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/lumipallolabs/filegap/internal/config"
	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/lumipallolabs/filegap/internal/report"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout and stderr
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	// Never read the user's real config
	if !contains(args, "--config") {
		args = append(args, "--config", filepath.Join(t.TempDir(), "none.yaml"))
	}

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

// createTree creates folders with the given files under a temp dir
func createTree(t *testing.T, tree map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for sub, files := range tree {
		full := filepath.Join(dir, sub)
		require.NoError(t, os.MkdirAll(full, 0755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(full, f), nil, 0644))
		}
	}
	return dir
}

func TestScanCommand(t *testing.T) {
	dir := createTree(t, map[string][]string{
		".":            {"x.txt"},
		"A":            {"x.txt"},
		"B":            {"y.txt"},
		"build_cache":  nil,
		"node_modules": nil,
	})

	out, errOut, err := executeCommand(t, "scan", dir, "x.txt", "-x", "cache, modules", "--color", "never")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "B")+"\n", out)
	assert.Contains(t, errOut, "File missing in 1 folder(s)")
	assert.Contains(t, errOut, "5 folders enumerated, 2 excluded")
}

func TestScanCommandFailOnMissing(t *testing.T) {
	dir := createTree(t, map[string][]string{"A": nil})

	_, _, err := executeCommand(t, "scan", dir, "x.txt", "--fail-on-missing", "--quiet")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Nil(t, exitErr.Err)

	// Nothing missing, nothing to fail on
	dir = createTree(t, map[string][]string{".": {"x.txt"}})
	_, _, err = executeCommand(t, "scan", dir, "x.txt", "--fail-on-missing")
	assert.NoError(t, err)
}

func TestScanCommandJSON(t *testing.T) {
	dir := createTree(t, map[string][]string{".": {"x.txt"}, "A": nil})

	out, _, err := executeCommand(t, "scan", dir, "x", "--json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "completed", last["type"])
	assert.Equal(t, float64(1), last["missing_count"])
}

func TestScanCommandErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := executeCommand(t, "scan", filepath.Join(dir, "gone"), "x")
	assert.ErrorIs(t, err, scanner.ErrRootNotFound)

	_, _, err = executeCommand(t, "scan", dir, " ")
	assert.ErrorIs(t, err, scanner.ErrEmptyTarget)

	_, _, err = executeCommand(t, "scan", dir, "x", "--format", "xml")
	assert.Error(t, err)

	_, _, err = executeCommand(t, "scan", dir, "x", "--workers", "0")
	assert.Error(t, err)

	_, _, err = executeCommand(t, "scan", dir)
	assert.Error(t, err)
}

func TestScanCommandUsesConfigExclusions(t *testing.T) {
	dir := createTree(t, map[string][]string{".": {"x"}, "build": nil})

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Exclude = []string{"build"}
	require.NoError(t, cfg.Save(cfgPath))

	out, _, err := executeCommand(t, "scan", dir, "x", "--config", cfgPath)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "filegap "+Version+"\n", out)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filegap", "config.yaml")

	out, _, err := executeCommand(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, _, err = executeCommand(t, "config", "init", "--config", path)
	assert.Error(t, err)

	_, _, err = executeCommand(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)

	out, _, err = executeCommand(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 8")
}

func TestWatchLoopPrintsDiff(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data")
	src := scanner.NewMemorySource()
	fsys := src.Filesystem()
	require.NoError(t, fsys.MkdirAll(filepath.Join(root, "A"), 0755))
	require.NoError(t, util.WriteFile(fsys, filepath.Join(root, "x"), nil, 0644))

	ctrl := core.NewController(scanner.New(src, 1))
	events, err := ctrl.StartScan(context.Background(), scanner.Request{Root: root, Target: "x"})
	require.NoError(t, err)
	sum, err := report.Collect(events)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "A")}, sum.Missing)

	// A gains the file, B appears without it
	require.NoError(t, util.WriteFile(fsys, filepath.Join(root, "A", "x"), nil, 0644))
	require.NoError(t, fsys.MkdirAll(filepath.Join(root, "B"), 0755))

	changes := make(chan core.Event, 1)
	changes <- core.TreeChangedEvent{ScanID: uuid.New(), Paths: []string{filepath.Join(root, "A", "x")}}
	close(changes)

	var out, errOut bytes.Buffer
	p := report.New(&out, &errOut, report.Options{Color: config.ColorNever})
	require.NoError(t, watchLoop(context.Background(), ctrl, changes, p, sum.Missing))

	assert.Equal(t, "+ "+filepath.Join(root, "B")+"\n- "+filepath.Join(root, "A")+"\n", out.String())
}

func TestScanFlagsOverrideConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfgFollow  bool
		cfgOneFS   bool
		args       []string
		wantFollow bool
		wantOneFS  bool
	}{
		{"config kept when flags unset", true, true, nil, true, true},
		{"flags turn options off", true, true, []string{"--follow-symlinks=false", "--one-file-system=false"}, false, false},
		{"flags turn options on", false, false, []string{"--follow-symlinks", "--one-file-system"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags scanFlags
			cmd := &cobra.Command{Use: "scan"}
			flags.register(cmd)
			require.NoError(t, cmd.Flags().Parse(tt.args))

			cfg := config.DefaultConfig()
			cfg.FollowSymlinks = tt.cfgFollow
			cfg.OneFileSystem = tt.cfgOneFS
			require.NoError(t, flags.apply(cmd, cfg))

			req, err := flags.request(cfg, t.TempDir(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFollow, req.FollowSymlinks)
			assert.Equal(t, tt.wantOneFS, req.OneFileSystem)
		})
	}
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())

	boom := errors.New("boom")
	err := &ExitError{Code: 1, Err: boom}
	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, boom)
}
