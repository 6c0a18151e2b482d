package cmd

import (
	"fmt"

	"github.com/lumipallolabs/filegap/internal/config"
	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ExitError ends the program with Code. A nil Err exits without a message.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRootCommand creates and returns the root cobra command for filegap
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filegap",
		Short: "Find folders that are missing a file",
		Long: `FileGap walks every folder under a root and reports the folders that do
not contain a given file.

A folder counts as containing the file when it holds a file whose name
matches the target case-insensitively: the exact name, the name without
extension, or either as a substring. Folders whose name or path contains
an exclusion term are skipped.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default ~/.filegap/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "write debug output to "+logging.DefaultFile)

	// Add subcommands
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewTUICommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads the config file named by --config, falling back to the
// default path, and turns on debug logging when asked to
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	switch {
	case cfg.DebugLog != "":
		logging.Enable(cfg.DebugLog)
	case debug:
		logging.Enable(logging.DefaultFile)
	}
	logging.Debug.Printf("config loaded from %s", path)
	return cfg, nil
}

// newController builds a controller scanning the local filesystem
func newController(cfg *config.Config) *core.Controller {
	return core.NewController(scanner.New(scanner.NewWalker(cfg.Workers), cfg.Workers))
}
