package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumipallolabs/filegap/internal/config"
	"github.com/lumipallolabs/filegap/internal/report"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"github.com/spf13/cobra"
)

// scanFlags are shared by the scan and watch commands
type scanFlags struct {
	exclusions     string
	format         string
	json           bool
	quiet          bool
	color          string
	followSymlinks bool
	oneFileSystem  bool
	workers        int
}

func (f *scanFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.exclusions, "exclude", "x", "", "comma-separated folder terms to skip (e.g. \"node_modules,.git\")")
	flags.StringVar(&f.format, "format", "text", "output format: text or json")
	flags.BoolVar(&f.json, "json", false, "shorthand for --format json")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "only print missing folders")
	flags.StringVar(&f.color, "color", "", "colored output: auto, always or never")
	flags.BoolVar(&f.followSymlinks, "follow-symlinks", false, "descend into symlinked folders")
	flags.BoolVar(&f.oneFileSystem, "one-file-system", false, "skip folders on other filesystems")
	flags.IntVar(&f.workers, "workers", 0, "folders listed in parallel (default from config)")
}

// apply overrides config values with the flags that were set
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if f.color != "" {
		cfg.Color = f.color
	}
	if cmd.Flags().Changed("follow-symlinks") {
		cfg.FollowSymlinks = f.followSymlinks
	}
	if cmd.Flags().Changed("one-file-system") {
		cfg.OneFileSystem = f.oneFileSystem
	}
	return cfg.Validate()
}

// request builds the scan request for folder and target
func (f *scanFlags) request(cfg *config.Config, folder, target string) (scanner.Request, error) {
	req, err := scanner.NewRequest(folder, target, f.exclusions)
	if err != nil {
		return scanner.Request{}, err
	}
	return cfg.ApplyTo(req), nil
}

// printer creates the console printer for cmd
func (f *scanFlags) printer(cmd *cobra.Command, cfg *config.Config) (*report.Printer, error) {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	if f.json {
		format = report.FormatJSON
	}
	return report.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{
		Format: format,
		Color:  cfg.Color,
		Quiet:  f.quiet,
	}), nil
}

// NewScanCommand creates the scan subcommand
func NewScanCommand() *cobra.Command {
	var flags scanFlags
	var failOnMissing bool

	cmd := &cobra.Command{
		Use:   "scan <folder> <file>",
		Short: "List folders under <folder> that do not contain <file>",
		Long: `Scan every folder under <folder> and print the ones that do not contain
<file>. Missing folders go to stdout as they are found; progress and the
summary go to stderr.

Exit code: 0 when the scan completes, 1 on error, 2 when folders are
missing and --fail-on-missing is set`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, &flags, args[0], args[1], failOnMissing)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&failOnMissing, "fail-on-missing", false, "exit with status 2 when any folder is missing the file")
	return cmd
}

func runScan(cmd *cobra.Command, flags *scanFlags, folder, target string, failOnMissing bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	req, err := flags.request(cfg, folder, target)
	if err != nil {
		return err
	}
	p, err := flags.printer(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ctrl := newController(cfg)
	events, err := ctrl.StartScan(ctx, req)
	if err != nil {
		return err
	}

	sum, err := p.Consume(events)
	if err != nil {
		return err
	}

	if failOnMissing && len(sum.Missing) > 0 {
		return &ExitError{Code: 2}
	}
	return nil
}

// signalContext is cancelled on interrupt or termination
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
