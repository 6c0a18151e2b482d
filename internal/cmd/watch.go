package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumipallolabs/filegap/internal/core"
	"github.com/lumipallolabs/filegap/internal/logging"
	"github.com/lumipallolabs/filegap/internal/report"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch subcommand
func NewWatchCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "watch <folder> <file>",
		Short: "Scan, then rescan whenever folders change",
		Long: `Scan like "filegap scan", then keep watching <folder>. When folders or
files are created, deleted or renamed, rescan and print what changed:

  + /path   folder is now missing the file
  - /path   folder has the file again

Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, &flags, args[0], args[1])
		},
	}

	flags.register(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, flags *scanFlags, folder, target string) error {
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
	defer ctrl.Stop()

	events, err := ctrl.StartScan(ctx, req)
	if err != nil {
		return err
	}
	sum, err := p.Consume(events)
	if err != nil {
		return quietOnInterrupt(ctx, err)
	}

	changes, err := ctrl.StartWatching(ctx, req.Root, cfg.WatchDebounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", req.Root, err)
	}

	return watchLoop(ctx, ctrl, changes, p, sum.Missing)
}

// watchLoop rescans on every tree change and prints the difference
func watchLoop(ctx context.Context, ctrl *core.Controller, changes <-chan core.Event, p *report.Printer, missing []string) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-changes:
			if !ok {
				return nil
			}
			if tc, ok := e.(core.TreeChangedEvent); ok {
				logging.Debug.Printf("tree changed: %d path(s)", len(tc.Paths))
			}

			events, err := ctrl.Rescan(ctx)
			if err != nil {
				return quietOnInterrupt(ctx, err)
			}
			sum, err := report.Collect(events)
			if err != nil {
				return quietOnInterrupt(ctx, err)
			}

			p.Diff(core.DiffMissing(missing, sum.Missing))
			missing = sum.Missing
		}
	}
}

// quietOnInterrupt drops the error caused by the user stopping the program
func quietOnInterrupt(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, report.ErrCancelled) || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}
