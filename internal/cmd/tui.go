package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lumipallolabs/filegap/internal/ui"
	"github.com/spf13/cobra"
)

// NewTUICommand creates the interactive tui subcommand
func NewTUICommand() *cobra.Command {
	var exclusions string
	var watch bool

	cmd := &cobra.Command{
		Use:   "tui [folder] [file]",
		Short: "Search interactively",
		Long: `Open the interactive interface. With both <folder> and <file> the scan
starts right away; otherwise a form asks for them.

Keys: r rescan, c cancel, e new search, ? help, q quit`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := ui.Options{
				Version:    Version,
				Exclusions: exclusions,
				Config:     cfg,
				Watch:      watch,
			}
			if len(args) > 0 {
				opts.Folder = args[0]
			}
			if len(args) > 1 {
				opts.Target = args[1]
			}

			p := tea.NewProgram(
				ui.NewApp(newController(cfg), opts),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&exclusions, "exclude", "x", "", "comma-separated folder terms to skip")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rescan when folders change")
	return cmd
}
