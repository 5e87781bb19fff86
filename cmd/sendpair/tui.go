package main

import (
	"github.com/spf13/cobra"

	"github.com/muurk/sendpair/internal/tui"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Edit settings interactively",
	Long: `Open the interactive settings editor.

Use the arrow keys to move, enter to change a field and 'd' to browse known
devices. Changes are saved as soon as they are made.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, a.settings, a.devices)
}
