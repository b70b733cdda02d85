package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hpswitch/internal/dbus"
	"github.com/jmylchreest/hpswitch/internal/store"
	"github.com/jmylchreest/hpswitch/internal/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Launch the interactive route menu",
	Long: `Launch the terminal version of the indicator menu.

The menu mirrors the daemon's indicator: the checked route is shown with a
tick and cannot be picked again. It refreshes whenever the daemon changes
state.`,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	statePath, err := store.StateFilePath()
	if err != nil {
		return fmt.Errorf("failed to get state path: %w", err)
	}

	opts := tui.RunOptions{StatePath: statePath}

	client, err := dbus.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else {
		opts.Activator = client
	}

	return tui.Run(opts)
}
