package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hpswitch/internal/dbus"
	"github.com/jmylchreest/hpswitch/internal/model"
)

var selectCmd = &cobra.Command{
	Use:   "select <internal|headphone>",
	Short: "Select the output route",
	Long: `Select the output route on the running hpswitchd, exactly as if the
menu entry had been clicked. Selecting the route that is already checked does
nothing. Fails if hpswitchd is not running or headphones are not present.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"internal", "headphone"},
	RunE:      runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	route, err := model.ParseRoute(args[0])
	if err != nil {
		return err
	}

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	if !client.Running() {
		return fmt.Errorf("hpswitchd is not running")
	}

	state, err := client.GetState()
	if err != nil {
		return err
	}
	if state.Checked(route) {
		logger.Debug("route already selected", "route", route)
		return nil
	}

	if err := client.Activate(route); err != nil {
		return err
	}
	logger.Debug("route selection requested", "route", route)
	return nil
}
