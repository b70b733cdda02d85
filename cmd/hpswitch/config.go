package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective daemon configuration",
	Long: `Print the hpswitchd configuration as TOML, with defaults filled in for
everything the config file leaves out. Redirect the output to
~/.config/hpswitch/hpswitchd.toml to start from a complete file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
