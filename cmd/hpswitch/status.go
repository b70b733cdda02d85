package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hpswitch/internal/store"
)

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output the indicator state",
	Long: `Output the headphone switch indicator state.

The default format is Waybar's custom module JSON:

  "custom/hpswitch": {
    "exec": "hpswitch status",
    "interval": 2,
    "return-type": "json",
    "on-click": "hpswitch select internal",
    "on-click-right": "hpswitch select headphone"
  }

The output includes:
  - text: Label of the selected route (empty while headphones are absent)
  - alt: internal, headphone, none or absent
  - tooltip: Selected route and when it last changed
  - class: Same as alt, for CSS

Use --format json or --format yaml for the raw state.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "waybar",
		"Output format: waybar, json, yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	state, err := store.LoadSharedState()
	if err != nil {
		if statusOpts.format == "waybar" {
			return outputStatus(os.Stdout, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
		}
		return fmt.Errorf("failed to load state: %w", err)
	}

	switch statusOpts.format {
	case "waybar":
		return outputStatus(os.Stdout, generateStatus(state, time.Now()))
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(state)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(state)
	default:
		return fmt.Errorf("unknown format %q, must be one of: waybar, json, yaml", statusOpts.format)
	}
}

// generateStatus creates a WaybarStatus from the shared state.
func generateStatus(state *store.SharedState, now time.Time) WaybarStatus {
	alt := state.Alt()
	status := WaybarStatus{
		Alt:   alt,
		Class: alt,
	}

	switch alt {
	case "absent":
		status.Tooltip = "Headphones not present"
		return status
	case "none":
		status.Tooltip = "No output selected"
	default:
		route, _ := state.Selected()
		status.Text = route.Label()
		status.Tooltip = "Output: " + route.Label()
	}

	if updated := state.UpdatedTime(); !updated.IsZero() {
		status.Tooltip += "\nChanged " + humanize.RelTime(updated, now, "ago", "from now")
	}
	return status
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(status)
}
