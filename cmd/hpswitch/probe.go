package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hpswitch/internal/mixer"
	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/probe"
)

var probeOpts struct {
	format string
}

// ProbeResult is one direct reading of the mixer.
type ProbeResult struct {
	Policy    string `yaml:"presence_policy"`
	Present   bool   `yaml:"headphones_present"`
	Internal  bool   `yaml:"internal_active"`
	Headphone bool   `yaml:"headphone_active"`
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read the mixer state directly",
	Long: `Query the mixer once with the same commands and presence policy as
hpswitchd and print what it would see. Does not need the daemon.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVarP(&probeOpts.format, "format", "f", "text",
		"Output format: text, yaml")
}

func runProbe(cmd *cobra.Command, args []string) error {
	timeout := cfg.Mixer.CommandTimeout.Duration()
	gateway := mixer.NewGateway(timeout, logger)
	prober := probe.NewProber(gateway, mixer.NewCommands(cfg.Mixer), probe.PresencePolicy(cfg.Poll.PresencePolicy), logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*timeout)
	defer cancel()

	result, err := readMixer(ctx, prober)
	if err != nil {
		return err
	}

	switch probeOpts.format {
	case "text":
		fmt.Printf("Presence policy:    %s\n", result.Policy)
		fmt.Printf("Headphones present: %t\n", result.Present)
		fmt.Printf("Internal speakers:  %s\n", onOff(result.Internal))
		fmt.Printf("Headphone:          %s\n", onOff(result.Headphone))
		return nil
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(result)
	default:
		return fmt.Errorf("unknown format %q, must be one of: text, yaml", probeOpts.format)
	}
}

// routeProber is the part of probe.Prober used by readMixer.
type routeProber interface {
	Presence(ctx context.Context) (bool, error)
	ProbeRoute(ctx context.Context, route model.Route) (model.RouteState, error)
	Policy() probe.PresencePolicy
}

func readMixer(ctx context.Context, p routeProber) (ProbeResult, error) {
	result := ProbeResult{Policy: string(p.Policy())}

	present, err := p.Presence(ctx)
	if err != nil {
		return result, err
	}
	result.Present = present

	internal, err := p.ProbeRoute(ctx, model.RouteInternal)
	if err != nil {
		return result, err
	}
	result.Internal = internal.Active

	headphone, err := p.ProbeRoute(ctx, model.RouteHeadphone)
	if err != nil {
		return result, err
	}
	result.Headphone = headphone.Active

	return result, nil
}

func onOff(active bool) string {
	if active {
		return "on"
	}
	return "off"
}
