package main

import (
	"github.com/spf13/cobra"

	"github.com/n2rd/phaselink/internal/app"
)

func newSendCmd() *cobra.Command {
	var flags struct {
		config      string
		debug       bool
		direction   string
		azimuth     int
		stage       bool
		position    bool
		applyTarget bool
		power       bool
		stop        bool
	}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one command and print the reply",
		Long: `Perform a single command/reply round trip from the shell: steer,
query, or stop. With no action flags an interactive form asks what to send.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSend(app.SendOptions{
				Config:      flags.config,
				Debug:       flags.debug,
				Direction:   flags.direction,
				Azimuth:     flags.azimuth,
				Stage:       flags.stage,
				Position:    flags.position,
				ApplyTarget: flags.applyTarget,
				Power:       flags.power,
				Stop:        flags.stop,
			})
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "phaselink.yaml", "node configuration file")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "log frame hex dumps")
	cmd.Flags().StringVar(&flags.direction, "direction", "", "compass direction to steer to (e.g. NE)")
	cmd.Flags().IntVar(&flags.azimuth, "azimuth", -1, "azimuth in degrees to steer to")
	cmd.Flags().BoolVar(&flags.stage, "stage", false, "stage the direction instead of executing it")
	cmd.Flags().BoolVar(&flags.position, "position", false, "query position and telemetry")
	cmd.Flags().BoolVar(&flags.applyTarget, "apply", false, "apply the staged target, then report")
	cmd.Flags().BoolVar(&flags.power, "power", false, "query reverse power")
	cmd.Flags().BoolVar(&flags.stop, "stop", false, "send the stop command")
	return cmd
}
