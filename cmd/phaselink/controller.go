package main

import (
	"github.com/spf13/cobra"

	"github.com/n2rd/phaselink/internal/app"
)

func newControllerCmd() *cobra.Command {
	var flags struct {
		config string
		debug  bool
	}

	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Run the interactive controller console",
		Long: `Open the shack-side console: a compass of the antenna's directions,
live telemetry, and single-key steering. Round trips are recorded and
summarized when the console exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunController(app.ControllerOptions{
				Config: flags.config,
				Debug:  flags.debug,
			})
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "phaselink.yaml", "node configuration file")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "log frame hex dumps")
	return cmd
}
