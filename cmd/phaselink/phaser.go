package main

import (
	"github.com/spf13/cobra"

	"github.com/n2rd/phaselink/internal/app"
)

func newPhaserCmd() *cobra.Command {
	var flags struct {
		config       string
		debug        bool
		answerAnyone bool
	}

	cmd := &cobra.Command{
		Use:   "phaser",
		Short: "Run the field-side phaser daemon",
		Long: `Service the radio link as the field node: authenticate and decode
commands, switch the relay pattern, and answer with position or power
telemetry. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunPhaser(app.PhaserOptions{
				Config:       flags.config,
				Debug:        flags.debug,
				AnswerAnyone: flags.answerAnyone,
			})
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "phaselink.yaml", "node configuration file")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "log frame hex dumps")
	cmd.Flags().BoolVar(&flags.answerAnyone, "answer-anyone", false, "answer any link address, not just the configured controller")
	return cmd
}
