package main

import (
	"github.com/spf13/cobra"

	"github.com/n2rd/phaselink/internal/app"
)

func newSelfTestCmd() *cobra.Command {
	var flags struct {
		profile string
		verbose bool
	}

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run both node roles over an in-memory loopback link",
		Long: `Exercise every command against an in-process phaser, including the
silent drop of a tampered frame. No radio hardware required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSelfTest(app.SelfTestOptions{
				Profile: flags.profile,
				Verbose: flags.verbose,
			})
		},
	}

	cmd.Flags().StringVar(&flags.profile, "profile", "full", "antenna profile (full or quadrant)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log state machine activity")
	return cmd
}
