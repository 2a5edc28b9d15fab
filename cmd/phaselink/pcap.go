package main

import (
	"github.com/spf13/cobra"

	"github.com/n2rd/phaselink/internal/app"
)

func newPCAPCmd() *cobra.Command {
	var flags struct {
		port   int
		secret string
		config string
	}

	cmd := &cobra.Command{
		Use:   "pcap <capture.pcap>",
		Short: "Summarize phaser link traffic in a bench capture",
		Long: `Read a pcap of the UDP bench link and classify the datagrams:
commands, replies, acks, and frames that fail tag verification. The secret
comes from --secret, or from the config file when given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunPCAPSummary(app.PCAPOptions{
				File:   args[0],
				Port:   flags.port,
				Secret: flags.secret,
				Config: flags.config,
			})
		},
	}

	cmd.Flags().IntVar(&flags.port, "port", 0, "only count UDP packets on this port (0 = all)")
	cmd.Flags().StringVar(&flags.secret, "secret", "", "shared secret for tag verification")
	cmd.Flags().StringVar(&flags.config, "config", "", "config file to read the secret from")
	return cmd
}
