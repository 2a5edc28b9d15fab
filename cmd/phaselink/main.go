package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "phaselink",
		Short: "Remote antenna phaser control over a LoRa link",
		Long: `phaselink steers a field phased-array antenna from the shack over a
long-range radio link: the controller console and one-shot commands on this
side, the phaser daemon on the field side, plus bench tooling.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newControllerCmd())
	rootCmd.AddCommand(newPhaserCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newSelfTestCmd())
	rootCmd.AddCommand(newPCAPCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
