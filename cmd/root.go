package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	stationcmd "github.com/apotheka/dispense-station/cmd/station"
	systemcmd "github.com/apotheka/dispense-station/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "dispense-station",
	Short: "Kiosk-side agent for pharmacy automated-dispensing machines.",
	Long: `dispense-station runs on the kiosk next to an automated-dispensing machine.
It aggregates barcode scanner input, tracks the active dispense session against
the pharmacy backend, and exposes a small local API for the kiosk display.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(stationcmd.NewStationCommand())
}
