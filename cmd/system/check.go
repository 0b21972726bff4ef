package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apotheka/dispense-station/config"
)

func NewCheckConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the station configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			fmt.Printf("machine_id:     %s\n", cfg.Station.MachineID)
			fmt.Printf("backend:        %s\n", cfg.Backend.BaseURL)
			fmt.Printf("push:           %s\n", cfg.Push.URL)
			fmt.Printf("scanner device: %s\n", orNone(cfg.Scanner.Device))
			fmt.Printf("redis:          %s\n", orNone(cfg.Redis.Addr))
			fmt.Printf("alerts:         %v\n", cfg.Alert.Enabled)
			fmt.Println("Configuration OK.")
			return nil
		},
	}

	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
