package station

import "github.com/spf13/cobra"

func NewStationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Station agent commands",
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
