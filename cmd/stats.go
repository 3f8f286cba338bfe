package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	statsCommand := &cobra.Command{
		Use:   "stats",
		Short: "Dump the current metrics provider's counters/timers/histograms",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(a.Metrics.All(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	RootCommand.AddCommand(statsCommand)
}
