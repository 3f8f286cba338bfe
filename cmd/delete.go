package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	deleteCommand := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record (soft-delete if the resource is paranoid)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Engine.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return suggestOnNotFound(a, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
	RootCommand.AddCommand(deleteCommand)
}
