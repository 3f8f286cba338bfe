package cmd

import "github.com/spf13/cobra"

func init() {
	getCommand := &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Fetch a single record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := a.Engine.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return suggestOnNotFound(a, args[0], err)
			}
			return printDoc(cmd, doc)
		},
	}
	RootCommand.AddCommand(getCommand)
}
