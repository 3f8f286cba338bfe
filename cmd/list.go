package cmd

import (
	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/record"
)

var (
	listContinuation string
	listIDPattern    string
)

func init() {
	listCommand := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records in a resource's primary prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			docs, next, err := a.Engine.List(cmd.Context(), args[0], listContinuation, record.ListOptions{IDPattern: listIDPattern})
			if err != nil {
				return suggestOnNotFound(a, args[0], err)
			}
			return renderDocs(cmd, docs, next)
		},
	}
	listCommand.Flags().StringVar(&listContinuation, "continuation", "", "resume a previous page")
	listCommand.Flags().StringVar(&listIDPattern, "id-pattern", "", "glob pattern matched against each record id")
	RootCommand.AddCommand(listCommand)
}
