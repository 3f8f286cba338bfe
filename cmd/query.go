package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryPartition    string
	queryValues       []string
	queryContinuation string
)

func init() {
	queryCommand := &cobra.Command{
		Use:   "query <resource>",
		Short: "List records under one partition's exact-match prefix",
		Long:  "Rebuilds the canonical partition key prefix from --partition and --value pairs and lists the primaries it resolves to. Not a secondary index: only exact matches on declared partition fields are accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			values := map[string]any{}
			for _, kv := range queryValues {
				field, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --value %q, expected field=value", kv)
				}
				values[field] = value
			}

			docs, next, err := a.Engine.Query(cmd.Context(), args[0], queryPartition, values, queryContinuation)
			if err != nil {
				return suggestOnNotFound(a, args[0], err)
			}
			return renderDocs(cmd, docs, next)
		},
	}
	queryCommand.Flags().StringVar(&queryPartition, "partition", "", "partition name (required)")
	queryCommand.Flags().StringArrayVar(&queryValues, "value", nil, "field=value pair, repeatable, one per partition field")
	queryCommand.Flags().StringVar(&queryContinuation, "continuation", "", "resume a previous page")
	queryCommand.MarkFlagRequired("partition")
	RootCommand.AddCommand(queryCommand)
}
