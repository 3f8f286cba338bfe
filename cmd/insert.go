package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var insertData string

func init() {
	insertCommand := &cobra.Command{
		Use:   "insert <resource>",
		Short: "Insert a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			var doc map[string]any
			if err := json.Unmarshal([]byte(insertData), &doc); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}

			stored, err := a.Engine.Insert(cmd.Context(), args[0], doc)
			if err != nil {
				return suggestOnNotFound(a, args[0], err)
			}
			return printDoc(cmd, stored)
		},
	}
	insertCommand.Flags().StringVar(&insertData, "data", "", "record as a JSON object (required)")
	insertCommand.MarkFlagRequired("data")
	RootCommand.AddCommand(insertCommand)
}
