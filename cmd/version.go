package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/catalog"
)

func init() {
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Print the engine and Go version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Engine Version: "+catalog.EngineVersion)
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog Format: "+catalog.FormatVersion)
			fmt.Fprintln(cmd.OutOrStdout(), "Go Version: "+runtime.Version())
			return nil
		},
	}
	RootCommand.AddCommand(versionCommand)
}
