package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/record"
	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/storage/partition"
	"github.com/s3db-io/s3db/util"
)

var (
	createSchemaPath     string
	createBehavior       string
	createPartitionsPath string
	createTimestamps     bool
	createParanoid       bool
	createAsync          bool
	createIDGenerator    string
)

// idGeneratorByName resolves the --id-generator flag to a record id
// generator. "nanoid" is the engine default; omit the flag to get it.
func idGeneratorByName(name string) (func() (string, error), error) {
	switch name {
	case "", "nanoid":
		return util.NewNanoID, nil
	case "uuid":
		return util.NewUUIDv4, nil
	default:
		return nil, fmt.Errorf("unknown --id-generator %q (want nanoid or uuid)", name)
	}
}

func init() {
	createCommand := &cobra.Command{
		Use:   "create <resource>",
		Short: "Declare (or re-version) a resource",
		Long: "Compiles the attribute tree at --schema and the partition rules at " +
			"--partitions, then declares the resource in the catalog. Running this " +
			"again with a changed --schema allocates a new version; old records " +
			"remain decodable at their original version.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			rawSchema, err := os.ReadFile(createSchemaPath)
			if err != nil {
				return fmt.Errorf("reading --schema: %w", err)
			}
			var attrs map[string]*schema.Attribute
			if err := json.Unmarshal(rawSchema, &attrs); err != nil {
				return fmt.Errorf("parsing --schema: %w", err)
			}

			var defs []partition.Definition
			if createPartitionsPath != "" {
				rawDefs, err := os.ReadFile(createPartitionsPath)
				if err != nil {
					return fmt.Errorf("reading --partitions: %w", err)
				}
				if err := json.Unmarshal(rawDefs, &defs); err != nil {
					return fmt.Errorf("parsing --partitions: %w", err)
				}
			}

			gen, err := idGeneratorByName(createIDGenerator)
			if err != nil {
				return err
			}

			res, err := a.Engine.CreateResource(cmd.Context(), args[0], attrs, createBehavior, defs, createTimestamps, createParanoid, createAsync, record.WithIDGenerator(gen))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resource %q ready (%d partitions, behavior %s)\n", res.Name, len(res.Partitions), createBehavior)
			return nil
		},
	}
	createCommand.Flags().StringVar(&createSchemaPath, "schema", "", "path to a JSON attribute tree (required)")
	createCommand.Flags().StringVar(&createBehavior, "behavior", "warn", "warn, enforce_limit, truncate, overflow, or body_only")
	createCommand.Flags().StringVar(&createPartitionsPath, "partitions", "", "path to a JSON array of partition definitions")
	createCommand.Flags().BoolVar(&createTimestamps, "timestamps", false, "enable byCreatedDate/byUpdatedDate partitions")
	createCommand.Flags().BoolVar(&createParanoid, "paranoid", false, "enable soft-delete")
	createCommand.Flags().BoolVar(&createAsync, "async-partitions", false, "queue partition reference writes instead of writing them inline")
	createCommand.Flags().StringVar(&createIDGenerator, "id-generator", "nanoid", "nanoid or uuid")
	createCommand.MarkFlagRequired("schema")
	RootCommand.AddCommand(createCommand)
}
