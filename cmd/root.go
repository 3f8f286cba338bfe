// Package cmd implements the reference CLI collaborator described in
// spec.md §6: list, query, insert, plus version and an interactive repl.
// Grounded on the teacher's cmd/commands.go RootCommand aggregator, one
// file per subcommand, each registering itself via init().
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s3db-io/s3db/catalog"
	"github.com/s3db-io/s3db/cmd/internal/env"
	"github.com/s3db-io/s3db/codec"
	"github.com/s3db-io/s3db/connstr"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/log"
	"github.com/s3db-io/s3db/metrics"
	"github.com/s3db-io/s3db/record"
	"github.com/s3db-io/s3db/storage"
	"github.com/s3db-io/s3db/storage/diskstore"
	"github.com/s3db-io/s3db/storage/memstore"
)

// RootCommand is the base CLI command every subcommand attaches itself to
// from its own init().
var RootCommand = &cobra.Command{
	Use:   "s3db",
	Short: "s3db storage core CLI",
	Long:  "A reference CLI over the s3db storage core: list, query and insert records against an S3-compatible object store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return env.CmdFlags.CheckEnvironmentVariables(cmd)
	},
}

var (
	connFlag       string
	dirFlag        string
	catalogFlag    string
	metricsFlag    string
	jsonOutputFlag bool
)

func init() {
	RootCommand.PersistentFlags().StringVar(&connFlag, "conn", "memory://local", "connection descriptor (s3://, http(s)://, memory://)")
	RootCommand.PersistentFlags().StringVar(&dirFlag, "dir", "", "use a disk-backed store rooted at this directory instead of --conn")
	RootCommand.PersistentFlags().StringVar(&catalogFlag, "catalog", catalog.DefaultPath, "catalog document key")
	RootCommand.PersistentFlags().StringVar(&metricsFlag, "metrics", "", "metrics provider: prometheus, go-metrics, or empty for none")
	RootCommand.PersistentFlags().BoolVar(&jsonOutputFlag, "json", false, "print command output as JSON instead of a table")
}

// app bundles everything a subcommand needs: a live engine plus the
// metrics provider it was wired with.
type app struct {
	Engine  *record.Engine
	Metrics metrics.Metrics
}

// connect builds the object-store capability from --dir or --conn, opens
// the catalog, and loads every compiled resource. Every subcommand calls
// this once at the top of its RunE.
func connect(ctx context.Context) (*app, error) {
	var store storage.Store

	if dirFlag != "" {
		disk, err := diskstore.Open(dirFlag)
		if err != nil {
			return nil, fmt.Errorf("opening disk store at %q: %w", dirFlag, err)
		}
		store = disk
	} else {
		desc, err := connstr.Parse(connFlag)
		if err != nil {
			return nil, fmt.Errorf("parsing --conn: %w", err)
		}
		switch desc.Scheme {
		case "memory":
			store = memstore.New()
		default:
			return nil, fmt.Errorf("scheme %q has no object-store transport wired into this CLI; pass --dir for a disk-backed store, or embed the engine with your own storage.Store", desc.Scheme)
		}
	}
	store = storage.NewTraced(store)

	m, err := metrics.ByName(metricsFlag)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		switch e.Kind {
		case events.ExceedsLimit:
			log.Warnf("resource %s record %s exceeds metadata budget: %d > %d", e.Resource, e.ID, e.Size, e.Budget)
		case events.PartitionReferenceError:
			log.Warnf("resource %s record %s partition %s write failed: %v", e.Resource, e.ID, e.Partition, e.Cause)
		case events.ResourceDefinitionsChanged:
			log.Infof("resource definitions changed: %v", e.Diff)
		}
	})

	catStore := catalog.NewStore(store, catalogFlag, bus)
	if err := catStore.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing catalog: %w", err)
	}

	codecs := codec.NewRegistry()
	if key := os.Getenv("S3DB_SECRET_KEY"); key != "" {
		codecs = codecs.WithSecretKey(codec.SecretKey(key))
	}

	eng := record.NewEngine(store, catStore, codecs, bus)
	if err := eng.LoadCatalog(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	return &app{Engine: eng, Metrics: m}, nil
}

// resourceNames returns every resource currently declared in the catalog,
// used both for repl tab-completion-style suggestions and error messages.
func (a *app) resourceNames() []string {
	doc := a.Engine.Catalog.Doc()
	names := make([]string, 0, len(doc.Resources))
	for name := range doc.Resources {
		names = append(names, name)
	}
	return names
}
