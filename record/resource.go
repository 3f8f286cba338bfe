// Package record orchestrates C1-C6 into the record lifecycle (C7):
// insert, get, update, patch, replace, delete, list, query. Grounded on
// the teacher's storage/interface.go transaction-oriented contract
// (Read/Write/PatchOp), generalized from a single KV transaction into a
// multi-step pipeline across the object store, schema, behavior, and
// partition layers.
package record

import (
	"github.com/s3db-io/s3db/behavior"
	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/storage/partition"
)

// Resource is a compiled, immutable resource definition: everything
// createResource fixes once and never mutates again (spec.md §5). A new
// Resource value is built for every version; the Engine keeps the current
// one per name plus, by hash, every prior one still needed to decode old
// records.
type Resource struct {
	Name             string
	Compiled         *schema.Compiled
	Behavior         behavior.Behavior
	Partitions       []partition.Definition
	TimestampsEnabled bool
	ParanoidDelete    bool
	AsyncPartitions   bool
	IDGenerator       func() (string, error)
}

// TruncatePriority returns the short keys of the schema's string leaves in
// flat-map order (sorted by attribute name at each level, parents before
// children), the order behavior.Truncate shortens fields in. There is no
// separately declared truncation priority.
func (r *Resource) TruncatePriority() []string {
	priority := make([]string, 0, len(r.Compiled.FlatMap))
	for _, e := range r.Compiled.FlatMap {
		if codecTag(e.Attr.Type) != "string" {
			continue
		}
		key, ok := r.Compiled.ShortKeys.ToShort(e.Path)
		if ok {
			priority = append(priority, key)
		}
	}
	return priority
}
