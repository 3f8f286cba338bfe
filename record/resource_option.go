package record

// ResourceOption customizes a Resource at creation time, layered on top of
// the catalog-persisted schema/behavior/partitions (spec's "Resource
// options").
type ResourceOption func(*Resource)

// WithIDGenerator overrides the default nanoid id generator for this
// resource. util.NewUUIDv4 is the other built-in choice.
func WithIDGenerator(gen func() (string, error)) ResourceOption {
	return func(r *Resource) { r.IDGenerator = gen }
}
