package schema

import "github.com/s3db-io/s3db/log"

// HookOp names the operation a hook fires around.
type HookOp string

const (
	HookInsert  HookOp = "insert"
	HookUpdate  HookOp = "update"
	HookPatch   HookOp = "patch"
	HookReplace HookOp = "replace"
	HookDelete  HookOp = "delete"
)

// HookFunc is the rehydrated, callable form of a hook. Hooks never receive
// raw eval access to source text; Register is the only controlled
// constructor.
type HookFunc func(record map[string]any) (map[string]any, error)

// HookSource is what the catalog stores verbatim for a hook: source text
// plus the operation it applies to. Source is opaque to this package; a
// caller-supplied Registry resolves it into a HookFunc.
type HookSource struct {
	Op     HookOp `json:"op"`
	Source string `json:"source"`
}

// Registry resolves hook source text into callable form. Callers supply
// their own (e.g. a small expression language, or a lookup table of
// pre-registered Go functions); this package never executes source text
// itself.
type Registry interface {
	Resolve(source string) (HookFunc, error)
}

// HookSet holds, per operation, the rehydrated hooks plus their original
// source (kept for re-serialisation into the catalog).
type HookSet struct {
	Sources []HookSource
	byOp    map[HookOp][]HookFunc
}

// Rehydrate resolves every HookSource through reg. A hook that fails to
// resolve downgrades to a no-op and is recorded as a diagnostic rather
// than failing the whole schema compile (spec.md §4.3).
func Rehydrate(sources []HookSource, reg Registry) *HookSet {
	hs := &HookSet{Sources: sources, byOp: map[HookOp][]HookFunc{}}
	for _, src := range sources {
		fn, err := reg.Resolve(src.Source)
		if err != nil {
			log.Global().WithField("op", src.Op).WithField("error", err).Warn("hook failed to rehydrate, downgraded to no-op")
			fn = func(r map[string]any) (map[string]any, error) { return r, nil }
		}
		hs.byOp[src.Op] = append(hs.byOp[src.Op], fn)
	}
	return hs
}

// Apply runs every hook registered for op, threading the record through
// each in order.
func (hs *HookSet) Apply(op HookOp, record map[string]any) (map[string]any, error) {
	if hs == nil {
		return record, nil
	}
	for _, fn := range hs.byOp[op] {
		out, err := fn(record)
		if err != nil {
			return record, err
		}
		record = out
	}
	return record, nil
}
