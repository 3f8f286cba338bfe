// Package behavior implements the closed sum type (C5) that decides how a
// record is split between S3 metadata and S3 body: Warn, EnforceLimit,
// Truncate, Overflow, BodyOnly. Grounded on the teacher's plugin
// Factory/Plugin dispatch-by-name pattern (plugins/plugins.go):
// behavior.ByName plays the role of the teacher's factory registry, and
// the five structs here play the role of named plugin implementations.
package behavior

import (
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/sizecalc"
)

// Envelope is the candidate write: short-keyed metadata entries, the
// record's optional binary body, and the reserved headers that always
// accompany it. Hooks mutate this in place.
type Envelope struct {
	Fields  map[string]string // short-key -> encoded value
	Headers map[string]string // reserved header key -> value
	Body    []byte
	MIME    string

	// TruncatePriority lists Fields keys in the order Truncate should
	// drop/shorten them (the record engine supplies string leaves in
	// flat-map order).
	TruncatePriority []string
}

// AllMetadata returns Fields merged with Headers, the view the byte
// calculator and the object-store Put call actually see.
func (e *Envelope) AllMetadata() map[string]string {
	out := make(map[string]string, len(e.Fields)+len(e.Headers))
	for k, v := range e.Fields {
		out[k] = v
	}
	for k, v := range e.Headers {
		out[k] = v
	}
	return out
}

// EventSink receives diagnostic events raised by a behavior's hooks
// (exceeds_limit, in particular). Implemented by the events package.
type EventSink interface {
	ExceedsLimit(size, budget int, context map[string]any)
}

// Behavior is the four-hook-point contract every variant implements. The
// core invokes PrepareWrite -> size check -> FinalizeWrite on every write,
// and PrepareRead -> (store fetch) -> MergeRead on every read.
type Behavior interface {
	Name() string

	// PrepareWrite may mutate env before the byte calculator measures it
	// (e.g. Truncate drops leaves here).
	PrepareWrite(env *Envelope, budget int) error

	// FinalizeWrite runs after the size check; EnforceLimit and Truncate
	// use it to assert the post-condition, Overflow/BodyOnly to fix up
	// final header state.
	FinalizeWrite(env *Envelope, budget int, sink EventSink, context map[string]any) error

	// PrepareRead decides whether the body must be fetched before decode.
	PrepareRead(headers map[string]string) (needsBody bool)

	// MergeRead reassembles body-overflow data into the short-keyed field
	// map, before the schema layer decodes it into attribute values (runs
	// strictly before C3 unmapping, per spec.md §2's control-flow note).
	MergeRead(fields map[string]string, headers map[string]string, body []byte) (map[string]string, error)
}

// ByName returns the built-in Behavior for a name (one of
// warn/enforce_limit/truncate/overflow/body_only).
func ByName(name string) (Behavior, error) {
	switch name {
	case "warn":
		return Warn{}, nil
	case "enforce_limit":
		return EnforceLimit{}, nil
	case "truncate":
		return Truncate{}, nil
	case "overflow":
		return Overflow{}, nil
	case "body_only":
		return BodyOnly{}, nil
	default:
		return nil, errs.InvalidArgumentErr("unknown behavior %q", name)
	}
}

func size(env *Envelope) int {
	return sizecalc.Calc(env.AllMetadata())
}
