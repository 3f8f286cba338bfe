// Package metrics exposes a small counter/timer/histogram surface behind
// one interface, backed by a caller-selected provider. Grounded on the
// teacher's metrics.New()/NewGlobalMetrics(name, config) provider-by-name
// pattern (metrics/metrics.go, internal/metrics/metrics.go), replacing its
// HTTP-registration surface with direct accessors since this core runs no
// HTTP server of its own.
package metrics

import "github.com/s3db-io/s3db/errs"

// Counter is a monotonically increasing value.
type Counter interface {
	Incr()
	Add(n uint64)
	Value() uint64
}

// Timer accumulates elapsed time across Start/Stop pairs.
type Timer interface {
	Start()
	Stop() int64
	Value() int64
}

// Histogram records a distribution of observed values.
type Histogram interface {
	Update(v int64)
}

// Metrics is the handle every engine component reaches for a named
// counter/timer/histogram through. Names are free-form dotted paths, e.g.
// "record.insert.count", "partition.async.retry".
type Metrics interface {
	Counter(name string) Counter
	Timer(name string) Timer
	Histogram(name string) Histogram

	// All returns every registered metric's current value, keyed by name,
	// for diagnostic dumps.
	All() map[string]any
}

// ByName returns the built-in Metrics provider for name: "prometheus",
// "go-metrics" (rcrowley/go-metrics), or "" for a no-op provider.
func ByName(name string) (Metrics, error) {
	switch name {
	case "":
		return newNoop(), nil
	case "prometheus":
		return newPrometheus(), nil
	case "go-metrics":
		return newGoMetrics(), nil
	default:
		return nil, errs.InvalidArgumentErr("unknown metrics provider %q", name)
	}
}
