// Package events implements the engine's synchronous fan-out event bus.
// Grounded on the teacher's plugins.Manager pluginStatusListeners pattern
// (a map of subscriber callbacks invoked on every status change), adapted
// here to the five event kinds spec.md §6 requires.
package events

import "sync"

// Kind identifies an event type.
type Kind string

const (
	ResourceDefinitionsChanged Kind = "resource_definitions_changed"
	ExceedsLimit               Kind = "exceeds_limit"
	RecordWritten              Kind = "record_written"
	RecordDeleted               Kind = "record_deleted"
	PartitionReferenceError    Kind = "partition_reference_error"
)

// Event is the structured value passed to observers. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind Kind

	// ResourceDefinitionsChanged
	Diff any

	// ExceedsLimit
	Resource string
	ID       string
	Size     int
	Budget   int
	Context  map[string]any

	// RecordWritten
	Op      string
	Version string

	// RecordDeleted
	Mode string

	// PartitionReferenceError
	Partition string
	Cause     error
}

// Observer receives events. The bus never awaits observers: each is
// invoked synchronously but any blocking work an observer needs to do
// should hand off to its own goroutine/bounded channel (spec.md §9).
type Observer func(Event)

// Bus is the engine's process-wide event fan-out point.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers an observer for every event kind. Returns an
// unsubscribe function.
func (b *Bus) Subscribe(obs Observer) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, obs)
	idx := len(b.observers) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.observers) {
			b.observers[idx] = nil
		}
	}
}

// Publish fans e out to every live observer, synchronously, swallowing
// observer panics so one bad observer cannot break the write path.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	obs := make([]Observer, len(b.observers))
	copy(obs, b.observers)
	b.mu.RUnlock()

	for _, o := range obs {
		if o == nil {
			continue
		}
		func() {
			defer func() { recover() }()
			o(e)
		}()
	}
}

// ExceedsLimit satisfies behavior.EventSink, so a *Bus can be handed
// directly to the behavior layer without an adapter.
func (b *Bus) ExceedsLimit(size, budget int, context map[string]any) {
	b.Publish(Event{Kind: ExceedsLimit, Size: size, Budget: budget, Context: context})
}

// PartitionReferenceError satisfies partition.ErrorSink, so a *Bus can be
// handed directly to a partition.Pool without an adapter.
func (b *Bus) PartitionReferenceError(resource, id, partitionKey string, cause error) {
	b.Publish(Event{Kind: PartitionReferenceError, Resource: resource, ID: id, Partition: partitionKey, Cause: cause})
}
