package partition

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/log"
	"github.com/s3db-io/s3db/storage"
	"github.com/s3db-io/s3db/util"
)

// Op is one queued partition reference mutation.
type Op struct {
	Key    string
	Delete bool
	Meta   storage.Metadata
}

// ErrorSink receives a partition_reference_error event when a reference
// write exhausts its retries. *events.Bus satisfies it directly; record/
// hands the engine's bus to the pool.
type ErrorSink interface {
	PartitionReferenceError(resource, id, partitionKey string, cause error)
}

// Pool is the bounded-concurrency worker pool that backs async_partitions.
// Grounded on spec.md §9's "bounded-concurrency worker pool fed a channel
// of (key, op) items" guidance; golang.org/x/sync/semaphore caps in-flight
// object-store calls and golang.org/x/time/rate exposes caller-configured
// back-pressure (spec.md §5).
type Pool struct {
	store      storage.Store
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	maxRetries int
}

// NewPool builds a Pool capping in-flight operations at maxConcurrency and
// operations-per-second at opsPerSecond (0 disables rate limiting).
func NewPool(store storage.Store, maxConcurrency int64, opsPerSecond float64, maxRetries int) *Pool {
	var limiter *rate.Limiter
	if opsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opsPerSecond), int(opsPerSecond))
	}
	return &Pool{
		store:      store,
		sem:        semaphore.NewWeighted(maxConcurrency),
		limiter:    limiter,
		maxRetries: maxRetries,
	}
}

// Apply runs every op, retrying each with exponential backoff up to
// maxRetries. On ctx cancellation in-flight ops are allowed to finish;
// queued-but-not-started ops are abandoned. Failures are reported through
// sink rather than returned, matching async_partitions' "surface as event"
// contract (spec.md §4.7); in synchronous mode the caller should instead
// use ApplySync.
func (p *Pool) Apply(ctx context.Context, resource, id string, ops []Op, sink ErrorSink) {
	for _, op := range ops {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(op Op) {
			defer p.sem.Release(1)
			if err := p.runWithRetry(ctx, op); err != nil {
				log.Global().WithField("resource", resource).WithField("id", id).
					WithField("key", op.Key).WithField("error", err).
					Warn("partition reference operation failed after retries")
				if sink != nil {
					sink.PartitionReferenceError(resource, id, op.Key, err)
				}
			}
		}(op)
	}
}

// ApplySync runs every op sequentially (still retried), returning the
// first unrecoverable error. Used when async_partitions=false so failures
// propagate to the caller per spec.md §4.7.
func (p *Pool) ApplySync(ctx context.Context, resource, id string, ops []Op) error {
	for _, op := range ops {
		if err := p.runWithRetry(ctx, op); err != nil {
			return errs.Wrap(errs.Internal, err, "partition reference operation on %s failed", op.Key)
		}
	}
	return nil
}

func (p *Pool) runWithRetry(ctx context.Context, op Op) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		if op.Delete {
			err = p.store.Delete(ctx, op.Key)
		} else {
			_, err = p.store.Put(ctx, op.Key, op.Meta, nil, "")
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timerC(util.DefaultBackoff(50, 2000, attempt)):
			}
		}
	}
	return lastErr
}

func timerC(d time.Duration) <-chan time.Time {
	return time.After(d)
}
