package partition

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s3db-io/s3db/storage"
)

// Orphan is a reference key that no longer corresponds to a live primary,
// or whose declared fields are no longer in the schema.
type Orphan struct {
	Key    string
	Reason string
}

// PrimaryChecker reports whether a primary id currently exists for
// resource, and FieldChecker reports whether field is still part of the
// resource's current schema; record/ wires both against the engine's
// catalog + store.
type PrimaryChecker func(ctx context.Context, resource, id string) (bool, error)
type FieldChecker func(resource, field string) bool

// FindOrphaned scans every reference under resource's namespace (bounded
// concurrency via errgroup) and classifies references whose primary is
// missing, whose partition was dropped from the current definitions, or
// whose declared partition fields are gone from the schema, as orphaned.
// This is a maintenance operation, never on the hot path (spec.md §4.6).
//
// A single pass lists the whole resource namespace rather than one scan
// per declared partition, so a reference left behind under a partition
// name that no longer appears in defs is still found: declared is a Trie
// of the live partition prefixes, and any scanned reference whose prefix
// misses the trie is reported rather than silently skipped.
func FindOrphaned(ctx context.Context, store storage.Store, resource string, defs []Definition, maxConcurrency int, primaryExists PrimaryChecker, fieldExists FieldChecker) ([]Orphan, error) {
	var allOrphans []Orphan
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	declared := NewTrie()
	for _, def := range defs {
		for _, fr := range def.Fields {
			if !fieldExists(resource, fr.Field) {
				mu.Lock()
				allOrphans = append(allOrphans, Orphan{Key: Prefix(resource, def.Name), Reason: "field " + fr.Field + " no longer in schema"})
				mu.Unlock()
			}
		}
		declared.Insert(Prefix(resource, def.Name))
	}

	keys, err := listAll(ctx, store, resourcePrefix(resource))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		key := key
		partitionName := extractPartitionName(key)
		if partitionName == "" {
			continue // primary object key, not a partition reference
		}
		if !declared.HasPrefix(Prefix(resource, partitionName)) {
			mu.Lock()
			allOrphans = append(allOrphans, Orphan{Key: key, Reason: "partition " + partitionName + " no longer declared"})
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			id := extractID(key)
			if id == "" {
				return nil
			}
			ok, err := primaryExists(ctx, resource, id)
			if err != nil {
				return err
			}
			if !ok {
				mu.Lock()
				allOrphans = append(allOrphans, Orphan{Key: key, Reason: "primary " + id + " missing"})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return allOrphans, nil
}

// RemoveOrphaned deletes every orphaned reference key.
func RemoveOrphaned(ctx context.Context, store storage.Store, orphans []Orphan) error {
	for _, o := range orphans {
		if err := store.Delete(ctx, o.Key); err != nil {
			return err
		}
	}
	return nil
}

func listAll(ctx context.Context, store storage.Store, prefix string) ([]string, error) {
	var keys []string
	continuation := ""
	for {
		res, err := store.List(ctx, prefix, continuation)
		if err != nil {
			return nil, err
		}
		keys = append(keys, res.Keys...)
		if res.NextContinuation == "" {
			break
		}
		continuation = res.NextContinuation
	}
	return keys, nil
}

func extractID(key string) string {
	const marker = "/id="
	idx := strings.LastIndex(key, marker)
	if idx < 0 {
		return ""
	}
	return key[idx+len(marker):]
}

func resourcePrefix(resource string) string {
	return "resource=" + resource + "/"
}

func extractPartitionName(key string) string {
	const marker = "/partition="
	idx := strings.Index(key, marker)
	if idx < 0 {
		return ""
	}
	rest := key[idx+len(marker):]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		return rest[:slash]
	}
	return rest
}
