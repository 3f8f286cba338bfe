package partition

import (
	"context"
	"strings"
	"testing"

	"github.com/s3db-io/s3db/storage"
	"github.com/s3db-io/s3db/storage/memstore"
)

func put(t *testing.T, store *memstore.Store, key string) {
	t.Helper()
	if _, err := store.Put(context.Background(), key, storage.Metadata{}, strings.NewReader("1"), "application/octet-stream"); err != nil {
		t.Fatalf("put %q: %v", key, err)
	}
}

func TestFindOrphanedFlagsKeysUnderDroppedPartition(t *testing.T) {
	store := memstore.New()
	put(t, store, PrimaryKey("users", "v1", "abc"))
	put(t, store, Prefix("users", "byRegion")+"id=abc")

	// byRegion is no longer declared; only byEmail is current.
	defs := []Definition{{Name: "byEmail", Fields: []FieldRule{{Field: "email", Rule: "string"}}}}

	orphans, err := FindOrphaned(context.Background(), store, "users", defs, 4,
		func(context.Context, string, string) (bool, error) { return true, nil },
		func(string, string) bool { return true },
	)
	if err != nil {
		t.Fatalf("FindOrphaned: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected exactly one orphan, got %#v", orphans)
	}
	if !strings.Contains(orphans[0].Reason, "byRegion no longer declared") {
		t.Fatalf("expected dropped-partition reason, got %q", orphans[0].Reason)
	}
}

func TestFindOrphanedSkipsPrimaryKeys(t *testing.T) {
	store := memstore.New()
	put(t, store, PrimaryKey("users", "v1", "abc"))

	orphans, err := FindOrphaned(context.Background(), store, "users", nil, 4,
		func(context.Context, string, string) (bool, error) { return true, nil },
		func(string, string) bool { return true },
	)
	if err != nil {
		t.Fatalf("FindOrphaned: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected primary keys to be ignored, got %#v", orphans)
	}
}
