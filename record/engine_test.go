package record

import (
	"context"
	"strings"
	"testing"

	"github.com/s3db-io/s3db/catalog"
	"github.com/s3db-io/s3db/codec"
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/storage/memstore"
	"github.com/s3db-io/s3db/storage/partition"
	"github.com/s3db-io/s3db/util"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := memstore.New()
	bus := events.NewBus()
	cat := catalog.NewStore(store, "", bus)
	if err := cat.Init(context.Background()); err != nil {
		t.Fatalf("catalog init: %v", err)
	}
	return NewEngine(store, cat, codec.NewRegistry(), bus)
}

func userAttrs() map[string]*schema.Attribute {
	return map[string]*schema.Attribute{
		"name":  {Type: "string"},
		"email": {Type: "string", Required: true},
		"age":   {Type: "number"},
		"address": {Children: map[string]*schema.Attribute{
			"city":    {Type: "string"},
			"country": {Type: "string"},
		}},
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	got, err := e.Insert(ctx, "users", map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"age":   float64(30),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got["name"] != "Ada" || got["email"] != "ada@example.com" {
		t.Fatalf("unexpected record: %#v", got)
	}
	id, _ := got["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id, got %#v", got["id"])
	}

	meta, ok := got["_meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected _meta namespace, got %#v", got["_meta"])
	}
	if meta["definition_hash"] == "" {
		t.Fatalf("expected definition_hash in _meta")
	}

	fetched, err := e.Get(ctx, "users", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched["email"] != "ada@example.com" {
		t.Fatalf("Get returned stale record: %#v", fetched)
	}
}

func TestEnforceLimitRejectsOversizedEnvelope(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	attrs := map[string]*schema.Attribute{
		"blob": {Type: "string"},
	}
	if _, err := e.CreateResource(ctx, "blobs", attrs, "enforce_limit", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	huge := strings.Repeat("x", 4096)
	_, err := e.Insert(ctx, "blobs", map[string]any{"blob": huge})
	if err == nil {
		t.Fatalf("expected MetadataTooLarge error")
	}
	if !errs.Is(err, errs.MetadataTooLarge) {
		t.Fatalf("expected MetadataTooLarge, got %v", err)
	}
}

func TestOverflowBehaviorRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	attrs := map[string]*schema.Attribute{
		"title": {Type: "string"},
		"body":  {Type: "string"},
	}
	if _, err := e.CreateResource(ctx, "posts", attrs, "overflow", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	big := strings.Repeat("y", 4096)
	doc, err := e.Insert(ctx, "posts", map[string]any{"title": "hello", "body": big})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if doc["body"] != big {
		t.Fatalf("overflow body field lost on round trip")
	}
	meta := doc["_meta"].(map[string]any)
	if meta["_has_content"] != true {
		t.Fatalf("expected _has_content true for overflowed record")
	}
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	created, err := e.Insert(ctx, "users", map[string]any{
		"name":  "Grace",
		"email": "grace@example.com",
		"age":   float64(40),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := created["id"].(string)

	updated, err := e.Update(ctx, "users", id, map[string]any{"age": float64(41)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated["name"] != "Grace" || updated["email"] != "grace@example.com" {
		t.Fatalf("update dropped untouched sibling fields: %#v", updated)
	}
	if updated["age"] != float64(41) {
		t.Fatalf("update did not apply patched field: %#v", updated["age"])
	}
}

func TestPatchRejectsPartialNestedObject(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	created, err := e.Insert(ctx, "users", map[string]any{
		"name":  "Lin",
		"email": "lin@example.com",
		"address": map[string]any{
			"city":    "Austin",
			"country": "US",
		},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := created["id"].(string)

	_, err = e.Patch(ctx, "users", id, map[string]any{
		"address": map[string]any{"city": "Dallas"},
	})
	if err == nil {
		t.Fatalf("expected PartialObjectPatchRejected error")
	}
	if !errs.Is(err, errs.PartialObjectPatchRejected) {
		t.Fatalf("expected PartialObjectPatchRejected, got %v", err)
	}

	ok, err := e.Patch(ctx, "users", id, map[string]any{
		"address": map[string]any{"city": "Dallas", "country": "US"},
	})
	if err != nil {
		t.Fatalf("complete nested patch should succeed: %v", err)
	}
	addr := ok["address"].(map[string]any)
	if addr["city"] != "Dallas" {
		t.Fatalf("patch did not apply: %#v", ok["address"])
	}
}

func TestQueryExactMatchOnPartition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	defs := []partition.Definition{
		{Name: "byEmail", Fields: []partition.FieldRule{{Field: "email", Rule: "string"}}},
	}
	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", defs, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	if _, err := e.Insert(ctx, "users", map[string]any{"name": "A", "email": "shared@example.com"}); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if _, err := e.Insert(ctx, "users", map[string]any{"name": "B", "email": "other@example.com"}); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}

	results, _, err := e.Query(ctx, "users", "byEmail", map[string]any{"email": "shared@example.com"}, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0]["name"] != "A" {
		t.Fatalf("expected exactly the shared@example.com record, got %#v", results)
	}
}

func TestCreateResourceRejectsOrphanedPartitionField(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	defs := []partition.Definition{
		{Name: "byMissing", Fields: []partition.FieldRule{{Field: "doesNotExist", Rule: "string"}}},
	}
	_, err := e.CreateResource(ctx, "users", userAttrs(), "warn", defs, false, false, false)
	if err == nil {
		t.Fatalf("expected OrphanedPartitionBlocked error")
	}
	if !errs.Is(err, errs.OrphanedPartitionBlocked) {
		t.Fatalf("expected OrphanedPartitionBlocked, got %v", err)
	}
}

func TestWithIDGeneratorOverridesDefault(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false, WithIDGenerator(util.NewUUIDv4)); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	stored, err := e.Insert(ctx, "users", map[string]any{"name": "Ada", "email": "ada@example.com"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id, _ := stored["id"].(string)
	if len(strings.ReplaceAll(id, "-", "")) != 32 {
		t.Fatalf("expected a UUIDv4 id, got %q", id)
	}
	if id[14] != '4' {
		t.Fatalf("expected UUID version nibble 4, got %q", id)
	}
}

func TestListFiltersByIDGlobPattern(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	for _, id := range []string{"alpha-1", "alpha-2", "beta-1"} {
		doc := map[string]any{"id": id, "name": id, "email": id + "@example.com"}
		if _, err := e.Insert(ctx, "users", doc); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	docs, _, err := e.List(ctx, "users", "", ListOptions{IDPattern: "alpha-*"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 alpha-* records, got %d", len(docs))
	}
}

func TestDeleteRemovesPartitionReferences(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	defs := []partition.Definition{
		{Name: "byEmail", Fields: []partition.FieldRule{{Field: "email", Rule: "string"}}},
	}
	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", defs, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	created, err := e.Insert(ctx, "users", map[string]any{"name": "Del", "email": "del@example.com"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := created["id"].(string)

	if err := e.Delete(ctx, "users", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.Get(ctx, "users", id); !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}

	results, _, err := e.Query(ctx, "users", "byEmail", map[string]any{"email": "del@example.com"}, "")
	if err != nil {
		t.Fatalf("Query after delete: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected partition reference removed after delete, got %#v", results)
	}
}

func TestParanoidDeleteKeepsTombstone(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, true, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	created, err := e.Insert(ctx, "users", map[string]any{"name": "Paranoid", "email": "p@example.com"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := created["id"].(string)

	if err := e.Delete(ctx, "users", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	res, err := e.resource("users")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	tombKey := "deleted/" + partition.PrimaryKey("users", res.Compiled.DefinitionHash.String(), id)
	if _, err := e.Store.Head(ctx, tombKey); err != nil {
		t.Fatalf("expected tombstone at %s: %v", tombKey, err)
	}
}

func TestReplaceOverwritesWholeRecord(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	created, err := e.Insert(ctx, "users", map[string]any{"name": "Old", "email": "old@example.com", "age": float64(20)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := created["id"].(string)

	replaced, err := e.Replace(ctx, "users", id, map[string]any{"name": "New", "email": "new@example.com"})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if replaced["name"] != "New" || replaced["email"] != "new@example.com" {
		t.Fatalf("replace did not apply new fields: %#v", replaced)
	}
	if _, ok := replaced["age"]; ok {
		t.Fatalf("replace should not carry over fields absent from the new document, got age=%#v", replaced["age"])
	}
}

func TestSchemaVersionChangeIsDetected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v1, err := e.CreateResource(ctx, "users", userAttrs(), "warn", nil, false, false, false)
	if err != nil {
		t.Fatalf("CreateResource v1: %v", err)
	}

	attrsV2 := userAttrs()
	attrsV2["nickname"] = &schema.Attribute{Type: "string"}
	v2, err := e.CreateResource(ctx, "users", attrsV2, "warn", nil, false, false, false)
	if err != nil {
		t.Fatalf("CreateResource v2: %v", err)
	}
	if v1.Compiled.DefinitionHash.String() == v2.Compiled.DefinitionHash.String() {
		t.Fatalf("expected distinct definition hashes across schema versions")
	}

	doc, err := e.Insert(ctx, "users", map[string]any{"name": "V2", "email": "v2@example.com", "nickname": "vee"})
	if err != nil {
		t.Fatalf("Insert under v2: %v", err)
	}
	meta := doc["_meta"].(map[string]any)
	if meta["definition_hash"] != v2.Compiled.DefinitionHash.String() {
		t.Fatalf("expected record stamped with current version hash")
	}
}

func TestOrphanDetectionAfterSchemaDropsPartitionField(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	defs := []partition.Definition{
		{Name: "byEmail", Fields: []partition.FieldRule{{Field: "email", Rule: "string"}}},
	}
	if _, err := e.CreateResource(ctx, "users", userAttrs(), "warn", defs, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if _, err := e.Insert(ctx, "users", map[string]any{"name": "Orphan", "email": "orphan@example.com"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	orphans, err := e.FindOrphanedPartitions(ctx, "users")
	if err != nil {
		t.Fatalf("FindOrphanedPartitions: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected no orphans while the primary still exists, got %#v", orphans)
	}
}
