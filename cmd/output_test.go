package cmd

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/s3db-io/s3db/catalog"
	"github.com/s3db-io/s3db/codec"
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/record"
	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/storage/memstore"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	store := memstore.New()
	bus := events.NewBus()
	cat := catalog.NewStore(store, "", bus)
	if err := cat.Init(context.Background()); err != nil {
		t.Fatalf("catalog init: %v", err)
	}
	eng := record.NewEngine(store, cat, codec.NewRegistry(), bus)
	attrs := map[string]*schema.Attribute{
		"name":   {Type: "string"},
		"region": {Type: "string", MaxLength: 2},
	}
	if _, err := eng.CreateResource(context.Background(), "users", attrs, "warn", nil, false, false, false); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	return &app{Engine: eng}
}

func TestColumnUnionOrdersIDFirstThenSortedKeys(t *testing.T) {
	docs := []map[string]any{
		{"name": "Alice", "region": "US"},
		{"email": "a@x", "name": "Bob"},
	}
	got := columnUnion(docs)
	want := []string{"id", "email", "name", "region"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("columnUnion = %v, want %v", got, want)
	}
}

func TestColumnUnionEmpty(t *testing.T) {
	if got := columnUnion(nil); !reflect.DeepEqual(got, []string{"id"}) {
		t.Fatalf("columnUnion(nil) = %v, want [id]", got)
	}
}

func TestSuggestOnNotFoundOffersClosestResourceName(t *testing.T) {
	a := newTestApp(t)
	err := errs.NotFoundErr("resource", "usres")
	got := suggestOnNotFound(a, "usres", err)
	if got == nil {
		t.Fatal("expected a non-nil error")
	}
	if !strings.Contains(got.Error(), `did you mean "users"`) {
		t.Fatalf("expected suggestion for %q, got %q", "users", got.Error())
	}
}

func TestSuggestOnNotFoundLeavesOtherErrorsAlone(t *testing.T) {
	a := newTestApp(t)
	original := errs.InvalidArgumentErr("bad request")
	got := suggestOnNotFound(a, "users", original)
	if got != original {
		t.Fatalf("expected non-NotFound error to pass through unchanged")
	}
}
