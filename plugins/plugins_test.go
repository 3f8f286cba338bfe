package plugins

import (
	"context"
	"testing"

	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/storage"
	"github.com/s3db-io/s3db/storage/memstore"
)

type fakePlugin struct {
	started bool
	stopped bool
}

func (p *fakePlugin) Start(context.Context) error { p.started = true; return nil }
func (p *fakePlugin) Stop(context.Context)         { p.stopped = true }
func (p *fakePlugin) Reconfigure(context.Context, interface{}) {}

func TestManagerStartStopLifecycle(t *testing.T) {
	m := New(memstore.New(), "test", events.NewBus())
	p := &fakePlugin{}
	m.Register("example", p)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.started {
		t.Fatalf("expected plugin to be started")
	}

	m.Stop(context.Background())
	if !p.stopped {
		t.Fatalf("expected plugin to be stopped")
	}
}

func TestPluginStatusListenersReceiveSnapshots(t *testing.T) {
	m := New(memstore.New(), "test", events.NewBus())
	m.Register("example", &fakePlugin{})

	var lastSnapshot map[string]*Status
	m.RegisterPluginStatusListener("watcher", func(status map[string]*Status) {
		lastSnapshot = status
	})

	m.UpdatePluginStatus("example", &Status{State: StateOK})
	if lastSnapshot == nil {
		t.Fatalf("expected listener to be notified")
	}
	if lastSnapshot["example"].State != StateOK {
		t.Fatalf("expected OK state, got %#v", lastSnapshot["example"])
	}
}

func TestNamespaceIsolatesKeysUnderPrefix(t *testing.T) {
	store := memstore.New()
	m := New(store, "test", events.NewBus())
	ns := m.Namespace("example")

	ctx := context.Background()
	if _, err := ns.Put(ctx, "state.json", storage.Metadata{"kind": "checkpoint"}, []byte(`{"n":1}`), "application/json"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	head, err := store.Head(ctx, "plg/example/state.json")
	if err != nil {
		t.Fatalf("expected backend key to live under plg/example/, got error: %v", err)
	}
	if head.Metadata["kind"] != "checkpoint" {
		t.Fatalf("unexpected metadata: %#v", head.Metadata)
	}

	if err := ns.UpdateMetadata(ctx, "state.json", map[string]string{"kind": "settled"}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	head, err = ns.Head(ctx, "state.json")
	if err != nil {
		t.Fatalf("Head after UpdateMetadata: %v", err)
	}
	if head.Metadata["kind"] != "settled" {
		t.Fatalf("expected updated metadata, got %#v", head.Metadata)
	}

	lr, err := ns.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lr.Keys) != 1 || lr.Keys[0] != "state.json" {
		t.Fatalf("expected List to return relative key, got %#v", lr.Keys)
	}
}
