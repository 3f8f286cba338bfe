package storage

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/s3db-io/s3db/storage")

// Traced wraps a Store so every capability call opens a span named after
// the operation, carrying the object key as an attribute. Wrap the
// concrete backend (memstore or diskstore) with this once at engine
// construction time rather than instrumenting each backend separately.
type Traced struct {
	Store
}

func NewTraced(s Store) *Traced { return &Traced{Store: s} }

func (t *Traced) span(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+op, trace.WithAttributes(attribute.String("s3db.key", key)))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *Traced) Put(ctx context.Context, key string, metadata Metadata, body io.Reader, contentType string) (string, error) {
	ctx, span := t.span(ctx, "put", key)
	etag, err := t.Store.Put(ctx, key, metadata, body, contentType)
	finish(span, err)
	return etag, err
}

func (t *Traced) Get(ctx context.Context, key string) (*Object, error) {
	ctx, span := t.span(ctx, "get", key)
	obj, err := t.Store.Get(ctx, key)
	finish(span, err)
	return obj, err
}

func (t *Traced) Head(ctx context.Context, key string) (*Head, error) {
	ctx, span := t.span(ctx, "head", key)
	h, err := t.Store.Head(ctx, key)
	finish(span, err)
	return h, err
}

func (t *Traced) Copy(ctx context.Context, src, dst string, newMetadata Metadata) error {
	ctx, span := t.span(ctx, "copy", src+" -> "+dst)
	err := t.Store.Copy(ctx, src, dst, newMetadata)
	finish(span, err)
	return err
}

func (t *Traced) Delete(ctx context.Context, key string) error {
	ctx, span := t.span(ctx, "delete", key)
	err := t.Store.Delete(ctx, key)
	finish(span, err)
	return err
}

func (t *Traced) List(ctx context.Context, prefix, continuation string) (*ListResult, error) {
	ctx, span := t.span(ctx, "list", prefix)
	r, err := t.Store.List(ctx, prefix, continuation)
	finish(span, err)
	return r, err
}
