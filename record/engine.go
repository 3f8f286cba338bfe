package record

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/s3db-io/s3db/behavior"
	"github.com/s3db-io/s3db/catalog"
	"github.com/s3db-io/s3db/codec"
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/internal/deepcopy"
	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/sizecalc"
	"github.com/s3db-io/s3db/storage"
	"github.com/s3db-io/s3db/storage/partition"
	"github.com/s3db-io/s3db/util"
)

// reservedHeaderKeys are the object-metadata keys the engine owns; they
// never appear as short-keyed schema fields, and Get strips them out of
// the fields view handed to the schema decoder (spec.md §6).
var reservedHeaderKeys = map[string]bool{
	"schema-hash": true,
	"behavior":    true,
	"overflow":    true,
	"truncated":   true,
	"created-at":  true,
	"updated-at":  true,
	"deleted-at":  true,
	"mime":        true,
}

func stripReserved(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if reservedHeaderKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// Engine orchestrates C1-C6 into the record lifecycle (C7):
// insert/get/update/patch/replace/delete/list/query. One Engine owns one
// database (one catalog document, one object store).
type Engine struct {
	Store   storage.Store
	Catalog *catalog.Store
	Codecs  *codec.Registry
	Bus     *events.Bus

	// MaxConcurrency bounds in-flight partition reference operations and
	// query fan-out (spec.md §5's back-pressure requirement). Defaults to
	// 16 when unset.
	MaxConcurrency int64
	// PartitionOpsPerSecond rate-limits async partition writes; 0 disables
	// rate limiting.
	PartitionOpsPerSecond float64
	// MaxPartitionRetries bounds exponential-backoff retries on a failed
	// partition reference write. Defaults to 3 when unset.
	MaxPartitionRetries int

	mu        sync.RWMutex
	resources map[string]*Resource // name -> current compiled resource
	byHash    map[string]*Resource // definition hash -> compiled resource, any version
	pools     map[string]*partition.Pool
}

// NewEngine wires together an already-initialised catalog and object
// store. Call LoadCatalog afterwards to compile every resource the catalog
// already knows about, or CreateResource to declare new ones.
func NewEngine(store storage.Store, cat *catalog.Store, codecs *codec.Registry, bus *events.Bus) *Engine {
	if codecs == nil {
		codecs = codec.NewRegistry()
	}
	return &Engine{
		Store:     store,
		Catalog:   cat,
		Codecs:    codecs,
		Bus:       bus,
		resources: map[string]*Resource{},
		byHash:    map[string]*Resource{},
		pools:     map[string]*partition.Pool{},
	}
}

// LoadCatalog compiles every resource currently in the catalog document
// (every version of every resource, so old records remain decodable) and
// registers them on the engine.
func (e *Engine) LoadCatalog() error {
	doc := e.Catalog.Doc()
	for name, res := range doc.Resources {
		for hash, ver := range res.Versions {
			compiled, compileErr := compileVersion(ver)
			if compileErr != nil {
				return errs.Wrap(errs.CatalogCorrupt, compileErr, "compiling resource %s version %s", name, hash)
			}
			beh, err := behavior.ByName(ver.Behavior)
			if err != nil {
				return err
			}
			defs, err := decodePartitions(ver.Partitions)
			if err != nil {
				return err
			}
			r := &Resource{
				Name:              name,
				Compiled:          compiled,
				Behavior:          beh,
				Partitions:        defs,
				TimestampsEnabled: ver.Timestamps,
				ParanoidDelete:    ver.Paranoid,
				IDGenerator:       util.NewNanoID,
			}
			e.mu.Lock()
			e.byHash[hash] = r
			if hash == res.CurrentVersion {
				e.resources[name] = r
			}
			e.mu.Unlock()
		}
	}
	return nil
}

// CreateResource declares (or re-versions) a resource: compiles attrs,
// validates partition field references against the compiled schema,
// persists the definition to the catalog, and registers the compiled
// bundle for immediate use. Returns the new definition hash.
func (e *Engine) CreateResource(ctx context.Context, name string, attrs map[string]*schema.Attribute, behaviorName string, defs []partition.Definition, timestampsEnabled, paranoidDelete, asyncPartitions bool, opts ...ResourceOption) (*Resource, error) {
	if timestampsEnabled {
		defs = withTimestampPartitions(defs)
	}

	compiled, err := schema.Compile(attrs, schema.Options{Behavior: behaviorName, Partitions: defs})
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		for _, fr := range def.Fields {
			if _, ok := compiled.ShortKeys.ToShort(fr.Field); !ok {
				return nil, errs.OrphanedPartitionBlockedErr(def.Name)
			}
		}
	}
	beh, err := behavior.ByName(behaviorName)
	if err != nil {
		return nil, err
	}

	rawAttrs, err := rawAttributes(attrs)
	if err != nil {
		return nil, err
	}
	hash, err := e.Catalog.CreateResource(ctx, name, rawAttrs, behaviorName, defs, timestampsEnabled, paranoidDelete)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Name:              name,
		Compiled:          compiled,
		Behavior:          beh,
		Partitions:        defs,
		TimestampsEnabled: timestampsEnabled,
		ParanoidDelete:    paranoidDelete,
		AsyncPartitions:   asyncPartitions,
		IDGenerator:       util.NewNanoID,
	}
	for _, opt := range opts {
		opt(res)
	}
	e.mu.Lock()
	e.resources[name] = res
	e.byHash[hash] = res
	e.mu.Unlock()
	return res, nil
}

func (e *Engine) resource(name string) (*Resource, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, ok := e.resources[name]
	if !ok {
		return nil, errs.NotFoundErr("resource", name)
	}
	return res, nil
}

func (e *Engine) resourceByHash(hash string) (*Resource, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, ok := e.byHash[hash]
	return res, ok
}

func (e *Engine) ruleApplier() partition.RuleApplier {
	return func(rule string, value any) (string, error) {
		tag, _ := codec.ParseDescriptor(rule)
		if tag == "number" {
			c, err := e.Codecs.Get("number")
			if err != nil {
				return "", err
			}
			return c.Encode("number", value)
		}
		return partition.ApplyDefaultRule(rule, value)
	}
}

func (e *Engine) maxConcurrency() int {
	if e.MaxConcurrency > 0 {
		return int(e.MaxConcurrency)
	}
	return 16
}

func (e *Engine) partitionPool(res *Resource) *partition.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pools[res.Name]; ok {
		return p
	}
	retries := e.MaxPartitionRetries
	if retries <= 0 {
		retries = 3
	}
	maxConc := e.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 16
	}
	p := partition.NewPool(e.Store, maxConc, e.PartitionOpsPerSecond, retries)
	e.pools[res.Name] = p
	return p
}

// writePartitions diffs oldDoc's partition references against newDoc's and
// applies the create/delete set, synchronously or through the async pool
// depending on res.AsyncPartitions (spec.md §4.6). oldDoc/newDoc may be
// nil (insert has no old set, delete has no new set).
func (e *Engine) writePartitions(ctx context.Context, res *Resource, resourceName, id string, oldDoc, newDoc map[string]any) error {
	if len(res.Partitions) == 0 {
		return nil
	}
	apply := e.ruleApplier()

	var oldKeys []string
	if oldDoc != nil {
		var err error
		oldKeys, err = partition.Keys(resourceName, res.Partitions, oldDoc, id, apply)
		if err != nil {
			return err
		}
	}
	var newKeys []string
	if newDoc != nil {
		var err error
		newKeys, err = partition.Keys(resourceName, res.Partitions, newDoc, id, apply)
		if err != nil {
			return err
		}
	}

	toCreate, toDelete := partition.Diff(oldKeys, newKeys)
	if len(toCreate) == 0 && len(toDelete) == 0 {
		return nil
	}
	ops := make([]partition.Op, 0, len(toCreate)+len(toDelete))
	for _, k := range toCreate {
		ops = append(ops, partition.Op{Key: k, Meta: storage.Metadata{"primary-id": id}})
	}
	for _, k := range toDelete {
		ops = append(ops, partition.Op{Key: k, Delete: true})
	}

	pool := e.partitionPool(res)
	if res.AsyncPartitions {
		pool.Apply(ctx, resourceName, id, ops, e.Bus)
		return nil
	}
	return pool.ApplySync(ctx, resourceName, id, ops)
}

// ExtendedInfo is the dedicated-namespace metadata Get merges into every
// returned document (spec.md §4.7).
type ExtendedInfo struct {
	ContentLength  int64
	LastModified   time.Time
	VersionID      string
	HasContent     bool
	DefinitionHash string
	MimeType       string
}

func withExtended(doc map[string]any, info ExtendedInfo) map[string]any {
	doc["_meta"] = map[string]any{
		"_content_length": info.ContentLength,
		"_last_modified":  info.LastModified.UTC().Format(time.RFC3339),
		"_version_id":     info.VersionID,
		"_has_content":    info.HasContent,
		"definition_hash": info.DefinitionHash,
		"mime_type":       info.MimeType,
	}
	return doc
}

// plainRecord is the undecorated view of a stored record, used internally
// by update/patch/replace/delete for merge and partition-diff purposes.
type plainRecord struct {
	doc  map[string]any
	key  string
	head *storage.Head
	body []byte
}

func (e *Engine) getPlain(ctx context.Context, resourceName, id string) (*plainRecord, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	key := partition.PrimaryKey(resourceName, res.Compiled.DefinitionHash.String(), id)
	head, err := e.Store.Head(ctx, key)
	if err != nil {
		return nil, err
	}

	versionedRes := res
	if hash := head.Metadata["schema-hash"]; hash != "" && hash != res.Compiled.DefinitionHash.String() {
		if older, ok := e.resourceByHash(hash); ok {
			versionedRes = older
		}
	}

	var body []byte
	if versionedRes.Behavior.PrepareRead(head.Metadata) {
		obj, err := e.Store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		defer obj.Body.Close()
		b, err := io.ReadAll(obj.Body)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, err, "reading body for %s", key)
		}
		body = b
	}

	fields := stripReserved(head.Metadata)
	merged, err := versionedRes.Behavior.MergeRead(fields, head.Metadata, body)
	if err != nil {
		return nil, err
	}
	doc, err := decode(versionedRes.Compiled, e.Codecs, merged)
	if err != nil {
		return nil, err
	}
	doc["id"] = id

	return &plainRecord{doc: doc, key: key, head: head, body: body}, nil
}

func (e *Engine) tryGetPlain(ctx context.Context, resourceName, id string) (*plainRecord, error) {
	p, err := e.getPlain(ctx, resourceName, id)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	return p, err
}

// Insert validates, encodes, runs the resource's behavior, generates an id
// if one wasn't supplied, writes the primary object, and writes every
// partition reference the record participates in.
func (e *Engine) Insert(ctx context.Context, resourceName string, doc map[string]any) (map[string]any, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	doc = deepcopy.Map(doc)

	id, _ := doc["id"].(string)
	if id == "" {
		id, err = res.IDGenerator()
		if err != nil {
			return nil, errs.Wrap(errs.Internal, err, "generating record id")
		}
	}
	doc["id"] = id

	if res.TimestampsEnabled {
		now := nowRFC3339()
		doc["createdAt"] = now
		doc["updatedAt"] = now
	}

	doc, err = res.Compiled.Hooks.Apply(schema.HookInsert, doc)
	if err != nil {
		return nil, err
	}

	if _, err := e.writeRecord(ctx, res, resourceName, id, doc, nil, "", "insert"); err != nil {
		return nil, err
	}
	return e.Get(ctx, resourceName, id)
}

// Get reads the primary object, reassembles any body-overflow data through
// the behavior's merge_read hook, decodes it under the schema version it
// was written with, and merges in extended read-only metadata.
func (e *Engine) Get(ctx context.Context, resourceName, id string) (map[string]any, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	key := partition.PrimaryKey(resourceName, res.Compiled.DefinitionHash.String(), id)
	head, err := e.Store.Head(ctx, key)
	if err != nil {
		return nil, err
	}

	versionedRes := res
	if hash := head.Metadata["schema-hash"]; hash != "" && hash != res.Compiled.DefinitionHash.String() {
		if older, ok := e.resourceByHash(hash); ok {
			versionedRes = older
		}
	}

	needsBody := versionedRes.Behavior.PrepareRead(head.Metadata)
	length, lastModified, versionID, mime := head.Length, head.LastModified, head.VersionID, head.ContentType
	var body []byte
	if needsBody {
		obj, err := e.Store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		defer obj.Body.Close()
		b, err := io.ReadAll(obj.Body)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, err, "reading body for %s", key)
		}
		body = b
		length, lastModified, versionID, mime = obj.Length, obj.LastModified, obj.VersionID, obj.ContentType
	}

	fields := stripReserved(head.Metadata)
	merged, err := versionedRes.Behavior.MergeRead(fields, head.Metadata, body)
	if err != nil {
		return nil, err
	}
	doc, err := decode(versionedRes.Compiled, e.Codecs, merged)
	if err != nil {
		return nil, err
	}
	doc["id"] = id

	return withExtended(doc, ExtendedInfo{
		ContentLength:  length,
		LastModified:   lastModified,
		VersionID:      versionID,
		HasContent:     len(body) > 0,
		DefinitionHash: versionedRes.Compiled.DefinitionHash.String(),
		MimeType:       mime,
	}), nil
}

// Update fetches the current primary, deep-merges patch into it, and
// re-runs the write pipeline to the same id. This is the default,
// always-merge-semantics path (spec.md §4.7).
func (e *Engine) Update(ctx context.Context, resourceName, id string, patch map[string]any) (map[string]any, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	if err := rejectPartialNestedPatch(res.Compiled, patch); err != nil {
		return nil, err
	}

	current, err := e.getPlain(ctx, resourceName, id)
	if err != nil {
		return nil, err
	}

	merged := deepMergeNew(current.doc, patch)
	merged["id"] = id
	if res.TimestampsEnabled {
		merged["updatedAt"] = nowRFC3339()
		if ca, ok := current.doc["createdAt"]; ok {
			merged["createdAt"] = ca
		}
	}

	merged, err = res.Compiled.Hooks.Apply(schema.HookUpdate, merged)
	if err != nil {
		return nil, err
	}

	if _, err := e.writeRecord(ctx, res, resourceName, id, merged, current.doc, current.key, "update"); err != nil {
		return nil, err
	}
	return e.Get(ctx, resourceName, id)
}

// Patch is the metadata-only optimised path: head the current primary,
// rewrite via copy with an updated metadata map, without re-uploading the
// body. Falls back to Update whenever the current record already overflows
// to the body, or the patched envelope would need to.
func (e *Engine) Patch(ctx context.Context, resourceName, id string, patch map[string]any) (map[string]any, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	if err := rejectPartialNestedPatch(res.Compiled, patch); err != nil {
		return nil, err
	}

	key := partition.PrimaryKey(resourceName, res.Compiled.DefinitionHash.String(), id)
	head, err := e.Store.Head(ctx, key)
	if err != nil {
		return nil, err
	}
	if head.Metadata["overflow"] == "1" || res.Behavior.PrepareRead(head.Metadata) {
		return e.Update(ctx, resourceName, id, patch)
	}

	fields := stripReserved(head.Metadata)
	doc, err := decode(res.Compiled, e.Codecs, fields)
	if err != nil {
		return nil, err
	}
	doc["id"] = id

	merged := deepMergeNew(doc, patch)
	if res.TimestampsEnabled {
		merged["updatedAt"] = nowRFC3339()
	}
	merged, err = res.Compiled.Hooks.Apply(schema.HookPatch, merged)
	if err != nil {
		return nil, err
	}

	env, err := encode(res.Compiled, e.Codecs, merged)
	if err != nil {
		return nil, err
	}
	env.TruncatePriority = res.TruncatePriority()
	env.Headers["behavior"] = res.Behavior.Name()
	stampHeaders(env, merged)

	budget := sizecalc.METADATA_BUDGET
	if err := res.Behavior.PrepareWrite(env, budget); err != nil {
		return nil, err
	}
	if err := res.Behavior.FinalizeWrite(env, budget, e.Bus, map[string]any{"resource": resourceName, "id": id}); err != nil {
		return e.Update(ctx, resourceName, id, patch)
	}
	if len(env.Body) > 0 {
		return e.Update(ctx, resourceName, id, patch)
	}

	if err := e.Store.Copy(ctx, key, key, storage.Metadata(env.AllMetadata())); err != nil {
		return nil, err
	}
	if err := e.writePartitions(ctx, res, resourceName, id, doc, merged); err != nil {
		return nil, err
	}
	if e.Bus != nil {
		e.Bus.Publish(events.Event{Kind: events.RecordWritten, Resource: resourceName, ID: id, Op: "patch", Version: res.Compiled.DefinitionHash.String()})
	}
	return e.Get(ctx, resourceName, id)
}

// Replace overwrites a record wholesale: a single put, no merge, validated
// like Insert. The record must already carry every field the schema
// requires.
func (e *Engine) Replace(ctx context.Context, resourceName, id string, doc map[string]any) (map[string]any, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	doc = deepcopy.Map(doc)
	doc["id"] = id

	old, err := e.tryGetPlain(ctx, resourceName, id)
	if err != nil {
		return nil, err
	}

	if res.TimestampsEnabled {
		if old != nil {
			if ca, ok := old.doc["createdAt"]; ok {
				doc["createdAt"] = ca
			}
		}
		if _, ok := doc["createdAt"]; !ok {
			doc["createdAt"] = nowRFC3339()
		}
		doc["updatedAt"] = nowRFC3339()
	}

	doc, err = res.Compiled.Hooks.Apply(schema.HookReplace, doc)
	if err != nil {
		return nil, err
	}

	var oldDoc map[string]any
	oldKey := ""
	if old != nil {
		oldDoc, oldKey = old.doc, old.key
	}
	if _, err := e.writeRecord(ctx, res, resourceName, id, doc, oldDoc, oldKey, "replace"); err != nil {
		return nil, err
	}
	return e.Get(ctx, resourceName, id)
}

// Delete removes a record. Paranoid resources copy the primary to a
// logical-delete prefix and mark it instead of hard-deleting.
func (e *Engine) Delete(ctx context.Context, resourceName, id string) error {
	res, err := e.resource(resourceName)
	if err != nil {
		return err
	}
	cur, err := e.getPlain(ctx, resourceName, id)
	if err != nil {
		return err
	}

	if res.ParanoidDelete {
		tombKey := "deleted/" + cur.key
		md := storage.Metadata{}
		for k, v := range cur.head.Metadata {
			md[k] = v
		}
		md["deleted-at"] = nowRFC3339()
		if err := e.Store.Copy(ctx, cur.key, tombKey, md); err != nil {
			return err
		}
	}
	if err := e.Store.Delete(ctx, cur.key); err != nil {
		return err
	}

	if err := e.writePartitions(ctx, res, resourceName, id, cur.doc, nil); err != nil {
		return err
	}

	if e.Bus != nil {
		mode := "hard"
		if res.ParanoidDelete {
			mode = "soft"
		}
		e.Bus.Publish(events.Event{Kind: events.RecordDeleted, Resource: resourceName, ID: id, Mode: mode})
	}
	return nil
}

// ListOptions narrows a List scan. IDPattern, when non-empty, is a glob
// pattern (gobwas/glob syntax: "*", "?", "[...]") matched against each
// record's id before it's fetched, so a pagination page never grows past
// what the store's own page size already bounds.
type ListOptions struct {
	IDPattern string
}

// List scans the resource's primary prefix (at its current version) with
// pagination via continuation token.
func (e *Engine) List(ctx context.Context, resourceName, continuation string, opts ListOptions) (docs []map[string]any, next string, err error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, "", err
	}

	var matcher glob.Glob
	if opts.IDPattern != "" {
		matcher, err = glob.Compile(opts.IDPattern)
		if err != nil {
			return nil, "", errs.InvalidArgumentErr("invalid id pattern %q: %v", opts.IDPattern, err)
		}
	}

	prefix := "resource=" + resourceName + "/v=" + res.Compiled.DefinitionHash.String() + "/"
	lr, err := e.Store.List(ctx, prefix, continuation)
	if err != nil {
		return nil, "", err
	}
	out := make([]map[string]any, 0, len(lr.Keys))
	for _, key := range lr.Keys {
		id := extractID(key)
		if id == "" {
			continue
		}
		if matcher != nil && !matcher.Match(id) {
			continue
		}
		doc, err := e.Get(ctx, resourceName, id)
		if err != nil {
			return nil, "", err
		}
		out = append(out, doc)
	}
	return out, lr.NextContinuation, nil
}

// Query is a partition-scoped list: the caller supplies an exact match on
// one partition's declared fields. The engine rebuilds the canonical key
// prefix, lists under it, and resolves each reference to its primary with
// bounded-concurrency fan-out.
func (e *Engine) Query(ctx context.Context, resourceName, partitionName string, values map[string]any, continuation string) (docs []map[string]any, next string, err error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, "", err
	}
	var def *partition.Definition
	for i := range res.Partitions {
		if res.Partitions[i].Name == partitionName {
			def = &res.Partitions[i]
			break
		}
	}
	if def == nil {
		return nil, "", errs.InvalidArgumentErr("resource %q has no partition %q", resourceName, partitionName)
	}

	prefix, err := partition.ValuePrefix(resourceName, *def, values, e.ruleApplier())
	if err != nil {
		return nil, "", err
	}
	lr, err := e.Store.List(ctx, prefix, continuation)
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(lr.Keys))
	for _, k := range lr.Keys {
		if id := extractID(k); id != "" {
			ids = append(ids, id)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency())
	results := make([]map[string]any, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			doc, err := e.Get(gctx, resourceName, id)
			if err != nil {
				return err
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return results, lr.NextContinuation, nil
}

// FindOrphanedPartitions and RemoveOrphanedPartitions are the out-of-band
// maintenance operations from spec.md §4.6, exposed on the engine so they
// can see the live schema (field existence) and primary-id presence.
func (e *Engine) FindOrphanedPartitions(ctx context.Context, resourceName string) ([]partition.Orphan, error) {
	res, err := e.resource(resourceName)
	if err != nil {
		return nil, err
	}
	primaryExists := func(ctx context.Context, resource, id string) (bool, error) {
		key := partition.PrimaryKey(resource, res.Compiled.DefinitionHash.String(), id)
		_, err := e.Store.Head(ctx, key)
		if errs.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
	fieldExists := func(_ string, field string) bool {
		_, ok := res.Compiled.ShortKeys.ToShort(field)
		return ok
	}
	return partition.FindOrphaned(ctx, e.Store, resourceName, res.Partitions, e.maxConcurrency(), primaryExists, fieldExists)
}

func (e *Engine) RemoveOrphanedPartitions(ctx context.Context, orphans []partition.Orphan) error {
	return partition.RemoveOrphaned(ctx, e.Store, orphans)
}

// writeRecord is the shared tail of insert/update/replace: encode, run the
// behavior, put the primary (moving it if the version changed), reconcile
// partition references, and publish record_written.
func (e *Engine) writeRecord(ctx context.Context, res *Resource, resourceName, id string, doc, oldDoc map[string]any, oldKey, op string) (*behavior.Envelope, error) {
	env, err := encode(res.Compiled, e.Codecs, doc)
	if err != nil {
		return nil, err
	}
	env.TruncatePriority = res.TruncatePriority()
	env.Headers["behavior"] = res.Behavior.Name()
	stampHeaders(env, doc)

	budget := sizecalc.METADATA_BUDGET
	if err := res.Behavior.PrepareWrite(env, budget); err != nil {
		return nil, err
	}
	if err := res.Behavior.FinalizeWrite(env, budget, e.Bus, map[string]any{"resource": resourceName, "id": id}); err != nil {
		return nil, err
	}

	newKey := partition.PrimaryKey(resourceName, res.Compiled.DefinitionHash.String(), id)
	var body io.Reader
	if len(env.Body) > 0 {
		body = bytes.NewReader(env.Body)
	}
	if _, err := e.Store.Put(ctx, newKey, storage.Metadata(env.AllMetadata()), body, env.MIME); err != nil {
		return nil, err
	}
	if oldKey != "" && oldKey != newKey {
		if err := e.Store.Delete(ctx, oldKey); err != nil {
			return nil, err
		}
	}

	if err := e.writePartitions(ctx, res, resourceName, id, oldDoc, doc); err != nil {
		return nil, err
	}

	if e.Bus != nil {
		e.Bus.Publish(events.Event{Kind: events.RecordWritten, Resource: resourceName, ID: id, Op: op, Version: res.Compiled.DefinitionHash.String()})
	}
	return env, nil
}

func stampHeaders(env *behavior.Envelope, doc map[string]any) {
	if ca, ok := doc["createdAt"].(string); ok {
		env.Headers["created-at"] = ca
	}
	if ua, ok := doc["updatedAt"].(string); ok {
		env.Headers["updated-at"] = ua
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func extractID(key string) string {
	const marker = "/id="
	idx := strings.LastIndex(key, marker)
	if idx < 0 {
		return ""
	}
	return key[idx+len(marker):]
}

func withTimestampPartitions(defs []partition.Definition) []partition.Definition {
	has := func(name string) bool {
		for _, d := range defs {
			if d.Name == name {
				return true
			}
		}
		return false
	}
	out := defs
	if !has("byCreatedDate") {
		out = append(out, partition.Definition{Name: "byCreatedDate", Fields: []partition.FieldRule{{Field: "createdAt", Rule: "date|maxlength:10"}}})
	}
	if !has("byUpdatedDate") {
		out = append(out, partition.Definition{Name: "byUpdatedDate", Fields: []partition.FieldRule{{Field: "updatedAt", Rule: "date|maxlength:10"}}})
	}
	return out
}

func rawAttributes(attrs map[string]*schema.Attribute) (map[string]any, error) {
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling attributes")
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "unmarshaling attributes")
	}
	return raw, nil
}

func compileVersion(ver *catalog.ResourceVersion) (*schema.Compiled, error) {
	b, err := json.Marshal(ver.Schema)
	if err != nil {
		return nil, errs.Wrap(errs.CatalogCorrupt, err, "marshaling stored schema")
	}
	var attrs map[string]*schema.Attribute
	if err := json.Unmarshal(b, &attrs); err != nil {
		return nil, errs.Wrap(errs.CatalogCorrupt, err, "unmarshaling stored schema")
	}
	defs, err := decodePartitions(ver.Partitions)
	if err != nil {
		return nil, err
	}
	return schema.Compile(attrs, schema.Options{Behavior: ver.Behavior, Partitions: defs})
}

func decodePartitions(raw any) ([]partition.Definition, error) {
	if raw == nil {
		return nil, nil
	}
	if defs, ok := raw.([]partition.Definition); ok {
		return defs, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, errs.Wrap(errs.CatalogCorrupt, err, "marshaling stored partitions")
	}
	var defs []partition.Definition
	if err := json.Unmarshal(b, &defs); err != nil {
		return nil, errs.Wrap(errs.CatalogCorrupt, err, "unmarshaling stored partitions")
	}
	return defs, nil
}
