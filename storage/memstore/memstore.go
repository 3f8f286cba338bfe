// Package memstore is an in-process, map-backed implementation of
// storage.Store, used as the default test backend and for the
// memory:// connection descriptor form. Grounded on the teacher's
// storage/inmem package: a single mutex-guarded map keyed by path.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/storage"
)

type entry struct {
	metadata     storage.Metadata
	body         []byte
	contentType  string
	lastModified time.Time
	version      int64
}

// Store is a concurrency-safe in-memory object store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*entry
	seq     int64
}

func New() *Store {
	return &Store{objects: make(map[string]*entry)}
}

func (s *Store) Put(_ context.Context, key string, metadata storage.Metadata, body io.Reader, contentType string) (string, error) {
	var buf []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return "", errs.Wrap(errs.Internal, err, "reading body for put")
		}
		buf = b
	}
	md := storage.Metadata{}
	for k, v := range metadata {
		md[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.objects[key] = &entry{
		metadata:     md,
		body:         buf,
		contentType:  contentType,
		lastModified: time.Now(),
		version:      s.seq,
	}
	return etag(s.seq), nil
}

func (s *Store) Get(_ context.Context, key string) (*storage.Object, error) {
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NotFoundErr("object", key)
	}
	return &storage.Object{
		Metadata:     cloneMetadata(e.metadata),
		Body:         io.NopCloser(bytes.NewReader(e.body)),
		ContentType:  e.contentType,
		Length:       int64(len(e.body)),
		LastModified: e.lastModified,
		VersionID:    etag(e.version),
	}, nil
}

func (s *Store) Head(_ context.Context, key string) (*storage.Head, error) {
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NotFoundErr("object", key)
	}
	return &storage.Head{
		Metadata:     cloneMetadata(e.metadata),
		ContentType:  e.contentType,
		Length:       int64(len(e.body)),
		LastModified: e.lastModified,
		VersionID:    etag(e.version),
	}, nil
}

func (s *Store) Copy(_ context.Context, src, dst string, newMetadata storage.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	srcEntry, ok := s.objects[src]
	if !ok {
		return errs.NotFoundErr("object", src)
	}
	s.seq++
	md := srcEntry.metadata
	if newMetadata != nil {
		md = cloneMetadata(newMetadata)
	} else {
		md = cloneMetadata(md)
	}
	s.objects[dst] = &entry{
		metadata:     md,
		body:         srcEntry.body,
		contentType:  srcEntry.contentType,
		lastModified: time.Now(),
		version:      s.seq,
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Store) List(_ context.Context, prefix, continuation string) (*storage.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if continuation != "" {
		for i, k := range keys {
			if k > continuation {
				start = i
				break
			}
			start = i + 1
		}
	}
	const pageSize = 1000
	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}
	page := keys[start:end]
	result := &storage.ListResult{Keys: page}
	if end < len(keys) {
		result.NextContinuation = page[len(page)-1]
	}
	return result, nil
}

func cloneMetadata(m storage.Metadata) storage.Metadata {
	out := make(storage.Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func etag(version int64) string {
	return "memstore-" + itoa(version)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
