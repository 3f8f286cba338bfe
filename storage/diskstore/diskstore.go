// Package diskstore is a durable, badger-backed implementation of
// storage.Store, used by the CLI's --dir mode and by integration tests.
// Grounded on the teacher's storage/disk package: object data persisted
// through a transactional embedded KV engine. The store records no
// metrics of its own.
package diskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/storage"
)

// record is the on-disk envelope for one object: metadata plus body,
// serialised together so a single badger key maps to a single value.
type record struct {
	Metadata     storage.Metadata `json:"metadata"`
	Body         []byte           `json:"body,omitempty"`
	ContentType  string           `json:"contentType"`
	LastModified time.Time        `json:"lastModified"`
	Version      uint64           `json:"version"`
}

// Store is a durable object store backed by a badger database directory.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, err, "opening disk store at %s", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
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

	var etag string
	err := s.db.Update(func(txn *badger.Txn) error {
		version := uint64(time.Now().UnixNano())
		rec := record{
			Metadata:     cloneMetadata(metadata),
			Body:         buf,
			ContentType:  contentType,
			LastModified: time.Now(),
			Version:      version,
		}
		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		etag = versionETag(version)
		return txn.Set([]byte(key), encoded)
	})
	if err != nil {
		return "", errs.Wrap(errs.Internal, err, "writing %s", key)
	}
	return etag, nil
}

func (s *Store) load(key string) (*record, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errs.NotFoundErr("object", key)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "reading %s", key)
	}
	return &rec, nil
}

func (s *Store) Get(_ context.Context, key string) (*storage.Object, error) {
	rec, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return &storage.Object{
		Metadata:     rec.Metadata,
		Body:         io.NopCloser(bytes.NewReader(rec.Body)),
		ContentType:  rec.ContentType,
		Length:       int64(len(rec.Body)),
		LastModified: rec.LastModified,
		VersionID:    versionETag(rec.Version),
	}, nil
}

func (s *Store) Head(_ context.Context, key string) (*storage.Head, error) {
	rec, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return &storage.Head{
		Metadata:     rec.Metadata,
		ContentType:  rec.ContentType,
		Length:       int64(len(rec.Body)),
		LastModified: rec.LastModified,
		VersionID:    versionETag(rec.Version),
	}, nil
}

func (s *Store) Copy(_ context.Context, src, dst string, newMetadata storage.Metadata) error {
	rec, err := s.load(src)
	if err != nil {
		return err
	}
	if newMetadata != nil {
		rec.Metadata = cloneMetadata(newMetadata)
	}
	rec.Version = uint64(time.Now().UnixNano())
	rec.LastModified = time.Now()
	encoded, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "encoding copy of %s", src)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(dst), encoded)
	})
}

func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return errs.Wrap(errs.Internal, err, "deleting %s", key)
	}
	return nil
}

func (s *Store) List(_ context.Context, prefix, continuation string) (*storage.ListResult, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().KeyCopy(nil))
			if continuation != "" && k <= continuation {
				continue
			}
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "listing %s", prefix)
	}
	sort.Strings(keys)

	const pageSize = 1000
	result := &storage.ListResult{}
	if len(keys) > pageSize {
		result.Keys = keys[:pageSize]
		result.NextContinuation = keys[pageSize-1]
	} else {
		result.Keys = keys
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

func versionETag(v uint64) string {
	return "diskstore-" + formatUint(v)
}

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
