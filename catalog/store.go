package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/storage"
)

// Store owns the catalog document's lifecycle: init, load (with
// self-healing recovery), save (always backed up first), and close.
// Grounded on storage/disk/disk.go's metadata bootstrap; the catalog is
// the only process-wide mutable state (spec.md §5), guarded here by mu.
type Store struct {
	backend storage.Store
	path    string
	bus     *events.Bus

	mu  sync.Mutex
	doc *Document
}

func NewStore(backend storage.Store, path string, bus *events.Bus) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{backend: backend, path: path, bus: bus}
}

// Init loads the catalog, creating an empty one if absent. Parse failures
// run the bounded recovery pipeline before giving up.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, err := s.backend.Get(ctx, s.path)
	if errs.IsNotFound(err) {
		s.doc = NewDocument()
		return s.saveLocked(ctx)
	}
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	raw, readErr := readAll(obj.Body)
	if readErr != nil {
		return errs.Wrap(errs.Internal, readErr, "reading catalog body")
	}

	doc, parseErr := UnmarshalDocument(raw)
	if parseErr != nil {
		recovered, recErr := recover_(raw)
		if recErr != nil {
			return errs.CatalogCorruptErr("catalog unparsable and unrecoverable: " + recErr.Error())
		}
		if err := s.backupLocked(ctx, raw); err != nil {
			return err
		}
		doc, parseErr = UnmarshalDocument(recovered)
		if parseErr != nil {
			return errs.CatalogCorruptErr("catalog still unparsable after recovery: " + parseErr.Error())
		}
	}

	if valErr := doc.Validate(); valErr != nil {
		if err := s.backupLocked(ctx, raw); err != nil {
			return err
		}
		return valErr
	}

	s.doc = doc
	return nil
}

// Doc returns the in-memory document. Callers must not mutate it directly;
// use CreateResource/Save.
func (s *Store) Doc() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Save backs up the current stored catalog (if any) before rewriting it,
// per spec.md §9's resolution of the self-healing ambiguity ("never
// mutate without backup").
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if head, err := s.backend.Head(ctx, s.path); err == nil {
		_ = head // existing catalog found, back it up via Copy below
		if err := s.backend.Copy(ctx, s.path, s.backupKey(), nil); err != nil {
			return errs.Wrap(errs.Internal, err, "backing up catalog before rewrite")
		}
	}
	encoded, err := s.doc.Marshal()
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshaling catalog")
	}
	_, err = s.backend.Put(ctx, s.path, storage.Metadata{}, bytesReader(encoded), "application/json")
	return err
}

func (s *Store) backupLocked(ctx context.Context, raw []byte) error {
	_, err := s.backend.Put(ctx, s.backupKey(), storage.Metadata{}, bytesReader(raw), "application/json")
	return err
}

func (s *Store) backupKey() string {
	return fmt.Sprintf("%s.backup.%d", s.path, time.Now().UnixNano())
}

// CreateResource allocates a new version for name if the computed hash
// differs from the current one (or creates the resource outright), marks
// it current, and emits resource_definitions_changed if anything changed.
func (s *Store) CreateResource(ctx context.Context, name string, rawSchema map[string]any, behaviorName string, partitions any, timestamps, paranoid bool) (versionHash string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, hashErr := hashFor(rawSchema, behaviorName, partitions)
	if hashErr != nil {
		return "", hashErr
	}
	hashStr := hash.String()

	res, existed := s.doc.Resources[name]
	var diff map[string]any
	if !existed {
		res = &Resource{Versions: map[string]*ResourceVersion{}}
		s.doc.Resources[name] = res
		diff = map[string]any{"new": []string{name}}
	} else if res.CurrentVersion != hashStr {
		diff = map[string]any{"changed": []map[string]string{{"name": name, "from": res.CurrentVersion, "to": hashStr}}}
	}

	if _, already := res.Versions[hashStr]; !already {
		res.Versions[hashStr] = &ResourceVersion{
			Schema:     rawSchema,
			Behavior:   behaviorName,
			Partitions: partitions,
			Timestamps: timestamps,
			Paranoid:   paranoid,
			CreatedAt:  time.Now().UTC(),
		}
	}
	res.CurrentVersion = hashStr

	if err := s.saveLocked(ctx); err != nil {
		return "", err
	}
	if diff != nil && s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.ResourceDefinitionsChanged, Diff: diff})
	}
	return hashStr, nil
}

// recover_ runs the bounded recovery pipeline: strip trailing commas,
// balance brackets, quote unquoted keys. Named with a trailing underscore
// to avoid shadowing the built-in recover().
func recover_(raw []byte) ([]byte, error) {
	s := string(raw)
	s = stripTrailingCommas(s)
	s = balanceBrackets(s)
	s = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)\s*:`).ReplaceAllString(s, `$1"$2":`)
	return []byte(s), nil
}

func stripTrailingCommas(s string) string {
	s = strings.ReplaceAll(s, ",}", "}")
	s = strings.ReplaceAll(s, ",]", "]")
	return s
}

func balanceBrackets(s string) string {
	openCurly := strings.Count(s, "{")
	closeCurly := strings.Count(s, "}")
	for i := 0; i < openCurly-closeCurly; i++ {
		s += "}"
	}
	openSquare := strings.Count(s, "[")
	closeSquare := strings.Count(s, "]")
	for i := 0; i < openSquare-closeSquare; i++ {
		s += "]"
	}
	return s
}
