package behavior

import (
	"encoding/json"
	"sort"

	"github.com/s3db-io/s3db/errs"
)

// Overflow partitions the envelope into a "hot" subset that fits metadata
// and a "cold" subset serialised as JSON into the object body. The default
// behavior for records expected to be large (documents).
type Overflow struct{}

func (Overflow) Name() string { return "overflow" }

// PrepareWrite picks the hot set deterministically: reserved headers
// first (always kept), then Fields entries in ascending encoded length,
// until adding the next would overflow. This keeps the partition decision
// stable across small edits, per spec.md §4.5.
func (Overflow) PrepareWrite(env *Envelope, budget int) error {
	keys := make([]string, 0, len(env.Fields))
	for k := range env.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(env.Fields[keys[i]]) != len(env.Fields[keys[j]]) {
			return len(env.Fields[keys[i]]) < len(env.Fields[keys[j]])
		}
		return keys[i] < keys[j]
	})

	hot := map[string]string{}
	cold := map[string]string{}
	// When anything must go cold, the overflow marker rides in metadata
	// too, so the probe measures it from the start.
	headers := make(map[string]string, len(env.Headers)+1)
	for k, v := range env.Headers {
		headers[k] = v
	}
	if size(env) > budget {
		headers["overflow"] = "1"
	}
	probe := &Envelope{Fields: hot, Headers: headers}
	for i, k := range keys {
		probe.Fields[k] = env.Fields[k]
		if size(probe) > budget {
			delete(probe.Fields, k)
			for _, rest := range keys[i:] {
				cold[rest] = env.Fields[rest]
			}
			break
		}
	}

	if len(cold) > 0 {
		coldJSON, err := json.Marshal(cold)
		if err != nil {
			return errs.Wrap(errs.Internal, err, "serialising overflow cold set")
		}
		env.Body = coldJSON
		if env.Headers == nil {
			env.Headers = map[string]string{}
		}
		env.Headers["overflow"] = "1"
	}
	env.Fields = hot
	return nil
}

func (Overflow) FinalizeWrite(env *Envelope, budget int, _ EventSink, _ map[string]any) error {
	if s := size(env); s > budget {
		return errs.MetadataTooLargeErr(s, budget)
	}
	return nil
}

func (Overflow) PrepareRead(headers map[string]string) bool {
	return headers["overflow"] == "1"
}

func (Overflow) MergeRead(fields map[string]string, headers map[string]string, body []byte) (map[string]string, error) {
	if headers["overflow"] != "1" || len(body) == 0 {
		return fields, nil
	}
	var cold map[string]string
	if err := json.Unmarshal(body, &cold); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "decoding overflow cold set")
	}
	merged := make(map[string]string, len(fields)+len(cold))
	for k, v := range fields {
		merged[k] = v
	}
	for k, v := range cold {
		merged[k] = v
	}
	return merged, nil
}
