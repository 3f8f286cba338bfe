package behavior

import (
	"encoding/json"

	"github.com/s3db-io/s3db/errs"
)

// BodyOnly serialises the full envelope into the object body, keeping only
// reserved headers (definition hash, behavior, mime) in metadata. For
// records known to always exceed the metadata budget.
type BodyOnly struct{}

func (BodyOnly) Name() string { return "body_only" }

func (BodyOnly) PrepareWrite(env *Envelope, _ int) error {
	encoded, err := json.Marshal(env.Fields)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "serialising body-only envelope")
	}
	env.Body = encoded
	env.Fields = map[string]string{}
	return nil
}

func (BodyOnly) FinalizeWrite(*Envelope, int, EventSink, map[string]any) error { return nil }

func (BodyOnly) PrepareRead(map[string]string) bool { return true }

func (BodyOnly) MergeRead(fields map[string]string, _ map[string]string, body []byte) (map[string]string, error) {
	if len(body) == 0 {
		return fields, nil
	}
	var decoded map[string]string
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "decoding body-only envelope")
	}
	return decoded, nil
}
