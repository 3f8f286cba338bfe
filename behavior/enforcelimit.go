package behavior

import "github.com/s3db-io/s3db/errs"

// EnforceLimit is the strict-API behavior: oversized envelopes fail the
// write outright. It never silently truncates.
type EnforceLimit struct{}

func (EnforceLimit) Name() string { return "enforce_limit" }

func (EnforceLimit) PrepareWrite(*Envelope, int) error { return nil }

func (EnforceLimit) FinalizeWrite(env *Envelope, budget int, _ EventSink, _ map[string]any) error {
	if s := size(env); s > budget {
		return errs.MetadataTooLargeErr(s, budget)
	}
	return nil
}

func (EnforceLimit) PrepareRead(map[string]string) bool { return false }

func (EnforceLimit) MergeRead(fields map[string]string, _ map[string]string, _ []byte) (map[string]string, error) {
	return fields, nil
}
