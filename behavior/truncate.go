package behavior

import (
	"sort"

	"github.com/s3db-io/s3db/errs"
)

// Truncate iteratively drops or shortens string leaves, in the order of
// Envelope.TruncatePriority, until the envelope (including the
// "truncated" header) fits. CMS-style resources where lossy shrinkage is
// acceptable use this.
type Truncate struct{}

func (Truncate) Name() string { return "truncate" }

func (Truncate) PrepareWrite(env *Envelope, budget int) error {
	truncatedSet := map[string]bool{}
	for size(env) > budget {
		progressed := false
		for _, key := range env.TruncatePriority {
			if size(env) <= budget {
				break
			}
			val, ok := env.Fields[key]
			if !ok || val == "" {
				continue
			}
			half := len(val) / 2
			if half == 0 {
				delete(env.Fields, key)
			} else {
				env.Fields[key] = val[:half]
			}
			truncatedSet[key] = true
			progressed = true

			// The header counts against the budget, so it is kept current
			// while the loop is still measuring.
			truncated := make([]string, 0, len(truncatedSet))
			for k := range truncatedSet {
				truncated = append(truncated, k)
			}
			sort.Strings(truncated)
			if env.Headers == nil {
				env.Headers = map[string]string{}
			}
			env.Headers["truncated"] = joinComma(truncated)
		}
		if !progressed {
			break
		}
	}
	return nil
}

func (Truncate) FinalizeWrite(env *Envelope, budget int, _ EventSink, _ map[string]any) error {
	if s := size(env); s > budget {
		return errs.MetadataTooLargeErr(s, budget)
	}
	return nil
}

func (Truncate) PrepareRead(map[string]string) bool { return false }

func (Truncate) MergeRead(fields map[string]string, _ map[string]string, _ []byte) (map[string]string, error) {
	return fields, nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
