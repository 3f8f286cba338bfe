package partition

// Diff computes which reference keys must be created and which removed to
// move a record's partition references from oldKeys to newKeys.
func Diff(oldKeys, newKeys []string) (toCreate, toDelete []string) {
	oldSet := make(map[string]bool, len(oldKeys))
	for _, k := range oldKeys {
		oldSet[k] = true
	}
	newSet := make(map[string]bool, len(newKeys))
	for _, k := range newKeys {
		newSet[k] = true
	}
	for _, k := range newKeys {
		if !oldSet[k] {
			toCreate = append(toCreate, k)
		}
	}
	for _, k := range oldKeys {
		if !newSet[k] {
			toDelete = append(toDelete, k)
		}
	}
	return toCreate, toDelete
}

// Keys computes every reference key a record currently participates in,
// across all declared partitions. Definitions whose required fields are
// missing/null for this record are silently skipped (not an error), per
// spec.md §4.6.
func Keys(resource string, defs []Definition, record map[string]any, id string, apply RuleApplier) ([]string, error) {
	var keys []string
	for _, def := range defs {
		key, ok, err := Key(resource, def, record, id, apply)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
