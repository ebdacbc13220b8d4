package services

import (
	"bytes"
	"encoding/json"
	"sort"

	"woodshop/internal/logger"
)

// Snapshot converts a model into a map keyed by its JSON field names.
// Fields tagged json:"-" (password hashes, token digests) never appear.
func Snapshot(v any) map[string]any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Errorw("failed to snapshot entity", "error", err)
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Get().Errorw("failed to snapshot entity", "error", err)
		return nil
	}
	return out
}

// ChangedFields lists the keys whose values differ between before and after.
// An empty before yields every key of after; an empty after yields none.
// Values are compared by their JSON encoding, so 1 and "1" differ. Keys are
// returned sorted.
func ChangedFields(before, after map[string]any) []string {
	fields := []string{}
	if len(after) == 0 {
		return fields
	}

	for key, newValue := range after {
		if len(before) == 0 {
			fields = append(fields, key)
			continue
		}
		oldValue, ok := before[key]
		if !ok || !sameValue(oldValue, newValue) {
			fields = append(fields, key)
		}
	}

	sort.Strings(fields)
	return fields
}

func sameValue(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}
