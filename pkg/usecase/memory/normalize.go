package memory

import (
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

// normalizeRecord maps a loosely-typed store result into the canonical
// record shape. Field lookups follow fixed precedence lists:
//
//	id:      "id", "memory_id"
//	content: "memory", "content", "data"
//	type:    "type", "memory_type"
//
// Metadata is coerced to a non-nil map. Timestamps and importance are
// left unset when missing or unparseable. A record without a usable id
// is rejected.
func normalizeRecord(raw repository.RawRecord) (*model.MemoryRecord, error) {
	rec := normalizeFields(raw)
	if rec.ID == "" {
		return nil, goerr.New("record has no usable id")
	}
	return rec, nil
}

// normalizeFields maps the fields of a loosely-typed entry without
// requiring an id. Analytics scans count id-less entries; everything
// else goes through normalizeRecord.
func normalizeFields(raw repository.RawRecord) *model.MemoryRecord {
	rec := &model.MemoryRecord{
		ID:       model.MemoryID(stringField(raw, "id", "memory_id")),
		Content:  stringField(raw, "memory", "content", "data"),
		UserID:   stringField(raw, "user_id"),
		AgentID:  stringField(raw, "agent_id"),
		RunID:    stringField(raw, "run_id"),
		Metadata: metadataField(raw["metadata"]),
		Type:     stringField(raw, "type", "memory_type"),
	}

	if t, ok := parseTime(raw["created_at"]); ok {
		rec.CreatedAt = &t
	}
	if t, ok := parseTime(raw["updated_at"]); ok {
		rec.UpdatedAt = &t
	}
	if f, ok := floatValue(raw["importance"]); ok {
		rec.Importance = &f
	}
	if n, ok := intValue(raw["access_count"]); ok {
		rec.AccessCount = n
	}

	return rec
}

// asRaw checks the shape of a store list entry. Entries that are not
// string-keyed mappings are malformed and get dropped by callers.
func asRaw(entry any) (repository.RawRecord, bool) {
	switch v := entry.(type) {
	case repository.RawRecord:
		return v, true
	case map[string]any:
		return repository.RawRecord(v), true
	default:
		return nil, false
	}
}

// stringField returns the first key whose value converts to a
// non-empty string.
func stringField(raw repository.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := anyToString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

// anyToString converts identifier-ish values; stores disagree on
// whether ids are strings or numbers.
func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func metadataField(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// timeLayouts covers the timestamp encodings seen across backends.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime converts a raw timestamp value. The zero time with ok=false
// is the sentinel for missing or malformed values, which sorts before
// any real cutoff.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	}
	return 0, false
}
