package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/utils/metrics"
)

// CreateInput carries one logical memory input.
type CreateInput struct {
	Content  string
	Identity model.Identity
	Metadata map[string]any
	Filters  map[string]any
	Scope    string
	Type     string
	Infer    bool
}

// Create ingests one logical input and returns the created records.
// With inference enabled the store may fold the input into zero new
// records (duplicate suppression); that is a valid outcome, not an
// error. Each created record is re-fetched to recover store-assigned
// timestamps; if the re-fetch fails the record is built from the raw
// result entry instead.
func (u *UseCase) Create(ctx context.Context, input *CreateInput) ([]*model.MemoryRecord, error) {
	result, err := u.store.Add(ctx, &repository.AddInput{
		Content:  input.Content,
		Identity: input.Identity,
		Metadata: input.Metadata,
		Filters:  input.Filters,
		Scope:    input.Scope,
		Type:     input.Type,
		Infer:    input.Infer,
	})
	if err != nil {
		u.metrics.Record(ctx, "create", metrics.StatusFailed)
		return nil, goerr.Wrap(model.ErrCreateFailed, "store add failed",
			goerr.V("cause", model.TruncateMessage(err.Error())))
	}

	if len(result.Results) == 0 {
		u.logger.Info("no memories created, likely duplicates detected or no facts extracted")
		u.metrics.Record(ctx, "create", metrics.StatusSuccess)
		return []*model.MemoryRecord{}, nil
	}

	records := make([]*model.MemoryRecord, 0, len(result.Results))
	for _, item := range result.Results {
		id := stringField(item, "id")
		if id == "" {
			continue
		}

		// Re-fetch for complete data including timestamps, consistent
		// with batch creation.
		full, err := u.Get(ctx, model.MemoryID(id), input.Identity)
		if err == nil {
			records = append(records, full)
			continue
		}
		u.logger.Warn("failed to fetch created memory, using raw result entry",
			"memory_id", id, "error", err)

		records = append(records, fallbackRecord(item, input, model.MemoryID(id)))
	}

	u.logger.Info("created memories", "count", len(records))
	u.metrics.Record(ctx, "create", metrics.StatusSuccess)
	return records, nil
}

// fallbackRecord builds a record from a raw add-result entry. Each
// field uses the entry's value when the key is present and non-null,
// and the caller-supplied input otherwise.
func fallbackRecord(item repository.RawRecord, input *CreateInput, id model.MemoryID) *model.MemoryRecord {
	rec := &model.MemoryRecord{
		ID:       id,
		Content:  fieldOr(item, "memory", input.Content),
		UserID:   fieldOr(item, "user_id", input.Identity.UserID),
		AgentID:  fieldOr(item, "agent_id", input.Identity.AgentID),
		RunID:    fieldOr(item, "run_id", input.Identity.RunID),
		Metadata: fallbackMetadata(item, input.Metadata),
		Type:     fieldOr(item, "memory_type", input.Type),
	}

	if t, ok := parseTime(item["created_at"]); ok {
		rec.CreatedAt = &t
	}
	if t, ok := parseTime(item["updated_at"]); ok {
		rec.UpdatedAt = &t
	}

	return rec
}

// fieldOr uses the entry's value when the key is present and non-null,
// even when that value is empty; the caller's parameter fills in only
// absent or null keys.
func fieldOr(item repository.RawRecord, key, param string) string {
	if v, ok := item[key]; ok && v != nil {
		return anyToString(v)
	}
	return param
}

// fallbackMetadata coerces the entry's metadata to a mapping,
// defaulting to the caller's metadata argument, then to an empty map.
func fallbackMetadata(item repository.RawRecord, param map[string]any) map[string]any {
	if m, ok := item["metadata"].(map[string]any); ok && m != nil {
		return m
	}
	if param != nil {
		return param
	}
	return map[string]any{}
}
