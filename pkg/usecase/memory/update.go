package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/utils/metrics"
)

// UpdateInput carries a partial update. Nil Content and nil Metadata
// mean "keep the existing value"; supplying neither is an error.
type UpdateInput struct {
	ID       model.MemoryID
	Content  *string
	Metadata map[string]any
	Identity model.Identity
}

// Update applies merge semantics to an existing record: supplied
// content replaces the old content, metadata is shallow-merged with
// new keys winning on conflict. The read-merge-write sequence is not
// atomic; concurrent updates to the same id are last-write-wins.
func (u *UseCase) Update(ctx context.Context, input *UpdateInput) (*model.MemoryRecord, error) {
	if input.Content == nil && input.Metadata == nil {
		return nil, goerr.Wrap(model.ErrInvalidArgument,
			"at least one of content or metadata must be provided",
			goerr.V("memory_id", input.ID))
	}

	existing, err := u.Get(ctx, input.ID, input.Identity)
	if err != nil {
		return nil, err
	}

	content := existing.Content
	if input.Content != nil {
		content = *input.Content
	}

	raw, err := u.store.Update(ctx, &repository.UpdateInput{
		ID:       input.ID,
		Content:  content,
		Identity: input.Identity,
		Metadata: mergeMetadata(existing.Metadata, input.Metadata),
	})
	if err != nil {
		u.metrics.Record(ctx, "update", metrics.StatusFailed)
		return nil, goerr.Wrap(model.ErrUpdateFailed, "store update failed",
			goerr.V("memory_id", input.ID), goerr.V("cause", model.TruncateMessage(err.Error())))
	}
	if raw == nil {
		u.metrics.Record(ctx, "update", metrics.StatusFailed)
		return nil, goerr.Wrap(model.ErrUpdateFailed, "store reported no update",
			goerr.V("memory_id", input.ID))
	}

	// The raw update payload may omit the id; the returned record must
	// carry it regardless.
	if stringField(raw, "id", "memory_id") == "" {
		raw["id"] = string(input.ID)
	}

	rec, err := normalizeRecord(raw)
	if err != nil {
		u.metrics.Record(ctx, "update", metrics.StatusFailed)
		return nil, goerr.Wrap(model.ErrInternal, "store returned malformed update result",
			goerr.V("memory_id", input.ID))
	}

	u.logger.Info("memory updated", "memory_id", input.ID)
	u.metrics.Record(ctx, "update", metrics.StatusSuccess)
	return rec, nil
}

// mergeMetadata implements the update merge rule: shallow merge when
// both sides are present and the existing map is non-empty (new keys
// win), otherwise whichever side is present.
func mergeMetadata(existing, update map[string]any) map[string]any {
	if update != nil && len(existing) > 0 {
		merged := make(map[string]any, len(existing)+len(update))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range update {
			merged[k] = v
		}
		return merged
	}
	if len(existing) > 0 {
		return existing
	}
	return update
}
