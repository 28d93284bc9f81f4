package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

// runBatch executes one operation per input item, capturing each
// item's outcome under its original index. One item's failure never
// aborts the others, and every index lands in exactly one of the two
// result lists. Items run sequentially.
func runBatch[T any](items []T, run func(index int, item T) (model.BatchOutcome, error)) *model.BatchResult {
	result := &model.BatchResult{
		Successes: []model.BatchOutcome{},
		Failures:  []model.BatchFailure{},
		Total:     len(items),
	}

	for index, item := range items {
		outcome, err := run(index, item)
		if err != nil {
			result.Failures = append(result.Failures, model.BatchFailure{
				Index:    index,
				MemoryID: outcome.MemoryID,
				Kind:     model.ErrorKind(err),
				Error:    model.TruncateMessage(err.Error()),
			})
			continue
		}
		outcome.Index = index
		result.Successes = append(result.Successes, outcome)
	}

	result.SuccessCount = len(result.Successes)
	result.FailureCount = len(result.Failures)
	return result
}

// BulkDelete deletes each id independently. A missing id or a failed
// deletion is captured as a per-item failure, never raised.
func (u *UseCase) BulkDelete(ctx context.Context, ids []model.MemoryID, ident model.Identity) *model.BatchResult {
	return runBatch(ids, func(index int, id model.MemoryID) (model.BatchOutcome, error) {
		if err := u.Delete(ctx, id, ident); err != nil {
			return model.BatchOutcome{MemoryID: id}, err
		}
		return model.BatchOutcome{MemoryID: id}, nil
	})
}

// BatchCreateItem is one entry of a batch creation. Per-item fields
// override the batch-level identity's companions where supplied.
type BatchCreateItem struct {
	Content  string         `json:"content" yaml:"content"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata"`
	Filters  map[string]any `json:"filters,omitempty" yaml:"filters"`
	Scope    string         `json:"scope,omitempty" yaml:"scope"`
	Type     string         `json:"type,omitempty" yaml:"type"`
}

// BatchCreate creates memories item by item under a common identity.
// Items without content fail individually; so do items whose store
// result yields no usable memory id.
func (u *UseCase) BatchCreate(ctx context.Context, items []BatchCreateItem, ident model.Identity, infer bool) *model.BatchResult {
	return runBatch(items, func(index int, item BatchCreateItem) (model.BatchOutcome, error) {
		if item.Content == "" {
			return model.BatchOutcome{}, goerr.Wrap(model.ErrInvalidArgument,
				"memory content is required", goerr.V("index", index))
		}

		result, err := u.store.Add(ctx, &repository.AddInput{
			Content:  item.Content,
			Identity: ident,
			Metadata: item.Metadata,
			Filters:  item.Filters,
			Scope:    item.Scope,
			Type:     item.Type,
			Infer:    infer,
		})
		if err != nil {
			return model.BatchOutcome{}, goerr.Wrap(model.ErrCreateFailed, "store add failed",
				goerr.V("index", index), goerr.V("cause", model.TruncateMessage(err.Error())))
		}

		id := extractMemoryID(result)
		if id == "" {
			return model.BatchOutcome{}, goerr.Wrap(model.ErrCreateFailed,
				"failed to extract memory id from store result", goerr.V("index", index))
		}

		return model.BatchOutcome{MemoryID: id, Content: item.Content}, nil
	})
}

// extractMemoryID resolves the created id with fixed precedence:
// first result entry's "id", then the top-level memory id, then the
// top-level id.
func extractMemoryID(result *repository.AddResult) model.MemoryID {
	if len(result.Results) > 0 {
		if id := stringField(result.Results[0], "id"); id != "" {
			return model.MemoryID(id)
		}
	}
	if result.MemoryID != "" {
		return model.MemoryID(result.MemoryID)
	}
	if result.ID != "" {
		return model.MemoryID(result.ID)
	}
	return ""
}

// BatchUpdateItem is one entry of a batch update.
type BatchUpdateItem struct {
	MemoryID model.MemoryID `json:"memory_id" yaml:"memory_id"`
	Content  *string        `json:"content,omitempty" yaml:"content"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// BatchUpdate applies the single-update merge semantics per item. Items
// without a memory id, or with neither content nor metadata, fail
// individually.
func (u *UseCase) BatchUpdate(ctx context.Context, items []BatchUpdateItem, ident model.Identity) *model.BatchResult {
	return runBatch(items, func(index int, item BatchUpdateItem) (model.BatchOutcome, error) {
		if item.MemoryID == "" {
			return model.BatchOutcome{}, goerr.Wrap(model.ErrInvalidArgument,
				"memory_id is required for each update", goerr.V("index", index))
		}

		if _, err := u.Update(ctx, &UpdateInput{
			ID:       item.MemoryID,
			Content:  item.Content,
			Metadata: item.Metadata,
			Identity: ident,
		}); err != nil {
			return model.BatchOutcome{MemoryID: item.MemoryID}, err
		}

		return model.BatchOutcome{MemoryID: item.MemoryID}, nil
	})
}
