package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

// Get retrieves a memory by id. When the fetched record carries empty
// content, the raw storage payload is consulted for the internal
// content field; a failed secondary lookup is logged and the record is
// returned with empty content rather than failing the call.
func (u *UseCase) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (*model.MemoryRecord, error) {
	raw, err := u.store.Get(ctx, id, ident)
	if err != nil {
		return nil, goerr.Wrap(model.ErrInternal, "store get failed",
			goerr.V("memory_id", id), goerr.V("cause", model.TruncateMessage(err.Error())))
	}
	if raw == nil {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "memory not found", goerr.V("memory_id", id))
	}

	rec, err := normalizeRecord(raw)
	if err != nil {
		return nil, goerr.Wrap(model.ErrInternal, "store returned malformed record",
			goerr.V("memory_id", id))
	}

	if rec.Content == "" {
		payload, err := u.store.GetPayload(ctx, id)
		if err != nil {
			u.logger.Warn("failed to read raw payload for content reconciliation",
				"memory_id", id, "error", err)
		} else if payload != nil {
			if data := stringField(payload, "data"); data != "" {
				rec.Content = data
			}
		}
	}

	return rec, nil
}

// Valid list enum values.
var (
	listSortKeys = map[string]bool{"": true, "created_at": true, "updated_at": true, "id": true}
	listOrders   = map[string]bool{"": true, "asc": true, "desc": true}
)

// ListInput selects records for List.
type ListInput struct {
	Identity model.Identity
	Limit    int
	Offset   int
	SortBy   string // "created_at", "updated_at", "id" or "" for store order
	Order    string // "asc" or "desc" (default)
}

// List retrieves memories with pagination and sorting. Store entries
// that are not well-formed records are dropped and logged, so the
// returned sequence may be shorter than the store's raw result.
func (u *UseCase) List(ctx context.Context, input *ListInput) ([]*model.MemoryRecord, error) {
	if !listSortKeys[input.SortBy] {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown sort key", goerr.V("sort_by", input.SortBy))
	}
	if !listOrders[input.Order] {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown sort order", goerr.V("order", input.Order))
	}

	order := input.Order
	if order == "" {
		order = "desc"
	}

	result, err := u.store.GetAll(ctx, &repository.Query{
		Identity: input.Identity,
		Limit:    input.Limit,
		Offset:   input.Offset,
		SortBy:   input.SortBy,
		Order:    order,
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrInternal, "store list failed",
			goerr.V("cause", model.TruncateMessage(err.Error())))
	}

	records := make([]*model.MemoryRecord, 0, len(result.Results))
	for i, entry := range result.Results {
		raw, ok := asRaw(entry)
		if !ok {
			u.logger.Warn("skipping malformed entry in list result", "index", i)
			continue
		}
		rec, err := normalizeRecord(raw)
		if err != nil {
			u.logger.Warn("skipping entry without usable id in list result", "index", i)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Users returns the distinct user identifiers present in the store.
func (u *UseCase) Users(ctx context.Context) ([]string, error) {
	users, err := u.store.GetUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(model.ErrInternal, "store user listing failed",
			goerr.V("cause", model.TruncateMessage(err.Error())))
	}
	return users, nil
}
