package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	uc := memory.New(&mockStore{})

	_, err := uc.Get(ctx, "missing", model.Identity{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrMemoryNotFound))
}

func TestGetStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return nil, errors.New("deadline exceeded")
		},
	}
	uc := memory.New(store)

	_, err := uc.Get(ctx, "mem-1", model.Identity{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInternal))
}

func TestGetReconcilesEmptyContent(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{"id": string(id)}, nil
		},
		payloadFn: func(ctx context.Context, id model.MemoryID) (repository.RawRecord, error) {
			return repository.RawRecord{"data": "recovered content"}, nil
		},
	}
	uc := memory.New(store)

	rec, err := uc.Get(ctx, "mem-1", model.Identity{})
	gt.NoError(t, err)
	gt.Equal(t, rec.Content, "recovered content")
}

func TestGetToleratesPayloadFailure(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{"id": string(id)}, nil
		},
		payloadFn: func(ctx context.Context, id model.MemoryID) (repository.RawRecord, error) {
			return nil, errors.New("payload read failed")
		},
	}
	uc := memory.New(store)

	rec, err := uc.Get(ctx, "mem-1", model.Identity{})
	gt.NoError(t, err)
	gt.Equal(t, rec.Content, "")
}

func TestGetNormalizesFieldVariants(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{
				"memory_id":    42,
				"data":         "numeric id record",
				"memory_type":  "note",
				"importance":   "0.75",
				"access_count": float64(3),
				"created_at":   "2025-06-01 10:00:00",
			}, nil
		},
	}
	uc := memory.New(store)

	rec, err := uc.Get(ctx, "42", model.Identity{})
	gt.NoError(t, err)
	gt.Equal(t, rec.ID, model.MemoryID("42"))
	gt.Equal(t, rec.Content, "numeric id record")
	gt.Equal(t, rec.Type, "note")
	gt.V(t, rec.Importance).NotNil()
	gt.Equal(t, *rec.Importance, 0.75)
	gt.Equal(t, rec.AccessCount, 3)
	gt.V(t, rec.CreatedAt).NotNil()
}

func TestGetContentPrecedence(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{
				"id":      string(id),
				"memory":  "from memory field",
				"content": "from content field",
				"data":    "from data field",
			}, nil
		},
	}
	uc := memory.New(store)

	rec, err := uc.Get(ctx, "mem-1", model.Identity{})
	gt.NoError(t, err)
	gt.Equal(t, rec.Content, "from memory field")
}

func TestListValidatesEnums(t *testing.T) {
	ctx := context.Background()
	uc := memory.New(&mockStore{})

	_, err := uc.List(ctx, &memory.ListInput{SortBy: "bogus"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = uc.List(ctx, &memory.ListInput{Order: "sideways"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestListDefaultsToDescending(t *testing.T) {
	ctx := context.Background()
	var captured *repository.Query
	store := &mockStore{
		getAllFn: func(ctx context.Context, q *repository.Query) (*repository.QueryResult, error) {
			captured = q
			return &repository.QueryResult{Results: []any{}}, nil
		},
	}
	uc := memory.New(store)

	_, err := uc.List(ctx, &memory.ListInput{SortBy: "created_at"})
	gt.NoError(t, err)
	gt.V(t, captured).NotNil()
	gt.Equal(t, captured.Order, "desc")
}

func TestListDropsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		getAllFn: func(ctx context.Context, q *repository.Query) (*repository.QueryResult, error) {
			return &repository.QueryResult{Results: []any{
				repository.RawRecord{"id": "first", "content": "kept"},
				"not a record",
				repository.RawRecord{"id": "second", "content": "also kept"},
				map[string]any{"content": "no usable id"},
			}}, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.List(ctx, &memory.ListInput{})
	gt.NoError(t, err)
	gt.A(t, records).Length(2)
	gt.Equal(t, records[0].ID, model.MemoryID("first"))
	gt.Equal(t, records[1].ID, model.MemoryID("second"))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		usersFn: func(ctx context.Context) ([]string, error) {
			return []string{"alice", "bob"}, nil
		},
	}
	uc := memory.New(store)

	users, err := uc.Users(ctx)
	gt.NoError(t, err)
	gt.Equal(t, users, []string{"alice", "bob"})
}
