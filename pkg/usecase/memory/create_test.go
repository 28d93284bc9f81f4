package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

func TestCreateRefetchesRecords(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return &repository.AddResult{Results: []repository.RawRecord{
				{"id": "mem-1", "memory": "hello"},
			}}, nil
		},
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{
				"id":         string(id),
				"content":    "hello",
				"user_id":    "u1",
				"created_at": "2025-06-01T10:00:00Z",
				"updated_at": "2025-06-01T10:00:00Z",
			}, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.Create(ctx, &memory.CreateInput{
		Content:  "hello",
		Identity: model.Identity{UserID: "u1"},
	})
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].ID, model.MemoryID("mem-1"))
	gt.Equal(t, records[0].Content, "hello")
	gt.Equal(t, records[0].UserID, "u1")
	gt.V(t, records[0].CreatedAt).NotNil()
}

func TestCreateFallsBackToRawEntry(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return &repository.AddResult{Results: []repository.RawRecord{
				{
					"id":         "mem-2",
					"memory":     "stored text",
					"created_at": "2025-06-01T10:00:00Z",
				},
			}}, nil
		},
		// The re-fetch misses, so the record is built from the raw entry.
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return nil, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.Create(ctx, &memory.CreateInput{
		Content:  "caller text",
		Identity: model.Identity{UserID: "u1", AgentID: "a1"},
		Metadata: map[string]any{"source": "test"},
	})
	gt.NoError(t, err)
	gt.A(t, records).Length(1)

	rec := records[0]
	gt.Equal(t, rec.ID, model.MemoryID("mem-2"))
	// Entry value wins when the key is present, caller input fills the rest.
	gt.Equal(t, rec.Content, "stored text")
	gt.Equal(t, rec.UserID, "u1")
	gt.Equal(t, rec.AgentID, "a1")
	gt.Equal(t, rec.Metadata, map[string]any{"source": "test"})
	gt.V(t, rec.CreatedAt).NotNil()
	gt.V(t, rec.UpdatedAt).Nil()
}

func TestCreateFallbackKeepsPresentEmptyValue(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return &repository.AddResult{Results: []repository.RawRecord{
				{"id": "mem-4", "memory": ""},
			}}, nil
		},
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return nil, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.Create(ctx, &memory.CreateInput{
		Content:  "caller text",
		Identity: model.Identity{UserID: "u1"},
	})
	gt.NoError(t, err)
	gt.A(t, records).Length(1)

	// A present but empty entry value wins over the caller's input; only
	// absent or null keys fall back to it.
	gt.Equal(t, records[0].Content, "")
	gt.Equal(t, records[0].UserID, "u1")
}

func TestCreateZeroResults(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return &repository.AddResult{Results: []repository.RawRecord{}}, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.Create(ctx, &memory.CreateInput{Content: "duplicate", Infer: true})
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestCreateStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	uc := memory.New(store)

	_, err := uc.Create(ctx, &memory.CreateInput{Content: "hello"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrCreateFailed))
	gt.True(t, strings.Contains(err.Error(), "failed to create memory"))
}

func TestCreateSkipsEntriesWithoutID(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{
		addFn: func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
			return &repository.AddResult{Results: []repository.RawRecord{
				{"memory": "orphan entry"},
				{"id": "mem-3", "memory": "kept"},
			}}, nil
		},
		getFn: func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
			return repository.RawRecord{"id": string(id), "content": "kept"}, nil
		},
	}
	uc := memory.New(store)

	records, err := uc.Create(ctx, &memory.CreateInput{Content: "kept"})
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].ID, model.MemoryID("mem-3"))
}
