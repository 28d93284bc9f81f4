package memory_test

import (
	"context"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

// mockStore lets each test override exactly the store behavior it
// exercises. Unset methods return zero values.
type mockStore struct {
	addFn       func(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error)
	getFn       func(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error)
	payloadFn   func(ctx context.Context, id model.MemoryID) (repository.RawRecord, error)
	getAllFn    func(ctx context.Context, q *repository.Query) (*repository.QueryResult, error)
	updateFn    func(ctx context.Context, input *repository.UpdateInput) (repository.RawRecord, error)
	deleteFn    func(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error)
	deleteAllFn func(ctx context.Context, ident model.Identity) (int, error)
	statsFn     func(ctx context.Context, ident model.Identity) (*model.Statistics, error)
	usersFn     func(ctx context.Context) ([]string, error)
}

func (m *mockStore) Add(ctx context.Context, input *repository.AddInput) (*repository.AddResult, error) {
	if m.addFn == nil {
		return &repository.AddResult{Results: []repository.RawRecord{}}, nil
	}
	return m.addFn(ctx, input)
}

func (m *mockStore) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (repository.RawRecord, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, id, ident)
}

func (m *mockStore) GetPayload(ctx context.Context, id model.MemoryID) (repository.RawRecord, error) {
	if m.payloadFn == nil {
		return nil, nil
	}
	return m.payloadFn(ctx, id)
}

func (m *mockStore) GetAll(ctx context.Context, q *repository.Query) (*repository.QueryResult, error) {
	if m.getAllFn == nil {
		return &repository.QueryResult{Results: []any{}}, nil
	}
	return m.getAllFn(ctx, q)
}

func (m *mockStore) Update(ctx context.Context, input *repository.UpdateInput) (repository.RawRecord, error) {
	if m.updateFn == nil {
		return nil, nil
	}
	return m.updateFn(ctx, input)
}

func (m *mockStore) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error) {
	if m.deleteFn == nil {
		return false, nil
	}
	return m.deleteFn(ctx, id, ident)
}

func (m *mockStore) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	if m.deleteAllFn == nil {
		return 0, nil
	}
	return m.deleteAllFn(ctx, ident)
}

func (m *mockStore) GetStatistics(ctx context.Context, ident model.Identity) (*model.Statistics, error) {
	if m.statsFn == nil {
		return &model.Statistics{}, nil
	}
	return m.statsFn(ctx, ident)
}

func (m *mockStore) GetUsers(ctx context.Context) ([]string, error) {
	if m.usersFn == nil {
		return nil, nil
	}
	return m.usersFn(ctx)
}

func (m *mockStore) Close() error { return nil }
