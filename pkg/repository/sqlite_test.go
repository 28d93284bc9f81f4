package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

func setupSQLite(t *testing.T) *repository.SQLite {
	t.Helper()

	store, err := repository.NewSQLite(filepath.Join(t.TempDir(), "mnemo.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addOne(t *testing.T, store *repository.SQLite, content string, ident model.Identity) model.MemoryID {
	t.Helper()

	result, err := store.Add(context.Background(), &repository.AddInput{
		Content:  content,
		Identity: ident,
		Metadata: map[string]any{"origin": "test"},
	})
	gt.NoError(t, err)
	gt.A(t, result.Results).Length(1)
	return model.MemoryID(result.Results[0]["id"].(string))
}

func TestSQLiteAddGet(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	id := addOne(t, store, "persisted fact", model.Identity{UserID: "u1"})

	raw, err := store.Get(ctx, id, model.Identity{UserID: "u1"})
	gt.NoError(t, err)
	gt.V(t, raw).NotNil()
	gt.Equal(t, raw["content"], "persisted fact")
	gt.Equal(t, raw["user_id"], "u1")

	meta := raw["metadata"].(map[string]any)
	gt.Equal(t, meta["origin"], "test")
}

func TestSQLiteGetMissing(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	raw, err := store.Get(ctx, "no-such-id", model.Identity{})
	gt.NoError(t, err)
	gt.V(t, raw).Nil()
}

func TestSQLiteGetIdentityMismatch(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	id := addOne(t, store, "scoped", model.Identity{UserID: "u1"})

	raw, err := store.Get(ctx, id, model.Identity{UserID: "other"})
	gt.NoError(t, err)
	gt.V(t, raw).Nil()
}

func TestSQLiteGetPayload(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	id := addOne(t, store, "raw payload", model.Identity{})

	payload, err := store.GetPayload(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, payload["data"], "raw payload")
}

func TestSQLiteAddInferDedupe(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)
	ident := model.Identity{UserID: "u1"}

	first, err := store.Add(ctx, &repository.AddInput{
		Content:  "alpha\nbeta",
		Identity: ident,
		Infer:    true,
	})
	gt.NoError(t, err)
	gt.A(t, first.Results).Length(2)

	second, err := store.Add(ctx, &repository.AddInput{
		Content:  "alpha\ngamma",
		Identity: ident,
		Infer:    true,
	})
	gt.NoError(t, err)
	gt.A(t, second.Results).Length(1)
	gt.Equal(t, second.Results[0]["memory"], "gamma")
}

func TestSQLiteUpdate(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	id := addOne(t, store, "before", model.Identity{UserID: "u1"})

	raw, err := store.Update(ctx, &repository.UpdateInput{
		ID:       id,
		Content:  "after",
		Identity: model.Identity{UserID: "u1"},
		Metadata: map[string]any{"rev": "2"},
	})
	gt.NoError(t, err)
	gt.V(t, raw).NotNil()

	_, hasID := raw["id"]
	gt.True(t, !hasID)

	fetched, err := store.Get(ctx, id, model.Identity{UserID: "u1"})
	gt.NoError(t, err)
	gt.Equal(t, fetched["content"], "after")
}

func TestSQLiteUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	raw, err := store.Update(ctx, &repository.UpdateInput{ID: "missing", Content: "x"})
	gt.NoError(t, err)
	gt.V(t, raw).Nil()
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	id := addOne(t, store, "short lived", model.Identity{})

	deleted, err := store.Delete(ctx, id, model.Identity{})
	gt.NoError(t, err)
	gt.True(t, deleted)

	deleted, err = store.Delete(ctx, id, model.Identity{})
	gt.NoError(t, err)
	gt.True(t, !deleted)
}

func TestSQLiteDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	addOne(t, store, "u1 first", model.Identity{UserID: "u1"})
	addOne(t, store, "u1 second", model.Identity{UserID: "u1"})
	addOne(t, store, "u2 only", model.Identity{UserID: "u2"})

	count, err := store.DeleteAll(ctx, model.Identity{UserID: "u1"})
	gt.NoError(t, err)
	gt.Equal(t, count, 2)

	users, err := store.GetUsers(ctx)
	gt.NoError(t, err)
	gt.Equal(t, users, []string{"u2"})
}

func TestSQLiteGetAll(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	for i := 0; i < 5; i++ {
		addOne(t, store, "list item", model.Identity{UserID: "u1"})
	}
	addOne(t, store, "other user", model.Identity{UserID: "u2"})

	result, err := store.GetAll(ctx, &repository.Query{
		Identity: model.Identity{UserID: "u1"},
		Limit:    3,
		SortBy:   "id",
		Order:    "asc",
	})
	gt.NoError(t, err)
	gt.A(t, result.Results).Length(3)

	for _, entry := range result.Results {
		raw := entry.(repository.RawRecord)
		gt.Equal(t, raw["user_id"], "u1")
	}
}

func TestSQLiteStatistics(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	result, err := store.Add(ctx, &repository.AddInput{
		Content:  "typed record",
		Identity: model.Identity{UserID: "u1"},
		Type:     "fact",
	})
	gt.NoError(t, err)
	id := model.MemoryID(result.Results[0]["id"].(string))

	addOne(t, store, "untyped record", model.Identity{UserID: "u1"})

	// Two reads make the typed record the most accessed one.
	_, err = store.Get(ctx, id, model.Identity{UserID: "u1"})
	gt.NoError(t, err)
	_, err = store.Get(ctx, id, model.Identity{UserID: "u1"})
	gt.NoError(t, err)

	stats, err := store.GetStatistics(ctx, model.Identity{UserID: "u1"})
	gt.NoError(t, err)
	gt.Equal(t, stats.TotalMemories, 2)
	gt.Equal(t, stats.ByType["fact"], 1)
	gt.Equal(t, stats.ByType["unknown"], 1)
	gt.Equal(t, stats.AvgImportance, 0.5)
	gt.Equal(t, stats.AgeDistribution[model.AgeBucketUnder1Day], 2)

	gt.A(t, stats.TopAccessed).Longer(0)
	gt.Equal(t, stats.TopAccessed[0].ID, id)
	gt.Equal(t, stats.TopAccessed[0].AccessCount, 2)
}

func TestSQLiteStatisticsEmpty(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	stats, err := store.GetStatistics(ctx, model.Identity{})
	gt.NoError(t, err)
	gt.Equal(t, stats.TotalMemories, 0)
	gt.Equal(t, stats.AvgImportance, 0.0)
	gt.A(t, stats.TopAccessed).Length(0)
}
