package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	store, err := repository.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFirestoreAddGet(t *testing.T) {
	store := setupFirestore(t)
	ctx := context.Background()
	ident := model.Identity{UserID: "firestore-test-user"}

	result, err := store.Add(ctx, &repository.AddInput{
		Content:  "firestore roundtrip",
		Identity: ident,
		Metadata: map[string]any{"origin": "test"},
	})
	gt.NoError(t, err)
	gt.A(t, result.Results).Length(1)

	id := model.MemoryID(result.Results[0]["id"].(string))
	t.Cleanup(func() { store.Delete(ctx, id, ident) })

	raw, err := store.Get(ctx, id, ident)
	gt.NoError(t, err)
	gt.V(t, raw).NotNil()
	gt.Equal(t, raw["content"], "firestore roundtrip")
}

func TestFirestoreGetMissing(t *testing.T) {
	store := setupFirestore(t)
	ctx := context.Background()

	raw, err := store.Get(ctx, model.NewMemoryID(), model.Identity{})
	gt.NoError(t, err)
	gt.V(t, raw).Nil()
}

func TestFirestoreUpdateDelete(t *testing.T) {
	store := setupFirestore(t)
	ctx := context.Background()
	ident := model.Identity{UserID: "firestore-test-user"}

	result, err := store.Add(ctx, &repository.AddInput{
		Content:  "to be updated",
		Identity: ident,
	})
	gt.NoError(t, err)
	id := model.MemoryID(result.Results[0]["id"].(string))

	raw, err := store.Update(ctx, &repository.UpdateInput{
		ID:       id,
		Content:  "updated content",
		Identity: ident,
		Metadata: map[string]any{"rev": "2"},
	})
	gt.NoError(t, err)
	gt.V(t, raw).NotNil()

	deleted, err := store.Delete(ctx, id, ident)
	gt.NoError(t, err)
	gt.True(t, deleted)
}
