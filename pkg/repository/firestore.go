package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/y-kuroda/mnemo/pkg/model"
)

const memoryCollection = "memories"

// statisticsScanLimit bounds the document scan backing the native
// statistics snapshot, since Firestore has no server-side aggregation
// beyond counts.
const statisticsScanLimit = 10000

// Firestore is a Store backed by Cloud Firestore. Content is persisted
// under the internal "data" field of each document.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed store.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (s *Firestore) collection() *firestore.CollectionRef {
	return s.client.Collection(memoryCollection)
}

func (s *Firestore) Add(ctx context.Context, input *AddInput) (*AddResult, error) {
	facts := []string{input.Content}
	if input.Infer {
		facts = extractFacts(input.Content)
	}

	result := &AddResult{Results: []RawRecord{}}
	for _, fact := range facts {
		if input.Infer {
			dup, err := s.isDuplicate(ctx, fact, input.Identity)
			if err != nil {
				return nil, err
			}
			if dup {
				continue
			}
		}

		id := model.NewMemoryID()
		now := time.Now().UTC()
		doc := map[string]any{
			"data":         fact,
			"user_id":      input.Identity.UserID,
			"agent_id":     input.Identity.AgentID,
			"run_id":       input.Identity.RunID,
			"metadata":     orEmpty(input.Metadata),
			"scope":        input.Scope,
			"memory_type":  input.Type,
			"access_count": 0,
			"created_at":   now,
			"updated_at":   now,
		}
		if _, err := s.collection().Doc(string(id)).Set(ctx, doc); err != nil {
			return nil, goerr.Wrap(err, "failed to write memory document", goerr.V("memory_id", id))
		}

		result.Results = append(result.Results, RawRecord{
			"id":         string(id),
			"memory":     fact,
			"user_id":    input.Identity.UserID,
			"agent_id":   input.Identity.AgentID,
			"run_id":     input.Identity.RunID,
			"metadata":   orEmpty(input.Metadata),
			"created_at": now,
			"updated_at": now,
		})
	}

	return result, nil
}

func (s *Firestore) isDuplicate(ctx context.Context, content string, ident model.Identity) (bool, error) {
	query := s.collection().
		Where("data", "==", content).
		Where("user_id", "==", ident.UserID).
		Where("agent_id", "==", ident.AgentID).
		Where("run_id", "==", ident.RunID).
		Limit(1)

	iter := query.Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to check duplicate")
	}
	return true, nil
}

func (s *Firestore) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (RawRecord, error) {
	snap, err := s.collection().Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory document", goerr.V("memory_id", id))
	}

	raw := rawFromDoc(string(id), snap.Data())
	if !identityMatches(raw, ident) {
		return nil, nil
	}

	// access tracking; a failed bump does not fail the read
	snap.Ref.Update(ctx, []firestore.Update{
		{Path: "access_count", Value: firestore.Increment(1)},
	})

	return raw, nil
}

func (s *Firestore) GetPayload(ctx context.Context, id model.MemoryID) (RawRecord, error) {
	snap, err := s.collection().Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory payload", goerr.V("memory_id", id))
	}
	return RawRecord(snap.Data()), nil
}

func (s *Firestore) GetAll(ctx context.Context, q *Query) (*QueryResult, error) {
	query := s.identityQuery(q.Identity)

	if col, ok := sortColumns[q.SortBy]; ok {
		dir := firestore.Asc
		if q.Order == "desc" {
			dir = firestore.Desc
		}
		if col == "id" {
			query = query.OrderBy(firestore.DocumentID, dir)
		} else {
			query = query.OrderBy(col, dir)
		}
	}

	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query = query.Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	result := &QueryResult{Results: []any{}}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory documents")
		}
		result.Results = append(result.Results, any(rawFromDoc(snap.Ref.ID, snap.Data())))
	}
	return result, nil
}

func (s *Firestore) Update(ctx context.Context, input *UpdateInput) (RawRecord, error) {
	ref := s.collection().Doc(string(input.ID))
	now := time.Now().UTC()

	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "data", Value: input.Content},
		{Path: "metadata", Value: orEmpty(input.Metadata)},
		{Path: "updated_at", Value: now},
	})
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update memory document", goerr.V("memory_id", input.ID))
	}

	// Raw update payload carries no id, like the underlying storage API.
	return RawRecord{
		"memory":     input.Content,
		"metadata":   orEmpty(input.Metadata),
		"updated_at": now,
	}, nil
}

func (s *Firestore) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error) {
	snap, err := s.collection().Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to get memory document", goerr.V("memory_id", id))
	}
	if !identityMatches(rawFromDoc(string(id), snap.Data()), ident) {
		return false, nil
	}

	if _, err := snap.Ref.Delete(ctx); err != nil {
		return false, goerr.Wrap(err, "failed to delete memory document", goerr.V("memory_id", id))
	}
	return true, nil
}

func (s *Firestore) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	iter := s.identityQuery(ident).Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	deleted := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, goerr.Wrap(err, "failed to iterate memory documents")
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return deleted, goerr.Wrap(err, "failed to enqueue delete", goerr.V("memory_id", snap.Ref.ID))
		}
		deleted++
	}
	bw.End()
	return deleted, nil
}

func (s *Firestore) GetStatistics(ctx context.Context, ident model.Identity) (*model.Statistics, error) {
	iter := s.identityQuery(ident).Limit(statisticsScanLimit).Documents(ctx)
	defer iter.Stop()

	var records []*model.MemoryRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory documents")
		}
		records = append(records, recordFromDoc(snap.Ref.ID, snap.Data()))
	}
	return model.ComputeStatistics(records, time.Now()), nil
}

func (s *Firestore) GetUsers(ctx context.Context) ([]string, error) {
	iter := s.collection().Select("user_id").Documents(ctx)
	defer iter.Stop()

	seen := map[string]bool{}
	var users []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory documents")
		}
		if u, ok := snap.Data()["user_id"].(string); ok && u != "" && !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *Firestore) Close() error {
	return s.client.Close()
}

func (s *Firestore) identityQuery(ident model.Identity) firestore.Query {
	query := s.collection().Query
	if ident.UserID != "" {
		query = query.Where("user_id", "==", ident.UserID)
	}
	if ident.AgentID != "" {
		query = query.Where("agent_id", "==", ident.AgentID)
	}
	if ident.RunID != "" {
		query = query.Where("run_id", "==", ident.RunID)
	}
	return query
}

// rawFromDoc surfaces the stored "data" field as "content", keeping the
// rest of the document untouched.
func rawFromDoc(id string, doc map[string]any) RawRecord {
	raw := RawRecord{"id": id}
	for k, v := range doc {
		if k == "data" {
			raw["content"] = v
			continue
		}
		raw[k] = v
	}
	return raw
}

func recordFromDoc(id string, doc map[string]any) *model.MemoryRecord {
	rec := &model.MemoryRecord{
		ID:       model.MemoryID(id),
		Metadata: map[string]any{},
	}
	if v, ok := doc["data"].(string); ok {
		rec.Content = v
	}
	if v, ok := doc["memory_type"].(string); ok {
		rec.Type = v
	}
	if v, ok := doc["metadata"].(map[string]any); ok {
		rec.Metadata = v
	}
	if v, ok := doc["importance"].(float64); ok {
		rec.Importance = &v
	}
	switch v := doc["access_count"].(type) {
	case int64:
		rec.AccessCount = int(v)
	case int:
		rec.AccessCount = v
	}
	if v, ok := doc["created_at"].(time.Time); ok {
		rec.CreatedAt = &v
	}
	if v, ok := doc["updated_at"].(time.Time); ok {
		rec.UpdatedAt = &v
	}
	return rec
}

func identityMatches(raw RawRecord, ident model.Identity) bool {
	match := func(key, want string) bool {
		if want == "" {
			return true
		}
		got, _ := raw[key].(string)
		return got == want
	}
	return match("user_id", ident.UserID) &&
		match("agent_id", ident.AgentID) &&
		match("run_id", ident.RunID)
}
