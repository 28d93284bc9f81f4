package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/y-kuroda/mnemo/pkg/model"
)

// memRecord is the internal storage shape of the in-memory backend.
// Content is persisted under "data" in the raw payload, matching the
// field naming of the production backends.
type memRecord struct {
	id          model.MemoryID
	content     string
	userID      string
	agentID     string
	runID       string
	metadata    map[string]any
	scope       string
	memType     string
	importance  *float64
	accessCount int
	createdAt   time.Time
	updatedAt   time.Time
}

// Memory is a map-backed Store. It is safe for concurrent use and is
// the default backend for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[model.MemoryID]*memRecord
	order   []model.MemoryID
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[model.MemoryID]*memRecord),
		now:     time.Now,
	}
}

// Add ingests one logical input. With Infer enabled the input is split
// into line-wise facts and facts identical to an already stored record
// of the same identity are suppressed, so the result may hold zero,
// one or many records.
func (s *Memory) Add(ctx context.Context, input *AddInput) (*AddResult, error) {
	facts := []string{input.Content}
	if input.Infer {
		facts = extractFacts(input.Content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &AddResult{Results: []RawRecord{}}
	for _, fact := range facts {
		if input.Infer && s.hasDuplicate(fact, input.Identity) {
			continue
		}

		now := s.now().UTC()
		rec := &memRecord{
			id:        model.NewMemoryID(),
			content:   fact,
			userID:    input.Identity.UserID,
			agentID:   input.Identity.AgentID,
			runID:     input.Identity.RunID,
			metadata:  copyMetadata(input.Metadata),
			scope:     input.Scope,
			memType:   input.Type,
			createdAt: now,
			updatedAt: now,
		}
		s.records[rec.id] = rec
		s.order = append(s.order, rec.id)

		result.Results = append(result.Results, RawRecord{
			"id":         string(rec.id),
			"memory":     rec.content,
			"user_id":    rec.userID,
			"agent_id":   rec.agentID,
			"run_id":     rec.runID,
			"metadata":   copyMetadata(rec.metadata),
			"created_at": rec.createdAt,
			"updated_at": rec.updatedAt,
		})
	}

	return result, nil
}

func (s *Memory) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || !matchIdentity(rec, ident) {
		return nil, nil
	}
	rec.accessCount++
	return rawFromRecord(rec), nil
}

func (s *Memory) GetPayload(ctx context.Context, id model.MemoryID) (RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return RawRecord{
		"data":     rec.content,
		"metadata": copyMetadata(rec.metadata),
	}, nil
}

func (s *Memory) GetAll(ctx context.Context, q *Query) (*QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*memRecord
	for _, id := range s.order {
		rec := s.records[id]
		if matchIdentity(rec, q.Identity) {
			matched = append(matched, rec)
		}
	}

	sortRecords(matched, q.SortBy, q.Order)

	offset := q.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	result := &QueryResult{Results: make([]any, 0, len(matched))}
	for _, rec := range matched {
		result.Results = append(result.Results, any(rawFromRecord(rec)))
	}
	return result, nil
}

// Update replaces content and metadata. The returned record omits the
// id field, mirroring the raw update payload of the production
// backends.
func (s *Memory) Update(ctx context.Context, input *UpdateInput) (RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[input.ID]
	if !ok || !matchIdentity(rec, input.Identity) {
		return nil, nil
	}

	rec.content = input.Content
	rec.metadata = copyMetadata(input.Metadata)
	rec.updatedAt = s.now().UTC()

	raw := rawFromRecord(rec)
	delete(raw, "id")
	return raw, nil
}

func (s *Memory) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || !matchIdentity(rec, ident) {
		return false, nil
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Memory) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []model.MemoryID
	deleted := 0
	for _, id := range s.order {
		if matchIdentity(s.records[id], ident) {
			delete(s.records, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return deleted, nil
}

func (s *Memory) GetStatistics(ctx context.Context, ident model.Identity) (*model.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*model.MemoryRecord
	for _, id := range s.order {
		rec := s.records[id]
		if !matchIdentity(rec, ident) {
			continue
		}
		createdAt := rec.createdAt
		records = append(records, &model.MemoryRecord{
			ID:          rec.id,
			Content:     rec.content,
			Metadata:    copyMetadata(rec.metadata),
			CreatedAt:   &createdAt,
			Importance:  rec.importance,
			AccessCount: rec.accessCount,
			Type:        rec.memType,
		})
	}
	return model.ComputeStatistics(records, s.now()), nil
}

func (s *Memory) GetUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	var users []string
	for _, id := range s.order {
		u := s.records[id].userID
		if u != "" && !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *Memory) Close() error { return nil }

func (s *Memory) hasDuplicate(content string, ident model.Identity) bool {
	for _, rec := range s.records {
		if rec.content == content && rec.userID == ident.UserID &&
			rec.agentID == ident.AgentID && rec.runID == ident.RunID {
			return true
		}
	}
	return false
}

// extractFacts splits an input into one fact per non-empty line.
func extractFacts(content string) []string {
	var facts []string
	for _, line := range strings.Split(content, "\n") {
		if fact := strings.TrimSpace(line); fact != "" {
			facts = append(facts, fact)
		}
	}
	return facts
}

func matchIdentity(rec *memRecord, ident model.Identity) bool {
	if ident.UserID != "" && rec.userID != ident.UserID {
		return false
	}
	if ident.AgentID != "" && rec.agentID != ident.AgentID {
		return false
	}
	if ident.RunID != "" && rec.runID != ident.RunID {
		return false
	}
	return true
}

func sortRecords(records []*memRecord, sortBy, order string) {
	if sortBy == "" {
		return
	}
	less := func(a, b *memRecord) bool {
		switch sortBy {
		case "updated_at":
			return a.updatedAt.Before(b.updatedAt)
		case "id":
			return a.id < b.id
		default: // created_at
			return a.createdAt.Before(b.createdAt)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if order == "desc" {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func rawFromRecord(rec *memRecord) RawRecord {
	raw := RawRecord{
		"id":           string(rec.id),
		"content":      rec.content,
		"user_id":      rec.userID,
		"agent_id":     rec.agentID,
		"run_id":       rec.runID,
		"metadata":     copyMetadata(rec.metadata),
		"access_count": rec.accessCount,
		"created_at":   rec.createdAt,
		"updated_at":   rec.updatedAt,
	}
	if rec.memType != "" {
		raw["memory_type"] = rec.memType
	}
	if rec.importance != nil {
		raw["importance"] = *rec.importance
	}
	return raw
}

func copyMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
