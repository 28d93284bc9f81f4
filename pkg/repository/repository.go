package repository

import (
	"context"

	"github.com/y-kuroda/mnemo/pkg/model"
)

// RawRecord is a loosely-typed record as returned by a store backend.
// Field names and value types vary between backends; the service layer
// normalizes them into model.MemoryRecord.
type RawRecord map[string]any

// AddInput carries one logical memory input to Store.Add.
type AddInput struct {
	Content  string
	Identity model.Identity
	Metadata map[string]any
	Filters  map[string]any
	Scope    string
	Type     string
	Infer    bool
}

// AddResult is the outcome of Store.Add. Results may be empty when the
// store's inference step folds the input into zero new records. Some
// backends report a single created id at the top level instead of a
// result entry.
type AddResult struct {
	Results  []RawRecord
	MemoryID string
	ID       string
}

// Query selects records for Store.GetAll.
type Query struct {
	Identity model.Identity
	Limit    int
	Offset   int
	SortBy   string // "created_at", "updated_at", "id" or "" for store order
	Order    string // "asc" or "desc"
}

// QueryResult holds raw entries from Store.GetAll. Entries are typed
// as any because a backend may yield malformed items; callers must
// check the shape of each entry.
type QueryResult struct {
	Results []any
}

// UpdateInput carries a full replacement write for Store.Update. Merge
// semantics are applied by the service before calling Update.
type UpdateInput struct {
	ID       model.MemoryID
	Content  string
	Identity model.Identity
	Metadata map[string]any
}

// Store is the contract consumed by the memory service. Backends own
// their wire format; the only shape promises are the ones documented
// per method.
type Store interface {
	// Add ingests one logical input and returns zero or more created
	// records, depending on the backend's inference step.
	Add(ctx context.Context, input *AddInput) (*AddResult, error)

	// Get returns the record for id, or (nil, nil) when absent.
	Get(ctx context.Context, id model.MemoryID, ident model.Identity) (RawRecord, error)

	// GetPayload returns the raw storage payload for id, bypassing any
	// field renaming the backend applies in Get. Used to reconcile
	// content stored under an internal field name.
	GetPayload(ctx context.Context, id model.MemoryID) (RawRecord, error)

	// GetAll returns identity-filtered records with pagination and
	// optional sorting. Entries are not guaranteed to be well-formed.
	GetAll(ctx context.Context, q *Query) (*QueryResult, error)

	// Update replaces content and metadata of an existing record. The
	// returned record may omit the "id" field.
	Update(ctx context.Context, input *UpdateInput) (RawRecord, error)

	// Delete removes a record, reporting whether it was deleted.
	Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error)

	// DeleteAll removes all records matching the identity filters and
	// returns the number of deleted records.
	DeleteAll(ctx context.Context, ident model.Identity) (int, error)

	// GetStatistics returns the backend's native aggregate snapshot.
	GetStatistics(ctx context.Context, ident model.Identity) (*model.Statistics, error)

	// GetUsers returns the distinct user identifiers present in the store.
	GetUsers(ctx context.Context) ([]string, error)

	Close() error
}
