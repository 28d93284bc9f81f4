package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/y-kuroda/mnemo/pkg/model"
)

// SQLite is a Store backed by a local SQLite database. Content is
// persisted under the internal "data" column.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", dir))
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", dbPath))
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to migrate database")
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id           TEXT PRIMARY KEY,
		data         TEXT NOT NULL,
		user_id      TEXT NOT NULL DEFAULT '',
		agent_id     TEXT NOT NULL DEFAULT '',
		run_id       TEXT NOT NULL DEFAULT '',
		metadata     TEXT,
		scope        TEXT NOT NULL DEFAULT '',
		memory_type  TEXT NOT NULL DEFAULT '',
		importance   REAL,
		access_count INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);
	CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Add(ctx context.Context, input *AddInput) (*AddResult, error) {
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
		now := time.Now().UTC().Format(time.RFC3339)
		metaJSON, err := json.Marshal(orEmpty(input.Metadata))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode metadata")
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO memories (id, data, user_id, agent_id, run_id, metadata, scope, memory_type, importance, access_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, 0, ?, ?)`,
			string(id), fact, input.Identity.UserID, input.Identity.AgentID, input.Identity.RunID,
			string(metaJSON), input.Scope, input.Type, now, now)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to insert memory", goerr.V("memory_id", id))
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

func (s *SQLite) isDuplicate(ctx context.Context, content string, ident model.Identity) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE data = ? AND user_id = ? AND agent_id = ? AND run_id = ?`,
		content, ident.UserID, ident.AgentID, ident.RunID).Scan(&count)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check duplicate")
	}
	return count > 0, nil
}

func (s *SQLite) Get(ctx context.Context, id model.MemoryID, ident model.Identity) (RawRecord, error) {
	clause, args := identityClause(ident)
	query := `SELECT id, data, user_id, agent_id, run_id, metadata, memory_type, importance, access_count, created_at, updated_at
	          FROM memories WHERE id = ?` + clause
	row := s.db.QueryRowContext(ctx, query, append([]any{string(id)}, args...)...)

	raw, err := scanRaw(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}

	// access tracking; a failed bump does not fail the read
	s.db.ExecContext(ctx, `UPDATE memories SET access_count = access_count + 1 WHERE id = ?`, string(id))

	return raw, nil
}

func (s *SQLite) GetPayload(ctx context.Context, id model.MemoryID) (RawRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM memories WHERE id = ?`, string(id)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get payload", goerr.V("memory_id", id))
	}
	return RawRecord{"data": data}, nil
}

// sortColumns maps accepted sort keys to columns, keeping identifiers
// out of the SQL text.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"id":         "id",
}

func (s *SQLite) GetAll(ctx context.Context, q *Query) (*QueryResult, error) {
	clause, args := identityClause(q.Identity)

	query := `SELECT id, data, user_id, agent_id, run_id, metadata, memory_type, importance, access_count, created_at, updated_at
	          FROM memories WHERE 1=1` + clause

	if col, ok := sortColumns[q.SortBy]; ok {
		query += " ORDER BY " + col
		if strings.EqualFold(q.Order, "desc") {
			query += " DESC"
		} else {
			query += " ASC"
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories")
	}
	defer rows.Close()

	result := &QueryResult{Results: []any{}}
	for rows.Next() {
		raw, err := scanRaw(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory row")
		}
		result.Results = append(result.Results, any(raw))
	}
	return result, rows.Err()
}

func (s *SQLite) Update(ctx context.Context, input *UpdateInput) (RawRecord, error) {
	metaJSON, err := json.Marshal(orEmpty(input.Metadata))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode metadata")
	}

	clause, args := identityClause(input.Identity)
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET data = ?, metadata = ?, updated_at = ? WHERE id = ?`+clause,
		append([]any{input.Content, string(metaJSON), now, string(input.ID)}, args...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V("memory_id", input.ID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	// Raw update payload carries no id, like the production backend.
	return RawRecord{
		"memory":     input.Content,
		"metadata":   orEmpty(input.Metadata),
		"updated_at": now,
	}, nil
}

func (s *SQLite) Delete(ctx context.Context, id model.MemoryID, ident model.Identity) (bool, error) {
	clause, args := identityClause(ident)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ?`+clause,
		append([]any{string(id)}, args...)...)
	if err != nil {
		return false, goerr.Wrap(err, "failed to delete memory", goerr.V("memory_id", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to count deleted rows")
	}
	return n > 0, nil
}

func (s *SQLite) DeleteAll(ctx context.Context, ident model.Identity) (int, error) {
	clause, args := identityClause(ident)
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE 1=1`+clause, args...)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete memories")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count deleted rows")
	}
	return int(n), nil
}

func (s *SQLite) GetStatistics(ctx context.Context, ident model.Identity) (*model.Statistics, error) {
	clause, args := identityClause(ident)

	stats := &model.Statistics{
		ByType:      map[string]int{},
		TopAccessed: []model.TopAccessed{},
		GrowthTrend: map[string]int{},
		AgeDistribution: map[string]int{
			model.AgeBucketUnder1Day: 0,
			model.AgeBucket1To7Days:  0,
			model.AgeBucket7To30Days: 0,
			model.AgeBucketOver30:    0,
		},
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(COALESCE(importance, 0.5)), 0) FROM memories WHERE 1=1`+clause,
		args...).Scan(&stats.TotalMemories, &stats.AvgImportance)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate totals")
	}
	if stats.TotalMemories == 0 {
		return stats, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT CASE WHEN memory_type = '' THEN 'unknown' ELSE memory_type END, COUNT(*)
		 FROM memories WHERE 1=1`+clause+` GROUP BY 1`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate types")
	}
	defer rows.Close()
	for rows.Next() {
		var memType string
		var count int
		if err := rows.Scan(&memType, &count); err != nil {
			return nil, goerr.Wrap(err, "failed to scan type row")
		}
		stats.ByType[memType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read type rows")
	}

	topRows, err := s.db.QueryContext(ctx,
		`SELECT id, substr(data, 1, 100), access_count FROM memories
		 WHERE access_count > 0`+clause+` ORDER BY access_count DESC LIMIT 10`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate access counts")
	}
	defer topRows.Close()
	for topRows.Next() {
		var entry model.TopAccessed
		var id string
		if err := topRows.Scan(&id, &entry.ContentPreview, &entry.AccessCount); err != nil {
			return nil, goerr.Wrap(err, "failed to scan access row")
		}
		entry.ID = model.MemoryID(id)
		stats.TopAccessed = append(stats.TopAccessed, entry)
	}
	if err := topRows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read access rows")
	}

	growthRows, err := s.db.QueryContext(ctx,
		`SELECT date(created_at), COUNT(*) FROM memories WHERE 1=1`+clause+` GROUP BY 1`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate growth trend")
	}
	defer growthRows.Close()
	for growthRows.Next() {
		var day string
		var count int
		if err := growthRows.Scan(&day, &count); err != nil {
			return nil, goerr.Wrap(err, "failed to scan growth row")
		}
		stats.GrowthTrend[day] = count
	}
	if err := growthRows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read growth rows")
	}

	ageRows, err := s.db.QueryContext(ctx,
		`SELECT CASE
		    WHEN julianday('now') - julianday(created_at) < 1 THEN ?
		    WHEN julianday('now') - julianday(created_at) < 7 THEN ?
		    WHEN julianday('now') - julianday(created_at) < 30 THEN ?
		    ELSE ? END AS bucket, COUNT(*)
		 FROM memories WHERE 1=1`+clause+` GROUP BY bucket`,
		append([]any{model.AgeBucketUnder1Day, model.AgeBucket1To7Days, model.AgeBucket7To30Days, model.AgeBucketOver30}, args...)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate age distribution")
	}
	defer ageRows.Close()
	for ageRows.Next() {
		var bucket string
		var count int
		if err := ageRows.Scan(&bucket, &count); err != nil {
			return nil, goerr.Wrap(err, "failed to scan age row")
		}
		stats.AgeDistribution[bucket] = count
	}
	if err := ageRows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read age rows")
	}

	return stats, nil
}

func (s *SQLite) GetUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM memories WHERE user_id != '' ORDER BY user_id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, goerr.Wrap(err, "failed to scan user row")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRaw reads a full memory row into the loose record shape. Content
// surfaces under "content"; the raw "data" column is reachable through
// GetPayload.
func scanRaw(row scanner) (RawRecord, error) {
	var id, data, userID, agentID, runID, memType, createdAt, updatedAt string
	var metaJSON sql.NullString
	var importance sql.NullFloat64
	var accessCount int

	if err := row.Scan(&id, &data, &userID, &agentID, &runID, &metaJSON, &memType,
		&importance, &accessCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &metadata); err != nil {
			metadata = map[string]any{}
		}
	}

	raw := RawRecord{
		"id":           id,
		"content":      data,
		"user_id":      userID,
		"agent_id":     agentID,
		"run_id":       runID,
		"metadata":     metadata,
		"access_count": accessCount,
		"created_at":   createdAt,
		"updated_at":   updatedAt,
	}
	if memType != "" {
		raw["memory_type"] = memType
	}
	if importance.Valid {
		raw["importance"] = importance.Float64
	}
	return raw, nil
}

func identityClause(ident model.Identity) (string, []any) {
	var clause strings.Builder
	var args []any
	if ident.UserID != "" {
		clause.WriteString(" AND user_id = ?")
		args = append(args, ident.UserID)
	}
	if ident.AgentID != "" {
		clause.WriteString(" AND agent_id = ?")
		args = append(args, ident.AgentID)
	}
	if ident.RunID != "" {
		clause.WriteString(" AND run_id = ?")
		args = append(args, ident.RunID)
	}
	return clause.String(), args
}

func orEmpty(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
