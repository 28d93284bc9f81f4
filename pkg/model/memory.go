package model

import (
	"time"

	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Identity is the scoping triple used for access filtering. An empty
// string means the key is unset.
type Identity struct {
	UserID  string
	AgentID string
	RunID   string
}

// IsEmpty reports whether no scoping key is set
func (x Identity) IsEmpty() bool {
	return x.UserID == "" && x.AgentID == "" && x.RunID == ""
}

// MemoryRecord is the canonical shape of a stored memory once it has
// passed through normalization. Metadata is never nil.
type MemoryRecord struct {
	ID          MemoryID       `json:"id"`
	Content     string         `json:"content"`
	UserID      string         `json:"user_id,omitempty"`
	AgentID     string         `json:"agent_id,omitempty"`
	RunID       string         `json:"run_id,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	Importance  *float64       `json:"importance,omitempty"`
	AccessCount int            `json:"access_count"`
	Type        string         `json:"type,omitempty"`
}
