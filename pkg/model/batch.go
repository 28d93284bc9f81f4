package model

// BatchOutcome is the per-item success entry of a batch operation,
// keyed by the item's position in the input sequence.
type BatchOutcome struct {
	Index    int      `json:"index"`
	MemoryID MemoryID `json:"memory_id"`
	Content  string   `json:"content,omitempty"`
}

// BatchFailure is the per-item failure entry of a batch operation.
type BatchFailure struct {
	Index    int      `json:"index"`
	MemoryID MemoryID `json:"memory_id,omitempty"`
	Kind     string   `json:"kind"`
	Error    string   `json:"error"`
}

// BatchResult collects the outcome of a partial-failure batch
// operation. Every index in [0, Total) appears in exactly one of
// Successes or Failures.
type BatchResult struct {
	Successes    []BatchOutcome `json:"successes"`
	Failures     []BatchFailure `json:"failures"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
}
