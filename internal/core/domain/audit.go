package domain

import "time"

// AuditRecord is an append-only log entry of a completed operation. Details
// is serialized to JSONB; interest lists stored here are later mined as
// "past interests" for targeting expansion.
type AuditRecord struct {
	ID        string
	UserID    string
	Action    string
	EntityID  string
	Details   map[string]any
	Timestamp time.Time
}
