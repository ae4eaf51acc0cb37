package model

import "time"

// SearchLogEntry records one committed search for a user's history.
type SearchLogEntry struct {
	ID          string    `db:"search_id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	Source      Source    `db:"source" json:"source"`
	Query       string    `db:"query" json:"query"` // CanonicalQuery.Key()
	ResultCount int       `db:"result_count" json:"result_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
