package models

import "time"

// DiaryEntry is one persisted day's record: the user's own words plus the
// summary and learning outcome distilled from them. Entries are immutable
// once created — there is no update or delete path.
type DiaryEntry struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Learning  string    `json:"learning"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEntryRequest is the body of POST /api/entries
type CreateEntryRequest struct {
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	Learning string `json:"learning"`
}
