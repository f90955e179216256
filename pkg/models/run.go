package models

import "time"

// RunStats counts what a resolution run read, compared and produced.
type RunStats struct {
	RecordsA    int `json:"records_a" db:"records_a"`
	RecordsB    int `json:"records_b" db:"records_b"`
	SkippedA    int `json:"skipped_a" db:"skipped_a"`
	SkippedB    int `json:"skipped_b" db:"skipped_b"`
	Blocks      int `json:"blocks" db:"blocks"`
	Unblocked   int `json:"unblocked" db:"unblocked"`
	Comparisons int `json:"comparisons" db:"comparisons"`
	Decided     int `json:"decided" db:"decided"`
	Matched     int `json:"matched" db:"matched"`
	UnmatchedA  int `json:"unmatched_a" db:"unmatched_a"`
	UnmatchedB  int `json:"unmatched_b" db:"unmatched_b"`
	Resolved    int `json:"resolved" db:"resolved"`
	Warnings    int `json:"warnings" db:"warnings"`
}

// Run is a stored resolution run.
type Run struct {
	ID         string     `json:"run_id" db:"run_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	Thresholds Thresholds `json:"thresholds" db:"-"`
	RunStats
}
