package models

import "time"

// SyncSummary tallies the outcome of one reconciliation pass.
type SyncSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// Total returns the number of pages mutated during the pass.
func (s SyncSummary) Total() int {
	return s.Created + s.Updated + s.Deleted
}

// RunRecord captures the most recent completed sync run.
type RunRecord struct {
	RunID          string      `json:"run_id"`
	FinishedAt     time.Time   `json:"finished_at"`
	DurationMillis int64       `json:"duration_ms"`
	Summary        SyncSummary `json:"summary"`
}
