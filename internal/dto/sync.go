package dto

import (
	"time"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
)

// RunSummaryResponse describes the most recent completed sync run.
type RunSummaryResponse struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Deleted    int       `json:"deleted"`
	Errors     int       `json:"errors"`
}

// NewRunSummaryResponse maps a run record into its API representation.
func NewRunSummaryResponse(record models.RunRecord) RunSummaryResponse {
	return RunSummaryResponse{
		RunID:      record.RunID,
		FinishedAt: record.FinishedAt,
		DurationMS: record.DurationMillis,
		Created:    record.Summary.Created,
		Updated:    record.Summary.Updated,
		Deleted:    record.Summary.Deleted,
		Errors:     record.Summary.Errors,
	}
}
