// Package models defines the domain models for the workflow sync service
package models

import (
	"time"
)

// SyncOutcome represents how a reconciliation pass ended
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailed  SyncOutcome = "failed"
	SyncOutcomeSkipped SyncOutcome = "skipped"
)

// SyncReport summarizes a single reconciliation pass
type SyncReport struct {
	PassID    string        `json:"pass_id"`
	Outcome   SyncOutcome   `json:"outcome"`
	Added     int           `json:"added"`
	Deleted   int           `json:"deleted"`
	Updated   int           `json:"updated"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}
