package models

import (
	"database/sql"
	"time"
)

const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncTask is one persisted unit of work for the Sheets mirror.
type SyncTask struct {
	ID          int64
	TaskType    string
	Payload     string
	Status      string
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt sql.NullTime
	NextRetryAt sql.NullTime
}
