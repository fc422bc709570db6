package models

import (
	"time"
)

// SyncRetry records a CRM offer push that exhausted its inline retries.
// A background worker re-attempts these so computed offers eventually
// land on the opportunity record even after CRM outages.
type SyncRetry struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OpportunityID string     `gorm:"type:varchar(64);not null;index:idx_sync_opportunity" json:"opportunity_id"`
	CustomFieldID string     `gorm:"type:varchar(64);not null" json:"custom_field_id"`
	FieldValue    float64    `gorm:"not null" json:"field_value"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_sync_status" json:"status"` // pending, processing, done, failed
	Attempts      int        `gorm:"default:0" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt   *time.Time `gorm:"index:idx_sync_retry_at" json:"next_retry_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (SyncRetry) TableName() string {
	return "sync_retry_queue"
}

// Status constants
const (
	SyncStatusPending    = "pending"
	SyncStatusProcessing = "processing"
	SyncStatusDone       = "done"
	SyncStatusFailed     = "failed"
)

// MaxSyncRetryAttempts before a queue entry stops being rescheduled.
const MaxSyncRetryAttempts = 5

// NextSyncRetryDelay calculates the backoff before the next background
// re-attempt.
func NextSyncRetryDelay(attempts int) time.Duration {
	// 5min, 15min, 1h, 4h, 12h
	delays := []time.Duration{
		5 * time.Minute,
		15 * time.Minute,
		1 * time.Hour,
		4 * time.Hour,
		12 * time.Hour,
	}

	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
