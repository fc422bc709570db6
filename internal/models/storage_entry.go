package models

import "time"

// StorageEntry is one durable document keyed by storage key. The offer
// store writes its full collection as a single JSON array under one
// fixed key, overwriting the previous document on every mutation.
type StorageEntry struct {
	StorageKey string    `gorm:"type:varchar(64);primaryKey" json:"storage_key"`
	Document   string    `gorm:"type:longtext;not null" json:"document"`
	UpdatedAt  time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (StorageEntry) TableName() string {
	return "storage_entries"
}
