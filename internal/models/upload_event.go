package models

import (
	"time"

	"gorm.io/gorm"
)

// UploadEvent is one admitted upload attempt for a (user, community)
// pair. Rows are append-only: they are never updated or deleted by
// normal operation, they just age out of the 24-hour quota window.
// The composite (user_id, community_id, occurred_at) index that makes
// window counting cheap is created in database.createIndexes.
type UploadEvent struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"not null" json:"user_id"`
	CommunityID string    `gorm:"not null" json:"community_id"`
	OccurredAt  time.Time `gorm:"not null" json:"occurred_at"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName matches the persisted layout used by the quota queries
func (UploadEvent) TableName() string {
	return "upload_events"
}

func (e *UploadEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}
