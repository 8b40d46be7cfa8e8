package models

import (
	"time"

	"gorm.io/gorm"
)

// Community is a named group ("server") that scopes uploads and the
// per-user upload quota. Unrelated to a backend process.
type Community struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IconURL     string `json:"icon_url"`

	OwnerID string `gorm:"not null;index" json:"owner_id"`
	Owner   User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	// Cached counters
	MemberCount int `gorm:"default:0" json:"member_count"`
	VideoCount  int `gorm:"default:0" json:"video_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityMember links users to the communities they joined
type CommunityMember struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string    `gorm:"not null;index" json:"community_id"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      string    `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Role string `gorm:"default:member" json:"role"` // member, moderator, owner

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures the join table gets a stable name
func (CommunityMember) TableName() string {
	return "community_members"
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *CommunityMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
