package models

import (
	"time"

	"gorm.io/gorm"
)

// Video represents a short-video post with metadata. The bytes live in
// object storage; this row only carries the URL.
type Video struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CommunityID string    `gorm:"not null;index" json:"community_id"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`

	// Content
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// File data
	VideoURL         string  `json:"video_url"`
	ThumbnailURL     string  `json:"thumbnail_url"`
	OriginalFilename string  `json:"original_filename"`
	FileSize         int64   `json:"file_size"`
	Duration         float64 `json:"duration"` // seconds

	// Engagement metrics (cached counters)
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`
	ViewCount    int `gorm:"default:0" json:"view_count"`

	// Status
	Status   string `gorm:"default:pending" json:"status"` // pending, ready, failed
	IsPublic bool   `gorm:"default:true" json:"is_public"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment represents a comment on a Video
type Comment struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	VideoID string `gorm:"not null;index" json:"video_id"`
	Video   Video  `gorm:"foreignKey:VideoID" json:"-"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Threading - parent_id is null for top-level comments
	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
