package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow links a follower to the user they follow
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the pair table name stable
func (Follow) TableName() string {
	return "follows"
}

// Like links a user to a video they liked
type Like struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	VideoID string `gorm:"not null;index" json:"video_id"`
	Video   Video  `gorm:"foreignKey:VideoID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}
