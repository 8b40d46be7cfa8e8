package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Clipstream account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	AvatarURL string `json:"avatar_url"`

	// Social stats (cached counters, source of truth is the relation tables)
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	VideoCount     int `gorm:"default:0" json:"video_count"`

	// Referral program
	ReferralCode string  `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredByID *string `gorm:"type:uuid;index" json:"referred_by_id,omitempty"`

	// Moderation
	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns IDs and a referral code before insert
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.ReferralCode == "" {
		// Short, URL-safe code derived from a fresh UUID
		u.ReferralCode = generateUUID()[:8]
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
