package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralStatus represents the state of a referral
type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusRewarded ReferralStatus = "rewarded"
)

// Referral records one user joining through another user's code.
// A user can be referred at most once.
type Referral struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID     string `gorm:"not null;index" json:"referrer_id"`
	Referrer       User   `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID string `gorm:"not null;uniqueIndex" json:"referred_user_id"`
	ReferredUser   User   `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`

	Code         string         `gorm:"not null" json:"code"`
	RewardAmount int64          `gorm:"not null" json:"reward_amount"` // cents
	Status       ReferralStatus `gorm:"default:pending" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransactionType categorizes ledger entries
type WalletTransactionType string

const (
	WalletTxReferralBonus  WalletTransactionType = "referral_bonus"
	WalletTxReferredBonus  WalletTransactionType = "referred_bonus"
	WalletTxUploadReward   WalletTransactionType = "upload_reward"
	WalletTxAdminAdjustment WalletTransactionType = "admin_adjustment"
)

// WalletTransaction is one row in the append-only wallet ledger.
// A user's balance is the sum of their transaction amounts.
type WalletTransaction struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Amount      int64                 `gorm:"not null" json:"amount"` // cents, signed
	Type        WalletTransactionType `gorm:"not null" json:"type"`
	Description string                `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}
