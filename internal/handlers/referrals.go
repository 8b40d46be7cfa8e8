package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	// Reward amounts in cents
	referrerBonus = 500
	referredBonus = 250
)

// RedeemReferralCode credits both sides of a referral. A user can be
// referred exactly once; the unique index on referred_user_id backs
// that up at the database level.
// POST /api/v1/referrals/redeem
func (h *Handlers) RedeemReferralCode(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var referrer models.User
	if err := database.DB.First(&referrer, "referral_code = ?", req.Code).Error; err != nil {
		util.RespondNotFound(c, "referral code")
		return
	}
	if referrer.ID == userID {
		util.RespondBadRequest(c, "you cannot redeem your own referral code")
		return
	}

	var existing models.Referral
	if err := database.DB.First(&existing, "referred_user_id = ?", userID).Error; err == nil {
		util.RespondConflict(c, "referral")
		return
	}

	referral := models.Referral{
		ReferrerID:     referrer.ID,
		ReferredUserID: userID,
		Code:           req.Code,
		RewardAmount:   referrerBonus,
		Status:         models.ReferralStatusRewarded,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}

		credits := []models.WalletTransaction{
			{
				UserID:      referrer.ID,
				Amount:      referrerBonus,
				Type:        models.WalletTxReferralBonus,
				Description: "Referral bonus",
			},
			{
				UserID:      userID,
				Amount:      referredBonus,
				Type:        models.WalletTxReferredBonus,
				Description: "Welcome bonus for joining via referral",
			},
		}
		if err := tx.Create(&credits).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("referred_by_id", referrer.ID).Error
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			util.RespondConflict(c, "referral")
			return
		}
		// sqlite reports the same condition as a plain unique error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "referral")
			return
		}
		logger.ErrorWithFields("Failed to redeem referral code", err)
		util.RespondInternalError(c, "Failed to redeem referral code")
		return
	}

	logger.Log.Info("Referral redeemed",
		logger.WithUserID(userID),
	)
	c.JSON(http.StatusCreated, gin.H{"referral": referral})
}

// GetMyReferrals lists referrals where the caller was the referrer
// GET /api/v1/referrals
func (h *Handlers) GetMyReferrals(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var referrals []models.Referral
	err := database.DB.
		Preload("ReferredUser").
		Where("referrer_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&referrals).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load referrals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"limit":     limit,
		"offset":    offset,
	})
}
