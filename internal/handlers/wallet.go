package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetWallet returns the caller's balance. The balance is derived from
// the ledger, never stored.
// GET /api/v1/wallet
func (h *Handlers) GetWallet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var balance int64
	err := database.DB.Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load wallet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance_cents": balance,
	})
}

// GetWalletTransactions lists the caller's ledger entries, newest first
// GET /api/v1/wallet/transactions
func (h *Handlers) GetWalletTransactions(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var transactions []models.WalletTransaction
	err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"limit":        limit,
		"offset":       offset,
	})
}

// AdminAdjustWallet credits or debits an arbitrary user. Admin only.
// POST /api/v1/admin/wallet/adjust
func (h *Handlers) AdminAdjustWallet(c *gin.Context) {
	var req struct {
		UserID      string `json:"user_id" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required"`
		Description string `json:"description" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	tx := models.WalletTransaction{
		UserID:      req.UserID,
		Amount:      req.AmountCents,
		Type:        models.WalletTxAdminAdjustment,
		Description: req.Description,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		util.RespondInternalError(c, "Failed to record adjustment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}
