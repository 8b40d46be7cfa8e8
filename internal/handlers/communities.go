package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateCommunity creates a community with the caller as owner
// POST /api/v1/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=60"`
		Description string `json:"description" binding:"max=2000"`
		IconURL     string `json:"icon_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var existing models.Community
	if err := database.DB.First(&existing, "LOWER(name) = LOWER(?)", req.Name).Error; err == nil {
		util.RespondConflict(c, "community name")
		return
	}

	community := models.Community{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		OwnerID:     userID,
		MemberCount: 1,
	}

	// Creator becomes the first member in the same transaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		member := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      userID,
			Role:        "owner",
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to create community")
		return
	}

	logger.Log.Info("Community created",
		logger.WithUserID(userID),
		logger.WithCommunityID(community.ID),
	)
	c.JSON(http.StatusCreated, gin.H{"community": community})
}

// ListCommunities returns communities ordered by member count
// GET /api/v1/communities
func (h *Handlers) ListCommunities(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	query := database.DB.
		Order("member_count DESC, created_at DESC").
		Limit(limit).
		Offset(offset)

	if search := c.Query("q"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var communities []models.Community
	if err := query.Find(&communities).Error; err != nil {
		util.RespondInternalError(c, "Failed to load communities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"communities": communities,
		"limit":       limit,
		"offset":      offset,
	})
}

// GetCommunity returns one community with its owner
// GET /api/v1/communities/:id
func (h *Handlers) GetCommunity(c *gin.Context) {
	communityID := c.Param("id")

	var community models.Community
	if err := database.DB.Preload("Owner").First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	c.JSON(http.StatusOK, gin.H{"community": community})
}

// JoinCommunity adds the caller as a member
// POST /api/v1/communities/:id/join
func (h *Handlers) JoinCommunity(c *gin.Context) {
	communityID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	var existing models.CommunityMember
	if err := database.DB.First(&existing, "community_id = ? AND user_id = ?", communityID, userID).Error; err == nil {
		util.RespondConflict(c, "membership")
		return
	}

	member := models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        "member",
	}
	if err := database.DB.Create(&member).Error; err != nil {
		util.RespondInternalError(c, "Failed to join community")
		return
	}

	if err := database.DB.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment member count for community "+communityID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"membership": member})
}

// LeaveCommunity removes the caller's membership. The owner cannot
// leave their own community.
// DELETE /api/v1/communities/:id/join
func (h *Handlers) LeaveCommunity(c *gin.Context) {
	communityID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}
	if community.OwnerID == userID {
		util.RespondForbidden(c, "Owners cannot leave their own community")
		return
	}

	result := database.DB.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to leave community")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "membership")
		return
	}

	if err := database.DB.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement member count for community "+communityID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "left community"})
}

// GetCommunityMembers lists members of a community
// GET /api/v1/communities/:id/members
func (h *Handlers) GetCommunityMembers(c *gin.Context) {
	communityID := c.Param("id")
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	var members []models.CommunityMember
	err := database.DB.
		Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load members")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": members,
		"limit":   limit,
		"offset":  offset,
	})
}
