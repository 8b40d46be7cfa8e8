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

// FollowUser makes the caller follow another user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	followeeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if followeeID == userID {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}

	var followee models.User
	if err := database.DB.First(&followee, "id = ?", followeeID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var existing models.Follow
	if err := database.DB.First(&existing, "follower_id = ? AND followee_id = ?", userID, followeeID).Error; err == nil {
		util.RespondConflict(c, "follow")
		return
	}

	follow := models.Follow{
		FollowerID: userID,
		FolloweeID: followeeID,
	}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	if err := database.DB.Model(&followee).UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment follower count for user "+followeeID, err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment following count for user "+userID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"follow": follow})
}

// UnfollowUser removes an existing follow
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	followeeID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("follower_id = ? AND followee_id = ?", userID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "follow")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement follower count for user "+followeeID, err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement following count for user "+userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

// GetFollowers lists users following :id
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var follows []models.Follow
	err := database.DB.
		Preload("Follower").
		Where("followee_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load followers")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Follower)
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": users,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetFollowing lists users that :id follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var follows []models.Follow
	err := database.DB.
		Preload("Followee").
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load following")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Followee)
	}

	c.JSON(http.StatusOK, gin.H{
		"following": users,
		"limit":     limit,
		"offset":    offset,
	})
}
