package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetUser returns a public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe updates the caller's profile fields
// PATCH /api/v1/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=50"`
		Bio         *string `json:"bio" binding:"omitempty,max=500"`
		AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserVideos lists a user's public videos, newest first
// GET /api/v1/users/:id/videos
func (h *Handlers) GetUserVideos(c *gin.Context) {
	userID := c.Param("id")
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var videos []models.Video
	err := database.DB.
		Where("user_id = ? AND is_public = ?", userID, true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load videos")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"limit":  limit,
		"offset": offset,
	})
}
