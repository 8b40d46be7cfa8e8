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

// LikeVideo records a like on a video
// POST /api/v1/videos/:id/like
func (h *Handlers) LikeVideo(c *gin.Context) {
	videoID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var video models.Video
	if err := database.DB.First(&video, "id = ?", videoID).Error; err != nil {
		util.RespondNotFound(c, "video")
		return
	}

	var existing models.Like
	if err := database.DB.First(&existing, "user_id = ? AND video_id = ?", userID, videoID).Error; err == nil {
		util.RespondConflict(c, "like")
		return
	}

	like := models.Like{
		UserID:  userID,
		VideoID: videoID,
	}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "Failed to like video")
		return
	}

	if err := database.DB.Model(&video).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment like count for video "+videoID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"like": like})
}

// UnlikeVideo removes a like
// DELETE /api/v1/videos/:id/like
func (h *Handlers) UnlikeVideo(c *gin.Context) {
	videoID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&models.Like{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to unlike video")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "like")
		return
	}

	if err := database.DB.Model(&models.Video{}).Where("id = ?", videoID).
		UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement like count for video "+videoID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "unliked"})
}
