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

// CreateComment creates a new comment on a video
// POST /api/v1/videos/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	videoID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var video models.Video
	if err := database.DB.First(&video, "id = ?", videoID).Error; err != nil {
		util.RespondNotFound(c, "video")
		return
	}

	// If replying, verify the parent exists and belongs to the same video
	if req.ParentID != nil && *req.ParentID != "" {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ? AND video_id = ?", *req.ParentID, videoID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		// Only one level of nesting - replies to replies attach to the
		// top-level comment
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	comment := models.Comment{
		VideoID:  videoID,
		UserID:   userID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&video).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for video "+videoID, err)
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load comment with user", err)
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments retrieves comments for a video with pagination
// GET /api/v1/videos/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	videoID := c.Param("id")
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))
	parentID := c.Query("parent_id") // Optional: get replies to a specific comment

	var video models.Video
	if err := database.DB.First(&video, "id = ?", videoID).Error; err != nil {
		util.RespondNotFound(c, "video")
		return
	}

	query := database.DB.
		Preload("User").
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"limit":    limit,
		"offset":   offset,
	})
}

// DeleteComment soft-deletes the caller's comment
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own comments")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Video{}).Where("id = ?", comment.VideoID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for video "+comment.VideoID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
