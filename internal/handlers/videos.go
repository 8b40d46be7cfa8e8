package handlers

import (
	"fmt"
	"net/http"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/errors"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/metrics"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/ratelimit"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateVideo creates a video post in a community. The per-community
// upload quota is checked and consumed BEFORE any metadata is written,
// so a denied attempt leaves no trace and an admitted attempt holds
// its slot even if the client never finishes uploading the bytes.
// POST /api/v1/videos
func (h *Handlers) CreateVideo(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		CommunityID      string  `json:"community_id" binding:"required"`
		Title            string  `json:"title" binding:"required,min=1,max=200"`
		Description      string  `json:"description" binding:"max=5000"`
		OriginalFilename string  `json:"original_filename"`
		FileSize         int64   `json:"file_size"`
		Duration         float64 `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", req.CommunityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	var membership models.CommunityMember
	err := database.DB.First(&membership, "community_id = ? AND user_id = ?", req.CommunityID, userID).Error
	if err != nil {
		util.RespondForbidden(c, "You must join this community before uploading")
		return
	}

	decision, err := h.limiter.CheckAndRecord(c.Request.Context(), userID, req.CommunityID)
	if err != nil {
		metrics.Get().UploadAdmissionsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("Upload admission check failed",
			logger.WithUserID(userID),
			logger.WithCommunityID(req.CommunityID),
			zap.Error(err),
		)
		if ratelimit.IsStorageError(err) {
			util.RespondWithAPIError(c, errors.ServiceUnavailable("upload admission"))
			return
		}
		util.RespondInternalError(c, "Failed to check upload quota")
		return
	}

	if !decision.Allowed {
		metrics.Get().UploadAdmissionsTotal.WithLabelValues("denied").Inc()
		metrics.Get().UploadQuotaDeniedTotal.WithLabelValues(req.CommunityID).Inc()
		logger.Log.Info("Upload denied by quota",
			logger.WithUserID(userID),
			logger.WithCommunityID(req.CommunityID),
			zap.Int("current_count", decision.CurrentCount),
		)

		cfg := h.limiter.Config()
		msg := fmt.Sprintf("upload limit reached: %d uploads per %s per community",
			cfg.Quota, cfg.Window)
		apiErr := errors.RateLimited(msg)
		c.JSON(apiErr.Status, gin.H{
			"code":      string(apiErr.Code),
			"message":   apiErr.Message,
			"admission": decision,
		})
		return
	}

	metrics.Get().UploadAdmissionsTotal.WithLabelValues("allowed").Inc()

	video := models.Video{
		UserID:           userID,
		CommunityID:      req.CommunityID,
		Title:            req.Title,
		Description:      req.Description,
		OriginalFilename: req.OriginalFilename,
		FileSize:         req.FileSize,
		Duration:         req.Duration,
		Status:           "pending",
		IsPublic:         true,
	}
	if err := database.DB.Create(&video).Error; err != nil {
		logger.Log.Error("Failed to create video after admission",
			logger.WithUserID(userID),
			logger.WithCommunityID(req.CommunityID),
			zap.Error(err),
		)
		h.maybeReleaseSlot(c, userID, req.CommunityID)
		util.RespondInternalError(c, "Failed to create video")
		return
	}

	if err := database.DB.Model(&community).UpdateColumn("video_count", gorm.Expr("video_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment community video count", err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("video_count", gorm.Expr("video_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment user video count", err)
	}

	resp := gin.H{
		"video":     video,
		"admission": decision,
	}

	// Hand the client a presigned PUT URL so the bytes go straight to
	// object storage
	if h.storage != nil {
		upload, err := h.storage.PresignVideoUpload(c.Request.Context(), userID, req.OriginalFilename)
		if err != nil {
			logger.Log.Error("Failed to presign video upload", zap.Error(err))
		} else {
			if err := database.DB.Model(&video).UpdateColumn("video_url", upload.PublicURL).Error; err != nil {
				logger.WarnWithFields("Failed to store video URL", err)
			} else {
				video.VideoURL = upload.PublicURL
				resp["video"] = video
			}
			resp["upload"] = upload
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// UpdateVideoStatus transitions a video between pending, ready and
// failed. When a video fails and the release policy is enabled, the
// quota slot the attempt consumed is handed back.
// PATCH /api/v1/videos/:id/status
func (h *Handlers) UpdateVideoStatus(c *gin.Context) {
	videoID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=pending ready failed"`
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
	if video.UserID != userID {
		util.RespondForbidden(c, "You can only update your own videos")
		return
	}

	if err := database.DB.Model(&video).UpdateColumn("status", req.Status).Error; err != nil {
		util.RespondInternalError(c, "Failed to update video status")
		return
	}
	video.Status = req.Status

	if req.Status == "failed" {
		h.maybeReleaseSlot(c, userID, video.CommunityID)
	}

	c.JSON(http.StatusOK, gin.H{"video": video})
}

// GetVideo returns a single video with its uploader and community
// GET /api/v1/videos/:id
func (h *Handlers) GetVideo(c *gin.Context) {
	videoID := c.Param("id")

	var video models.Video
	err := database.DB.
		Preload("User").
		Preload("Community").
		First(&video, "id = ?", videoID).Error
	if err != nil {
		util.RespondNotFound(c, "video")
		return
	}

	// Views are best-effort, a lost increment is fine
	if err := database.DB.Model(&video).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment view count for video "+videoID, err)
	}

	c.JSON(http.StatusOK, gin.H{"video": video})
}

// ListVideos returns the public feed, newest first
// GET /api/v1/videos
func (h *Handlers) ListVideos(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	query := database.DB.
		Preload("User").
		Where("is_public = ? AND status = ?", true, "ready").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if communityID := c.Query("community_id"); communityID != "" {
		query = query.Where("community_id = ?", communityID)
	}

	var videos []models.Video
	if err := query.Find(&videos).Error; err != nil {
		util.RespondInternalError(c, "Failed to load videos")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"limit":  limit,
		"offset": offset,
	})
}

// DeleteVideo soft-deletes a video. Deleting does NOT give the upload
// slot back: the attempt already counted.
// DELETE /api/v1/videos/:id
func (h *Handlers) DeleteVideo(c *gin.Context) {
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
	if video.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own videos")
		return
	}

	if err := database.DB.Delete(&video).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete video")
		return
	}

	if err := database.DB.Model(&models.Community{}).Where("id = ?", video.CommunityID).
		UpdateColumn("video_count", gorm.Expr("video_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement community video count", err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("video_count", gorm.Expr("video_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement user video count", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "video deleted"})
}

// maybeReleaseSlot gives a consumed quota slot back when the operator
// has enabled the release policy. Without the policy this is a no-op.
func (h *Handlers) maybeReleaseSlot(c *gin.Context, userID, communityID string) {
	err := h.limiter.ReleaseLatest(c.Request.Context(), userID, communityID)
	if err == nil {
		logger.Log.Info("Released upload slot after failure",
			logger.WithUserID(userID),
			logger.WithCommunityID(communityID),
		)
		return
	}
	if err != ratelimit.ErrReleaseUnsupported {
		logger.Log.Error("Failed to release upload slot",
			logger.WithUserID(userID),
			logger.WithCommunityID(communityID),
			zap.Error(err),
		)
	}
}
