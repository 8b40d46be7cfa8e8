package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) createVideoRequest(communityID string) map[string]interface{} {
	return map[string]interface{}{
		"community_id":      communityID,
		"title":             "My clip",
		"original_filename": "clip.mp4",
		"file_size":         1024,
		"duration":          12.5,
	}
}

func (suite *HandlersTestSuite) TestCreateVideoSuccess() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	response := decodeBody(t, w)
	video := response["video"].(map[string]interface{})
	assert.Equal(t, "My clip", video["title"])
	assert.Equal(t, "pending", video["status"])

	admission := response["admission"].(map[string]interface{})
	assert.Equal(t, true, admission["allowed"])
	assert.Equal(t, float64(0), admission["current_count"])
	assert.Equal(t, float64(2), admission["quota"])

	// The admission was recorded
	var count int64
	suite.db.Model(&models.Video{}).Where("user_id = ?", suite.testUser.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestCreateVideoRequiresAuth() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", "", suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreateVideoRequiresMembership() {
	t := suite.T()
	outsider := suite.createUser("outsider")

	w := suite.doJSON("POST", "/api/v1/videos", outsider.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No quota slot was consumed by the rejected attempt
	d, err := suite.limiter.CheckAndRecord(context.Background(), outsider.ID, suite.community.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d.CurrentCount)
}

func (suite *HandlersTestSuite) TestCreateVideoUnknownCommunity() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID,
		suite.createVideoRequest("00000000-0000-0000-0000-000000000000"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestThirdUploadWithin24HoursIsDenied() {
	t := suite.T()

	for i := 0; i < 2; i++ {
		w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
		require.Equal(t, http.StatusCreated, w.Code, "upload %d, body: %s", i+1, w.Body.String())
	}

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, "RATE_LIMITED", response["code"])
	assert.Contains(t, response["message"], "2 uploads per 24h")

	admission := response["admission"].(map[string]interface{})
	assert.Equal(t, false, admission["allowed"])
	assert.Equal(t, float64(2), admission["current_count"])
	assert.NotEmpty(t, admission["retry_not_before"])

	// The denied attempt created no video row
	var count int64
	suite.db.Model(&models.Video{}).Where("user_id = ?", suite.testUser.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func (suite *HandlersTestSuite) TestQuotaIsPerCommunity() {
	t := suite.T()

	// Exhaust the first community
	for i := 0; i < 2; i++ {
		w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// A second community has a fresh budget
	other := &models.Community{Name: "Other Community", OwnerID: suite.testUser.ID, MemberCount: 1}
	require.NoError(t, suite.db.Create(other).Error)
	require.NoError(t, suite.db.Create(&models.CommunityMember{
		CommunityID: other.ID,
		UserID:      suite.testUser.ID,
		Role:        "owner",
	}).Error)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(other.ID))
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func (suite *HandlersTestSuite) TestQuotaRollsOverAfterWindow() {
	t := suite.T()

	for i := 0; i < 2; i++ {
		w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// Advance past the window; the slots free up
	suite.clock.now = suite.clock.now.Add(ratelimit.DefaultWindow + time.Millisecond)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func (suite *HandlersTestSuite) TestDeniedAttemptDoesNotExtendLockout() {
	t := suite.T()

	for i := 0; i < 2; i++ {
		w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Repeated denials over several hours
	for i := 0; i < 5; i++ {
		w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		suite.clock.now = suite.clock.now.Add(time.Hour)
	}

	// 24h after the FIRST upload (plus the 5h of denials already
	// advanced) the oldest slot is free regardless of the denials
	suite.clock.now = suite.clock.now.Add(19*time.Hour + time.Millisecond)
	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func (suite *HandlersTestSuite) TestDeleteVideoDoesNotReleaseSlot() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/videos/"+videoID, suite.testUser.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The attempt still counts: third upload stays denied
	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateVideoStatus() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("PATCH", "/api/v1/videos/"+videoID+"/status", suite.testUser.ID,
		map[string]interface{}{"status": "ready"})
	assert.Equal(t, http.StatusOK, w.Code)

	var video models.Video
	require.NoError(t, suite.db.First(&video, "id = ?", videoID).Error)
	assert.Equal(t, "ready", video.Status)
}

func (suite *HandlersTestSuite) TestUpdateVideoStatusOwnerOnly() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	other := suite.createUser("somebody")
	w = suite.doJSON("PATCH", "/api/v1/videos/"+videoID+"/status", other.ID,
		map[string]interface{}{"status": "failed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestFailedVideoKeepsSlotByDefault() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	// Marking failed with the default policy does NOT free the slot
	w = suite.doJSON("PATCH", "/api/v1/videos/"+videoID+"/status", suite.testUser.ID,
		map[string]interface{}{"status": "failed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func (suite *HandlersTestSuite) TestFailedVideoReleasesSlotWhenPolicyEnabled() {
	t := suite.T()

	cfg := ratelimit.DefaultConfig()
	cfg.ReleaseOnFailure = true
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryLog(), cfg)
	require.NoError(t, err)
	limiter.SetClock(suite.clock.Now)
	suite.handlers.limiter = limiter

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.doJSON("PATCH", "/api/v1/videos/"+videoID+"/status", suite.testUser.ID,
		map[string]interface{}{"status": "failed"})
	require.Equal(t, http.StatusOK, w.Code)

	// The released slot admits a replacement upload
	w = suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func (suite *HandlersTestSuite) TestGetVideoIncrementsViews() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("GET", "/api/v1/videos/"+videoID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var video models.Video
	require.NoError(t, suite.db.First(&video, "id = ?", videoID).Error)
	assert.Equal(t, 1, video.ViewCount)
}

func (suite *HandlersTestSuite) TestListVideosOnlyReady() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	// Pending videos are hidden from the feed
	w = suite.doJSON("GET", "/api/v1/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["videos"], 0)

	w = suite.doJSON("PATCH", "/api/v1/videos/"+videoID+"/status", suite.testUser.ID,
		map[string]interface{}{"status": "ready"})
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("GET", "/api/v1/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["videos"], 1)
}
