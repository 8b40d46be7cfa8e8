package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestFollowAndUnfollow() {
	t := suite.T()
	other := suite.createUser("followee")

	w := suite.doJSON("POST", "/api/v1/users/"+other.ID+"/follow", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var followee models.User
	require.NoError(t, suite.db.First(&followee, "id = ?", other.ID).Error)
	assert.Equal(t, 1, followee.FollowerCount)

	// Double follow conflicts
	w = suite.doJSON("POST", "/api/v1/users/"+other.ID+"/follow", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/users/"+other.ID+"/follow", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, suite.db.First(&followee, "id = ?", other.ID).Error)
	assert.Equal(t, 0, followee.FollowerCount)
}

func (suite *HandlersTestSuite) TestCannotFollowSelf() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/users/"+suite.testUser.ID+"/follow", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetFollowers() {
	t := suite.T()
	fan := suite.createUser("fan")

	w := suite.doJSON("POST", "/api/v1/users/"+suite.testUser.ID+"/follow", fan.ID, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.doJSON("GET", "/api/v1/users/"+suite.testUser.ID+"/followers", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	followers := response["followers"].([]interface{})
	require.Len(t, followers, 1)
	assert.Equal(t, fan.ID, followers[0].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestLikeAndUnlikeVideo() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos/"+videoID+"/like", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var video models.Video
	require.NoError(t, suite.db.First(&video, "id = ?", videoID).Error)
	assert.Equal(t, 1, video.LikeCount)

	// Double like conflicts
	w = suite.doJSON("POST", "/api/v1/videos/"+videoID+"/like", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/videos/"+videoID+"/like", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, suite.db.First(&video, "id = ?", videoID).Error)
	assert.Equal(t, 0, video.LikeCount)
}

func (suite *HandlersTestSuite) TestCommentsThread() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos/"+videoID+"/comments", suite.testUser.ID,
		map[string]interface{}{"content": "first!"})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	parentID := decodeBody(t, w)["comment"].(map[string]interface{})["id"].(string)

	// Reply to the comment
	w = suite.doJSON("POST", "/api/v1/videos/"+videoID+"/comments", suite.testUser.ID,
		map[string]interface{}{"content": "a reply", "parent_id": parentID})
	require.Equal(t, http.StatusCreated, w.Code)

	// Top-level listing only shows the parent
	w = suite.doJSON("GET", "/api/v1/videos/"+videoID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decodeBody(t, w)["comments"].([]interface{})
	assert.Len(t, comments, 1)

	// Replies come back when asked for
	w = suite.doJSON("GET", "/api/v1/videos/"+videoID+"/comments?parent_id="+parentID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	replies := decodeBody(t, w)["comments"].([]interface{})
	assert.Len(t, replies, 1)

	var video models.Video
	require.NoError(t, suite.db.First(&video, "id = ?", videoID).Error)
	assert.Equal(t, 2, video.CommentCount)
}

func (suite *HandlersTestSuite) TestDeleteCommentOwnerOnly() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/videos", suite.testUser.ID, suite.createVideoRequest(suite.community.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	videoID := decodeBody(t, w)["video"].(map[string]interface{})["id"].(string)

	w = suite.doJSON("POST", "/api/v1/videos/"+videoID+"/comments", suite.testUser.ID,
		map[string]interface{}{"content": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	commentID := decodeBody(t, w)["comment"].(map[string]interface{})["id"].(string)

	other := suite.createUser("stranger")
	w = suite.doJSON("DELETE", "/api/v1/comments/"+commentID, other.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/comments/"+commentID, suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
