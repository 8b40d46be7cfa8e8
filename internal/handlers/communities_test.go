package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestCreateCommunity() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/communities", suite.testUser.ID, map[string]interface{}{
		"name":        "Skate Clips",
		"description": "Clips of skating",
	})
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	response := decodeBody(t, w)
	community := response["community"].(map[string]interface{})
	assert.Equal(t, "Skate Clips", community["name"])
	assert.Equal(t, suite.testUser.ID, community["owner_id"])
	assert.Equal(t, float64(1), community["member_count"])

	// Creator was enrolled as owner
	var member models.CommunityMember
	err := suite.db.First(&member, "community_id = ? AND user_id = ?",
		community["id"], suite.testUser.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "owner", member.Role)
}

func (suite *HandlersTestSuite) TestCreateCommunityDuplicateName() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/communities", suite.testUser.ID, map[string]interface{}{
		"name": suite.community.Name,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestJoinAndLeaveCommunity() {
	t := suite.T()
	joiner := suite.createUser("joiner")

	w := suite.doJSON("POST", "/api/v1/communities/"+suite.community.ID+"/join", joiner.ID, nil)
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var community models.Community
	require.NoError(t, suite.db.First(&community, "id = ?", suite.community.ID).Error)
	assert.Equal(t, 2, community.MemberCount)

	// Joining twice conflicts
	w = suite.doJSON("POST", "/api/v1/communities/"+suite.community.ID+"/join", joiner.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/communities/"+suite.community.ID+"/join", joiner.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, suite.db.First(&community, "id = ?", suite.community.ID).Error)
	assert.Equal(t, 1, community.MemberCount)
}

func (suite *HandlersTestSuite) TestOwnerCannotLeave() {
	t := suite.T()

	w := suite.doJSON("DELETE", "/api/v1/communities/"+suite.community.ID+"/join", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestListCommunities() {
	t := suite.T()

	w := suite.doJSON("GET", "/api/v1/communities", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	communities := response["communities"].([]interface{})
	assert.Len(t, communities, 1)
}

func (suite *HandlersTestSuite) TestGetCommunityNotFound() {
	t := suite.T()

	w := suite.doJSON("GET", "/api/v1/communities/00000000-0000-0000-0000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetCommunityMembers() {
	t := suite.T()

	w := suite.doJSON("GET", "/api/v1/communities/"+suite.community.ID+"/members", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	members := response["members"].([]interface{})
	require.Len(t, members, 1)
	member := members[0].(map[string]interface{})
	assert.Equal(t, "owner", member["role"])
}
