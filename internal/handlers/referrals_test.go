package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestRedeemReferralCode() {
	t := suite.T()
	newcomer := suite.createUser("newcomer")

	w := suite.doJSON("POST", "/api/v1/referrals/redeem", newcomer.ID, map[string]interface{}{
		"code": suite.testUser.ReferralCode,
	})
	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	// Both sides got credited
	var referrerBalance, newcomerBalance int64
	suite.db.Model(&models.WalletTransaction{}).Where("user_id = ?", suite.testUser.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&referrerBalance)
	suite.db.Model(&models.WalletTransaction{}).Where("user_id = ?", newcomer.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&newcomerBalance)
	assert.Equal(t, int64(500), referrerBalance)
	assert.Equal(t, int64(250), newcomerBalance)

	var updated models.User
	require.NoError(t, suite.db.First(&updated, "id = ?", newcomer.ID).Error)
	require.NotNil(t, updated.ReferredByID)
	assert.Equal(t, suite.testUser.ID, *updated.ReferredByID)
}

func (suite *HandlersTestSuite) TestRedeemReferralCodeOnlyOnce() {
	t := suite.T()
	newcomer := suite.createUser("repeat")
	other := suite.createUser("otherref")

	w := suite.doJSON("POST", "/api/v1/referrals/redeem", newcomer.ID, map[string]interface{}{
		"code": suite.testUser.ReferralCode,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A second redemption, even of a different code, is rejected
	w = suite.doJSON("POST", "/api/v1/referrals/redeem", newcomer.ID, map[string]interface{}{
		"code": other.ReferralCode,
	})
	assert.Equal(t, http.StatusConflict, w.Code, "body: %s", w.Body.String())

	// No extra credits landed
	var count int64
	suite.db.Model(&models.WalletTransaction{}).Where("user_id = ?", newcomer.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestCannotRedeemOwnCode() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/referrals/redeem", suite.testUser.ID, map[string]interface{}{
		"code": suite.testUser.ReferralCode,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestRedeemUnknownCode() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/referrals/redeem", suite.testUser.ID, map[string]interface{}{
		"code": "NOPE1234",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetMyReferrals() {
	t := suite.T()
	newcomer := suite.createUser("referred")

	w := suite.doJSON("POST", "/api/v1/referrals/redeem", newcomer.ID, map[string]interface{}{
		"code": suite.testUser.ReferralCode,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.doJSON("GET", "/api/v1/referrals", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	referrals := decodeBody(t, w)["referrals"].([]interface{})
	require.Len(t, referrals, 1)
	assert.Equal(t, newcomer.ID, referrals[0].(map[string]interface{})["referred_user_id"])
}

func (suite *HandlersTestSuite) TestWalletBalanceAndLedger() {
	t := suite.T()

	// Balance derives from the ledger
	credits := []models.WalletTransaction{
		{UserID: suite.testUser.ID, Amount: 500, Type: models.WalletTxReferralBonus, Description: "bonus"},
		{UserID: suite.testUser.ID, Amount: -200, Type: models.WalletTxAdminAdjustment, Description: "correction"},
	}
	require.NoError(t, suite.db.Create(&credits).Error)

	w := suite.doJSON("GET", "/api/v1/wallet", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(300), decodeBody(t, w)["balance_cents"])

	w = suite.doJSON("GET", "/api/v1/wallet/transactions", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["transactions"], 2)
}

func (suite *HandlersTestSuite) TestWalletEmptyBalanceIsZero() {
	t := suite.T()

	w := suite.doJSON("GET", "/api/v1/wallet", suite.testUser.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["balance_cents"])
}
