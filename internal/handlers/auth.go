package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register creates a new account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account with this email")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			logger.Log.Error("Registration failed", zap.Error(err))
			util.RespondInternalError(c, "Failed to create account")
		}
		return
	}

	logger.Log.Info("User registered",
		logger.WithUserID(resp.User.ID),
		zap.String("username", resp.User.Username),
	)
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates an existing account
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "invalid email or password")
			return
		}
		logger.Log.Error("Login failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
