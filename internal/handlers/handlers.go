package handlers

import (
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/ratelimit"
	"github.com/clipstream/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth    *auth.Service
	limiter *ratelimit.Limiter
	storage storage.VideoStorage
	cfg     *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, limiter *ratelimit.Limiter, cfg *config.Config) *Handlers {
	return &Handlers{
		auth:    authService,
		limiter: limiter,
		cfg:     cfg,
	}
}

// SetStorage sets the object storage client for video uploads
func (h *Handlers) SetStorage(s storage.VideoStorage) {
	h.storage = s
}
