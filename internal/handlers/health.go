package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/cache"
	"github.com/clipstream/backend/internal/database"
	"github.com/gin-gonic/gin"
)

// Health reports liveness plus dependency status
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if err := database.Health(); err != nil {
		checks["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if redisClient := cache.GetRedisClient(); redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy"
		} else {
			checks["redis"] = "ok"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
