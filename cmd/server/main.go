package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/cache"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/metrics"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/ratelimit"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/telemetry"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Clipstream server starting ===",
		zap.String("environment", cfg.Environment),
	)

	// Initialize database and run migrations
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	defer database.Close()

	// Redis is optional: with it the upload quota is enforced in Redis,
	// without it the database-backed log takes over
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, falling back to database upload log", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Tracing (off unless OTEL_ENABLED is set)
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "clipstream-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTELEnabled,
		SamplingRate: 1.0,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// Build the upload admission limiter
	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.ReleaseOnFailure = cfg.ReleaseFailedUploads

	var uploadLog ratelimit.UploadLog
	if redisClient != nil {
		uploadLog = ratelimit.NewRedisLog(redisClient)
	} else {
		uploadLog = ratelimit.NewGormLog(database.DB)
	}
	limiter, err := ratelimit.NewLimiter(uploadLog, limiterCfg)
	if err != nil {
		logger.Log.Fatal("Failed to create upload limiter", zap.Error(err))
	}

	// Auth service
	authService := auth.NewService(cfg.JWTSecret)

	// Handlers
	h := handlers.NewHandlers(authService, limiter, cfg)

	// S3 storage is optional in development
	if cfg.AWSBucket != "" {
		s3Storage, err := storage.NewS3Storage(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("Failed to initialize S3 storage", zap.Error(err))
		} else {
			if err := s3Storage.CheckBucketAccess(context.Background()); err != nil {
				logger.Log.Warn("S3 bucket access failed, uploads will not get presigned URLs", zap.Error(err))
			}
			h.SetStorage(s3Storage)
		}
	}

	metrics.Initialize()

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.OTELEnabled {
		r.Use(otelgin.Middleware("clipstream-backend"))
	}

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Transport-level protection against bursts from one client
	r.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authService.Middleware(), h.Me)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", h.GetUser)
			users.GET("/:id/videos", h.GetUserVideos)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)

			users.PATCH("/me", authService.Middleware(), h.UpdateMe)
			users.POST("/:id/follow", authService.Middleware(), h.FollowUser)
			users.DELETE("/:id/follow", authService.Middleware(), h.UnfollowUser)
		}

		communities := api.Group("/communities")
		{
			communities.GET("", h.ListCommunities)
			communities.GET("/:id", h.GetCommunity)
			communities.GET("/:id/members", h.GetCommunityMembers)

			communities.POST("", authService.Middleware(), h.CreateCommunity)
			communities.POST("/:id/join", authService.Middleware(), h.JoinCommunity)
			communities.DELETE("/:id/join", authService.Middleware(), h.LeaveCommunity)
		}

		videos := api.Group("/videos")
		{
			videos.GET("", h.ListVideos)
			videos.GET("/:id", h.GetVideo)
			videos.GET("/:id/comments", h.GetComments)

			videos.POST("", authService.Middleware(), h.CreateVideo)
			videos.PATCH("/:id/status", authService.Middleware(), h.UpdateVideoStatus)
			videos.DELETE("/:id", authService.Middleware(), h.DeleteVideo)
			videos.POST("/:id/like", authService.Middleware(), h.LikeVideo)
			videos.DELETE("/:id/like", authService.Middleware(), h.UnlikeVideo)
			videos.POST("/:id/comments", authService.Middleware(), h.CreateComment)
		}

		comments := api.Group("/comments")
		{
			comments.Use(authService.Middleware())
			comments.DELETE("/:id", h.DeleteComment)
		}

		referrals := api.Group("/referrals")
		{
			referrals.Use(authService.Middleware())
			referrals.POST("/redeem", h.RedeemReferralCode)
			referrals.GET("", h.GetMyReferrals)
		}

		wallet := api.Group("/wallet")
		{
			wallet.Use(authService.Middleware())
			wallet.GET("", h.GetWallet)
			wallet.GET("/transactions", h.GetWalletTransactions)
		}

		admin := api.Group("/admin")
		{
			admin.Use(authService.Middleware(), auth.AdminMiddleware())
			admin.POST("/wallet/adjust", h.AdminAdjustWallet)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("Clipstream backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
