package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loreline/backend/config"
	"github.com/loreline/backend/internal/auth"
	"github.com/loreline/backend/internal/cache"
	"github.com/loreline/backend/internal/database"
	"github.com/loreline/backend/internal/handlers"
	"github.com/loreline/backend/internal/middleware"
	"github.com/loreline/backend/internal/moderation"
	"github.com/loreline/backend/internal/pipeline"
	"github.com/loreline/backend/internal/ratelimit"
	"github.com/loreline/backend/internal/repository"
	"github.com/loreline/backend/internal/toxicity"
	"github.com/loreline/backend/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - presence tracking will be limited")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	modRepo := repository.NewModerationRepository(db)

	// Moderation ledger on top of the repository
	ledger := moderation.NewLedger(modRepo)

	// Spam limiter with periodic idle purge
	limiter := ratelimit.NewLimiter(cfg.Moderation.SpamWindow, cfg.Moderation.SpamMinInterval, cfg.Moderation.SpamLimit)
	limiter.StartSweep(30 * time.Second)
	defer limiter.Stop()

	// Toxicity classifier, external stage enabled only when configured
	external := toxicity.NewExternalClassifier(cfg.Classifier.URL, cfg.Classifier.APIKey, cfg.Classifier.Timeout)
	classifier := toxicity.NewClassifier(cfg.Moderation.CacheSize, external)

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, jwtService, redis, cfg.CORS.AllowedOrigins)

	// Message pipeline
	policy := pipeline.Policy{
		SpamMuteMinutes:     int(cfg.Moderation.SpamMute.Minutes()),
		ToxicityStrikes:     cfg.Moderation.ToxicityStrikes,
		ToxicityMuteMinutes: int(cfg.Moderation.ToxicityMute.Minutes()),
	}
	pipe := pipeline.New(channelRepo, ledger, limiter, classifier, msgRepo, hub, modRepo, policy)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService)
	channelHandler := handlers.NewChannelHandler(channelRepo)
	chatHandler := handlers.NewChatHandler(pipe, msgRepo, userRepo, modRepo, hub)
	modHandler := handlers.NewModerationHandler(ledger, modRepo, userRepo, hub)

	// Initialize HTTP rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitMessagesPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// WebSocket endpoint
	router.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		// User routes
		api.GET("/me", authHandler.GetMe)
		api.GET("/online-users", wsHandler.GetOnlineUsers)
		api.GET("/users/:user_id/presence", wsHandler.GetUserPresence)

		// Channel routes
		api.GET("/channels", channelHandler.ListChannels)
		api.POST("/channels", channelHandler.CreateChannel)
		api.GET("/channels/:id", channelHandler.GetChannel)
		api.PUT("/channels/:id", channelHandler.RenameChannel)
		api.DELETE("/channels/:id", channelHandler.DeleteChannel)

		// Channel chat routes
		api.GET("/channels/:id/messages", chatHandler.ListMessages)
		api.POST("/channels/:id/messages", middleware.RateLimitMiddleware(rateLimiter, redis), chatHandler.PostMessage)
		api.DELETE("/messages/:message_id", chatHandler.DeleteMessage)

		// Moderation routes
		api.POST("/moderation/mute", modHandler.MuteUser)
		api.POST("/moderation/unmute", modHandler.UnmuteUser)
		api.POST("/moderation/ban", modHandler.BanUser)
		api.POST("/moderation/unban", modHandler.UnbanUser)
		api.GET("/moderation/users/:user_id", modHandler.GetUserRecord)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Starting Loreline server on %s (env: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
