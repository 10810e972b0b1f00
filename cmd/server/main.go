package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quantboard/chat/internal/config"
	"github.com/quantboard/chat/internal/handler"
	"github.com/quantboard/chat/internal/middleware"
	"github.com/quantboard/chat/internal/pkg/cache"
	"github.com/quantboard/chat/internal/pkg/database"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/relay"
	"github.com/quantboard/chat/internal/repository"
	"github.com/quantboard/chat/internal/service"
	"github.com/quantboard/chat/internal/ws"
)

// @title           QuantBoard Chat API
// @version         1.0
// @description     Real-time chat service for the QuantBoard investment community.

// @contact.name   API Support
// @contact.email  support@quantboard.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting chat server",
		zap.String("mode", cfg.Server.Mode),
		zap.Int("port", cfg.Server.Port),
	)

	gin.SetMode(cfg.Server.Mode)

	db, err := database.NewPostgres(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db, logger)

	redisClient, err := cache.NewRedis(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close(redisClient, logger)

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	gate := service.NewAccessGate(membershipRepo, logger)
	publisher := relay.NewPublisher(redisClient, logger)
	authService := service.NewAuthService(userRepo, jwtManager, logger)
	roomService := service.NewRoomService(roomRepo, userRepo, gate, logger)
	membershipService := service.NewMembershipService(membershipRepo, roomRepo, userRepo, logger)
	messageService := service.NewMessageService(messageRepo, membershipRepo, roomRepo, userRepo, gate, publisher, logger)

	// WebSocket hub and the relay subscriber feeding it. Every room fan-out,
	// including sends originating on this instance, arrives via the relay.
	presence := cache.NewCache(redisClient, logger)
	hub := ws.NewHub(roomService, membershipService, messageService, publisher, presence, logger)
	go hub.Run()

	subCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	subscriber := relay.NewSubscriber(redisClient, hub, logger)
	go subscriber.Run(subCtx)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService, membershipService, logger)
	messageHandler := handler.NewMessageHandler(messageService)
	wsHandler := ws.NewHandler(hub, jwtManager, logger)

	router := setupRouter(
		cfg,
		logger,
		jwtManager,
		redisClient,
		hub,
		authHandler,
		roomHandler,
		messageHandler,
		wsHandler,
	)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server is running",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopSubscriber()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *utils.JWTManager,
	redisClient *redis.Client,
	hub *ws.Hub,
	authHandler *handler.AuthHandler,
	roomHandler *handler.RoomHandler,
	messageHandler *handler.MessageHandler,
	wsHandler *ws.Handler,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"websockets": hub.Stats(),
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// WebSocket endpoint
	router.GET("/ws", wsHandler.ServeWS)

	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit(redisClient))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Auth routes (protected)
		authProtected := v1.Group("/auth")
		authProtected.Use(middleware.Auth(jwtManager))
		{
			authProtected.GET("/me", authHandler.Me)
		}

		// Room reads are public
		rooms := v1.Group("/rooms")
		{
			rooms.GET("", roomHandler.List)
			rooms.GET("/:id", roomHandler.GetByID)
		}

		// Room mutations and membership require authentication
		roomsProtected := v1.Group("/rooms")
		roomsProtected.Use(middleware.Auth(jwtManager))
		{
			roomsProtected.POST("", roomHandler.Create)
			roomsProtected.PATCH("/:id", roomHandler.Update)
			roomsProtected.DELETE("/:id", roomHandler.Deactivate)
			roomsProtected.POST("/:id/join", roomHandler.Join)
			roomsProtected.POST("/:id/leave", roomHandler.Leave)
			roomsProtected.GET("/:id/members", roomHandler.ListMembers)

			// Room messages
			roomsProtected.GET("/:id/messages", messageHandler.List)
			roomsProtected.GET("/:id/messages/recent", messageHandler.Recent)
			roomsProtected.POST("/:id/messages",
				middleware.MessageRateLimit(redisClient, cfg.RateLimit.MessagesPerMinute),
				messageHandler.Send,
			)
		}

		// Message deletion addresses messages directly
		messages := v1.Group("/messages")
		messages.Use(middleware.Auth(jwtManager))
		{
			messages.DELETE("/:id", messageHandler.Delete)
		}

		// WebSocket stats
		wsStats := v1.Group("/ws")
		wsStats.Use(middleware.Auth(jwtManager))
		{
			wsStats.GET("/stats", wsHandler.GetStats)
		}
	}

	return router
}
