package server

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/config"
	"github.com/rich-wisdom/SetList/internal/handler"
	"github.com/rich-wisdom/SetList/internal/middleware"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/internal/service"
	"github.com/rich-wisdom/SetList/pkg/storage"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchIndexService(meiliClient)

	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, imageStorage, searchSvc, redisClient)
	authHandler := handler.NewAuthHandler(authSvc)

	profileSvc := service.NewProfileService(userRepo, imageStorage, searchSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)

	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, redisClient)

	friendshipRepo := repository.NewFriendshipRepository(db)
	friendshipSvc := service.NewFriendshipService(friendshipRepo, userRepo, notificationSvc, redisClient, cfg.RateLimitFriendRequest)
	friendshipHandler := handler.NewFriendshipHandler(friendshipSvc)

	messageRepo := repository.NewMessageRepository(db)
	messageSvc := service.NewMessageService(messageRepo, redisClient)
	messageHandler := handler.NewMessageHandler(messageSvc, redisClient)

	postRepo := repository.NewPostRepository(db)
	postSvc := service.NewPostService(postRepo, redisClient, cfg.RateLimitPost)
	postHandler := handler.NewPostHandler(postSvc)

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.GET("/profile/username/:username", profileHandler.GetProfileByUsername)
		protected.GET("/profile/:id", profileHandler.GetProfileByID)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.GET("/search", profileHandler.Search)
		protected.GET("/username-available", profileHandler.CheckUsername)

		// Friendship routes
		protected.POST("/friends/requests/:user_id", friendshipHandler.SendRequest)
		protected.PUT("/friends/requests/:user_id/accept", friendshipHandler.AcceptRequest)
		protected.PUT("/friends/requests/:user_id/decline", friendshipHandler.DeclineRequest)
		protected.DELETE("/friends/:user_id", friendshipHandler.Unfriend)
		protected.GET("/friends/status/:user_id", friendshipHandler.Status)
		protected.GET("/friends", friendshipHandler.ListFriends)
		protected.GET("/friends/requests", friendshipHandler.ListPendingRequests)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Messaging routes
		protected.POST("/messages", messageHandler.Send)
		protected.GET("/messages/rooms/:room_id", messageHandler.History)
		protected.GET("/messages/rooms/:room_id/ws", messageHandler.HandleWebSocket)
		protected.GET("/chats", messageHandler.ListChats)

		// Forum routes
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts", postHandler.GetPosts)
		protected.POST("/posts/:post_id/like", postHandler.ToggleLike)
		protected.POST("/posts/:post_id/comments", postHandler.AddComment)
		protected.GET("/posts/:post_id/comments", postHandler.GetComments)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
