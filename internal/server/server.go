// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "codesync/docs" // swagger docs
	"codesync/internal/cache"
	"codesync/internal/config"
	"codesync/internal/database"
	"codesync/internal/featureflags"
	"codesync/internal/imagehost"
	"codesync/internal/middleware"
	"codesync/internal/models"
	"codesync/internal/notifications"
	"codesync/internal/repository"
	"codesync/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	snippetRepo    repository.SnippetRepository
	commentRepo    repository.CommentRepository
	followRepo     repository.FollowRepository
	avatars        *service.AvatarService
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("codesync-api"),
		userRepo:       repository.NewUserRepository(db),
		snippetRepo:    repository.NewSnippetRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		avatars:        service.NewAvatarService(imagehost.NewClient(cfg)),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewHub()
	server.hub.SetPresenceCallbacks(
		func(userID uint) {
			server.publishBroadcastEvent(EventUserOnline, map[string]interface{}{"userId": userID})
		},
		func(userID uint) {
			server.publishBroadcastEvent(EventUserOffline, map[string]interface{}{"userId": userID})
		},
	)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	app.Use(s.promMiddleware.Middleware)

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	s.promMiddleware.RegisterAt(app, "/metrics")

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CodeSync Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", middleware.AuthRequired, s.Refresh)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)
	auth.Get("/oauth/:provider", s.OAuthRedirect)
	auth.Get("/oauth/:provider/callback", s.OAuthCallback)

	// Snippet routes. Specific paths and /:id/:resource routes come BEFORE the
	// generic /:id routes.
	snippets := api.Group("/snippets")
	snippets.Get("/", middleware.OptionalAuth, s.GetSnippets)
	snippets.Get("/explore", middleware.OptionalAuth, s.ExploreSnippets)
	snippets.Get("/my-snippets", middleware.AuthRequired, s.GetMySnippets)
	snippets.Post("/", middleware.AuthRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_snippet"), s.CreateSnippet)
	snippets.Get("/:id/comments", middleware.OptionalAuth, s.GetComments)
	snippets.Post("/:id/comments", middleware.AuthRequired, middleware.RateLimit(
		s.redis, 6, time.Minute, "create_comment"), s.CreateComment)
	snippets.Post("/:id/like", middleware.AuthRequired, s.ToggleLike)
	snippets.Get("/:id/like", middleware.OptionalAuth, s.GetLikeStatus)
	snippets.Get("/:id", middleware.OptionalAuth, s.GetSnippet)
	snippets.Put("/:id", middleware.AuthRequired, s.UpdateSnippet)
	snippets.Delete("/:id", middleware.AuthRequired, s.DeleteSnippet)

	// User routes
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Post("/:username/follow", middleware.AuthRequired, s.ToggleFollow)
	users.Get("/:username/follow", middleware.OptionalAuth, s.GetFollowStatus)
	users.Get("/:username", middleware.OptionalAuth, s.GetUserByUsername)

	// Profile routes (always the authenticated caller's own account)
	profile := api.Group("/profile", middleware.AuthRequired)
	profile.Get("/", s.GetMyProfile)
	profile.Put("/", s.UpdateMyProfile)
	profile.Put("/password", s.UpdatePassword)
	profile.Post("/avatar", s.UploadAvatar)
	profile.Delete("/avatar", s.DeleteAvatar)

	// Websocket endpoint, gated by the realtime feature flag
	ws := api.Group("/ws", middleware.WebSocketAuthRequired, s.realtimeGate)
	ws.Get("/", s.WebsocketHandler())
}

// realtimeGate hides the websocket endpoint when the realtime flag is off.
func (s *Server) realtimeGate(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	if !s.featureFlags.Enabled(featureflags.FlagRealtime, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Resource"))
	}
	return c.Next()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The service degrades without Redis (no cache, no realtime) but
		// stays functional, so a missing client is not a readiness failure.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "CodeSync API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Forward Redis pub/sub notifications into the local hub
	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
