// Package api wires the management HTTP server: scheduled event
// management, invocation history, and the system endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/api/handlers"
	"github.com/dhima/webhook-delivery-engine/internal/api/middleware"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
	"github.com/dhima/webhook-delivery-engine/pkg/config"
)

// Server orchestrates HTTP routing and dependencies for the API service.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine
	store  *storage.MySQLClient
}

// NewServer wires the API dependencies together.
func NewServer() *Server {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	db, err := storage.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	store := storage.NewMySQLClient(db)

	server := &Server{
		config: cfg,
		logger: logger,
		store:  store,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter() {
	router := gin.New()

	zapLogger := s.getZapLogger()

	// Recovery first so it catches panics from the other middleware.
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(middleware.RequestID())
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// System endpoints live outside the /api/v1 prefix.
	router.GET("/health", handlers.NewHealthHandler(s.logger).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.store, s.logger).Metrics)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	snapshot := registry.SnapshotProvider(s.store.LoadRegistry)

	v1 := router.Group("/api/v1")
	{
		scheduledHandler := handlers.NewScheduledEventsHandler(s.store, snapshot, s.logger)
		scheduled := v1.Group("/scheduled-events")
		{
			scheduled.POST("", scheduledHandler.Create)
			scheduled.GET("/:id", scheduledHandler.Get)
			scheduled.DELETE("/:id", scheduledHandler.Cancel)
		}

		invocationsHandler := handlers.NewInvocationsHandler(s.store, s.logger)
		v1.GET("/events/:id/invocations", invocationsHandler.List)
	}

	s.router = router
}

// getZapLogger builds the *zap.Logger the gin-contrib/zap middleware needs.
func (s *Server) getZapLogger() *zap.Logger {
	var zapLogger *zap.Logger
	if s.config.Environment == "production" {
		zapLogger, _ = zap.NewProduction()
	} else {
		zapLogger, _ = zap.NewDevelopment()
	}
	return zapLogger
}

// Serve starts the HTTP server with graceful shutdown support.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-quit
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close database connection", zap.Error(err))
	}

	if err := s.logger.Sync(); err != nil {
		// Sync on stdout/stderr fails on some platforms; not actionable.
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			return err
		}
	}

	s.logger.Info("server stopped")
	return nil
}
