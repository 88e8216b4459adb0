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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gvasconcelos/thumbsvc/internal/cache"
	"github.com/gvasconcelos/thumbsvc/internal/config"
	"github.com/gvasconcelos/thumbsvc/internal/database"
	"github.com/gvasconcelos/thumbsvc/internal/extractor"
	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/middleware"
	"github.com/gvasconcelos/thumbsvc/internal/queue"
	"github.com/gvasconcelos/thumbsvc/internal/resolver"
	"github.com/gvasconcelos/thumbsvc/internal/storage"
	"github.com/gvasconcelos/thumbsvc/internal/thumbnail"
	"github.com/gvasconcelos/thumbsvc/internal/tracing"
)

type API struct {
	repo    *database.Repository
	service *thumbnail.Service
	queue   *queue.Queue
	cfg     *config.Config
	logger  *logging.Logger
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.Fatalf("Failed to init tracer: %v", err)
		}
		defer closer.Close()
	}

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	var shared *cache.Redis
	if cfg.Redis.Enabled {
		shared, err = cache.NewRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer shared.Close()
	}

	ext := extractor.New(
		cfg.Thumbnail.FFmpegPath,
		cfg.Thumbnail.FFprobePath,
		cfg.Thumbnail.TempDir,
		cfg.Thumbnail.ExtractionTimeout,
	)
	ext.SetDefaultTimestamp(cfg.Thumbnail.DefaultTimestamp)
	frames := thumbnail.NewFrameSource(ext, stor, repo, cfg.Thumbnail.JPEGQuality, logger)
	checker := resolver.NewHTTPChecker(cfg.Thumbnail.ValidationTimeout)
	res := resolver.New(checker, frames, logger)

	memory := cache.NewMemory(cfg.Thumbnail.CacheMaxEntries, cfg.Thumbnail.CacheTTL)
	service := thumbnail.NewService(memory, shared, res, logger)

	api := &API{
		repo:    repo,
		service: service,
		queue:   q,
		cfg:     cfg,
		logger:  logger,
	}

	router := setupRouter(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func setupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(api.logger))

	rl := middleware.NewRateLimiter(api.cfg.Server.RateLimitRPS, api.cfg.Server.RateLimitBurst)

	router.GET("/health", api.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(rl))
	{
		v1.GET("/videos/:id/thumbnail", api.getThumbnail)
		v1.GET("/videos/:id/thumbnails", api.listThumbnails)
		v1.GET("/placeholder", api.getPlaceholder)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth())
		{
			protected.POST("/videos/:id/thumbnail/generate", api.generateThumbnail)
			protected.POST("/preload", api.createPreload)
		}
	}

	return router
}

func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
