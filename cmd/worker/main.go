package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gvasconcelos/thumbsvc/internal/cache"
	"github.com/gvasconcelos/thumbsvc/internal/config"
	"github.com/gvasconcelos/thumbsvc/internal/database"
	"github.com/gvasconcelos/thumbsvc/internal/extractor"
	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/preloader"
	"github.com/gvasconcelos/thumbsvc/internal/queue"
	"github.com/gvasconcelos/thumbsvc/internal/resolver"
	"github.com/gvasconcelos/thumbsvc/internal/storage"
	"github.com/gvasconcelos/thumbsvc/internal/thumbnail"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

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
	warmup := preloader.New(service, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	jobHandler := func(job *models.PreloadJob) error {
		jobLogger := logger.WithField("job_id", job.ID)

		opts := preloader.Options{
			PriorityCount: job.PriorityCount,
			Concurrency:   job.Concurrency,
			Strategy:      job.Strategy,
		}
		if opts.PriorityCount <= 0 {
			opts.PriorityCount = cfg.Thumbnail.PreloadCount
		}
		if opts.Concurrency <= 0 {
			opts.Concurrency = cfg.Thumbnail.PreloadConcurrency
		}

		var videos []*models.Video
		var err error
		if len(job.VideoIDs) == 0 {
			// A job without IDs warms the newest active videos
			videos, err = repo.ListActiveVideos(ctx, opts.PriorityCount)
		} else {
			videos, err = lookupVideos(ctx, repo, shared, job.VideoIDs)
		}
		if err != nil {
			jobLogger.ErrorWithErr("Failed to load videos for preload job", err)
			return err
		}
		jobLogger.Infof("Processing preload job for %d videos", len(videos))

		result := warmup.Preload(ctx, videos, opts, func(p models.PreloadProgress) {
			logger.LogPreloadProgress(job.ID, p.Loaded, p.Total)
		})

		jobLogger.Infof("Preload job finished: %d/%d warmed", result.Loaded, result.Total)
		return nil
	}

	logger.Info("Worker started, waiting for preload jobs...")
	if err := q.ConsumePreloads(ctx, jobHandler); err != nil {
		logger.Fatalf("Failed to consume preload jobs: %v", err)
	}

	logger.Info("Worker stopped")
}

// lookupVideos fetches video records through the shared cache, falling
// back to Postgres for misses and caching what it fetched. Preload jobs
// for the same catalog pages then skip the database entirely.
func lookupVideos(ctx context.Context, repo *database.Repository, shared *cache.Redis, ids []string) ([]*models.Video, error) {
	if shared == nil {
		return repo.GetVideos(ctx, ids)
	}

	videos := make([]*models.Video, 0, len(ids))
	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		video, err := shared.GetVideo(ctx, id)
		if err != nil || video == nil {
			misses = append(misses, id)
			continue
		}
		videos = append(videos, video)
	}

	if len(misses) == 0 {
		return videos, nil
	}

	fetched, err := repo.GetVideos(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, video := range fetched {
		// The record is already in hand; a failed cache write only
		// costs the next job a database read
		_ = shared.SetVideo(ctx, video)
	}

	return append(videos, fetched...), nil
}
