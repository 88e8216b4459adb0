package preloader

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

const (
	// DefaultPriorityCount is how many videos a preload run warms
	DefaultPriorityCount = 10
	// DefaultConcurrency is the per-batch resolution parallelism
	DefaultConcurrency = 3
)

// Warmer resolves a single video's thumbnail into the cache
type Warmer interface {
	Warm(ctx context.Context, video *models.Video) error
}

// Options control a preload run
type Options struct {
	PriorityCount int
	Concurrency   int
	Strategy      models.PreloadStrategy
}

// ProgressFunc receives cumulative progress after each completed item
type ProgressFunc func(models.PreloadProgress)

// Preloader warms the thumbnail cache for a prioritized subset of
// videos. Batches run strictly in order; within a batch resolutions run
// concurrently and all settle before the next batch starts. Individual
// failures are logged and swallowed so one bad video does not block the
// rest of the run.
type Preloader struct {
	warmer Warmer
	logger *logging.Logger
}

// New creates a Preloader
func New(warmer Warmer, logger *logging.Logger) *Preloader {
	return &Preloader{warmer: warmer, logger: logger}
}

// Preload warms the cache for the selected subset of videos and returns
// the final progress. progress may be nil. Cancelling ctx stops the run
// between batches.
func (p *Preloader) Preload(ctx context.Context, videos []*models.Video, opts Options, progress ProgressFunc) models.PreloadProgress {
	if opts.PriorityCount <= 0 {
		opts.PriorityCount = DefaultPriorityCount
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Strategy == "" {
		opts.Strategy = models.PreloadStrategySmart
	}

	selected := selectVideos(videos, opts)
	total := len(selected)
	metrics.PreloadJobsTotal.WithLabelValues(string(opts.Strategy)).Inc()

	var mu sync.Mutex
	loaded := 0

	report := func() {
		mu.Lock()
		loaded++
		current := models.PreloadProgress{Loaded: loaded, Total: total}
		mu.Unlock()

		if progress != nil {
			progress(current)
		}
	}

	for start := 0; start < total; start += opts.Concurrency {
		if ctx.Err() != nil {
			p.logger.Warnf("Preload cancelled after %d/%d items", loaded, total)
			break
		}

		end := start + opts.Concurrency
		if end > total {
			end = total
		}
		batch := selected[start:end]

		batchStart := time.Now()
		var wg sync.WaitGroup
		for _, video := range batch {
			wg.Add(1)
			go func(v *models.Video) {
				defer wg.Done()

				if err := p.warmer.Warm(ctx, v); err != nil {
					p.logger.WithVideoID(v.ID).ErrorWithErr("Preload item failed", err)
					metrics.PreloadItemsTotal.WithLabelValues("failure").Inc()
				} else {
					metrics.PreloadItemsTotal.WithLabelValues("success").Inc()
				}
				report()
			}(video)
		}
		wg.Wait()
		metrics.PreloadBatchDuration.Observe(time.Since(batchStart).Seconds())
	}

	mu.Lock()
	defer mu.Unlock()
	return models.PreloadProgress{Loaded: loaded, Total: total}
}

// selectVideos applies the strategy to pick which videos get warmed.
// The viewport strategy behaves like sequential: no real viewport data
// reaches the service, so there is nothing smarter to do with it.
func selectVideos(videos []*models.Video, opts Options) []*models.Video {
	var candidates []*models.Video

	switch opts.Strategy {
	case models.PreloadStrategySmart:
		for _, v := range videos {
			if v.IsActive {
				candidates = append(candidates, v)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		})

	case models.PreloadStrategySequential, models.PreloadStrategyViewport:
		candidates = append(candidates, videos...)

	default:
		candidates = append(candidates, videos...)
	}

	if len(candidates) > opts.PriorityCount {
		candidates = candidates[:opts.PriorityCount]
	}
	return candidates
}
