package thumbnail

import (
	"context"
	"errors"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/cache"
	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/resolver"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// ErrNoThumbnail means resolution completed but no thumbnail exists for
// the video. Callers render a placeholder.
var ErrNoThumbnail = errors.New("no thumbnail available")

// URLResolver determines a thumbnail URL for a video
type URLResolver interface {
	Resolve(ctx context.Context, video *models.Video) (*resolver.Result, error)
}

// Service resolves thumbnail URLs through a two-tier cache: an
// in-process memory cache in front of an optional shared Redis tier,
// with the resolver as the source of truth behind both.
type Service struct {
	memory   *cache.Memory
	shared   *cache.Redis
	resolver URLResolver
	logger   *logging.Logger
}

// NewService creates a thumbnail service. shared may be nil when Redis
// is disabled; the memory tier always runs.
func NewService(memory *cache.Memory, shared *cache.Redis, res URLResolver, logger *logging.Logger) *Service {
	return &Service{
		memory:   memory,
		shared:   shared,
		resolver: res,
		logger:   logger,
	}
}

// Resolve returns the thumbnail URL for a video, consulting the memory
// tier, then the shared tier, then the resolver. Resolver results are
// written back to both tiers. ErrNoThumbnail means the video genuinely
// has no thumbnail; any other error is classified.
func (s *Service) Resolve(ctx context.Context, video *models.Video) (string, error) {
	if video == nil {
		return "", ErrNoThumbnail
	}

	key := cache.Key(video.ID, video.UploadType, "", "", "")
	start := time.Now()

	if url, ok := s.memory.Get(key); ok {
		s.logger.LogResolution(video.ID, "cache", true, time.Since(start), nil)
		return url, nil
	}

	if s.shared != nil {
		url, err := s.shared.GetThumbnail(ctx, key)
		if err != nil {
			s.logger.WithVideoID(video.ID).WithError(err).Warn("shared cache lookup failed")
		} else if url != "" {
			// Promote to the memory tier so the next lookup is local
			s.memory.Set(key, url, nil)
			s.logger.LogResolution(video.ID, "cache", true, time.Since(start), nil)
			return url, nil
		}
	}

	result, err := s.resolver.Resolve(ctx, video)
	if err != nil {
		classified := Classify(err)
		s.logger.LogResolution(video.ID, "", false, time.Since(start), classified)
		return "", classified
	}
	if result == nil {
		return "", ErrNoThumbnail
	}

	elapsed := time.Since(start)
	s.memory.Set(key, result.URL, &cache.EntryMetrics{
		LoadTimeMs: elapsed.Milliseconds(),
		Format:     "jpg",
		Quality:    string(result.Quality),
	})
	if s.shared != nil {
		if err := s.shared.SetThumbnail(ctx, key, result.URL); err != nil {
			s.logger.WithVideoID(video.ID).WithError(err).Warn("shared cache write failed")
		}
	}

	s.logger.LogResolution(video.ID, result.Source, false, elapsed, nil)
	return result.URL, nil
}

// Warm resolves a video's thumbnail so later lookups hit the cache.
// A video with no thumbnail warms successfully; there is nothing to
// cache and nothing to retry.
func (s *Service) Warm(ctx context.Context, video *models.Video) error {
	_, err := s.Resolve(ctx, video)
	if errors.Is(err, ErrNoThumbnail) {
		return nil
	}
	return err
}

// Invalidate drops a video's cached thumbnails from both tiers. The
// canonical key is deleted directly; the scan behind DeleteVideo then
// clears any size or quality variants.
func (s *Service) Invalidate(ctx context.Context, video *models.Video) error {
	key := cache.Key(video.ID, video.UploadType, "", "", "")
	s.memory.Remove(key)
	if s.shared == nil {
		return nil
	}
	if err := s.shared.DeleteThumbnail(ctx, key); err != nil {
		return err
	}
	return s.shared.DeleteVideo(ctx, video.ID)
}
