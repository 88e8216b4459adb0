package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// DefaultYouTubeImageHost serves YouTube's static thumbnail images
const DefaultYouTubeImageHost = "https://img.youtube.com"

// Checker validates that a candidate thumbnail URL exists and serves an
// image.
type Checker interface {
	Check(ctx context.Context, url string) bool
}

// FrameExtractor produces a thumbnail URL for a direct-upload video by
// extracting a frame from the source file.
type FrameExtractor interface {
	ExtractURL(ctx context.Context, video *models.Video) (string, error)
}

// Result is a successful resolution
type Result struct {
	URL     string
	Source  string // models.ThumbnailSource* constant
	Quality Quality
}

// Resolver determines an authoritative thumbnail URL for a video. An
// explicit stored URL wins; YouTube videos fall back through the quality
// ladder; direct uploads fall back to frame extraction. A nil Result
// means no thumbnail could be resolved and the caller should render a
// placeholder. Resolve never panics and mutates nothing on the video.
type Resolver struct {
	checker   Checker
	extractor FrameExtractor
	imageHost string
	logger    *logging.Logger
}

// New creates a Resolver. extractor may be nil when direct-upload
// resolution is not wired (the worker without storage, for instance);
// direct videos then resolve to nothing.
func New(checker Checker, extractor FrameExtractor, logger *logging.Logger) *Resolver {
	return &Resolver{
		checker:   checker,
		extractor: extractor,
		imageHost: DefaultYouTubeImageHost,
		logger:    logger,
	}
}

// SetImageHost overrides the YouTube image host. Tests point this at a
// local server.
func (r *Resolver) SetImageHost(host string) {
	r.imageHost = strings.TrimSuffix(host, "/")
}

// Resolve determines a thumbnail URL for the video. A (nil, nil) return
// means no thumbnail exists; a non-nil error explains a failed
// generation attempt but still implies no thumbnail.
func (r *Resolver) Resolve(ctx context.Context, video *models.Video) (*Result, error) {
	if video == nil {
		return nil, nil
	}

	// Stored URL is authoritative, cheapest path wins
	if video.ThumbnailURL != "" {
		metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceStored, "success").Inc()
		return &Result{URL: video.ThumbnailURL, Source: models.ThumbnailSourceStored}, nil
	}

	switch video.UploadType {
	case models.UploadTypeYouTube:
		return r.resolveYouTube(ctx, video), nil

	case models.UploadTypeDirect:
		return r.resolveDirect(ctx, video)
	}

	// Unknown upload type degrades to no thumbnail
	r.logger.WithVideoID(video.ID).Warnf("Unknown upload type %q", video.UploadType)
	metrics.ResolutionsTotal.WithLabelValues("unknown", "failure").Inc()
	return nil, nil
}

func (r *Resolver) resolveYouTube(ctx context.Context, video *models.Video) *Result {
	id, ok := ExtractYouTubeID(video.VideoURL)
	if !ok {
		r.logger.WithVideoID(video.ID).Warnf("No YouTube ID in %q", video.VideoURL)
		metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceYouTube, "failure").Inc()
		return nil
	}

	for _, quality := range QualityLadder {
		url := ThumbnailURL(r.imageHost, id, quality)
		if r.checker.Check(ctx, url) {
			metrics.ValidationChecksTotal.WithLabelValues(string(quality), "valid").Inc()
			metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceYouTube, "success").Inc()
			return &Result{URL: url, Source: models.ThumbnailSourceYouTube, Quality: quality}
		}
		metrics.ValidationChecksTotal.WithLabelValues(string(quality), "invalid").Inc()
	}

	r.logger.WithVideoID(video.ID).Warn("No valid thumbnail at any quality tier")
	metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceYouTube, "failure").Inc()
	return nil
}

func (r *Resolver) resolveDirect(ctx context.Context, video *models.Video) (*Result, error) {
	if r.extractor == nil || video.VideoURL == "" {
		metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceExtracted, "failure").Inc()
		return nil, nil
	}

	url, err := r.extractor.ExtractURL(ctx, video)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceExtracted, "failure").Inc()
		return nil, fmt.Errorf("frame extraction for video %s: %w", video.ID, err)
	}

	metrics.ResolutionsTotal.WithLabelValues(models.ThumbnailSourceExtracted, "success").Inc()
	return &Result{URL: url, Source: models.ThumbnailSourceExtracted}, nil
}

// HTTPChecker validates candidate URLs with a HEAD request, accepting
// any 2xx response that carries an image content type.
type HTTPChecker struct {
	client *http.Client
}

// NewHTTPChecker creates a checker with the given per-request timeout
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		client: &http.Client{Timeout: timeout},
	}
}

// Check reports whether url serves an image
func (c *HTTPChecker) Check(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}
