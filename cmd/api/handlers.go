package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/internal/middleware"
	"github.com/gvasconcelos/thumbsvc/internal/placeholder"
	"github.com/gvasconcelos/thumbsvc/internal/thumbnail"
	"github.com/gvasconcelos/thumbsvc/internal/tracing"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// getThumbnail resolves a video's thumbnail URL. A video with no
// thumbnail gets a placeholder URL rather than an error.
func (api *API) getThumbnail(c *gin.Context) {
	videoID := c.Param("id")

	span, ctx := tracing.StartResolutionSpan(c.Request.Context(), videoID)
	defer tracing.FinishSpan(span)

	video, err := api.repo.GetVideo(ctx, videoID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	url, err := api.service.Resolve(ctx, video)
	if errors.Is(err, thumbnail.ErrNoThumbnail) {
		c.JSON(http.StatusOK, gin.H{
			"video_id":        videoID,
			"url":             "",
			"placeholder":     true,
			"placeholder_url": fmt.Sprintf("/api/v1/placeholder?seed=%s", videoID),
		})
		return
	}
	if err != nil {
		tracing.LogError(span, err)
		status := http.StatusBadGateway
		var classified *thumbnail.Error
		if errors.As(err, &classified) && classified.Kind == thumbnail.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":    videoID,
		"url":         url,
		"placeholder": false,
	})
}

// generateThumbnail drops cached entries and stale thumbnail records,
// then forces a fresh resolution through a priority loader so transient
// failures are retried with backoff before the request fails.
func (api *API) generateThumbnail(c *gin.Context) {
	videoID := c.Param("id")
	ctx := c.Request.Context()

	video, err := api.repo.GetVideo(ctx, videoID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	if err := api.service.Invalidate(ctx, video); err != nil {
		api.logger.WithVideoID(videoID).WithError(err).Warn("cache invalidation failed")
	}
	if err := api.repo.DeleteThumbnailsByVideo(ctx, videoID); err != nil {
		api.logger.WithVideoID(videoID).WithError(err).Warn("thumbnail record cleanup failed")
	}

	loader := thumbnail.NewLoader(api.service.Resolve, video, thumbnail.LoaderConfig{
		MaxRetries: api.cfg.Thumbnail.MaxRetries,
		Backoff:    api.cfg.Thumbnail.RetryBackoff,
		Priority:   true,
	})
	defer loader.Close()

	settled := make(chan thumbnail.State, 4)
	loader.OnState(func(s thumbnail.State) {
		if s != thumbnail.StateLoading {
			settled <- s
		}
	})
	loader.Load(ctx)

	select {
	case <-ctx.Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Generation timed out"})
		return
	case state := <-settled:
		if state == thumbnail.StateErrored {
			if errors.Is(loader.Err(), thumbnail.ErrNoThumbnail) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No thumbnail could be generated"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": loader.Err().Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"video_id": videoID,
		"url":      loader.URL(),
	})
}

// listThumbnails returns the persisted thumbnail records for a video
func (api *API) listThumbnails(c *gin.Context) {
	videoID := c.Param("id")

	if _, err := api.repo.GetVideo(c.Request.Context(), videoID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	thumbnails, err := api.repo.GetThumbnailsByVideo(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list thumbnails"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":   videoID,
		"thumbnails": thumbnails,
	})
}

type preloadRequest struct {
	// VideoIDs may be empty; the worker then warms the most recently
	// created active videos instead.
	VideoIDs      []string `json:"video_ids"`
	PriorityCount int      `json:"priority_count"`
	Concurrency   int      `json:"concurrency"`
	Strategy      string   `json:"strategy"`
}

// createPreload enqueues a preload job for the worker
func (api *API) createPreload(c *gin.Context) {
	var req preloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strategy := models.PreloadStrategy(req.Strategy)
	switch strategy {
	case "":
		strategy = models.PreloadStrategySmart
	case models.PreloadStrategySequential, models.PreloadStrategyViewport, models.PreloadStrategySmart:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown strategy %q", req.Strategy)})
		return
	}

	userID, _ := middleware.GetUserID(c)

	job := &models.PreloadJob{
		ID:            uuid.New().String(),
		VideoIDs:      req.VideoIDs,
		PriorityCount: req.PriorityCount,
		Concurrency:   req.Concurrency,
		Strategy:      strategy,
		RequestedBy:   userID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := api.queue.PublishPreload(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue preload job"})
		return
	}

	metrics.PreloadJobsTotal.WithLabelValues(string(strategy)).Inc()
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   job.ID,
		"total":    len(job.VideoIDs),
		"strategy": string(strategy),
	})
}

// getPlaceholder renders a placeholder image
func (api *API) getPlaceholder(c *gin.Context) {
	opts := placeholder.Options{
		Variant: placeholder.ParseVariant(c.Query("variant")),
		Seed:    c.Query("seed"),
	}
	if w, err := strconv.Atoi(c.Query("width")); err == nil && w > 0 {
		opts.Width = w
	}
	if h, err := strconv.Atoi(c.Query("height")); err == nil && h > 0 {
		opts.Height = h
	}

	format := c.DefaultQuery("format", "png")
	switch format {
	case "png":
		data, err := placeholder.RenderPNG(opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render placeholder"})
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "image/png", data)
	case "jpeg", "jpg":
		data, err := placeholder.RenderJPEG(opts, api.cfg.Thumbnail.JPEGQuality)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render placeholder"})
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "image/jpeg", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown format %q", format)})
	}
}
