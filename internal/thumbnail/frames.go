package thumbnail

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/database"
	"github.com/gvasconcelos/thumbsvc/internal/extractor"
	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/internal/storage"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// FrameSource generates thumbnail URLs for direct-upload videos by
// extracting a frame, uploading it to object storage, and returning a
// presigned URL. It satisfies the resolver's frame extraction hook.
type FrameSource struct {
	extractor *extractor.Extractor
	storage   *storage.Storage
	repo      *database.Repository
	quality   int
	logger    *logging.Logger
}

// NewFrameSource creates a frame source. repo may be nil; the thumbnail
// record is then not persisted.
func NewFrameSource(ext *extractor.Extractor, store *storage.Storage, repo *database.Repository, quality int, logger *logging.Logger) *FrameSource {
	return &FrameSource{
		extractor: ext,
		storage:   store,
		repo:      repo,
		quality:   quality,
		logger:    logger,
	}
}

// ExtractURL extracts a frame from the video source, uploads it, and
// returns a presigned URL for the stored object. The local frame file
// is removed regardless of outcome.
func (f *FrameSource) ExtractURL(ctx context.Context, video *models.Video) (string, error) {
	if video.VideoURL == "" {
		return "", fmt.Errorf("video %s has no source URL", video.ID)
	}

	start := time.Now()
	frame, err := f.extractor.ExtractFrame(ctx, video.VideoURL, extractor.Options{
		Timestamp: -1, // default for the source duration
		Quality:   f.quality,
	})
	f.logger.LogExtraction(video.ID, -1, time.Since(start), err)
	if err != nil {
		return "", err
	}
	defer os.Remove(frame.Path)

	objectName := storage.ObjectName(video.ID, int64(frame.Timestamp*1000))
	if err := f.storage.UploadFile(ctx, objectName, frame.Path); err != nil {
		return "", fmt.Errorf("failed to upload frame for video %s: %w", video.ID, err)
	}

	url, err := f.storage.GetURL(ctx, objectName)
	if err != nil {
		return "", fmt.Errorf("failed to presign frame for video %s: %w", video.ID, err)
	}

	if f.repo != nil {
		timestamp := frame.Timestamp
		record := &models.Thumbnail{
			VideoID:   video.ID,
			Source:    models.ThumbnailSourceExtracted,
			URL:       url,
			Path:      objectName,
			Format:    frame.Format,
			Timestamp: &timestamp,
		}
		if err := f.repo.CreateThumbnail(ctx, record); err != nil {
			// The URL is already usable; persistence is best effort
			f.logger.WithVideoID(video.ID).WithError(err).Warn("failed to persist thumbnail record")
		}
	}

	return url, nil
}
