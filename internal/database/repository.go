package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Videos
//
// The videos table is owned by the portal backend; this service only
// reads it.

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video

	query := `
		SELECT id, title, video_url, thumbnail_url, upload_type, is_active,
		       processing_status, upload_progress, metadata, created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.Title, &video.VideoURL, &video.ThumbnailURL,
		&video.UploadType, &video.IsActive, &video.ProcessingStatus,
		&video.UploadProgress, &video.Metadata, &video.CreatedAt, &video.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return &video, nil
}

// GetVideos retrieves a batch of videos by ID, in no particular order
func (r *Repository) GetVideos(ctx context.Context, ids []string) ([]*models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, title, video_url, thumbnail_url, upload_type, is_active,
		       processing_status, upload_progress, metadata, created_at, updated_at
		FROM videos
		WHERE id = ANY($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		err := rows.Scan(
			&video.ID, &video.Title, &video.VideoURL, &video.ThumbnailURL,
			&video.UploadType, &video.IsActive, &video.ProcessingStatus,
			&video.UploadProgress, &video.Metadata, &video.CreatedAt, &video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &video)
	}

	return videos, rows.Err()
}

// ListActiveVideos retrieves active videos, most recent first
func (r *Repository) ListActiveVideos(ctx context.Context, limit int) ([]*models.Video, error) {
	query := `
		SELECT id, title, video_url, thumbnail_url, upload_type, is_active,
		       processing_status, upload_progress, metadata, created_at, updated_at
		FROM videos
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		err := rows.Scan(
			&video.ID, &video.Title, &video.VideoURL, &video.ThumbnailURL,
			&video.UploadType, &video.IsActive, &video.ProcessingStatus,
			&video.UploadProgress, &video.Metadata, &video.CreatedAt, &video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &video)
	}

	return videos, rows.Err()
}

// Thumbnails

// CreateThumbnail records a resolved or generated thumbnail
func (r *Repository) CreateThumbnail(ctx context.Context, thumbnail *models.Thumbnail) error {
	if thumbnail.ID == "" {
		thumbnail.ID = uuid.New().String()
	}

	query := `
		INSERT INTO thumbnails (id, video_id, source, url, path, width, height, quality, format, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		thumbnail.ID, thumbnail.VideoID, thumbnail.Source, thumbnail.URL,
		thumbnail.Path, thumbnail.Width, thumbnail.Height, thumbnail.Quality,
		thumbnail.Format, thumbnail.Timestamp,
	).Scan(&thumbnail.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create thumbnail: %w", err)
	}

	return nil
}

// GetThumbnailsByVideo retrieves all recorded thumbnails for a video
func (r *Repository) GetThumbnailsByVideo(ctx context.Context, videoID string) ([]*models.Thumbnail, error) {
	query := `
		SELECT id, video_id, source, url, path, width, height, quality, format, timestamp, created_at
		FROM thumbnails
		WHERE video_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thumbnails: %w", err)
	}
	defer rows.Close()

	var thumbnails []*models.Thumbnail
	for rows.Next() {
		var thumb models.Thumbnail
		err := rows.Scan(
			&thumb.ID, &thumb.VideoID, &thumb.Source, &thumb.URL, &thumb.Path,
			&thumb.Width, &thumb.Height, &thumb.Quality, &thumb.Format,
			&thumb.Timestamp, &thumb.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thumbnail: %w", err)
		}
		thumbnails = append(thumbnails, &thumb)
	}

	return thumbnails, rows.Err()
}

// DeleteThumbnailsByVideo removes recorded thumbnails for a video
func (r *Repository) DeleteThumbnailsByVideo(ctx context.Context, videoID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM thumbnails WHERE video_id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete thumbnails: %w", err)
	}
	return nil
}

// Health checks if the database is healthy
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}
