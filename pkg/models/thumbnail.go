package models

import "time"

// Thumbnail represents a resolved or generated thumbnail for a video
type Thumbnail struct {
	ID        string    `json:"id" db:"id"`
	VideoID   string    `json:"video_id" db:"video_id"`
	Source    string    `json:"source" db:"source"`
	URL       string    `json:"url" db:"url"`
	Path      string    `json:"path,omitempty" db:"path"`
	Width     int       `json:"width" db:"width"`
	Height    int       `json:"height" db:"height"`
	Quality   string    `json:"quality,omitempty" db:"quality"`
	Format    string    `json:"format,omitempty" db:"format"`
	Timestamp *float64  `json:"timestamp,omitempty" db:"timestamp"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ThumbnailSource constants describe how a thumbnail URL was obtained
const (
	ThumbnailSourceStored    = "stored"
	ThumbnailSourceYouTube   = "youtube"
	ThumbnailSourceExtracted = "extracted"
)
