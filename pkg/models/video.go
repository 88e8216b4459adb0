package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UploadType identifies where a video's bytes come from. It is a closed
// type: only the constants below are valid values.
type UploadType string

const (
	UploadTypeYouTube UploadType = "youtube"
	UploadTypeDirect  UploadType = "direct"
)

// Valid reports whether t is one of the known upload types.
func (t UploadType) Valid() bool {
	return t == UploadTypeYouTube || t == UploadTypeDirect
}

// Value implements driver.Valuer for database storage
func (t UploadType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid upload type: %q", string(t))
	}
	return string(t), nil
}

// Scan implements sql.Scanner for database retrieval
func (t *UploadType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = UploadType(v)
	case []byte:
		*t = UploadType(v)
	case nil:
		*t = ""
	default:
		return fmt.Errorf("cannot scan %T into UploadType", value)
	}
	return nil
}

// Video represents a video record in the system. The thumbnail service
// treats it as read-only input; the portal backend owns the record.
type Video struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	VideoURL         string     `json:"video_url" db:"video_url"`
	ThumbnailURL     string     `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	UploadType       UploadType `json:"upload_type" db:"upload_type"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	ProcessingStatus string     `json:"processing_status,omitempty" db:"processing_status"`
	UploadProgress   *float64   `json:"upload_progress,omitempty" db:"upload_progress"`
	Metadata         Metadata   `json:"metadata" db:"metadata"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Metadata holds additional video metadata
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// ProcessingStatus constants
const (
	ProcessingStatusPending    = "pending"
	ProcessingStatusProcessing = "processing"
	ProcessingStatusCompleted  = "completed"
	ProcessingStatusFailed     = "failed"
)
