package models

import "time"

// PreloadStrategy selects which videos a preload run warms first
type PreloadStrategy string

const (
	// PreloadStrategySequential takes the first PriorityCount videos in
	// list order.
	PreloadStrategySequential PreloadStrategy = "sequential"
	// PreloadStrategyViewport behaves like sequential. No real viewport
	// data reaches the service, so the two are equivalent.
	PreloadStrategyViewport PreloadStrategy = "viewport"
	// PreloadStrategySmart filters to active videos and warms the most
	// recently created first.
	PreloadStrategySmart PreloadStrategy = "smart"
)

// PreloadJob is a request to warm the thumbnail cache for a set of videos.
// It travels over the queue from the API to the worker.
type PreloadJob struct {
	ID            string          `json:"id"`
	VideoIDs      []string        `json:"video_ids"`
	PriorityCount int             `json:"priority_count"`
	Concurrency   int             `json:"concurrency"`
	Strategy      PreloadStrategy `json:"strategy"`
	RequestedBy   string          `json:"requested_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PreloadProgress reports cumulative progress after each completed item
type PreloadProgress struct {
	Loaded int `json:"loaded"`
	Total  int `json:"total"`
}
