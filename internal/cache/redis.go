package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// Redis is the shared cache tier. Multiple API and worker instances see
// the same resolved thumbnails through it; the memory tier in front of
// it absorbs per-instance hot keys.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates the shared cache tier and verifies connectivity
func NewRedis(host string, port int, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}

// GetThumbnail retrieves a resolved thumbnail URL. A missing key is a
// cache miss, not an error.
func (r *Redis) GetThumbnail(ctx context.Context, key string) (string, error) {
	url, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
			return "", nil
		}
		return "", fmt.Errorf("failed to get thumbnail from cache: %w", err)
	}

	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	return url, nil
}

// SetThumbnail caches a resolved thumbnail URL
func (r *Redis) SetThumbnail(ctx context.Context, key, url string) error {
	return r.client.Set(ctx, key, url, r.ttl).Err()
}

// DeleteThumbnail removes a cached thumbnail URL
func (r *Redis) DeleteThumbnail(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// DeleteVideo removes every cached thumbnail for a video, across all
// size/quality/format combinations.
func (r *Redis) DeleteVideo(ctx context.Context, videoID string) error {
	pattern := fmt.Sprintf("thumb:%s:*", videoID)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// SetVideo caches a video record for the worker's preload path
func (r *Redis) SetVideo(ctx context.Context, video *models.Video) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	key := fmt.Sprintf("video:%s", video.ID)
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// GetVideo retrieves a cached video record. A missing key returns nil.
func (r *Redis) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	key := fmt.Sprintf("video:%s", videoID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video from cache: %w", err)
	}

	var video models.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}

	return &video, nil
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
