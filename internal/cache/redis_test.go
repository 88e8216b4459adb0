package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	r, err := NewRedis(mr.Host(), mr.Server().Addr().Port, "", 0, time.Hour)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis cache: %v", err)
	}

	return r, mr
}

func TestNewRedis(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer mr.Close()
	defer r.Close()

	if err := r.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisThumbnailOperations(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer mr.Close()
	defer r.Close()

	ctx := context.Background()
	key := Key("video-1", models.UploadTypeYouTube, "medium", "hqdefault", "jpeg")

	// Miss on cold cache
	url, err := r.GetThumbnail(ctx, key)
	if err != nil {
		t.Fatalf("GetThumbnail failed: %v", err)
	}
	if url != "" {
		t.Errorf("Expected empty URL on miss, got %s", url)
	}

	// Set then get
	if err := r.SetThumbnail(ctx, key, "https://img.youtube.com/vi/abc/hqdefault.jpg"); err != nil {
		t.Fatalf("SetThumbnail failed: %v", err)
	}

	url, err = r.GetThumbnail(ctx, key)
	if err != nil {
		t.Fatalf("GetThumbnail failed: %v", err)
	}
	if url != "https://img.youtube.com/vi/abc/hqdefault.jpg" {
		t.Errorf("Unexpected URL: %s", url)
	}

	// Delete
	if err := r.DeleteThumbnail(ctx, key); err != nil {
		t.Fatalf("DeleteThumbnail failed: %v", err)
	}
	url, _ = r.GetThumbnail(ctx, key)
	if url != "" {
		t.Error("Expected miss after delete")
	}
}

func TestRedisThumbnailTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	r, err := NewRedis(mr.Host(), mr.Server().Addr().Port, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	if err := r.SetThumbnail(ctx, "thumb:v:youtube:m:hq:jpeg", "url"); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	url, err := r.GetThumbnail(ctx, "thumb:v:youtube:m:hq:jpeg")
	if err != nil {
		t.Fatalf("GetThumbnail failed: %v", err)
	}
	if url != "" {
		t.Error("Expected miss after TTL expiry")
	}
}

func TestRedisDeleteVideo(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer mr.Close()
	defer r.Close()

	ctx := context.Background()
	k1 := Key("video-1", models.UploadTypeYouTube, "small", "default", "jpeg")
	k2 := Key("video-1", models.UploadTypeYouTube, "large", "maxresdefault", "jpeg")
	k3 := Key("video-2", models.UploadTypeYouTube, "small", "default", "jpeg")

	for _, k := range []string{k1, k2, k3} {
		if err := r.SetThumbnail(ctx, k, "url"); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.DeleteVideo(ctx, "video-1"); err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}

	if url, _ := r.GetThumbnail(ctx, k1); url != "" {
		t.Error("video-1 keys should be gone")
	}
	if url, _ := r.GetThumbnail(ctx, k3); url == "" {
		t.Error("video-2 keys should survive")
	}
}

func TestRedisVideoOperations(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer mr.Close()
	defer r.Close()

	ctx := context.Background()

	// Miss returns nil, nil
	video, err := r.GetVideo(ctx, "absent")
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if video != nil {
		t.Error("Expected nil video on miss")
	}

	stored := &models.Video{
		ID:         "video-1",
		Title:      "All hands",
		VideoURL:   "https://youtu.be/dQw4w9WgXcQ",
		UploadType: models.UploadTypeYouTube,
		IsActive:   true,
	}
	if err := r.SetVideo(ctx, stored); err != nil {
		t.Fatalf("SetVideo failed: %v", err)
	}

	video, err = r.GetVideo(ctx, "video-1")
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if video == nil || video.Title != "All hands" || video.UploadType != models.UploadTypeYouTube {
		t.Errorf("Unexpected video: %+v", video)
	}
}
