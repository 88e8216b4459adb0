package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

thumbnail:
  cacheMaxEntries: 25
  cacheTTL: "30m"
  jpegQuality: 90
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Thumbnail.CacheMaxEntries != 25 {
		t.Errorf("Expected 25 cache entries, got %d", cfg.Thumbnail.CacheMaxEntries)
	}

	if cfg.Thumbnail.CacheTTL != 30*time.Minute {
		t.Errorf("Expected 30m cache TTL, got %v", cfg.Thumbnail.CacheTTL)
	}

	if cfg.Thumbnail.JPEGQuality != 90 {
		t.Errorf("Expected JPEG quality 90, got %d", cfg.Thumbnail.JPEGQuality)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte("server:\n  port: 8080\n")); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Thumbnail.CacheMaxEntries != 50 {
		t.Errorf("Expected default cache size 50, got %d", cfg.Thumbnail.CacheMaxEntries)
	}

	if cfg.Thumbnail.CacheTTL != time.Hour {
		t.Errorf("Expected default cache TTL 1h, got %v", cfg.Thumbnail.CacheTTL)
	}

	if cfg.Thumbnail.PreloadConcurrency != 3 {
		t.Errorf("Expected default preload concurrency 3, got %d", cfg.Thumbnail.PreloadConcurrency)
	}

	if cfg.Thumbnail.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.Thumbnail.MaxRetries)
	}

	if cfg.Redis.TTL != time.Hour {
		t.Errorf("Expected default Redis TTL 1h, got %v", cfg.Redis.TTL)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
