package logging

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if logger == nil {
				t.Error("NewLogger() returned nil logger")
			}
		})
	}
}

func TestNewDefaultLogger(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatalf("NewDefaultLogger() failed: %v", err)
	}
	if logger == nil {
		t.Fatal("NewDefaultLogger() returned nil")
	}
}

func TestLoggerWithFields(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatal(err)
	}

	withVideo := logger.WithVideoID("video-1")
	if withVideo == nil {
		t.Fatal("WithVideoID returned nil")
	}
	if withVideo == logger {
		t.Error("WithVideoID should return a new logger")
	}

	withField := logger.WithField("component", "resolver")
	if withField == nil {
		t.Fatal("WithField returned nil")
	}

	// Should not panic
	withVideo.Info("test message")
	withVideo.Debugf("formatted %d", 42)
	logger.LogResolution("video-1", "youtube", true, 0, nil)
	logger.LogCacheOperation("memory", "get", "thumb:video-1", false)
}
