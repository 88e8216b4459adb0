package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		expected float64
	}{
		{"long video", 120.0, 1.0},
		{"exactly one second", 1.0, 1.0},
		{"short clip", 0.8, 0.2},
		{"very short clip", 0.4, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DefaultTimestamp(tt.duration), 1e-9)
		})
	}
}

func TestConfiguredDefaultTimestamp(t *testing.T) {
	e := New("", "", "", 0)
	e.SetDefaultTimestamp(2.5)

	// The configured offset applies to sources at least a second long
	assert.InDelta(t, 2.5, e.defaultTimestampFor(60.0), 1e-9)
	assert.InDelta(t, 2.5, e.defaultTimestampFor(1.0), 1e-9)

	// Sub-second sources keep the quarter-duration rule
	assert.InDelta(t, 0.125, e.defaultTimestampFor(0.5), 1e-9)

	// Unset or non-positive overrides fall back to the built-in default
	plain := New("", "", "", 0)
	assert.InDelta(t, 1.0, plain.defaultTimestampFor(60.0), 1e-9)
	plain.SetDefaultTimestamp(-3)
	assert.InDelta(t, 1.0, plain.defaultTimestampFor(60.0), 1e-9)
}

func TestClampTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		timestamp float64
		duration  float64
		expected  float64
	}{
		{"within range", 5.0, 60.0, 5.0},
		{"at end", 60.0, 60.0, 60.0},
		{"past end", 90.0, 60.0, 57.0},
		{"negative", -3.0, 60.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ClampTimestamp(tt.timestamp, tt.duration), 1e-9)
		})
	}
}

func TestFFmpegQuality(t *testing.T) {
	tests := []struct {
		quality  int
		expected int
	}{
		{100, 2},
		{80, 8},
		{50, 17},
		{1, 31},
		{0, 8},   // default 80
		{150, 8}, // out of range, default 80
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ffmpegQuality(tt.quality), "quality %d", tt.quality)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
		wantErr  bool
	}{
		{"plain", "63.5\n", 63.5, false},
		{"integer", "10", 10, false},
		{"empty", "", 0, false},
		{"not available", "N/A\n", 0, false},
		{"garbage", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestExtractionError(t *testing.T) {
	inner := errors.New("seek failed")
	err := &ExtractionError{Stage: StageExtract, Err: inner}

	assert.Contains(t, err.Error(), "extract")
	assert.Contains(t, err.Error(), "seek failed")
	assert.True(t, errors.Is(err, inner))
}

func TestNewDefaults(t *testing.T) {
	e := New("", "", "", 0)
	assert.Equal(t, "ffmpeg", e.ffmpegPath)
	assert.Equal(t, "ffprobe", e.ffprobePath)
	assert.NotEmpty(t, e.tempDir)
	assert.Equal(t, 10*time.Second, e.timeout)
}

func TestExtractFrameMissingBinary(t *testing.T) {
	e := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe", t.TempDir(), time.Second)

	_, err := e.ExtractFrame(context.Background(), "/nonexistent/video.mp4", Options{Timestamp: -1})
	require.Error(t, err)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, StageProbe, extractErr.Stage)
}
