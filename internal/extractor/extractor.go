package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gvasconcelos/thumbsvc/internal/metrics"
)

// Extraction stages, recorded on errors so callers can classify failures
const (
	StageProbe   = "probe"
	StageExtract = "extract"
	StageTimeout = "timeout"
)

// ErrZeroDuration marks a source whose container reports no playable
// duration. Extraction fails immediately instead of seeking into it.
var ErrZeroDuration = errors.New("video has zero duration")

// ExtractionError describes a failed frame extraction
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("frame extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Options control a single frame extraction
type Options struct {
	Timestamp float64 // seconds; negative picks the default for the source
	Quality   int     // JPEG quality 1-100, default 80
	Width     int     // 0 keeps source width
	Height    int     // 0 keeps aspect ratio
}

// Frame is an extracted, encoded video frame on local disk
type Frame struct {
	Path      string
	Timestamp float64
	Format    string
}

// Extractor rasterizes single frames from video sources using ffmpeg.
// Sources may be local paths or URLs; ffmpeg streams the latter.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	timeout     time.Duration
	defaultTS   float64
}

// New creates an Extractor. timeout bounds each extraction end to end;
// a zero timeout falls back to 10 seconds.
func New(ffmpegPath, ffprobePath, tempDir string, timeout time.Duration) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Extractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		timeout:     timeout,
	}
}

// SetDefaultTimestamp overrides the capture offset used when a request
// does not name one. Sub-second sources keep the quarter-duration rule
// regardless; a non-positive value keeps the built-in default.
func (e *Extractor) SetDefaultTimestamp(ts float64) {
	e.defaultTS = ts
}

func (e *Extractor) defaultTimestampFor(duration float64) float64 {
	if duration >= 1.0 && e.defaultTS > 0 {
		return e.defaultTS
	}
	return DefaultTimestamp(duration)
}

// ExtractFrame seeks to the requested timestamp and encodes the frame
// as JPEG. The timestamp is clamped into the source's duration; a
// negative timestamp selects the default offset. The caller owns the
// returned file and removes it when done.
func (e *Extractor) ExtractFrame(ctx context.Context, source string, opts Options) (*Frame, error) {
	start := time.Now()
	frame, err := e.extractFrame(ctx, source, opts)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.ExtractionsTotal.WithLabelValues("success").Inc()
	return frame, nil
}

func (e *Extractor) extractFrame(ctx context.Context, source string, opts Options) (*Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	duration, err := e.ProbeDuration(ctx, source)
	if err != nil {
		return nil, stageError(ctx, StageProbe, err)
	}
	if duration <= 0 {
		return nil, &ExtractionError{Stage: StageProbe, Err: ErrZeroDuration}
	}

	timestamp := opts.Timestamp
	if timestamp < 0 {
		timestamp = e.defaultTimestampFor(duration)
	}
	timestamp = ClampTimestamp(timestamp, duration)

	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return nil, &ExtractionError{Stage: StageExtract, Err: err}
	}
	outputPath := filepath.Join(e.tempDir, uuid.New().String()+".jpg")

	args := []string{
		"-ss", fmt.Sprintf("%.2f", timestamp),
		"-i", source,
		"-vframes", "1",
		"-q:v", strconv.Itoa(ffmpegQuality(opts.Quality)),
	}

	if opts.Width > 0 || opts.Height > 0 {
		height := opts.Height
		if height == 0 {
			height = -1 // keep aspect ratio
		}
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", opts.Width, height))
	}

	args = append(args, "-y", outputPath)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return nil, stageError(ctx, StageExtract,
			fmt.Errorf("%w, stderr: %s", err, stderr.String()))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outputPath)
		return nil, &ExtractionError{Stage: StageExtract, Err: errors.New("ffmpeg produced no output")}
	}

	return &Frame{
		Path:      outputPath,
		Timestamp: timestamp,
		Format:    "jpeg",
	}, nil
}

// ProbeDuration returns the source's duration in seconds
func (e *Extractor) ProbeDuration(ctx context.Context, source string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	return parseDuration(stdout.String())
}

func parseDuration(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0, nil
	}

	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q: %w", raw, err)
	}
	return duration, nil
}

// DefaultTimestamp picks the default capture offset: one second in, or
// a quarter of the way through sources shorter than that.
func DefaultTimestamp(duration float64) float64 {
	if duration < 1.0 {
		return duration * 0.25
	}
	return 1.0
}

// ClampTimestamp keeps a requested timestamp inside the source.
// Offsets past the end land at 95% of the duration.
func ClampTimestamp(timestamp, duration float64) float64 {
	if timestamp < 0 {
		return 0
	}
	if timestamp > duration {
		return duration * 0.95
	}
	return timestamp
}

// ffmpegQuality maps a 1-100 JPEG quality to ffmpeg's 2-31 q:v scale,
// where lower is better.
func ffmpegQuality(quality int) int {
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	qv := 31 - (quality*29)/100
	if qv < 2 {
		qv = 2
	}
	return qv
}

func stageError(ctx context.Context, stage string, err error) *ExtractionError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ExtractionError{Stage: StageTimeout, Err: err}
	}
	return &ExtractionError{Stage: stage, Err: err}
}
