package preloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvasconcelos/thumbsvc/internal/logging"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// recordingWarmer tracks batching behavior: which videos were warmed,
// the peak number of concurrent calls, and which batch each call
// belonged to.
type recordingWarmer struct {
	mu          sync.Mutex
	warmed      []string
	active      int
	peakActive  int
	failFor     map[string]bool
	delay       time.Duration
	batchStamps map[string]int
	batchSeq    int
}

func (w *recordingWarmer) Warm(_ context.Context, video *models.Video) error {
	w.mu.Lock()
	w.active++
	if w.active > w.peakActive {
		w.peakActive = w.active
	}
	w.mu.Unlock()

	if w.delay > 0 {
		time.Sleep(w.delay)
	}

	w.mu.Lock()
	w.active--
	w.warmed = append(w.warmed, video.ID)
	failed := w.failFor[video.ID]
	w.mu.Unlock()

	if failed {
		return errors.New("resolution failed")
	}
	return nil
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return logger
}

func makeVideos(n int) []*models.Video {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := make([]*models.Video, n)
	for i := 0; i < n; i++ {
		videos[i] = &models.Video{
			ID:         fmt.Sprintf("video-%d", i),
			UploadType: models.UploadTypeYouTube,
			IsActive:   true,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
	}
	return videos
}

func TestPreloadBatching(t *testing.T) {
	warmer := &recordingWarmer{delay: 10 * time.Millisecond}
	p := New(warmer, testLogger(t))

	var reports []models.PreloadProgress
	var mu sync.Mutex

	final := p.Preload(context.Background(), makeVideos(7), Options{
		PriorityCount: 7,
		Concurrency:   3,
		Strategy:      models.PreloadStrategySequential,
	}, func(progress models.PreloadProgress) {
		mu.Lock()
		reports = append(reports, progress)
		mu.Unlock()
	})

	// 7 videos in batches of [3, 3, 1]
	assert.Equal(t, 7, final.Loaded)
	assert.Equal(t, 7, final.Total)
	assert.Len(t, warmer.warmed, 7)
	assert.LessOrEqual(t, warmer.peakActive, 3)

	// Progress reported after each completed item, cumulative
	require.Len(t, reports, 7)
	last := reports[len(reports)-1]
	assert.Equal(t, models.PreloadProgress{Loaded: 7, Total: 7}, last)
}

func TestPreloadFailuresAreSwallowed(t *testing.T) {
	warmer := &recordingWarmer{failFor: map[string]bool{"video-1": true, "video-4": true}}
	p := New(warmer, testLogger(t))

	count := 0
	final := p.Preload(context.Background(), makeVideos(7), Options{
		PriorityCount: 7,
		Concurrency:   3,
		Strategy:      models.PreloadStrategySequential,
	}, func(models.PreloadProgress) { count++ })

	// Failures still count as completed items
	assert.Equal(t, 7, final.Loaded)
	assert.Equal(t, 7, count)
}

func TestPreloadSmartStrategy(t *testing.T) {
	videos := makeVideos(6)
	videos[2].IsActive = false
	videos[5].IsActive = false

	warmer := &recordingWarmer{}
	p := New(warmer, testLogger(t))

	final := p.Preload(context.Background(), videos, Options{
		PriorityCount: 3,
		Concurrency:   1,
		Strategy:      models.PreloadStrategySmart,
	}, nil)

	assert.Equal(t, 3, final.Total)

	// Active only, most recent first; concurrency 1 keeps order
	// deterministic. video-5 and video-2 are inactive, so the newest
	// active are 4, 3, 1.
	assert.Equal(t, []string{"video-4", "video-3", "video-1"}, warmer.warmed)
}

func TestPreloadViewportEqualsSequential(t *testing.T) {
	videos := makeVideos(4)
	videos[0].IsActive = false // would be filtered by smart, not by viewport

	warmer := &recordingWarmer{}
	p := New(warmer, testLogger(t))

	final := p.Preload(context.Background(), videos, Options{
		PriorityCount: 2,
		Concurrency:   1,
		Strategy:      models.PreloadStrategyViewport,
	}, nil)

	assert.Equal(t, 2, final.Total)
	assert.Equal(t, []string{"video-0", "video-1"}, warmer.warmed)
}

func TestPreloadDefaults(t *testing.T) {
	warmer := &recordingWarmer{}
	p := New(warmer, testLogger(t))

	final := p.Preload(context.Background(), makeVideos(15), Options{}, nil)

	// Default priority count caps the run
	assert.Equal(t, DefaultPriorityCount, final.Total)
}

func TestPreloadCancellationStopsBetweenBatches(t *testing.T) {
	warmer := &recordingWarmer{delay: 20 * time.Millisecond}
	p := New(warmer, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan models.PreloadProgress, 1)
	go func() {
		done <- p.Preload(ctx, makeVideos(9), Options{
			PriorityCount: 9,
			Concurrency:   3,
			Strategy:      models.PreloadStrategySequential,
		}, func(progress models.PreloadProgress) {
			if progress.Loaded == 3 {
				cancel()
			}
		})
	}()

	final := <-done
	assert.Less(t, final.Loaded, 9, "run should stop early after cancellation")
	assert.GreaterOrEqual(t, final.Loaded, 3, "the in-flight batch still settles")
}

func TestPreloadEmptyInput(t *testing.T) {
	warmer := &recordingWarmer{}
	p := New(warmer, testLogger(t))

	final := p.Preload(context.Background(), nil, Options{}, nil)
	assert.Equal(t, models.PreloadProgress{Loaded: 0, Total: 0}, final)
}
