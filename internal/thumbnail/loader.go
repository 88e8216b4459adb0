package thumbnail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/gate"
	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

// State is a loader lifecycle phase
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

// ResolveFunc resolves a thumbnail URL for one video
type ResolveFunc func(ctx context.Context, video *models.Video) (string, error)

// LoaderConfig controls a single loader's retry behavior
type LoaderConfig struct {
	// MaxRetries bounds automatic retry attempts on the priority path.
	// Zero means DefaultMaxRetries.
	MaxRetries int
	// Backoff is the initial delay between automatic retries; it
	// doubles per attempt. Zero means DefaultBackoff.
	Backoff time.Duration
	// Priority loaders retry automatically; others surface the first
	// failure and wait for a manual Retry.
	Priority bool
}

// Loader drives a single video's thumbnail through
// idle -> loading -> loaded | errored. Errored loaders return to
// loading via Retry; that includes videos whose resolution exhausted
// every fallback without producing a URL, so a later retry can pick up
// a thumbnail that appears once the source recovers. All state
// transitions are serialized; once Close is called no further
// transitions happen, including from attempts still in flight.
type Loader struct {
	mu         sync.Mutex
	resolve    ResolveFunc
	video      *models.Video
	cfg        LoaderConfig
	state      State
	url        string
	lastErr    error
	retryCount int
	cancel     context.CancelFunc
	closed     bool
	onState    func(State)
}

// NewLoader creates a loader in the idle state
func NewLoader(resolve ResolveFunc, video *models.Video, cfg LoaderConfig) *Loader {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Loader{
		resolve: resolve,
		video:   video,
		cfg:     cfg,
		state:   StateIdle,
	}
}

// OnState registers a callback invoked after every state transition.
// Must be set before Load.
func (l *Loader) OnState(fn func(State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onState = fn
}

// State returns the current lifecycle phase
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// URL returns the resolved thumbnail URL, empty unless loaded
func (l *Loader) URL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url
}

// Err returns the failure behind an errored state
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// BindGate defers Load until the gate reports visibility. The callback
// is registered before the visibility check so a gate that opens
// between the two still triggers a load; Load itself absorbs the
// duplicate when both paths fire.
func (l *Loader) BindGate(ctx context.Context, g *gate.Gate) {
	g.OnChange(func(inView bool) {
		if inView {
			l.Load(ctx)
		}
	})
	if g.InView() {
		l.Load(ctx)
	}
}

// Load starts resolution. Calls while loading or after a successful
// load are no-ops; an errored loader restarts without resetting the
// retry budget.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	if l.closed || l.state == StateLoading || l.state == StateLoaded {
		l.mu.Unlock()
		return
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state = StateLoading
	fn := l.onState
	l.mu.Unlock()

	if fn != nil {
		fn(StateLoading)
	}
	go l.run(attemptCtx)
}

// Retry clears the retry budget and restarts resolution from scratch.
// Only meaningful in the errored state.
func (l *Loader) Retry(ctx context.Context) {
	l.mu.Lock()
	if l.closed || l.state != StateErrored {
		l.mu.Unlock()
		return
	}
	l.retryCount = 0
	l.lastErr = nil
	l.state = StateIdle
	l.mu.Unlock()

	metrics.RetriesTotal.WithLabelValues("manual").Inc()
	l.Load(ctx)
}

// Close cancels any in-flight attempt and freezes the loader. State
// callbacks stop; attempts that finish later are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (l *Loader) run(ctx context.Context) {
	url, err := l.resolve(ctx, l.video)

	for err != nil {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		retryable := l.cfg.Priority && l.retryCount < l.cfg.MaxRetries && retryableError(err)
		if !retryable {
			l.mu.Unlock()
			break
		}
		l.retryCount++
		delay := l.cfg.Backoff << (l.retryCount - 1)
		l.mu.Unlock()

		metrics.RetriesTotal.WithLabelValues("automatic").Inc()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		url, err = l.resolve(ctx, l.video)
	}

	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	var next State
	if err == nil {
		l.state = StateLoaded
		l.url = url
		l.lastErr = nil
		next = StateLoaded
	} else {
		// ErrNoThumbnail lands here too: an exhausted fallback chain
		// stays retryable because a transient outage during URL
		// validation is indistinguishable from a missing thumbnail.
		l.state = StateErrored
		l.lastErr = err
		next = StateErrored
	}
	fn := l.onState
	l.mu.Unlock()

	if fn != nil {
		fn(next)
	}
}

func retryableError(err error) bool {
	// No-thumbnail is not worth hammering automatically; it stays
	// reachable through a manual Retry.
	if errors.Is(err, ErrNoThumbnail) {
		return false
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind.Retryable()
	}
	return true
}
