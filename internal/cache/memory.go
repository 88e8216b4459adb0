package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/gvasconcelos/thumbsvc/internal/metrics"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

const (
	// DefaultMaxEntries bounds the memory tier
	DefaultMaxEntries = 50
	// DefaultTTL is how long an entry stays valid
	DefaultTTL = time.Hour
)

// EntryMetrics holds optional measurements attached to a cache entry
type EntryMetrics struct {
	LoadTimeMs int64  `json:"load_time_ms"`
	ByteSize   int64  `json:"byte_size"`
	Format     string `json:"format"`
	Quality    string `json:"quality"`
}

// Entry is a single cached thumbnail resolution
type Entry struct {
	Key       string
	Value     string
	Timestamp time.Time
	Metrics   *EntryMetrics
}

// Memory is a bounded, time-expiring in-memory cache of resolved
// thumbnail URLs. Expired entries are purged lazily on access; there is
// no background sweeper. When full, the oldest-inserted entry is evicted
// (insertion order, not LRU; access does not refresh an entry).
//
// It is constructed explicitly and passed to its consumers rather than
// living as package state, so tests can run against isolated instances.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	order      []string // insertion order, oldest first
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewMemory creates a memory cache. Non-positive maxEntries or ttl fall
// back to the defaults.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		entries:    make(map[string]*Entry),
		order:      make([]string, 0, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Key builds the composite cache key for a video thumbnail request
func Key(videoID string, uploadType models.UploadType, size, quality, format string) string {
	return fmt.Sprintf("thumb:%s:%s:%s:%s:%s", videoID, uploadType, size, quality, format)
}

// Get returns the cached value for key, or empty and false on a miss.
// An entry older than the TTL counts as a miss and is removed.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return "", false
	}

	if m.now().Sub(entry.Timestamp) >= m.ttl {
		m.removeLocked(key)
		metrics.CacheEvictionsTotal.WithLabelValues("expired").Inc()
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return "", false
	}

	metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	return entry.Value, true
}

// GetEntry returns the full entry for key, including attached metrics
func (m *Memory) GetEntry(key string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.Timestamp) >= m.ttl {
		m.removeLocked(key)
		return nil, false
	}
	return entry, true
}

// Set stores value under key. Expired entries are purged first; if the
// cache is still full, the oldest-inserted entry is evicted. Re-setting
// an existing key counts as a fresh insertion.
func (m *Memory) Set(key, value string, entryMetrics *EntryMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeExpiredLocked()

	if _, ok := m.entries[key]; ok {
		m.removeLocked(key)
	}

	if len(m.order) >= m.maxEntries {
		oldest := m.order[0]
		m.removeLocked(oldest)
		metrics.CacheEvictionsTotal.WithLabelValues("capacity").Inc()
	}

	m.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		Timestamp: m.now(),
		Metrics:   entryMetrics,
	}
	m.order = append(m.order, key)
	metrics.CacheEntries.Set(float64(len(m.entries)))
}

// Remove deletes a single entry
func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(key)
}

// Clear drops all entries
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*Entry)
	m.order = m.order[:0]
	metrics.CacheEntries.Set(0)
}

// Size returns the current entry count, counting expired entries that
// have not been touched yet.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) purgeExpiredLocked() {
	now := m.now()
	kept := m.order[:0]
	for _, key := range m.order {
		entry := m.entries[key]
		if entry != nil && now.Sub(entry.Timestamp) >= m.ttl {
			delete(m.entries, key)
			metrics.CacheEvictionsTotal.WithLabelValues("expired").Inc()
			continue
		}
		kept = append(kept, key)
	}
	m.order = kept
}

func (m *Memory) removeLocked(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	metrics.CacheEntries.Set(float64(len(m.entries)))
}
