package statistics

import (
	"sort"
	"sync"
	"time"
)

// CacheStats is the local statistics state of one cache.
type CacheStats struct {
	Cache     string    `json:"cache" yaml:"cache"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	Clears    int       `json:"clears" yaml:"clears"`
	ClearedAt time.Time `json:"cleared_at,omitempty" yaml:"cleared_at,omitempty"`
}

// Table holds the statistics state of every cache known to this node.
type Table struct {
	mu     sync.RWMutex
	caches map[string]*CacheStats
	now    func() time.Time
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{caches: make(map[string]*CacheStats), now: time.Now}
}

func (t *Table) entry(cache string) *CacheStats {
	s, ok := t.caches[cache]
	if !ok {
		s = &CacheStats{Cache: cache}
		t.caches[cache] = s
	}
	return s
}

// SetEnabled switches statistics for caches.
func (t *Table) SetEnabled(caches []string, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range caches {
		t.entry(c).Enabled = enabled
	}
}

// Clear resets statistics for caches.
func (t *Table) Clear(caches []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now().UTC()
	for _, c := range caches {
		e := t.entry(c)
		e.Clears++
		e.ClearedAt = now
	}
}

// Get returns the state of cache.
func (t *Table) Get(cache string) (CacheStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.caches[cache]
	if !ok {
		return CacheStats{}, false
	}
	return *s, true
}

// Snapshot returns every cache ordered by name.
func (t *Table) Snapshot() []CacheStats {
	t.mu.RLock()
	out := make([]CacheStats, 0, len(t.caches))
	for _, s := range t.caches {
		out = append(out, *s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Cache < out[j].Cache })
	return out
}
