package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"veyra-backend/internal/features/score/models"
)

// evictBatch is how many of the oldest entries go when the cache is full.
const evictBatch = 10

// Memory is a process-local cache bounded by TTL and entry count.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	max     int
	now     func() time.Time
}

func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{
		entries: make(map[string]Entry),
		ttl:     ttl,
		max:     maxEntries,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, wallet string) (Entry, bool) {
	key := Key(wallet)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if m.now().Sub(e.FetchedAt) > m.ttl {
		delete(m.entries, key)
		return Entry{}, false
	}
	return e, true
}

func (m *Memory) Set(_ context.Context, wallet string, score *models.Score) {
	key := Key(wallet)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evictOldest()
	}
	m.entries[key] = Entry{Score: score, FetchedAt: m.now()}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) evictOldest() {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.entries[keys[i]].FetchedAt.Before(m.entries[keys[j]].FetchedAt)
	})
	if len(keys) > evictBatch {
		keys = keys[:evictBatch]
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
}
