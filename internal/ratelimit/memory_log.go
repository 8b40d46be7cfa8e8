package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLog is a process-local UploadLog. It backs tests and the
// degraded mode where neither Postgres nor Redis is reachable; it is
// trivially bypassed by running a second instance, so it is never the
// gate in a multi-instance deployment.
type MemoryLog struct {
	mu     sync.RWMutex
	events map[string][]time.Time
}

// NewMemoryLog creates an empty in-memory log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{events: make(map[string][]time.Time)}
}

func memoryKey(userID, communityID string) string {
	return userID + "\x00" + communityID
}

// Append records an event. Events are kept forever, matching the
// append-only contract; they stop counting once past the window.
func (m *MemoryLog) Append(ctx context.Context, userID, communityID string, occurredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(userID, communityID)
	m.events[k] = append(m.events[k], occurredAt)
	return nil
}

// CountSince counts events with occurredAt >= since
func (m *MemoryLog) CountSince(ctx context.Context, userID, communityID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, t := range m.events[memoryKey(userID, communityID)] {
		if !t.Before(since) {
			count++
		}
	}
	return count, nil
}

// OldestSince returns the oldest event still at or after since
func (m *MemoryLog) OldestSince(ctx context.Context, userID, communityID string, since time.Time) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var oldest *time.Time
	for _, t := range m.events[memoryKey(userID, communityID)] {
		if t.Before(since) {
			continue
		}
		if oldest == nil || t.Before(*oldest) {
			tt := t
			oldest = &tt
		}
	}
	return oldest, nil
}

// RemoveLatest drops the most recent event for the key. Exists only
// for the release-on-failure policy.
func (m *MemoryLog) RemoveLatest(ctx context.Context, userID, communityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(userID, communityID)
	evs := m.events[k]
	if len(evs) == 0 {
		return nil
	}

	latest := 0
	for i, t := range evs {
		if t.After(evs[latest]) {
			latest = i
		}
	}
	m.events[k] = append(evs[:latest], evs[latest+1:]...)
	return nil
}

var (
	_ UploadLog = (*MemoryLog)(nil)
	_ Remover   = (*MemoryLog)(nil)
)
