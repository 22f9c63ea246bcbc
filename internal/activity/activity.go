// Package activity keeps a short per-member history of API requests,
// newest first, either in process memory or in Redis lists.
package activity

import (
	"sync"
)

// Entry is one recorded request.
type Entry struct {
	Method string `json:"method"`
	Route  string `json:"route"`
}

// Log records requests per member and returns the most recent ones.
type Log interface {
	Record(memberID string, e Entry) error
	Recent(memberID string) ([]Entry, error)
	Close() error
}

// MemoryLog is a Log held in process memory.
type MemoryLog struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]Entry
}

// NewMemoryLog returns a MemoryLog keeping at most limit entries per member.
func NewMemoryLog(limit int) *MemoryLog {
	return &MemoryLog{limit: max(limit, 1), entries: make(map[string][]Entry)}
}

// Record prepends e to the member's history and drops entries past the
// limit.
func (l *MemoryLog) Record(memberID string, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.entries[memberID]
	next := make([]Entry, 0, min(len(cur)+1, l.limit))
	next = append(next, e)
	next = append(next, cur[:min(len(cur), l.limit-1)]...)
	l.entries[memberID] = next
	return nil
}

// Recent returns a copy of the member's history, newest first.
func (l *MemoryLog) Recent(memberID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Entry{}, l.entries[memberID]...), nil
}

// Close is a no-op.
func (l *MemoryLog) Close() error { return nil }
