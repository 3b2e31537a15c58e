package core

import (
	"slices"
	"sync"
)

// InvocationLog is the append-only record of calls a mock has seen.
// Entries keep call order under concurrent writers and are never removed.
type InvocationLog struct {
	mu      sync.RWMutex
	entries []*MethodInvocation
}

// Cursor marks a position in the log; Since reads everything after it.
type Cursor int

// Append records inv and returns its position.
func (l *InvocationLog) Append(inv *MethodInvocation) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, inv)

	return len(l.entries) - 1
}

// Len is the number of recorded invocations.
func (l *InvocationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Cursor returns the current end of the log.
func (l *InvocationLog) Cursor() Cursor {
	return Cursor(l.Len())
}

// Snapshot returns every recorded invocation, oldest first.
func (l *InvocationLog) Snapshot() []*MethodInvocation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.entries)
}

// Since returns the invocations recorded after cursor.
func (l *InvocationLog) Since(cursor Cursor) []*MethodInvocation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := min(max(int(cursor), 0), len(l.entries))

	return slices.Clone(l.entries[start:])
}

// Count returns how many recorded invocations satisfy pred.
func (l *InvocationLog) Count(pred func(*MethodInvocation) bool) int {
	count := 0

	for _, inv := range l.Snapshot() {
		if pred(inv) {
			count++
		}
	}

	return count
}
