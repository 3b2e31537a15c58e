package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Await blocks until calls matching pattern reach the lower bound of times,
// then verifies them like Verify. A nil pattern counts every call. If ctx
// ends first, the error wraps both ctx.Err() and the verification failure.
func (m *Mock) Await(ctx context.Context, pattern *MockSetup, times Times) error {
	w := &waiter{
		pattern: pattern,
		want:    times.Min(),
		done:    make(chan struct{}),
	}

	// Register before checking, so a call landing in between still wakes us.
	m.waiters.add(w)
	defer m.waiters.remove(w)

	m.waiters.check(w, m.log.Snapshot())

	select {
	case <-w.done:
		return m.Verify(pattern, times)
	case <-ctx.Done():
		err := m.Verify(pattern, times)
		if err == nil {
			return nil
		}

		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
}

// waitList holds the Await callers of one mock.
type waitList struct {
	mu      sync.Mutex
	waiters []*waiter
}

type waiter struct {
	pattern *MockSetup
	want    int
	done    chan struct{}
	once    sync.Once
}

func (l *waitList) add(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waiters = append(l.waiters, w)
}

func (l *waitList) remove(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waiters = slices.DeleteFunc(l.waiters, func(other *waiter) bool { return other == w })
}

// wake releases every waiter the recorded calls now satisfy.
func (l *waitList) wake(recorded []*MethodInvocation) {
	l.mu.Lock()
	waiters := slices.Clone(l.waiters)
	l.mu.Unlock()

	for _, w := range waiters {
		l.check(w, recorded)
	}
}

func (l *waitList) check(w *waiter, recorded []*MethodInvocation) {
	count := 0

	for _, inv := range recorded {
		if w.pattern == nil || w.pattern.AppliesTo(inv) {
			count++
		}
	}

	if count >= w.want {
		w.once.Do(func() { close(w.done) })
	}
}
