package core

import (
	"errors"
	"slices"
	"sync"
)

// TestReporter is the subset of testing.TB the facade helpers need.
type TestReporter interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Track records mock under t so VerifyTracked can check it later.
// If t supports Cleanup (like *testing.T), its mocks are forgotten when the
// test completes.
func Track(t TestReporter, mock *Mock) *Mock {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[t]; !ok {
		if cr, ok := t.(cleanupRegistrar); ok {
			cr.Cleanup(func() {
				registryMu.Lock()
				delete(registry, t)
				registryMu.Unlock()
			})
		}
	}

	registry[t] = append(registry[t], mock)

	return mock
}

// Tracked returns the mocks recorded under t, in creation order.
func Tracked(t TestReporter) []*Mock {
	registryMu.Lock()
	defer registryMu.Unlock()

	return slices.Clone(registry[t])
}

// VerifyTracked runs VerifyAll on every mock recorded under t and joins the
// failures.
func VerifyTracked(t TestReporter) error {
	var failures []error

	for _, mock := range Tracked(t) {
		if err := mock.VerifyAll(); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Package-level registry is intentional for test coordination
	registry = make(map[TestReporter][]*Mock)
	//nolint:gochecknoglobals // Mutex for registry
	registryMu sync.Mutex
)

// cleanupRegistrar is the interface needed for registering cleanup functions.
// This is satisfied by *testing.T and *testing.B.
type cleanupRegistrar interface {
	Cleanup(cleanupFunc func())
}
