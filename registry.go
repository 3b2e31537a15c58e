package impmock

import "github.com/toejough/impmock/internal/core"

// NewMockT creates a mock and tracks it under t, so VerifyAllMocks can check
// every mock a test made. Tracking ends when t's cleanup runs.
func NewMockT(t TestReporter, target any, options ...Option) *Mock {
	return core.Track(t, core.NewMock(target, options...))
}

// VerifyAllMocks runs VerifyAll on every mock tracked under t and fails t
// with all failures at once.
func VerifyAllMocks(t TestReporter) {
	t.Helper()

	if err := core.VerifyTracked(t); err != nil {
		t.Fatalf("%v", err)
	}
}
