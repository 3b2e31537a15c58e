// Package times builds the call count ranges used by verification.
//
//	err := mock.Verify(pattern, times.Once())
//	err = mock.Verify(pattern, times.Must(times.Between(2, 5, times.Inclusive)))
package times

import "github.com/toejough/impmock/internal/core"

// Times is an inclusive call count range.
type Times = core.Times

// RangeKind says whether Between includes its bounds.
type RangeKind = core.RangeKind

// Range kinds for Between.
const (
	Inclusive = core.Inclusive
	Exclusive = core.Exclusive
)

// Unbounded is the Max of an open-ended range.
const Unbounded = core.Unbounded

// ErrInvalid is wrapped by every constructor error.
var ErrInvalid = core.ErrInvalidTimes

// AtLeastOnce is [1, ∞).
func AtLeastOnce() Times { return core.AtLeastOnce() }

// AtMostOnce is [0, 1].
func AtMostOnce() Times { return core.AtMostOnce() }

// Once is [1, 1].
func Once() Times { return core.Once() }

// Never is [0, 0].
func Never() Times { return core.Never() }

// Exactly is [n, n].
func Exactly(n int) (Times, error) { return core.Exactly(n) }

// AtLeast is [n, ∞) for n >= 1.
func AtLeast(n int) (Times, error) { return core.AtLeast(n) }

// AtMost is [0, n].
func AtMost(n int) (Times, error) { return core.AtMost(n) }

// Between is [from, to] when inclusive, and [from+1, to-1] when exclusive.
func Between(from, to int, kind RangeKind) (Times, error) { return core.Between(from, to, kind) }

// Must unwraps a constructor result, panicking on error.
func Must(t Times, err error) Times { return core.MustTimes(t, err) }
