package core

import (
	"fmt"
	"math"
)

// Unbounded is the maximum of an open-ended range.
const Unbounded = math.MaxInt

// Times is an inclusive call count range [Min, Max]. Use the constructors;
// they reject empty, inverted or negative ranges.
type Times struct {
	min int
	max int
}

// RangeKind says whether Between includes its bounds.
type RangeKind int

const (
	Inclusive RangeKind = iota
	Exclusive
)

// AtLeastOnce is [1, ∞).
func AtLeastOnce() Times { return Times{min: 1, max: Unbounded} }

// AtMostOnce is [0, 1].
func AtMostOnce() Times { return Times{min: 0, max: 1} }

// Once is [1, 1].
func Once() Times { return Times{min: 1, max: 1} }

// Never is [0, 0].
func Never() Times { return Times{min: 0, max: 0} }

// Exactly is [n, n].
func Exactly(n int) (Times, error) {
	if n < 0 {
		return Times{}, fmt.Errorf("%w: Exactly(%d): count must not be negative", ErrInvalidTimes, n)
	}

	return Times{min: n, max: n}, nil
}

// AtLeast is [n, ∞). n must be at least 1; use AtMost or Never for zero.
func AtLeast(n int) (Times, error) {
	if n < 1 {
		return Times{}, fmt.Errorf("%w: AtLeast(%d): count must be at least 1", ErrInvalidTimes, n)
	}

	return Times{min: n, max: Unbounded}, nil
}

// AtMost is [0, n].
func AtMost(n int) (Times, error) {
	if n < 0 {
		return Times{}, fmt.Errorf("%w: AtMost(%d): count must not be negative", ErrInvalidTimes, n)
	}

	return Times{min: 0, max: n}, nil
}

// Between is [from, to] when inclusive, and [from+1, to-1] when exclusive.
func Between(from, to int, kind RangeKind) (Times, error) {
	if kind == Exclusive {
		// An exclusive range needs at least one integer strictly inside it.
		if from <= 0 || to <= from || to-from == 1 {
			return Times{}, fmt.Errorf("%w: Between(%d, %d, exclusive): range is empty", ErrInvalidTimes, from, to)
		}

		return Times{min: from + 1, max: to - 1}, nil
	}

	if from < 0 || to < from {
		return Times{}, fmt.Errorf("%w: Between(%d, %d, inclusive): bounds are negative or inverted", ErrInvalidTimes, from, to)
	}

	return Times{min: from, max: to}, nil
}

// MustTimes panics when err is not nil. It is meant for tests, where an
// invalid range is a bug in the test itself.
func MustTimes(times Times, err error) Times {
	if err != nil {
		panic(err)
	}

	return times
}

// Min is the smallest accepted count.
func (t Times) Min() int { return t.min }

// Max is the largest accepted count; Unbounded for open ranges.
func (t Times) Max() int { return t.max }

// Validate reports whether actual lies inside the range.
func (t Times) Validate(actual int) bool {
	return t.min <= actual && actual <= t.max
}

func (t Times) String() string {
	if t.max == Unbounded {
		return fmt.Sprintf("[%d, ∞)", t.min)
	}

	return fmt.Sprintf("[%d, %d]", t.min, t.max)
}

func (k RangeKind) String() string {
	if k == Exclusive {
		return "exclusive"
	}

	return "inclusive"
}
