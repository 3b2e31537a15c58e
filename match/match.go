// Package match provides argument matchers for impmock setups and
// verifications. It is designed to be dot-imported alongside gomega:
//
//	import (
//	    . "github.com/onsi/gomega"
//	    . "github.com/toejough/impmock/match"
//	)
//
//	mock.Setup(add, Any[int](), Where(func(x int) bool { return x > 0 })).Returns(42)
//	mock.Setup(send, That[string](HavePrefix("ping")))
package match

import (
	"fmt"
	"reflect"

	"github.com/toejough/impmock/internal/core"
)

// Matcher is a single-argument matcher.
type Matcher = core.Matcher

// Predicate is a reusable condition with its own identity. Matchers built
// from the same Predicate and name are equal.
type Predicate = core.Predicate

// External is any matcher with gomega's Match/FailureMessage shape.
type External = core.ExternalMatcher

// Any matches every value of type T.
func Any[T any]() Matcher {
	return core.NewAnyMatcher(reflect.TypeFor[T]())
}

// Is matches values deeply equal to value.
func Is[T any](value T) Matcher {
	return core.NewValueMatcher(value, reflect.TypeFor[T]())
}

// NewPredicate wraps fn in a predicate handle for use with Conditional.
func NewPredicate[T any](fn func(T) bool) *Predicate {
	return core.NewPredicate(fn)
}

// Conditional matches values satisfying predicate. Name shows up in failure
// messages and takes part in equality.
func Conditional(predicate *Predicate, name string) Matcher {
	return core.NewConditionalMatcher(predicate, name)
}

// Where matches values for which fn returns true. Each call creates a new
// predicate, so two Where matchers are never equal; share a Predicate
// through Conditional when setups must compare equal.
func Where[T any](fn func(T) bool, name ...string) Matcher {
	label := "Where"
	if len(name) > 0 {
		label = name[0]
	}

	return core.NewConditionalMatcher(core.NewPredicate(fn), label)
}

// Passes matches values for which check returns nil.
//
// Example:
//
//	mock.Setup(add, Passes(func(x int) error {
//	    if x < 0 { return fmt.Errorf("expected positive, got %d", x) }
//	    return nil
//	}), Any[int]())
func Passes[T any](check func(T) error) Matcher {
	return core.NewConditionalMatcher(
		core.NewPredicate(func(value T) bool { return check(value) == nil }),
		"Passes",
	)
}

// That adapts a gomega-style matcher for arguments of type T.
func That[T any](matcher External) Matcher {
	return core.NewConditionalMatcher(
		core.FromExternal(reflect.TypeFor[T](), matcher),
		fmt.Sprintf("That(%T)", matcher),
	)
}

// Nil matches nil values of type T.
func Nil[T any]() Matcher {
	return core.NilMatcher(reflect.TypeFor[T]())
}

// NotNil matches non-nil values of type T.
func NotNil[T any]() Matcher {
	return core.NotNilMatcher(reflect.TypeFor[T]())
}
