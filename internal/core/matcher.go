package core

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Matcher is a predicate over a single argument. The set of matchers is
// closed: AnyMatcher, ConditionalMatcher and ValueMatcher. Each has
// well-defined equality and hashing, so matchers can sit inside map keys.
type Matcher interface {
	fmt.Stringer

	// Matches reports whether actual satisfies the matcher.
	Matches(actual any) bool
	// Type is the declared type of the argument the matcher applies to.
	Type() reflect.Type

	sealed()
}

// ExternalMatcher is the shape of third-party matchers such as gomega's.
// Compatible with gomega.GomegaMatcher via duck typing - any type
// implementing Match and FailureMessage will work.
type ExternalMatcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// AnyMatcher matches every value of its declared type.
type AnyMatcher struct {
	typ reflect.Type
}

// NewAnyMatcher returns the matcher accepting any value of typ. All
// AnyMatchers for one type are equal.
func NewAnyMatcher(typ reflect.Type) *AnyMatcher {
	return &AnyMatcher{typ: typ}
}

// Matches is true for every value, except nil when the declared type cannot
// hold nil.
func (m *AnyMatcher) Matches(actual any) bool {
	return !isNil(actual) || isNillable(m.typ)
}

func (m *AnyMatcher) Type() reflect.Type { return m.typ }

func (m *AnyMatcher) String() string {
	return fmt.Sprintf("Any[%v]", typeName(m.typ))
}

func (*AnyMatcher) sealed() {}

// Predicate is a user condition with a stable identity. Two predicates are
// the same only if they are the same handle, however alike their logic is.
type Predicate struct {
	id  uuid.UUID
	typ reflect.Type
	fn  func(any) bool
}

// NewPredicate wraps fn in a new handle. A value of the wrong type, or a nil
// for a type that cannot hold one, fails the predicate without calling fn.
func NewPredicate[T any](fn func(T) bool) *Predicate {
	typ := reflect.TypeFor[T]()

	return &Predicate{
		id:  uuid.New(),
		typ: typ,
		fn: func(actual any) bool {
			if actual == nil {
				if !isNillable(typ) {
					return false
				}

				var zero T

				return fn(zero)
			}

			value, ok := actual.(T)
			if !ok {
				return false
			}

			return fn(value)
		},
	}
}

// FromExternal adapts a third-party matcher into a predicate handle.
func FromExternal(typ reflect.Type, matcher ExternalMatcher) *Predicate {
	return &Predicate{
		id:  uuid.New(),
		typ: typ,
		fn: func(actual any) bool {
			ok, err := matcher.Match(actual)

			return err == nil && ok
		},
	}
}

// ID is the predicate's identity.
func (p *Predicate) ID() uuid.UUID { return p.id }

// ConditionalMatcher matches values for which its predicate holds.
type ConditionalMatcher struct {
	predicate *Predicate
	typ       reflect.Type
	name      string
}

// NewConditionalMatcher builds a matcher around predicate. The declared type
// is the predicate's.
func NewConditionalMatcher(predicate *Predicate, name string) *ConditionalMatcher {
	return &ConditionalMatcher{predicate: predicate, typ: predicate.typ, name: name}
}

// Matches runs the predicate. A predicate that panics does not match.
func (m *ConditionalMatcher) Matches(actual any) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	return m.predicate.fn(actual)
}

func (m *ConditionalMatcher) Type() reflect.Type { return m.typ }

// Name is the display name given at construction.
func (m *ConditionalMatcher) Name() string { return m.name }

func (m *ConditionalMatcher) String() string {
	if m.name != "" {
		return m.name
	}

	return fmt.Sprintf("Where[%v]", typeName(m.typ))
}

func (*ConditionalMatcher) sealed() {}

// ValueMatcher matches values structurally equal to an expected value.
type ValueMatcher struct {
	value any
	typ   reflect.Type
}

// NewValueMatcher matches value. A nil typ means the dynamic type of value.
func NewValueMatcher(value any, typ reflect.Type) *ValueMatcher {
	if typ == nil && value != nil {
		typ = reflect.TypeOf(value)
	}

	return &ValueMatcher{value: value, typ: typ}
}

// Matches compares with reflect.DeepEqual. An untyped nil and a typed nil are
// treated as the same value.
func (m *ValueMatcher) Matches(actual any) bool {
	if isNil(actual) || isNil(m.value) {
		return isNil(actual) && isNil(m.value) && isNillable(m.typ)
	}

	return valuesEqual(m.value, actual)
}

func (m *ValueMatcher) Type() reflect.Type { return m.typ }

// Value is the expected value.
func (m *ValueMatcher) Value() any { return m.value }

func (m *ValueMatcher) String() string {
	return fmt.Sprintf("%#v", m.value)
}

func (*ValueMatcher) sealed() {}

// MatchersEqual reports structural equality between two matchers.
func MatchersEqual(a, b Matcher) bool {
	switch ma := a.(type) {
	case *AnyMatcher:
		mb, ok := b.(*AnyMatcher)

		return ok && ma.typ == mb.typ
	case *ConditionalMatcher:
		mb, ok := b.(*ConditionalMatcher)

		return ok && ma.predicate.id == mb.predicate.id && ma.typ == mb.typ && ma.name == mb.name
	case *ValueMatcher:
		mb, ok := b.(*ValueMatcher)
		if !ok || ma.typ != mb.typ {
			return false
		}

		if isNil(ma.value) || isNil(mb.value) {
			return isNil(ma.value) && isNil(mb.value)
		}

		return valuesEqual(ma.value, mb.value)
	default:
		return a == nil && b == nil
	}
}

// hashMatcher is consistent with MatchersEqual.
func hashMatcher(h *hasher, m Matcher) {
	switch typed := m.(type) {
	case *AnyMatcher:
		h.writeByte('A')
		h.writeType(typed.typ)
	case *ConditionalMatcher:
		h.writeByte('C')
		h.writeType(typed.typ)
		h.writeString(typed.predicate.id.String())
		h.writeString(typed.name)
	case *ValueMatcher:
		h.writeByte('V')
		h.writeType(typed.typ)

		if isNil(typed.value) {
			h.writeByte(0)
		} else {
			h.writeValue(typed.value)
		}
	default:
		h.writeByte(0)
	}
}

// MatcherFor turns a setup argument into a matcher: matchers are used as
// they are, anything else becomes a ValueMatcher for the parameter's type.
// Numeric literals are converted to a numeric parameter type when the
// conversion keeps their value, so an untyped constant like 2 can stand for
// an int64 parameter. Literals that would be truncated or wrapped are kept as
// they are and rejected when the setup is built.
func MatcherFor(arg any, param reflect.Type) Matcher {
	if m, ok := arg.(Matcher); ok {
		return m
	}

	if arg != nil && param != nil {
		value := reflect.ValueOf(arg)
		if value.Type() != param && isNumeric(value.Kind()) && isNumeric(param.Kind()) {
			if converted, ok := convertExact(value, param); ok {
				arg = converted.Interface()
			}
		}
	}

	return NewValueMatcher(arg, param)
}

func isNumeric(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Float64
}

// convertExact converts value to typ when no information is lost: no
// fractional part dropped, no overflow and no sign change. Narrowing one
// float kind to another only has to stay finite, since 0.1 has no exact
// float32 form and callers still mean float32(0.1).
func convertExact(value reflect.Value, typ reflect.Type) (reflect.Value, bool) {
	from, to := numericClass(value.Kind()), numericClass(typ.Kind())

	if from == classFloat {
		f := value.Float()

		if to == classFloat {
			converted := value.Convert(typ)

			return converted, math.IsInf(f, 0) || !math.IsInf(converted.Float(), 0)
		}

		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return reflect.Value{}, false
		}
	}

	converted := value.Convert(typ)
	if isNegative(value) != isNegative(converted) {
		return reflect.Value{}, false
	}

	return converted, converted.Convert(value.Type()).Equal(value)
}

type numericKind int

const (
	classInt numericKind = iota
	classUint
	classFloat
)

func numericClass(kind reflect.Kind) numericKind {
	switch {
	case kind >= reflect.Int && kind <= reflect.Int64:
		return classInt
	case kind >= reflect.Uint && kind <= reflect.Uintptr:
		return classUint
	default:
		return classFloat
	}
}

func isNegative(value reflect.Value) bool {
	switch numericClass(value.Kind()) {
	case classInt:
		return value.Int() < 0
	case classUint:
		return false
	default:
		return value.Float() < 0
	}
}

// NilMatcher matches nil values of typ. All NilMatchers for one type are
// equal because they share one predicate handle.
func NilMatcher(typ reflect.Type) *ConditionalMatcher {
	return NewConditionalMatcher(cachedPredicate(&nilPredicates, typ, isNil), "Nil")
}

// NotNilMatcher matches non-nil values of typ.
func NotNilMatcher(typ reflect.Type) *ConditionalMatcher {
	return NewConditionalMatcher(cachedPredicate(&notNilPredicates, typ, func(v any) bool { return !isNil(v) }), "NotNil")
}

// unexported variables.
var (
	//nolint:gochecknoglobals // per-type predicate cache keeps Nil matchers equal
	nilPredicates sync.Map
	//nolint:gochecknoglobals // per-type predicate cache keeps NotNil matchers equal
	notNilPredicates sync.Map
)

func cachedPredicate(cache *sync.Map, typ reflect.Type, fn func(any) bool) *Predicate {
	if cached, ok := cache.Load(typ); ok {
		return cached.(*Predicate) //nolint:forcetypeassert // cache only holds predicates
	}

	fresh := &Predicate{id: uuid.New(), typ: typ, fn: fn}
	actual, _ := cache.LoadOrStore(typ, fresh)

	return actual.(*Predicate) //nolint:forcetypeassert // cache only holds predicates
}

// compatible reports whether a matcher declared for matcherType can stand in
// for a parameter of paramType.
func compatible(matcherType, paramType reflect.Type) bool {
	if matcherType == nil || paramType == nil {
		return true
	}

	return matcherType.AssignableTo(paramType) || paramType.AssignableTo(matcherType)
}

func typeName(typ reflect.Type) string {
	if typ == nil {
		return "any"
	}

	return typ.String()
}
