package core_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"pgregory.net/rapid"

	"github.com/toejough/impmock/internal/core"
)

func TestAnyMatcher_MatchesEverythingOfItsType(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.Int().Draw(rt, "value")

		if !core.NewAnyMatcher(intType).Matches(value) {
			rt.Fatalf("Any[int] rejected %d", value)
		}
	})
}

func TestAnyMatcher_NilOnlyForNillableTypes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(core.NewAnyMatcher(intType).Matches(nil)).To(BeFalse())
	g.Expect(core.NewAnyMatcher(reflect.TypeFor[*string]()).Matches(nil)).To(BeTrue())
	g.Expect(core.NewAnyMatcher(reflect.TypeFor[error]()).Matches(nil)).To(BeTrue())
}

func TestMatchersEqual(t *testing.T) {
	t.Parallel()

	shared := core.NewPredicate(func(x int) bool { return x > 0 })
	lookalike := core.NewPredicate(func(x int) bool { return x > 0 })

	tests := []struct {
		name  string
		a, b  core.Matcher
		equal bool
	}{
		{"any same type", core.NewAnyMatcher(intType), core.NewAnyMatcher(intType), true},
		{"any different type", core.NewAnyMatcher(intType), core.NewAnyMatcher(reflect.TypeFor[string]()), false},
		{"value equal", core.NewValueMatcher(3, intType), core.NewValueMatcher(3, intType), true},
		{"value different", core.NewValueMatcher(3, intType), core.NewValueMatcher(4, intType), false},
		{
			"value deep equal slices",
			core.NewValueMatcher([]int{1, 2}, nil), core.NewValueMatcher([]int{1, 2}, nil), true,
		},
		{
			"conditional shared predicate",
			core.NewConditionalMatcher(shared, "positive"), core.NewConditionalMatcher(shared, "positive"), true,
		},
		{
			"conditional shared predicate, other name",
			core.NewConditionalMatcher(shared, "positive"), core.NewConditionalMatcher(shared, "gt0"), false,
		},
		{
			"conditional lookalike predicate",
			core.NewConditionalMatcher(shared, "positive"), core.NewConditionalMatcher(lookalike, "positive"), false,
		},
		{"any vs value", core.NewAnyMatcher(intType), core.NewValueMatcher(0, intType), false},
		{"nil matchers share a predicate", core.NilMatcher(intType), core.NilMatcher(intType), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(core.MatchersEqual(tt.a, tt.b)).To(Equal(tt.equal))
			g.Expect(core.MatchersEqual(tt.b, tt.a)).To(Equal(tt.equal), "equality should be symmetric")
		})
	}
}

func TestValueMatcher_TypedAndUntypedNilAreEqual(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var typedNil *string

	matcher := core.NewValueMatcher(nil, reflect.TypeFor[*string]())

	g.Expect(matcher.Matches(typedNil)).To(BeTrue())
	g.Expect(matcher.Matches(nil)).To(BeTrue())

	key := "k"
	g.Expect(matcher.Matches(&key)).To(BeFalse())
}

func TestValueMatcher_DeepEquality(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	matcher := core.NewValueMatcher(map[string][]int{"a": {1}}, nil)

	g.Expect(matcher.Matches(map[string][]int{"a": {1}})).To(BeTrue())
	g.Expect(matcher.Matches(map[string][]int{"a": {2}})).To(BeFalse())
	g.Expect(matcher.Type()).To(Equal(reflect.TypeFor[map[string][]int]()))
}

func TestValueMatcher_PointersCompareByAddress(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	type node struct{ name string }

	a, b := &node{name: "n"}, &node{name: "n"}
	nodeType := reflect.TypeFor[*node]()

	g.Expect(core.NewValueMatcher(a, nodeType).Matches(a)).To(BeTrue())
	g.Expect(core.NewValueMatcher(a, nodeType).Matches(b)).To(BeFalse(), "equal content, other object")
	g.Expect(core.MatchersEqual(core.NewValueMatcher(a, nodeType), core.NewValueMatcher(b, nodeType))).To(BeFalse())
}

func TestValueMatcher_UsesEqualMethod(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	now := time.Now()
	stripped := now.Round(0)
	timeType := reflect.TypeFor[time.Time]()
	whenMember := core.NewMethod(calcType, "When", nil, core.Param("at", timeType))

	g.Expect(now.Equal(stripped)).To(BeTrue())
	g.Expect(core.NewValueMatcher(stripped, timeType).Matches(now)).To(BeTrue())
	g.Expect(core.NewValueMatcher(now.Add(time.Second), timeType).Matches(now)).To(BeFalse())
	g.Expect(core.NewValueMatcher(&stripped, reflect.TypeFor[*time.Time]()).Matches(&now)).
		To(BeTrue(), "pointers defer to the pointee's Equal")

	a, err := core.NewMockSetup(core.NewInvocation(nil, whenMember), now)
	g.Expect(err).NotTo(HaveOccurred())

	b, err := core.NewMockSetup(core.NewInvocation(nil, whenMember), stripped)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(a.Equal(b)).To(BeTrue())
	g.Expect(a.Hash()).To(Equal(b.Hash()))
}

func TestConditionalMatcher_PanickingPredicateDoesNotMatch(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	matcher := core.NewConditionalMatcher(core.NewPredicate(func(int) bool {
		panic("boom")
	}), "explodes")

	g.Expect(func() { matcher.Matches(1) }).NotTo(Panic())
	g.Expect(matcher.Matches(1)).To(BeFalse())
}

func TestConditionalMatcher_WrongTypeDoesNotMatch(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	called := false
	matcher := core.NewConditionalMatcher(core.NewPredicate(func(int) bool {
		called = true

		return true
	}), "")

	g.Expect(matcher.Matches("one")).To(BeFalse())
	g.Expect(matcher.Matches(nil)).To(BeFalse())
	g.Expect(called).To(BeFalse(), "predicate should not see values of another type")
	g.Expect(matcher.String()).To(Equal("Where[int]"))
}

func TestConditionalMatcher_FromExternal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	matcher := core.NewConditionalMatcher(core.FromExternal(intType, BeNumerically(">", 2)), "gt2")

	g.Expect(matcher.Matches(3)).To(BeTrue())
	g.Expect(matcher.Matches(2)).To(BeFalse())
	g.Expect(matcher.Matches("three")).To(BeFalse(), "matcher errors count as no match")
}

func TestNilAndNotNilMatchers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var typedNil *string

	key := "k"
	ptrType := reflect.TypeFor[*string]()

	g.Expect(core.NilMatcher(ptrType).Matches(typedNil)).To(BeTrue())
	g.Expect(core.NilMatcher(ptrType).Matches(&key)).To(BeFalse())
	g.Expect(core.NotNilMatcher(ptrType).Matches(&key)).To(BeTrue())
	g.Expect(core.NotNilMatcher(ptrType).Matches(nil)).To(BeFalse())
}

func TestMatcherFor(t *testing.T) {
	t.Parallel()

	t.Run("passes matchers through", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)

		anyInt := core.NewAnyMatcher(intType)
		g.Expect(core.MatcherFor(anyInt, intType)).To(BeIdenticalTo(anyInt))
	})

	t.Run("converts numeric literals to the parameter type", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)

		matcher := core.MatcherFor(2, reflect.TypeFor[int64]())

		g.Expect(matcher.Matches(int64(2))).To(BeTrue())
		g.Expect(matcher.Type()).To(Equal(reflect.TypeFor[int64]()))
	})

	t.Run("keeps literals a conversion would change", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			literal any
			param   reflect.Type
			actual  any
		}{
			{"fraction for int", 2.7, intType, 2},
			{"overflow for int8", 300, reflect.TypeFor[int8](), int8(44)},
			{"negative for uint", -1, reflect.TypeFor[uint](), ^uint(0)},
			{"huge uint for int64", ^uint64(0), reflect.TypeFor[int64](), int64(-1)},
			{"infinite for float32", 1e300, reflect.TypeFor[float32](), float32(math.Inf(1))},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				g := NewWithT(t)

				matcher := core.MatcherFor(tt.literal, tt.param)

				g.Expect(matcher).To(BeAssignableToTypeOf(&core.ValueMatcher{}))
				g.Expect(matcher.(*core.ValueMatcher).Value()).To(Equal(tt.literal))
				g.Expect(matcher.Matches(tt.actual)).To(BeFalse())
			})
		}
	})

	t.Run("converts whole floats and narrows floats", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)

		g.Expect(core.MatcherFor(2.0, intType).Matches(2)).To(BeTrue())
		g.Expect(core.MatcherFor(0.1, reflect.TypeFor[float32]()).Matches(float32(0.1))).To(BeTrue())
		g.Expect(core.MatcherFor(7, reflect.TypeFor[uint8]()).Matches(uint8(7))).To(BeTrue())
	})

	t.Run("wraps other literals in value matchers", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)

		matcher := core.MatcherFor("x", reflect.TypeFor[string]())

		g.Expect(matcher).To(BeAssignableToTypeOf(&core.ValueMatcher{}))
		g.Expect(matcher.Matches("x")).To(BeTrue())
	})
}
