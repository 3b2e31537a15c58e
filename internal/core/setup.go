package core

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// MockSetup is the structural key of a configured call pattern: the target
// and member of a setup-time invocation plus one matcher per argument.
// It is never changed after construction.
type MockSetup struct {
	Invocation *MethodInvocation
	Matchers   []Matcher

	hash uint64
}

// NewMockSetup builds the key for a call of inv's member on inv's target.
// Each arg is a Matcher or a literal, which is matched by value. With no args,
// inv's own arguments are used as literals.
//
// The stored invocation carries zero-valued placeholder arguments, so two
// setups differ only by target, member and matchers.
func NewMockSetup(inv *MethodInvocation, args ...any) (*MockSetup, error) {
	if inv == nil || inv.Member == nil {
		return nil, fmt.Errorf("%w: setup needs an invocation with a member", ErrInvalidSetup)
	}

	member := inv.Member

	if len(args) == 0 {
		args = inv.Arguments
	}

	if len(args) != len(member.Params) {
		return nil, fmt.Errorf("%w: %v takes %d arguments, setup has %d",
			ErrInvalidSetup, member, len(member.Params), len(args))
	}

	matchers := make([]Matcher, len(args))
	placeholders := make([]any, len(args))

	for idx, arg := range args {
		param := member.Params[idx]
		matcher := MatcherFor(arg, param.Type)

		if !compatible(matcher.Type(), param.Type) {
			return nil, fmt.Errorf("%w: %v argument %d (%s): matcher %v is for %v, parameter is %v",
				ErrInvalidSetup, member, idx, param.Name, matcher, typeName(matcher.Type()), typeName(param.Type))
		}

		if vm, ok := matcher.(*ValueMatcher); ok {
			if err := checkLiteral(member, idx, vm.value); err != nil {
				return nil, err
			}
		}

		matchers[idx] = matcher
		placeholders[idx] = zeroValue(param.Type)
	}

	setup := &MockSetup{
		Invocation: NewInvocation(inv.Target, member, placeholders...),
		Matchers:   matchers,
	}

	h := newHasher()
	setup.Invocation.hashInto(h)

	for _, m := range matchers {
		hashMatcher(h, m)
	}

	setup.hash = h.sum()

	return setup, nil
}

func checkLiteral(member *Member, idx int, value any) error {
	param := member.Params[idx]

	if isNil(value) {
		if !isNillable(param.Type) {
			return fmt.Errorf("%w: %v argument %d (%s): nil for non-nillable %v",
				ErrInvalidSetup, member, idx, param.Name, typeName(param.Type))
		}

		return nil
	}

	if param.Type != nil && !reflect.TypeOf(value).AssignableTo(param.Type) {
		return fmt.Errorf("%w: %v argument %d (%s): %T literal for %v parameter",
			ErrInvalidSetup, member, idx, param.Name, value, typeName(param.Type))
	}

	return nil
}

// AppliesTo reports whether inv targets the setup's target and member and
// every argument satisfies its matcher.
func (s *MockSetup) AppliesTo(inv *MethodInvocation) bool {
	if !s.Invocation.matchesShape(inv) || len(inv.Arguments) != len(s.Matchers) {
		return false
	}

	for idx, matcher := range s.Matchers {
		if !matcher.Matches(inv.Arguments[idx]) {
			return false
		}
	}

	return true
}

// Equal is structural: equal invocations and pairwise equal matchers.
func (s *MockSetup) Equal(other *MockSetup) bool {
	if s == other {
		return true
	}

	if s == nil || other == nil || s.hash != other.hash {
		return false
	}

	if !s.Invocation.Equal(other.Invocation) {
		return false
	}

	return slices.EqualFunc(s.Matchers, other.Matchers, MatchersEqual)
}

// Hash is consistent with Equal.
func (s *MockSetup) Hash() uint64 {
	return s.hash
}

func (s *MockSetup) String() string {
	parts := make([]string, len(s.Matchers))
	for idx, m := range s.Matchers {
		parts[idx] = m.String()
	}

	return fmt.Sprintf("%v(%s)", s.Invocation.Member, strings.Join(parts, ", "))
}

// Setup is a registered call pattern together with what happens when a call
// matches it. Configure it with the chaining methods.
type Setup struct {
	key *MockSetup

	mu         sync.Mutex
	callbacks  []func(*MethodInvocation)
	responder  func(*MethodInvocation) *MethodReturn
	outputs    map[string]any
	sequence   []any
	consumed   int
	verifiable bool
}

func newSetup(key *MockSetup) *Setup {
	return &Setup{key: key}
}

// Key is the setup's structural key.
func (s *Setup) Key() *MockSetup {
	return s.key
}

// Returns makes matching calls return value.
func (s *Setup) Returns(value any) *Setup {
	return s.ReturnsFunc(func(*MethodInvocation) any { return value })
}

// ReturnsFunc computes the return value from the invocation.
func (s *Setup) ReturnsFunc(fn func(*MethodInvocation) any) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence = nil
	s.responder = func(inv *MethodInvocation) *MethodReturn {
		return s.valueReturn(inv, fn(inv))
	}

	return s
}

// ReturnsInOrder returns values one per matching call. Once they are used
// up the setup no longer applies and calls fall through to the next behavior.
func (s *Setup) ReturnsInOrder(values ...any) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responder = nil
	s.sequence = slices.Clone(values)
	s.consumed = 0

	return s
}

// SetOutput sets the value produced for an output parameter.
func (s *Setup) SetOutput(name string, value any) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outputs == nil {
		s.outputs = make(map[string]any)
	}

	s.outputs[name] = value

	return s
}

// Errors makes matching calls fail with err.
func (s *Setup) Errors(err error) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence = nil
	s.responder = func(inv *MethodInvocation) *MethodReturn {
		return NewErrorReturn(inv, err)
	}

	return s
}

// Panics makes matching calls panic with value. The panic propagates out of
// Execute to the caller of the double.
func (s *Setup) Panics(value any) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence = nil
	s.responder = func(*MethodInvocation) *MethodReturn {
		panic(value)
	}

	return s
}

// Callback runs fn for every matching call, before the return is produced.
// A setup with callbacks only acts and then hands the call on.
func (s *Setup) Callback(fn func(*MethodInvocation)) *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, fn)

	return s
}

// Verifiable marks the setup for Mock.VerifyAll.
func (s *Setup) Verifiable() *Setup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifiable = true

	return s
}

// IsVerifiable reports whether the setup is checked by Mock.VerifyAll.
func (s *Setup) IsVerifiable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifiable
}

func (s *Setup) String() string {
	return s.key.String()
}

// applies is AppliesTo on the key, minus setups whose sequence is used up.
func (s *Setup) applies(inv *MethodInvocation) bool {
	s.mu.Lock()
	exhausted := s.sequence != nil && s.consumed >= len(s.sequence)
	s.mu.Unlock()

	return !exhausted && s.key.AppliesTo(inv)
}

// reset drops everything configured so a re-registration starts clean.
func (s *Setup) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = nil
	s.responder = nil
	s.outputs = nil
	s.sequence = nil
	s.consumed = 0
}

// execute runs the callbacks, then produces the configured return or hands
// the call to the rest of the pipeline. It reports false, having done
// nothing, when the setup's sequence ran out after it was found.
func (s *Setup) execute(inv *MethodInvocation, next GetNextBehavior) (*MethodReturn, bool) {
	s.mu.Lock()
	callbacks := slices.Clone(s.callbacks)
	responder := s.responder
	hasOutputs := len(s.outputs) > 0

	if s.sequence != nil {
		if s.consumed >= len(s.sequence) {
			s.mu.Unlock()

			return nil, false
		}

		value := s.sequence[s.consumed]
		s.consumed++
		responder = func(inv *MethodInvocation) *MethodReturn {
			return s.valueReturn(inv, value)
		}
	}
	s.mu.Unlock()

	for _, callback := range callbacks {
		callback(inv)
	}

	if responder == nil && hasOutputs {
		responder = func(inv *MethodInvocation) *MethodReturn {
			return s.valueReturn(inv, zeroValue(inv.Member.Returns))
		}
	}

	if responder == nil {
		return next()(inv), true
	}

	return responder(inv), true
}

func (s *Setup) valueReturn(inv *MethodInvocation, value any) *MethodReturn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outputs) == 0 {
		return NewValueReturn(inv, value)
	}

	return NewOutputsReturn(inv, value, s.outputs)
}

// SetupRegistry is the insertion-ordered set of a mock's setups, keyed by
// structural equality.
type SetupRegistry struct {
	mu      sync.RWMutex
	entries []*Setup            // insertion order
	recency []*Setup            // least recently registered first
	buckets map[uint64][]*Setup // by MockSetup.Hash
}

// NewSetupRegistry creates an empty registry.
func NewSetupRegistry() *SetupRegistry {
	return &SetupRegistry{buckets: make(map[uint64][]*Setup)}
}

// Register adds key, or finds the equal setup already registered. A found
// setup keeps its slot, loses its configuration and becomes the most recent
// registration. The second result reports whether the setup already existed.
func (r *SetupRegistry) Register(key *MockSetup) (*Setup, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.lookupLocked(key); existing != nil {
		existing.reset()

		idx := slices.Index(r.recency, existing)
		r.recency = append(slices.Delete(r.recency, idx, idx+1), existing)

		return existing, true
	}

	setup := newSetup(key)
	r.entries = append(r.entries, setup)
	r.recency = append(r.recency, setup)
	r.buckets[key.Hash()] = append(r.buckets[key.Hash()], setup)

	return setup, false
}

// Lookup finds the registered setup equal to key.
func (r *SetupRegistry) Lookup(key *MockSetup) (*Setup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setup := r.lookupLocked(key)

	return setup, setup != nil
}

func (r *SetupRegistry) lookupLocked(key *MockSetup) *Setup {
	for _, candidate := range r.buckets[key.Hash()] {
		if candidate.key.Equal(key) {
			return candidate
		}
	}

	return nil
}

// Find returns the most recently registered setup that applies to inv.
func (r *SetupRegistry) Find(inv *MethodInvocation) *Setup {
	r.mu.RLock()
	candidates := slices.Clone(r.recency)
	r.mu.RUnlock()

	for idx := len(candidates) - 1; idx >= 0; idx-- {
		if candidates[idx].applies(inv) {
			return candidates[idx]
		}
	}

	return nil
}

// Entries returns the registered setups in insertion order.
func (r *SetupRegistry) Entries() []*Setup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.entries)
}

// Keys returns the registered keys in insertion order.
func (r *SetupRegistry) Keys() []*MockSetup {
	entries := r.Entries()
	keys := make([]*MockSetup, len(entries))

	for idx, entry := range entries {
		keys[idx] = entry.key
	}

	return keys
}

// ByMember returns the setups for member in insertion order.
func (r *SetupRegistry) ByMember(member *Member) []*Setup {
	var found []*Setup

	for _, entry := range r.Entries() {
		if entry.key.Invocation.Member.Equal(member) {
			found = append(found, entry)
		}
	}

	return found
}

// Len is the number of distinct setups.
func (r *SetupRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Clear removes every setup.
func (r *SetupRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.recency = nil
	r.buckets = make(map[uint64][]*Setup)
}

// zeroValue is the zero value of typ, or nil for void and untyped slots.
func zeroValue(typ reflect.Type) any {
	if typ == nil {
		return nil
	}

	return reflect.Zero(typ).Interface()
}
