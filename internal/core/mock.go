// Package core holds the interception and matching engine behind impmock:
// the invocation model, the behavior pipeline, matchers, setups and
// verification.
package core

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
)

// MockBehavior selects how a mock answers calls no setup applies to.
type MockBehavior int

const (
	// Loose mocks answer unconfigured calls with default values.
	Loose MockBehavior = iota
	// Strict mocks fail unconfigured calls with a *StrictError.
	Strict
)

func (b MockBehavior) String() string {
	if b == Strict {
		return "strict"
	}

	return "loose"
}

// Option configures a Mock.
type Option func(*Mock) *Mock

// WithBehavior selects loose or strict handling of unconfigured calls.
func WithBehavior(behavior MockBehavior) Option {
	return func(m *Mock) *Mock {
		m.behavior = behavior

		return m
	}
}

// WithLogger traces calls, setups and verifications at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(m *Mock) *Mock {
		m.logger = logger

		return m
	}
}

// WithDefaultValue supplies defaults for loose mocks. Returning false falls
// back to the zero value.
func WithDefaultValue(provider func(reflect.Type) (any, bool)) Option {
	return func(m *Mock) *Mock {
		m.defaults = provider

		return m
	}
}

// WithCallContext toggles copying call-context data from context.Context
// arguments into each invocation. It is on by default.
func WithCallContext(enabled bool) Option {
	return func(m *Mock) *Mock {
		m.callContext = enabled

		return m
	}
}

// WithStackTrace records each call's call site.
func WithStackTrace(enabled bool) Option {
	return func(m *Mock) *Mock {
		m.stackTrace = enabled

		return m
	}
}

// WithName names the mock in logs and failure messages.
func WithName(name string) Option {
	return func(m *Mock) *Mock {
		m.name = name

		return m
	}
}

// Mock is a test double for target. Every call goes through its pipeline:
// tracing, call-context capture, recording, setups and finally the loose or
// strict terminal behavior.
type Mock struct {
	name        string
	target      any
	behavior    MockBehavior
	logger      *log.Logger
	defaults    func(reflect.Type) (any, bool)
	callContext bool
	stackTrace  bool

	pipeline *BehaviorPipeline
	log      *InvocationLog
	setups   *SetupRegistry
	waiters  *waitList

	mu       sync.Mutex
	verified map[*MethodInvocation]struct{}
}

// NewMock creates a mock standing in for target. Target is the identity
// invocations are recorded against; generated doubles pass themselves.
func NewMock(target any, options ...Option) *Mock {
	mock := &Mock{
		target:      target,
		callContext: true,
		log:         &InvocationLog{},
		setups:      NewSetupRegistry(),
		waiters:     &waitList{},
		verified:    make(map[*MethodInvocation]struct{}),
	}

	for _, opt := range options {
		mock = opt(mock)
	}

	if mock.name == "" {
		mock.name = fmt.Sprintf("%T", target)
	}

	mock.pipeline = NewBehaviorPipeline(mock.defaultBehaviors()...)

	return mock
}

func (m *Mock) defaultBehaviors() []Behavior {
	var behaviors []Behavior

	if m.logger != nil {
		behaviors = append(behaviors, &TraceBehavior{Logger: m.logger})
	}

	if m.stackTrace {
		behaviors = append(behaviors, &StackTraceBehavior{})
	}

	if m.callContext {
		behaviors = append(behaviors, &CallContextBehavior{})
	}

	behaviors = append(behaviors,
		&RecordingBehavior{Log: m.log},
		BehaviorFunc(m.notify),
		&SetupBehavior{Setups: m.setups},
	)

	if m.behavior == Strict {
		return append(behaviors, &StrictBehavior{})
	}

	return append(behaviors, &DefaultValueBehavior{Provider: m.defaults})
}

// notify wakes Await callers once the call is recorded.
func (m *Mock) notify(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	m.waiters.wake(m.log.Snapshot())

	return next()(inv)
}

// Name identifies the mock in messages.
func (m *Mock) Name() string { return m.name }

// Target is the object invocations are recorded against.
func (m *Mock) Target() any { return m.target }

// Behavior reports whether the mock is loose or strict.
func (m *Mock) Behavior() MockBehavior { return m.behavior }

// Pipeline exposes the chain so callers can add their own behaviors.
func (m *Mock) Pipeline() *BehaviorPipeline { return m.pipeline }

// Execute routes inv through the pipeline.
func (m *Mock) Execute(inv *MethodInvocation) (*MethodReturn, error) {
	return m.pipeline.Execute(inv)
}

// Call builds the invocation of member on the mock's target and executes it.
func (m *Mock) Call(member *Member, args ...any) (*MethodReturn, error) {
	return m.Execute(NewInvocation(m.target, member, args...))
}

// Pattern builds a setup key for member on the mock's target. Args are
// matchers or literals, one per parameter.
func (m *Mock) Pattern(member *Member, args ...any) (*MockSetup, error) {
	return NewMockSetup(NewInvocation(m.target, member, args...), args...)
}

// Setup registers a pattern for member and returns it for configuration.
// It panics with an error wrapping ErrInvalidSetup if the arguments do not
// fit member.
func (m *Mock) Setup(member *Member, args ...any) *Setup {
	key, err := m.Pattern(member, args...)
	if err != nil {
		panic(err)
	}

	return m.Register(key)
}

// Register adds key to the mock's setups. Registering a key equal to an
// existing one replaces that setup's configuration.
func (m *Mock) Register(key *MockSetup) *Setup {
	setup, replaced := m.setups.Register(key)

	if m.logger != nil {
		m.logger.Debug("setup", "mock", m.name, "pattern", key, "replaced", replaced)
	}

	return setup
}

// SetupProperty makes get and set behave like a stored property holding
// initial. Set must take exactly one argument.
func (m *Mock) SetupProperty(get, set *Member, initial any) {
	var (
		mu    sync.Mutex
		value = initial
	)

	m.Setup(get).ReturnsFunc(func(*MethodInvocation) any {
		mu.Lock()
		defer mu.Unlock()

		return value
	})

	m.Setup(set, NewAnyMatcher(set.Params[0].Type)).
		Callback(func(inv *MethodInvocation) {
			mu.Lock()
			defer mu.Unlock()

			value = inv.Arguments[0]
		}).
		Returns(nil)
}

// Setups returns the registered setup keys in insertion order.
func (m *Mock) Setups() []*MockSetup {
	return m.setups.Keys()
}

// SetupEntries returns the registered setups with their configuration.
func (m *Mock) SetupEntries() []*Setup {
	return m.setups.Entries()
}

// Invocations returns every recorded call, oldest first.
func (m *Mock) Invocations() []*MethodInvocation {
	return m.log.Snapshot()
}

// Log is the mock's invocation log.
func (m *Mock) Log() *InvocationLog {
	return m.log
}

// Reset forgets every setup. Recorded calls are kept.
func (m *Mock) Reset() {
	m.setups.Clear()

	if m.logger != nil {
		m.logger.Debug("reset", "mock", m.name)
	}
}

// Verify checks that calls matching pattern were recorded within times.
// Calls counted by a passing Verify are excluded from VerifyNoOtherCalls.
func (m *Mock) Verify(pattern *MockSetup, times Times) error {
	matched, err := VerifyInvocations(m.name, m.log.Snapshot(), pattern, times)
	m.traceVerify(pattern, times, err)

	if err != nil {
		return err
	}

	m.markVerified(matched)

	return nil
}

// VerifyCall is Verify with a pattern built from member and args.
func (m *Mock) VerifyCall(times Times, member *Member, args ...any) error {
	pattern, err := m.Pattern(member, args...)
	if err != nil {
		return err
	}

	return m.Verify(pattern, times)
}

// VerifyCalls checks the total number of recorded calls against times.
func (m *Mock) VerifyCalls(times Times) error {
	return m.Verify(nil, times)
}

// VerifyAll checks that every setup marked Verifiable matched at least one
// call. All failures are joined into the returned error.
func (m *Mock) VerifyAll() error {
	var failures []error

	for _, setup := range m.setups.Entries() {
		if !setup.IsVerifiable() {
			continue
		}

		if err := m.Verify(setup.Key(), AtLeastOnce()); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

// VerifyNoOtherCalls fails when any recorded call was not counted by a
// passing Verify.
func (m *Mock) VerifyNoOtherCalls() error {
	m.mu.Lock()

	var unverified []*MethodInvocation

	for _, inv := range m.log.Snapshot() {
		if _, ok := m.verified[inv]; !ok {
			unverified = append(unverified, inv)
		}
	}
	m.mu.Unlock()

	if len(unverified) == 0 {
		return nil
	}

	return &VerificationError{
		Target:   m.name,
		Pattern:  "unverified calls",
		Expected: Never(),
		Actual:   len(unverified),
		Calls:    describe(unverified),
	}
}

func (m *Mock) markVerified(invocations []*MethodInvocation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inv := range invocations {
		m.verified[inv] = struct{}{}
	}
}

func (m *Mock) traceVerify(pattern *MockSetup, times Times, err error) {
	if m.logger == nil {
		return
	}

	var subject any = "any call"
	if pattern != nil {
		subject = pattern
	}

	if err != nil {
		m.logger.Debug("verify failed", "mock", m.name, "pattern", subject, "times", times)

		return
	}

	m.logger.Debug("verified", "mock", m.name, "pattern", subject, "times", times)
}
