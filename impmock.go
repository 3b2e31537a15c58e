// Package impmock is the interception and matching engine for Go test
// doubles. A generated double builds one Invocation per call of one of its
// members, runs it through its Mock, and hands the resulting Return back to
// the caller.
//
// This is the public API entry point. Implementation lives in internal/core.
package impmock

import (
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/toejough/impmock/internal/core"
)

// Types re-exported from internal/core.

// Behavior is one stage of a mock's pipeline.
type Behavior = core.Behavior

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc = core.BehaviorFunc

// BehaviorPipeline is the ordered chain every call runs through.
type BehaviorPipeline = core.BehaviorPipeline

// ExecuteDelegate runs the rest of a pipeline.
type ExecuteDelegate = core.ExecuteDelegate

// GetNextBehavior returns the delegate for the rest of a pipeline.
type GetNextBehavior = core.GetNextBehavior

// Invocation is one intercepted call.
type Invocation = core.MethodInvocation

// Return is the outcome of an intercepted call.
type Return = core.MethodReturn

// Member describes an intercepted member.
type Member = core.Member

// Parameter describes one formal parameter of a member.
type Parameter = core.Parameter

// Mock is a configurable, verifiable test double.
type Mock = core.Mock

// MockBehavior selects loose or strict handling of unconfigured calls.
type MockBehavior = core.MockBehavior

// Option configures a Mock.
type Option = core.Option

// Setup is a registered call pattern and its configured response.
type Setup = core.Setup

// SetupKey is the structural key of a call pattern.
type SetupKey = core.MockSetup

// TestReporter is the minimal interface impmock needs from test frameworks.
type TestReporter = core.TestReporter

// Times is an inclusive call count range.
type Times = core.Times

// Error types re-exported from internal/core.
type (
	ConfigurationError = core.ConfigurationError
	StrictError        = core.StrictError
	VerificationError  = core.VerificationError
)

// Mock behaviors.
const (
	Loose  = core.Loose
	Strict = core.Strict
)

// Parameter directions.
const (
	In  = core.In
	Out = core.Out
	Ref = core.Ref
)

// Sentinel errors.
var (
	ErrNoTerminalBehavior = core.ErrNoTerminalBehavior
	ErrStrictCall         = core.ErrStrictCall
	ErrVerification       = core.ErrVerification
	ErrInvalidTimes       = core.ErrInvalidTimes
	ErrInvalidSetup       = core.ErrInvalidSetup
)

// Functions re-exported from internal/core.

// NewMock creates a mock standing in for target.
func NewMock(target any, options ...Option) *Mock {
	return core.NewMock(target, options...)
}

// NewMethod describes a method of owner.
func NewMethod(owner reflect.Type, name string, returns reflect.Type, params ...Parameter) *Member {
	return core.NewMethod(owner, name, returns, params...)
}

// Param describes an input parameter.
func Param(name string, typ reflect.Type) Parameter {
	return core.Param(name, typ)
}

// OutParam describes an output parameter.
func OutParam(name string, typ reflect.Type) Parameter {
	return core.OutParam(name, typ)
}

// NewInvocation builds the invocation of member on target.
func NewInvocation(target any, member *Member, args ...any) *Invocation {
	return core.NewInvocation(target, member, args...)
}

// NewSetupKey builds a setup key for inv's member with one matcher or
// literal per argument.
func NewSetupKey(inv *Invocation, args ...any) (*SetupKey, error) {
	return core.NewMockSetup(inv, args...)
}

// ExecuteAs runs inv through pipeline and returns its value as a T.
func ExecuteAs[T any](pipeline *BehaviorPipeline, inv *Invocation) (T, error) {
	return core.ExecuteAs[T](pipeline, inv)
}

// WithBehavior selects loose or strict handling of unconfigured calls.
func WithBehavior(behavior MockBehavior) Option {
	return core.WithBehavior(behavior)
}

// WithLogger traces calls, setups and verifications at debug level.
func WithLogger(logger *log.Logger) Option {
	return core.WithLogger(logger)
}

// WithDefaultValue supplies the defaults loose mocks return.
func WithDefaultValue(provider func(reflect.Type) (any, bool)) Option {
	return core.WithDefaultValue(provider)
}

// WithCallContext toggles call-context capture. It is on by default.
func WithCallContext(enabled bool) Option {
	return core.WithCallContext(enabled)
}

// WithStackTrace records each call's call site.
func WithStackTrace(enabled bool) Option {
	return core.WithStackTrace(enabled)
}

// WithName names the mock in logs and failure messages.
func WithName(name string) Option {
	return core.WithName(name)
}

// Verify fails t unless calls matching pattern were recorded within times.
func Verify(t TestReporter, mock *Mock, pattern *SetupKey, times Times) {
	t.Helper()

	if err := mock.Verify(pattern, times); err != nil {
		t.Fatalf("%v", err)
	}
}

// VerifyAll fails t unless every verifiable setup of mock matched a call.
func VerifyAll(t TestReporter, mock *Mock) {
	t.Helper()

	if err := mock.VerifyAll(); err != nil {
		t.Fatalf("%v", err)
	}
}

// VerifyNoOtherCalls fails t if mock recorded calls no passing Verify
// counted.
func VerifyNoOtherCalls(t TestReporter, mock *Mock) {
	t.Helper()

	if err := mock.VerifyNoOtherCalls(); err != nil {
		t.Fatalf("%v", err)
	}
}
