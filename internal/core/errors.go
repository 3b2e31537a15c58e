package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Structured errors below unwrap to one of these, so callers
// can use errors.Is without caring about the details.
var (
	ErrNoTerminalBehavior = errors.New("no terminal behavior in pipeline")
	ErrStrictCall         = errors.New("strict mock received an unconfigured call")
	ErrVerification       = errors.New("verification failed")
	ErrInvalidTimes       = errors.New("invalid call count range")
	ErrInvalidSetup       = errors.New("invalid setup")
)

// errTypeMismatch is a sentinel error for type assertion failures.
var errTypeMismatch = errors.New("type mismatch")

// ConfigurationError reports a pipeline that could not produce a return.
type ConfigurationError struct {
	Invocation *MethodInvocation
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s (invocation %v)", ErrNoTerminalBehavior, e.Reason, e.Invocation)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNoTerminalBehavior
}

// StrictError is delivered as the error return of a call that reached a
// strict terminal behavior without matching any setup.
type StrictError struct {
	Invocation *MethodInvocation
}

func (e *StrictError) Error() string {
	return fmt.Sprintf("%v: %v", ErrStrictCall, e.Invocation)
}

func (e *StrictError) Unwrap() error {
	return ErrStrictCall
}

// VerificationError reports a call count outside the expected range.
type VerificationError struct {
	Target   string
	Pattern  string // empty when verifying "any call"
	Expected Times
	Actual   int
	Calls    []string // recorded calls to the verified member, in order
	Diff     string   // unified diff against the closest recorded call, if any
}

func (e *VerificationError) Error() string {
	var builder strings.Builder

	pattern := e.Pattern
	if pattern == "" {
		pattern = "any call"
	}

	fmt.Fprintf(&builder, "%v: %s on %s: expected %v calls, got %d",
		ErrVerification, pattern, e.Target, e.Expected, e.Actual)

	if len(e.Calls) > 0 {
		builder.WriteString("\nrecorded calls:")

		for _, call := range e.Calls {
			builder.WriteString("\n  ")
			builder.WriteString(call)
		}
	}

	if e.Diff != "" {
		builder.WriteString("\nclosest call:\n")
		builder.WriteString(e.Diff)
	}

	return builder.String()
}

func (e *VerificationError) Unwrap() error {
	return ErrVerification
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfg *ConfigurationError

	return errors.As(err, &cfg)
}
