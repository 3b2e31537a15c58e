package core

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/toejough/impmock/internal/callctx"
)

// Side-channel keys written by the provided behaviors.
const (
	ContextKeyCallSite = "callsite"
	ContextKeyCallData = "calldata"
)

// RecordingBehavior appends every call to a log and hands it on.
type RecordingBehavior struct {
	Log *InvocationLog
}

func (b *RecordingBehavior) AppliesTo(*MethodInvocation) bool { return true }

func (b *RecordingBehavior) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	b.Log.Append(inv)

	return next()(inv)
}

// CallContextBehavior copies the call-context entries carried by a
// context.Context argument into the invocation's side channel under
// ContextKeyCallData.
type CallContextBehavior struct{}

func (b *CallContextBehavior) AppliesTo(inv *MethodInvocation) bool {
	return callContextOf(inv) != nil
}

func (b *CallContextBehavior) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	if ctx := callContextOf(inv); ctx != nil {
		if data := callctx.Snapshot(ctx); len(data) > 0 {
			inv.SetContext(ContextKeyCallData, data)
		}
	}

	return next()(inv)
}

func callContextOf(inv *MethodInvocation) context.Context {
	for _, arg := range inv.Arguments {
		if ctx, ok := arg.(context.Context); ok && callctx.Has(ctx) {
			return ctx
		}
	}

	return nil
}

// StackTraceBehavior records the first caller outside this package as the
// invocation's call site, under ContextKeyCallSite.
type StackTraceBehavior struct{}

func (b *StackTraceBehavior) AppliesTo(*MethodInvocation) bool { return true }

func (b *StackTraceBehavior) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	if site := callSite(); site != "" {
		inv.SetContext(ContextKeyCallSite, site)
	}

	return next()(inv)
}

func callSite() string {
	const maxDepth = 32

	pcs := make([]uintptr, maxDepth)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)]) //nolint:mnd // skip Callers and callSite

	prefix := reflect.TypeFor[StackTraceBehavior]().PkgPath() + "."

	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, prefix) {
			return fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function)
		}

		if !more {
			return ""
		}
	}
}

// TraceBehavior logs each call and its outcome at debug level.
type TraceBehavior struct {
	Logger *log.Logger
}

func (b *TraceBehavior) AppliesTo(*MethodInvocation) bool { return b.Logger != nil }

func (b *TraceBehavior) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	if b.Logger == nil {
		return next()(inv)
	}

	b.Logger.Debug("call", "member", inv.Member, "args", inv.Arguments)

	ret := next()(inv)

	switch {
	case ret == nil:
		b.Logger.Warn("no return", "member", inv.Member)
	case ret.Err != nil:
		b.Logger.Debug("failed", "member", inv.Member, "err", ret.Err)
	default:
		b.Logger.Debug("returned", "member", inv.Member, "result", ret.ReturnValue, "outputs", ret.Outputs)
	}

	return ret
}

// SetupBehavior answers calls from the most recent applicable setup and hands
// on calls no setup applies to.
type SetupBehavior struct {
	Setups *SetupRegistry
}

func (b *SetupBehavior) AppliesTo(inv *MethodInvocation) bool {
	return b.Setups.Find(inv) != nil
}

func (b *SetupBehavior) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	// A sequence used up by a concurrent call no longer applies, so looking
	// again moves on to the next older setup.
	for {
		setup := b.Setups.Find(inv)
		if setup == nil {
			return next()(inv)
		}

		if ret, ok := setup.execute(inv, next); ok {
			return ret
		}
	}
}

// DefaultValueBehavior terminates the chain with type-appropriate defaults:
// the zero value of the return type and of each Out parameter. Ref
// parameters keep the value they were passed.
type DefaultValueBehavior struct {
	// Provider, when set, supplies the default for a type; returning false
	// falls back to the zero value.
	Provider func(reflect.Type) (any, bool)
}

func (b *DefaultValueBehavior) AppliesTo(*MethodInvocation) bool { return true }

func (b *DefaultValueBehavior) Execute(inv *MethodInvocation, _ GetNextBehavior) *MethodReturn {
	if inv.Member == nil {
		return NewValueReturn(inv, nil)
	}

	value := b.valueFor(inv.Member.Returns)

	var outputs map[string]any

	for idx, param := range inv.Member.Params {
		if param.Direction == In {
			continue
		}

		if outputs == nil {
			outputs = make(map[string]any)
		}

		if param.Direction == Ref && idx < len(inv.Arguments) {
			outputs[param.Name] = inv.Arguments[idx]

			continue
		}

		outputs[param.Name] = b.valueFor(param.Type)
	}

	if outputs == nil {
		return NewValueReturn(inv, value)
	}

	return NewOutputsReturn(inv, value, outputs)
}

func (b *DefaultValueBehavior) valueFor(typ reflect.Type) any {
	if typ == nil {
		return nil
	}

	if b.Provider != nil {
		if value, ok := b.Provider(typ); ok {
			return value
		}
	}

	return zeroValue(typ)
}

// StrictBehavior terminates the chain with a *StrictError.
type StrictBehavior struct{}

func (b *StrictBehavior) AppliesTo(*MethodInvocation) bool { return true }

func (b *StrictBehavior) Execute(inv *MethodInvocation, _ GetNextBehavior) *MethodReturn {
	return NewErrorReturn(inv, &StrictError{Invocation: inv})
}
