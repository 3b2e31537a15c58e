package core

import (
	"fmt"
	"slices"
	"sync"
)

// ExecuteDelegate runs the remainder of a pipeline for one invocation.
type ExecuteDelegate func(inv *MethodInvocation) *MethodReturn

// GetNextBehavior returns the delegate for the behaviors after the current one.
type GetNextBehavior func() ExecuteDelegate

// Behavior is one stage of a BehaviorPipeline. Execute may hand the call on
// by invoking next()(inv), act and then hand it on, or terminate the chain by
// returning its own MethodReturn.
type Behavior interface {
	// AppliesTo is a behavior-local filter for callers reasoning about the
	// pipeline. The pipeline itself offers every call to every behavior.
	AppliesTo(inv *MethodInvocation) bool
	Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn
}

// BehaviorFunc adapts a function to Behavior. It applies to every call.
type BehaviorFunc func(inv *MethodInvocation, next GetNextBehavior) *MethodReturn

func (f BehaviorFunc) AppliesTo(*MethodInvocation) bool { return true }

func (f BehaviorFunc) Execute(inv *MethodInvocation, next GetNextBehavior) *MethodReturn {
	return f(inv, next)
}

// BehaviorPipeline is the ordered chain of behaviors a double routes every
// call through. Insertion order is execution order.
type BehaviorPipeline struct {
	mu        sync.RWMutex
	behaviors []Behavior
}

// NewBehaviorPipeline creates a pipeline running behaviors in order.
func NewBehaviorPipeline(behaviors ...Behavior) *BehaviorPipeline {
	return &BehaviorPipeline{behaviors: slices.Clone(behaviors)}
}

// AddBehavior appends behavior to the end of the chain.
func (p *BehaviorPipeline) AddBehavior(behavior Behavior) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.behaviors = append(p.behaviors, behavior)
}

// InsertBehavior places behavior at index, shifting later behaviors back.
// An index past the end appends.
func (p *BehaviorPipeline) InsertBehavior(index int, behavior Behavior) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index = min(max(index, 0), len(p.behaviors))
	p.behaviors = slices.Insert(p.behaviors, index, behavior)
}

// Behaviors returns the current chain.
func (p *BehaviorPipeline) Behaviors() []Behavior {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.behaviors)
}

// Execute runs inv through the chain. The error is a *ConfigurationError when
// no behavior produced a return; a failing emulated call is reported through
// MethodReturn.Err instead. Panics raised by behaviors propagate unchanged.
func (p *BehaviorPipeline) Execute(inv *MethodInvocation) (*MethodReturn, error) {
	behaviors := p.Behaviors()

	ret := delegateAt(behaviors, 0)(inv)
	if ret == nil {
		return nil, &ConfigurationError{Invocation: inv, Reason: "a behavior returned nil"}
	}

	if IsConfigurationError(ret.Err) {
		return nil, ret.Err
	}

	return ret, nil
}

func delegateAt(behaviors []Behavior, index int) ExecuteDelegate {
	if index >= len(behaviors) {
		return func(inv *MethodInvocation) *MethodReturn {
			return NewErrorReturn(inv, &ConfigurationError{
				Invocation: inv,
				Reason:     fmt.Sprintf("all %d behaviors delegated", len(behaviors)),
			})
		}
	}

	return func(inv *MethodInvocation) *MethodReturn {
		return behaviors[index].Execute(inv, func() ExecuteDelegate {
			return delegateAt(behaviors, index+1)
		})
	}
}

// ExecuteAs runs inv and returns its value as a T. The emulated call's error,
// if any, is returned as the error.
func ExecuteAs[T any](pipeline *BehaviorPipeline, inv *MethodInvocation) (T, error) {
	var zero T

	ret, err := pipeline.Execute(inv)
	if err != nil {
		return zero, err
	}

	if ret.Err != nil {
		return zero, ret.Err
	}

	if ret.ReturnValue == nil {
		return zero, nil
	}

	value, ok := ret.ReturnValue.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %v returned %T, want %T", errTypeMismatch, inv.Member, ret.ReturnValue, zero)
	}

	return value, nil
}
