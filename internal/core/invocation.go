package core

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// MethodInvocation is one intercepted call.
//
// Target, Member and Arguments define the call's identity and are never
// changed after construction. The side-channel context is diagnostic only:
// behaviors may annotate it while the call is in flight, and it takes no part
// in equality or hashing.
type MethodInvocation struct {
	Target    any
	Member    *Member
	Arguments []any

	mu      sync.Mutex
	context map[string]any
}

// NewInvocation builds the invocation for a call of member on target.
func NewInvocation(target any, member *Member, args ...any) *MethodInvocation {
	return &MethodInvocation{
		Target:    target,
		Member:    member,
		Arguments: args,
	}
}

// SetContext annotates the invocation's side channel.
func (i *MethodInvocation) SetContext(key string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.context == nil {
		i.context = make(map[string]any)
	}

	i.context[key] = value
}

// ContextValue reads an entry from the invocation's side channel.
func (i *MethodInvocation) ContextValue(key string) (any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	value, ok := i.context[key]

	return value, ok
}

// Context returns a copy of the invocation's side channel.
func (i *MethodInvocation) Context() map[string]any {
	i.mu.Lock()
	defer i.mu.Unlock()

	return maps.Clone(i.context)
}

// Equal reports whether both invocations have the same target, member and
// arguments. The side channel is ignored.
func (i *MethodInvocation) Equal(other *MethodInvocation) bool {
	if i == other {
		return true
	}

	if i == nil || other == nil {
		return false
	}

	if !sameTarget(i.Target, other.Target) || !i.Member.Equal(other.Member) {
		return false
	}

	if len(i.Arguments) != len(other.Arguments) {
		return false
	}

	for idx := range i.Arguments {
		if !valuesEqual(i.Arguments[idx], other.Arguments[idx]) {
			return false
		}
	}

	return true
}

// Hash is consistent with Equal.
func (i *MethodInvocation) Hash() uint64 {
	h := newHasher()
	i.hashInto(h)

	return h.sum()
}

func (i *MethodInvocation) hashInto(h *hasher) {
	if i == nil {
		h.writeByte(0)

		return
	}

	hashTarget(h, i.Target)
	i.Member.hashInto(h)
	h.writeUint64(uint64(len(i.Arguments)))

	for _, arg := range i.Arguments {
		h.writeValue(arg)
	}
}

// matchesShape reports whether other targets the same object and member.
func (i *MethodInvocation) matchesShape(other *MethodInvocation) bool {
	return sameTarget(i.Target, other.Target) && i.Member.Equal(other.Member)
}

func (i *MethodInvocation) String() string {
	if i == nil {
		return "<nil invocation>"
	}

	args := make([]string, len(i.Arguments))
	for idx, arg := range i.Arguments {
		args[idx] = fmt.Sprintf("%#v", arg)
	}

	return fmt.Sprintf("%v(%s)", i.Member, strings.Join(args, ", "))
}

// MethodReturn is the outcome of an intercepted call: a return value, the
// values produced for output parameters by name, or an error. It is never
// changed after construction.
type MethodReturn struct {
	Invocation  *MethodInvocation
	ReturnValue any
	Outputs     map[string]any
	Err         error
}

// NewValueReturn is the common case: a value and no outputs.
func NewValueReturn(inv *MethodInvocation, value any) *MethodReturn {
	return &MethodReturn{Invocation: inv, ReturnValue: value}
}

// NewOutputsReturn carries a value plus named output parameter values.
func NewOutputsReturn(inv *MethodInvocation, value any, outputs map[string]any) *MethodReturn {
	return &MethodReturn{Invocation: inv, ReturnValue: value, Outputs: maps.Clone(outputs)}
}

// NewErrorReturn makes the emulated call fail with err.
func NewErrorReturn(inv *MethodInvocation, err error) *MethodReturn {
	return &MethodReturn{Invocation: inv, Err: err}
}

// Output returns the value produced for the named output parameter.
func (r *MethodReturn) Output(name string) (any, bool) {
	value, ok := r.Outputs[name]

	return value, ok
}

func (r *MethodReturn) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("error(%v)", r.Err)
	case len(r.Outputs) > 0:
		return fmt.Sprintf("%#v %v", r.ReturnValue, r.Outputs)
	default:
		return fmt.Sprintf("%#v", r.ReturnValue)
	}
}
