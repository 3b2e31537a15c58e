package core

import (
	"fmt"
	"reflect"
	"strings"
)

// MemberKind identifies what sort of member an invocation targets.
type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberPropertyGet
	MemberPropertySet
	MemberIndexerGet
	MemberIndexerSet
	MemberEventAdd
	MemberEventRemove
)

func (k MemberKind) String() string {
	switch k {
	case MemberMethod:
		return "method"
	case MemberPropertyGet:
		return "get"
	case MemberPropertySet:
		return "set"
	case MemberIndexerGet:
		return "index get"
	case MemberIndexerSet:
		return "index set"
	case MemberEventAdd:
		return "add"
	case MemberEventRemove:
		return "remove"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

// Direction says how a parameter carries data.
type Direction int

const (
	In Direction = iota
	// Out parameters are written by the callee only. Extra Go results after
	// the first are declared as Out parameters named after the result.
	Out
	// Ref parameters are read and written.
	Ref
)

// Parameter describes one formal parameter of a member.
type Parameter struct {
	Name      string
	Type      reflect.Type
	Direction Direction
}

// Member is the stable descriptor of an intercepted member. Generated doubles
// declare one Member per member and share it across calls.
type Member struct {
	Owner   reflect.Type
	Name    string
	Kind    MemberKind
	Params  []Parameter
	Returns reflect.Type // nil for void
}

// NewMethod describes a plain method on owner.
func NewMethod(owner reflect.Type, name string, returns reflect.Type, params ...Parameter) *Member {
	return &Member{
		Owner:   owner,
		Name:    name,
		Kind:    MemberMethod,
		Params:  params,
		Returns: returns,
	}
}

// Param is shorthand for an In parameter.
func Param(name string, typ reflect.Type) Parameter {
	return Parameter{Name: name, Type: typ, Direction: In}
}

// OutParam is shorthand for an Out parameter.
func OutParam(name string, typ reflect.Type) Parameter {
	return Parameter{Name: name, Type: typ, Direction: Out}
}

// Equal reports whether both descriptors name the same member.
func (m *Member) Equal(other *Member) bool {
	if m == other {
		return true
	}

	if m == nil || other == nil {
		return false
	}

	if m.Owner != other.Owner || m.Name != other.Name || m.Kind != other.Kind {
		return false
	}

	if len(m.Params) != len(other.Params) {
		return false
	}

	for i := range m.Params {
		if m.Params[i].Type != other.Params[i].Type {
			return false
		}
	}

	return true
}

// Outputs returns the Out and Ref parameters, in declaration order.
func (m *Member) Outputs() []Parameter {
	var outputs []Parameter

	for _, p := range m.Params {
		if p.Direction != In {
			outputs = append(outputs, p)
		}
	}

	return outputs
}

func (m *Member) String() string {
	if m == nil {
		return "<nil member>"
	}

	var builder strings.Builder

	if m.Owner != nil {
		builder.WriteString(m.Owner.String())
		builder.WriteByte('.')
	}

	builder.WriteString(m.Name)

	if m.Kind != MemberMethod {
		fmt.Fprintf(&builder, " [%v]", m.Kind)
	}

	return builder.String()
}

func (m *Member) hashInto(h *hasher) {
	if m == nil {
		h.writeByte(0)

		return
	}

	h.writeType(m.Owner)
	h.writeString(m.Name)
	h.writeUint64(uint64(m.Kind))
	h.writeUint64(uint64(len(m.Params)))

	for _, p := range m.Params {
		h.writeType(p.Type)
	}
}
