package core

import (
	"hash/maphash"
	"math"
	"reflect"
)

// hashSeed is fixed for the life of the process so hashes are comparable
// across mocks.
//
//nolint:gochecknoglobals // process-wide seed is intentional
var hashSeed = maphash.MakeSeed()

// hasher accumulates a structural hash whose notion of "same" mirrors
// reflect.DeepEqual: values that DeepEqual considers equal hash equally.
type hasher struct {
	h maphash.Hash
}

func newHasher() *hasher {
	h := &hasher{}
	h.h.SetSeed(hashSeed)

	return h
}

func (h *hasher) sum() uint64 {
	return h.h.Sum64()
}

func (h *hasher) writeByte(b byte) {
	_ = h.h.WriteByte(b)
}

func (h *hasher) writeString(s string) {
	_, _ = h.h.WriteString(s)
}

func (h *hasher) writeUint64(v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i)) //nolint:mnd
	}

	_, _ = h.h.Write(buf[:])
}

func (h *hasher) writeType(t reflect.Type) {
	if t == nil {
		h.writeByte(0)

		return
	}

	h.writeString(t.PkgPath())
	h.writeString(t.String())
}

// writeValue hashes an arbitrary value the way valuesEqual compares it.
func (h *hasher) writeValue(v any) {
	if v == nil {
		h.writeByte(0)

		return
	}

	rv := reflect.ValueOf(v)

	if _, ok := equalMethod(rv.Type()); ok {
		h.writeByte('E')
		h.writeType(rv.Type())

		return
	}

	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		h.writeByte('P')
		h.writeType(rv.Type())

		if _, ok := equalMethod(rv.Type().Elem()); !ok {
			h.writeUint64(uint64(rv.Pointer()))
		}

		return
	}

	h.writeReflect(rv, 0)
}

// maxRefDepth bounds how many references the hasher follows. Past it only
// the type, nil-ness and length are written, which keeps cyclic values that
// reflect.DeepEqual considers equal hashing alike however their cycles are
// laid out.
const maxRefDepth = 4

//nolint:cyclop,funlen // one case per reflect.Kind
func (h *hasher) writeReflect(v reflect.Value, depth int) {
	if !v.IsValid() {
		h.writeByte(0)

		return
	}

	h.writeType(v.Type())

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			h.writeByte(1)
		} else {
			h.writeByte(2) //nolint:mnd
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.writeUint64(uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.writeUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		h.writeFloat(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		h.writeFloat(real(c))
		h.writeFloat(imag(c))
	case reflect.String:
		h.writeString(v.String())
	case reflect.Array:
		for i := range v.Len() {
			h.writeReflect(v.Index(i), depth)
		}
	case reflect.Slice:
		if v.IsNil() {
			h.writeByte(0)

			return
		}

		h.writeUint64(uint64(v.Len()))

		if depth >= maxRefDepth {
			return
		}

		for i := range v.Len() {
			h.writeReflect(v.Index(i), depth+1)
		}
	case reflect.Map:
		if v.IsNil() {
			h.writeByte(0)

			return
		}

		h.writeUint64(uint64(v.Len()))

		if depth >= maxRefDepth {
			return
		}

		// Entries are combined with addition so iteration order does not matter.
		var total uint64

		iter := v.MapRange()
		for iter.Next() {
			entry := newHasher()
			entry.writeReflect(iter.Key(), depth+1)
			entry.writeReflect(iter.Value(), depth+1)
			total += entry.sum()
		}

		h.writeUint64(total)
	case reflect.Pointer:
		if v.IsNil() {
			h.writeByte(0)

			return
		}

		h.writeByte(1)

		if depth < maxRefDepth {
			h.writeReflect(v.Elem(), depth+1)
		}
	case reflect.Interface:
		if v.IsNil() {
			h.writeByte(0)

			return
		}

		h.writeReflect(v.Elem(), depth)
	case reflect.Struct:
		for i := range v.NumField() {
			h.writeReflect(v.Field(i), depth)
		}
	case reflect.Func:
		// DeepEqual only considers nil funcs equal.
		if v.IsNil() {
			h.writeByte(0)
		} else {
			h.writeByte(1)
		}
	case reflect.Chan, reflect.UnsafePointer:
		h.writeUint64(uint64(v.Pointer()))
	case reflect.Invalid:
		h.writeByte(0)
	}
}

func (h *hasher) writeFloat(f float64) {
	if f == 0 {
		// -0 == +0
		f = 0
	}

	h.writeUint64(math.Float64bits(f))
}

// valuesEqual compares argument values. A type's own Equal(T) bool method
// decides when it has one; pointers are equal when they share an address or
// their pointee type has such a method that says so; everything else is
// compared with reflect.DeepEqual.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	if method, ok := equalMethod(va.Type()); ok {
		if va.Kind() == reflect.Pointer && (va.IsNil() || vb.IsNil()) {
			return va.IsNil() && vb.IsNil()
		}

		return callEqual(method, va, vb)
	}

	if va.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}

		if method, ok := equalMethod(va.Type().Elem()); ok {
			return callEqual(method, va.Elem(), vb.Elem())
		}

		return va.Pointer() == vb.Pointer()
	}

	return reflect.DeepEqual(a, b)
}

// equalMethod finds a method Equal(typ) bool on typ, as time.Time has.
func equalMethod(typ reflect.Type) (reflect.Method, bool) {
	method, ok := typ.MethodByName("Equal")
	if !ok {
		return reflect.Method{}, false
	}

	// The receiver is the first input.
	fn := method.Type
	if fn.NumIn() != 2 || fn.In(1) != typ || fn.NumOut() != 1 || fn.Out(0).Kind() != reflect.Bool {
		return reflect.Method{}, false
	}

	return method, true
}

// callEqual reports false when the Equal method panics.
func callEqual(method reflect.Method, a, b reflect.Value) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	return method.Func.Call([]reflect.Value{a, b})[0].Bool()
}

// sameTarget compares mock targets by identity: references by address,
// comparable values by ==, everything else structurally.
func sameTarget(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	if isReference(va.Kind()) {
		return va.Pointer() == vb.Pointer()
	}

	// A comparable type can still hold an incomparable value in an
	// interface field, and == panics on it.
	if va.Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

func hashTarget(h *hasher, target any) {
	if target == nil {
		h.writeByte(0)

		return
	}

	v := reflect.ValueOf(target)
	h.writeType(v.Type())

	if isReference(v.Kind()) {
		h.writeUint64(uint64(v.Pointer()))

		return
	}

	h.writeReflect(v, 0)
}

func isReference(kind reflect.Kind) bool {
	switch kind { //nolint:exhaustive // everything else is a value
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// isNillable reports whether a value of typ can be nil. A nil type stands for
// an untyped (any) slot, which can.
func isNillable(typ reflect.Type) bool {
	if typ == nil {
		return true
	}

	switch typ.Kind() { //nolint:exhaustive // everything else is a value type
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// isNil reports whether v is nil, including typed nils held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive // only nillable kinds matter
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
