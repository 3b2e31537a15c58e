package core_test

import (
	"context"
	"reflect"

	"github.com/toejough/impmock/internal/core"
)

// Calculator is the interface the tests double by hand, the way generated
// code would.
type Calculator interface {
	Add(a, b int) int
	TurnOn()
	Divide(a, b int) (quotient int, remainder int)
	Send(ctx context.Context, msg string) error
	Lookup(key *string) []byte
}

// unexported variables.
var (
	//nolint:gochecknoglobals // shared member descriptors, as generated code declares them
	calcType = reflect.TypeFor[Calculator]()
	//nolint:gochecknoglobals // shared member descriptors
	intType = reflect.TypeFor[int]()
	//nolint:gochecknoglobals // shared member descriptors
	addMember = core.NewMethod(calcType, "Add", intType, core.Param("a", intType), core.Param("b", intType))
	//nolint:gochecknoglobals // shared member descriptors
	turnOnMember = core.NewMethod(calcType, "TurnOn", nil)
	//nolint:gochecknoglobals // shared member descriptors
	divideMember = core.NewMethod(calcType, "Divide", intType,
		core.Param("a", intType), core.Param("b", intType), core.OutParam("remainder", intType))
	//nolint:gochecknoglobals // shared member descriptors
	sendMember = core.NewMethod(calcType, "Send", reflect.TypeFor[error](),
		core.Param("ctx", reflect.TypeFor[context.Context]()), core.Param("msg", reflect.TypeFor[string]()))
	//nolint:gochecknoglobals // shared member descriptors
	lookupMember = core.NewMethod(calcType, "Lookup", reflect.TypeFor[[]byte](),
		core.Param("key", reflect.TypeFor[*string]()))
)

// calcDouble is a hand-written double routing every call through a mock.
type calcDouble struct {
	id   int
	mock *core.Mock
}

func newCalcDouble(options ...core.Option) *calcDouble {
	double := &calcDouble{id: 1}
	double.mock = core.NewMock(double, options...)

	return double
}

func (d *calcDouble) Add(a, b int) int {
	ret, err := d.mock.Call(addMember, a, b)
	if err != nil {
		panic(err)
	}

	value, _ := ret.ReturnValue.(int)

	return value
}

func (d *calcDouble) TurnOn() {
	if _, err := d.mock.Call(turnOnMember); err != nil {
		panic(err)
	}
}

func (d *calcDouble) Divide(a, b int) (int, int) {
	ret, err := d.mock.Call(divideMember, a, b, 0)
	if err != nil {
		panic(err)
	}

	quotient, _ := ret.ReturnValue.(int)
	remainder, _ := ret.Outputs["remainder"].(int)

	return quotient, remainder
}

func (d *calcDouble) Send(ctx context.Context, msg string) error {
	ret, err := d.mock.Call(sendMember, ctx, msg)
	if err != nil {
		return err
	}

	if ret.Err != nil {
		return ret.Err
	}

	sendErr, _ := ret.ReturnValue.(error)

	return sendErr
}

func (d *calcDouble) Lookup(key *string) []byte {
	ret, err := d.mock.Call(lookupMember, key)
	if err != nil {
		panic(err)
	}

	value, _ := ret.ReturnValue.([]byte)

	return value
}

var _ Calculator = (*calcDouble)(nil)
