package impmock_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/toejough/impmock"
	. "github.com/toejough/impmock/match"
	"github.com/toejough/impmock/times"
)

// Greeter is doubled by hand below, the way generated code would do it.
type Greeter interface {
	Greet(ctx context.Context, name string) (string, error)
	Count() int
}

// unexported variables.
var (
	//nolint:gochecknoglobals // shared member descriptors
	greeterType = reflect.TypeFor[Greeter]()
	//nolint:gochecknoglobals // shared member descriptors
	greetMember = impmock.NewMethod(greeterType, "Greet", reflect.TypeFor[string](),
		impmock.Param("ctx", reflect.TypeFor[context.Context]()),
		impmock.Param("name", reflect.TypeFor[string]()))
	//nolint:gochecknoglobals // shared member descriptors
	countMember = impmock.NewMethod(greeterType, "Count", reflect.TypeFor[int]())
)

type greeterDouble struct {
	name string
	mock *impmock.Mock
}

func newGreeter(t impmock.TestReporter, options ...impmock.Option) *greeterDouble {
	double := &greeterDouble{name: "greeter"}
	double.mock = impmock.NewMockT(t, double, options...)

	return double
}

func (d *greeterDouble) Greet(ctx context.Context, name string) (string, error) {
	greeting, err := impmock.ExecuteAs[string](d.mock.Pipeline(), impmock.NewInvocation(d, greetMember, ctx, name))

	return greeting, err
}

func (d *greeterDouble) Count() int {
	count, err := impmock.ExecuteAs[int](d.mock.Pipeline(), impmock.NewInvocation(d, countMember))
	if err != nil {
		panic(err)
	}

	return count
}

var _ Greeter = (*greeterDouble)(nil)

// recordingT captures failures instead of stopping the test.
type recordingT struct {
	failures []string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestFacade_SetupMatchAndVerify(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	greeter := newGreeter(t)
	greeter.mock.Setup(greetMember, Any[context.Context](), Where(func(name string) bool { return name != "" })).
		Returns("hello")
	greeter.mock.Setup(greetMember, Any[context.Context](), "").Errors(errNoName)

	greeting, err := greeter.Greet(context.Background(), "ada")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(greeting).To(Equal("hello"))

	_, err = greeter.Greet(context.Background(), "")
	g.Expect(err).To(MatchError(errNoName))

	pattern, err := greeter.mock.Pattern(greetMember, Any[context.Context](), Any[string]())
	g.Expect(err).NotTo(HaveOccurred())

	impmock.Verify(t, greeter.mock, pattern, times.Must(times.Exactly(2)))
}

func TestFacade_VerifyReportsThroughTestReporter(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reporter := &recordingT{}
	greeter := newGreeter(reporter)

	greeter.Count()
	greeter.Count()

	pattern, err := greeter.mock.Pattern(countMember)
	g.Expect(err).NotTo(HaveOccurred())

	impmock.Verify(reporter, greeter.mock, pattern, times.Once())

	g.Expect(reporter.failures).To(HaveLen(1))
	g.Expect(reporter.failures[0]).To(ContainSubstring("expected [1, 1] calls, got 2"))

	impmock.VerifyNoOtherCalls(reporter, greeter.mock)
	g.Expect(reporter.failures).To(HaveLen(2))
}

func TestFacade_VerifyAllMocks(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reporter := &recordingT{}
	first := newGreeter(reporter)
	second := newGreeter(reporter, impmock.WithName("second"))

	first.mock.Setup(countMember).Returns(1).Verifiable()
	second.mock.Setup(countMember).Returns(2).Verifiable()

	g.Expect(first.Count()).To(Equal(1))

	impmock.VerifyAllMocks(reporter)
	g.Expect(reporter.failures).To(HaveLen(1))
	g.Expect(reporter.failures[0]).To(ContainSubstring("second"))

	g.Expect(second.Count()).To(Equal(2))

	impmock.VerifyAll(reporter, second.mock)
	g.Expect(reporter.failures).To(HaveLen(1))
}

func TestFacade_StrictMock(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	greeter := newGreeter(t, impmock.WithBehavior(impmock.Strict))

	_, err := greeter.Greet(context.Background(), "ada")
	g.Expect(err).To(MatchError(impmock.ErrStrictCall))
}

func TestFacade_GomegaMatchers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	greeter := newGreeter(t)
	greeter.mock.Setup(greetMember, Any[context.Context](), That[string](HavePrefix("dr. "))).Returns("welcome back")

	greeting, err := greeter.Greet(context.Background(), "dr. who")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(greeting).To(Equal("welcome back"))

	greeting, err = greeter.Greet(context.Background(), "who")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(greeting).To(BeEmpty())
}

// unexported variables.
var (
	//nolint:gochecknoglobals // sentinel for tests
	errNoName = errors.New("no name")
)
