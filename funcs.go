package beek

import (
	"errors"
	"math"
	"math/big"
	"math/rand"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a native function from reals to reals.
type Func interface {
	// Call evaluates the function. args has a length for which CanCall
	// returned true. Call may modify the elements of args.
	Call(args []float64) (float64, error)

	// CanCall returns whether the function can be called with n arguments.
	// The parser rejects calls to native functions with argument counts for
	// which CanCall is false.
	CanCall(n int) bool
}

// workprec is the precision in bits used for functions computed with
// package bigfloat before rounding to float64.
const workprec = 128

var globalfuncs = map[string]Func{
	"floor": Monadic(math.Floor),
	"ceil":  Monadic(math.Ceil),
	"round": Monadic(math.Round),
	"trunc": Monadic(math.Trunc),
	"fract": Monadic(func(x float64) float64 {
		_, f := math.Modf(x)
		return f
	}),
	"abs":   Monadic(math.Abs),
	"sqrt":  Monadic(math.Sqrt),
	"exp":   bigMonadic{"exp", bigfloat.Exp, math.Exp},
	"ln":    bigMonadic{"ln", bigfloat.Log, math.Log},
	"log":   bigMonadic{"log", bigfloat.Log, math.Log},
	"log2":  Monadic(math.Log2),
	"log10": Monadic(math.Log10),
	"sin":   Monadic(math.Sin),
	"cos":   Monadic(math.Cos),
	"tan":   Monadic(math.Tan),
	"asin":  Monadic(math.Asin),
	"acos":  Monadic(math.Acos),
	"atan":  Monadic(math.Atan),
	"sinh":  Monadic(math.Sinh),
	"cosh":  Monadic(math.Cosh),
	"tanh":  Monadic(math.Tanh),
	"asinh": Monadic(math.Asinh),
	"acosh": Monadic(math.Acosh),
	"atanh": Monadic(math.Atanh),
	"gamma": Monadic(math.Gamma),

	"atan2": Dyadic(math.Atan2),
	"hypot": Dyadic(math.Hypot),

	"min": Variadic(1, func(x ...float64) float64 {
		r := x[0]
		for _, v := range x[1:] {
			r = math.Min(r, v)
		}
		return r
	}),
	"max": Variadic(1, func(x ...float64) float64 {
		r := x[0]
		for _, v := range x[1:] {
			r = math.Max(r, v)
		}
		return r
	}),

	"rand":   Niladic(rand.Float64),
	"random": Niladic(rand.Float64),
}

// globalconsts are the built-in constants. pi and e are computed with
// package bigfloat and rounded.
var globalconsts = func() map[string]float64 {
	var pi, e, one big.Float
	pi.SetPrec(workprec)
	bigfloat.Pi(&pi)
	e.SetPrec(workprec)
	one.SetPrec(workprec).SetInt64(1)
	bigfloat.Exp(&e, &one)
	p, _ := pi.Float64()
	ev, _ := e.Float64()
	return map[string]float64{
		"e":   ev,
		"pi":  p,
		"π":   p,
		"tau": 2 * p,
		"τ":   2 * p,
	}
}()

type monadic struct {
	f func(float64) float64
}

func (m monadic) Call(args []float64) (float64, error) {
	r := m.f(args[0])
	if math.IsNaN(r) && !math.IsNaN(args[0]) {
		return 0, &DomainError{X: args[0], Arg: 1}
	}
	return r, nil
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func. A NaN result from a
// non-NaN argument is reported as a DomainError.
func Monadic(f func(float64) float64) Func {
	return monadic{f}
}

type dyadic struct {
	f func(x, y float64) float64
}

func (d dyadic) Call(args []float64) (float64, error) {
	return d.f(args[0], args[1]), nil
}

func (d dyadic) CanCall(n int) bool {
	return n == 2
}

// Dyadic wraps a function of two variables into a Func.
func Dyadic(f func(x, y float64) float64) Func {
	return dyadic{f}
}

type niladic struct {
	f func() float64
}

func (n niladic) Call(args []float64) (float64, error) {
	return n.f(), nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables into a Func. Unlike Monadic, the
// wrapped function is expected never to fail.
func Niladic(f func() float64) Func {
	return niladic{f}
}

type variadic struct {
	least int
	f     func(...float64) float64
}

func (v variadic) Call(args []float64) (float64, error) {
	return v.f(args...), nil
}

func (v variadic) CanCall(n int) bool {
	return n >= v.least
}

// Variadic wraps a function of at least least variables into a Func.
func Variadic(least int, f func(...float64) float64) Func {
	return variadic{least, f}
}

// bigMonadic computes a function at workprec bits using package bigfloat,
// falling back to small for non-finite arguments and arguments whose result
// is certain to overflow or underflow a float64.
type bigMonadic struct {
	name  string
	f     func(z, x *big.Float) *big.Float
	small func(float64) float64
}

func (m bigMonadic) Call(args []float64) (r float64, err error) {
	x := args[0]
	switch {
	case x < 0 && m.name != "exp":
		return 0, &DomainError{X: x, Arg: 1, Func: m.name}
	case math.IsNaN(x), math.IsInf(x, 0), math.Abs(x) > 1024 && m.name == "exp":
		return m.small(x), nil
	case x == 0 && m.name != "exp":
		return math.Inf(-1), nil
	case x == 0:
		return 1, nil
	case x == 1 && m.name != "exp":
		return 0, nil
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		e, _ := p.(error)
		if e == nil || !errors.As(e, new(big.ErrNaN)) {
			panic(p)
		}
		err = &DomainError{X: x, Arg: 1, Func: m.name}
	}()
	var z, in big.Float
	z.SetPrec(workprec)
	in.SetPrec(workprec).SetFloat64(x)
	m.f(&z, &in)
	r, _ = z.Float64()
	return r, nil
}

func (m bigMonadic) CanCall(n int) bool {
	return n == 1
}

// DomainError is an error returned when a function or operator is applied to
// arguments outside its domain, or a function is called with the wrong number
// of arguments.
type DomainError struct {
	// X is the out-of-domain argument.
	X float64
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
	// Reason describes the failure when it is not about the value of X.
	Reason string
}

func (err *DomainError) Error() string {
	if err.Reason != "" {
		return err.Func + ": " + err.Reason
	}
	r := FormatNumber(err.X) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

// arityError creates a DomainError for a call with the wrong number of
// arguments. want describes the accepted count, if there is a single one.
func arityError(name string, want string, got int) *DomainError {
	if want == "" {
		return &DomainError{Func: name, Reason: "cannot be called with " + arity(got)}
	}
	were := " were"
	if got == 1 {
		were = " was"
	}
	return &DomainError{
		Func:   name,
		Reason: "takes " + want + " but " + strconv.Itoa(got) + were + " supplied",
	}
}

// arity describes the number of arguments a function takes.
func arity(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return strconv.Itoa(n) + " arguments"
}
