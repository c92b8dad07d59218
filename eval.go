package beek

import (
	"errors"
	"math"
	"strconv"

	"fortio.org/log"
)

// MaxDepth is the maximum combined nesting of lazy variable resolutions and
// user function calls during one reduction. It is the only bound on
// evaluation of self-referential definitions.
const MaxDepth = 256

// maxFactorial is the largest argument whose factorial is a finite float64.
const maxFactorial = 170

// Reduce fully resolves an expression to a number. If the expression depends
// on a name with no binding, the error is a *NameError; that is the expected
// outcome for expressions with free variables rather than a failure.
func (env *Env) Reduce(e *Expr) (float64, error) {
	r, err := e.n.reduce(env, nil, 0)
	if err != nil {
		log.LogVf("reduce %v: %v", e, err)
		return 0, err
	}
	log.LogVf("reduce %v = %s", e, FormatNumber(r))
	return r, nil
}

// Unresolved reports whether an error from Reduce means only that the
// expression depends on an unbound name.
func Unresolved(err error) bool {
	var ne *NameError
	return errors.As(err, &ne)
}

// reduce computes the node's value. scope holds the parameters of the
// innermost user function call, which shadow the environment. depth counts
// nested lazy resolutions and calls.
func (n *node) reduce(env *Env, scope map[string]float64, depth int) (float64, error) {
	switch n.kind {
	case nodeNum:
		return n.num, nil
	case nodeName:
		if v, ok := scope[n.name]; ok {
			return v, nil
		}
		b, ok := env.names[n.name]
		if !ok {
			return 0, &NameError{Name: n.name}
		}
		switch b.Kind {
		case BindConstant, BindImmediate:
			return b.Value, nil
		case BindLazy:
			if depth >= MaxDepth {
				return 0, &RecursionError{Name: n.name}
			}
			// The stored expression sees no parameters, only the environment.
			return b.Expr.n.reduce(env, nil, depth+1)
		case BindFunction, BindNative:
			return 0, &KindError{Name: n.name, Kind: b.Kind, Want: "variable"}
		default:
			panic("beek: invalid binding kind " + b.Kind.String())
		}
	case nodeCall:
		return n.reducecall(env, scope, depth)
	case nodeArg:
		panic("beek: reduce on nodeArg")
	case nodeNeg:
		x, err := n.left.reduce(env, scope, depth)
		if err != nil {
			return 0, err
		}
		return -x, nil
	case nodeFact:
		x, err := n.left.reduce(env, scope, depth)
		if err != nil {
			return 0, err
		}
		return factorial(x)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		l, err := n.left.reduce(env, scope, depth)
		if err != nil {
			return 0, err
		}
		r, err := n.right.reduce(env, scope, depth)
		if err != nil {
			return 0, err
		}
		return arith(n.kind, l, r), nil
	default:
		panic("beek: invalid AST node " + n.kind.String())
	}
}

func (n *node) reducecall(env *Env, scope map[string]float64, depth int) (float64, error) {
	b, ok := env.names[n.name]
	if !ok {
		return 0, &NameError{Name: n.name}
	}
	var args []float64
	for l := n.right; l != nil; l = l.right {
		v, err := l.left.reduce(env, scope, depth)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}
	switch b.Kind {
	case BindFunction:
		if len(args) != len(b.Params) {
			return 0, arityError(n.name, arity(len(b.Params)), len(args))
		}
		if depth >= MaxDepth {
			return 0, &RecursionError{Name: n.name}
		}
		inner := make(map[string]float64, len(args))
		for i, p := range b.Params {
			inner[p] = args[i]
		}
		return b.Expr.n.reduce(env, inner, depth+1)
	case BindNative:
		if !b.Fn.CanCall(len(args)) {
			return 0, arityError(n.name, "", len(args))
		}
		r, err := b.Fn.Call(args)
		if err != nil {
			var de *DomainError
			if errors.As(err, &de) && de.Func == "" {
				de.Func = n.name
			}
			return 0, err
		}
		return r, nil
	case BindConstant, BindImmediate, BindLazy:
		return 0, &KindError{Name: n.name, Kind: b.Kind, Want: "function"}
	default:
		panic("beek: invalid binding kind " + b.Kind.String())
	}
}

// arith applies a binary operator. Division by zero and other invalid
// operations give IEEE results. Modulo is truncated: the result has the sign
// of the dividend.
func arith(op nodeKind, l, r float64) float64 {
	switch op {
	case nodeAdd:
		return l + r
	case nodeSub:
		return l - r
	case nodeMul:
		return l * r
	case nodeDiv:
		return l / r
	case nodeMod:
		return math.Mod(l, r)
	case nodePow:
		return math.Pow(l, r)
	default:
		panic("beek: not an arithmetic node " + op.String())
	}
}

// factorial computes x! for non-negative integers up to maxFactorial.
func factorial(x float64) (float64, error) {
	if x < 0 || x != math.Trunc(x) || x > maxFactorial || math.IsNaN(x) {
		return 0, &DomainError{X: x, Arg: 1, Func: "!"}
	}
	r := 1.0
	for i := 2.0; i <= x; i++ {
		r *= i
	}
	return r, nil
}

// NameError is an error from a lookup of a name that has no binding. It marks
// an expression as unresolved rather than invalid.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// KindError is an error from using a function as a variable or a variable as
// a function.
type KindError struct {
	Name string
	// Kind is the actual kind of the binding.
	Kind BindingKind
	// Want is "variable" or "function".
	Want string
}

func (err *KindError) Error() string {
	return strconv.Quote(err.Name) + " is a " + err.Kind.String() + ", not a " + err.Want
}

// RecursionError is an error from exceeding MaxDepth, typically because a
// definition refers to itself.
type RecursionError struct {
	// Name is the variable or function being resolved at the limit.
	Name string
}

func (err *RecursionError) Error() string {
	return "recursion limit (" + strconv.Itoa(MaxDepth) + ") exceeded resolving " + strconv.Quote(err.Name)
}
