package beek

import (
	"sort"
	"strconv"

	"fortio.org/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// BindingKind identifies the variant of a Binding.
type BindingKind int8

const (
	bindNone BindingKind = iota
	// BindConstant is a built-in constant such as pi.
	BindConstant
	// BindImmediate is a value fixed at assignment time by :=.
	BindImmediate
	// BindLazy is an expression re-resolved at every reference, from =.
	BindLazy
	// BindFunction is a user-defined function.
	BindFunction
	// BindNative is a built-in function.
	BindNative
)

func (k BindingKind) String() string {
	switch k {
	case BindConstant:
		return "constant"
	case BindImmediate:
		return "variable"
	case BindLazy:
		return "lazy variable"
	case BindFunction:
		return "function"
	case BindNative:
		return "built-in function"
	default:
		return "BindingKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Binding is the value of a name in an environment. Which fields are
// meaningful depends on Kind.
type Binding struct {
	Kind BindingKind
	// Value is the value of a constant or immediate variable.
	Value float64
	// Expr is the expression of a lazy variable or the body of a function.
	Expr *Expr
	// Params is the parameter list of a function.
	Params []string
	// Fn is the implementation of a native function.
	Fn Func
}

// protected reports whether the binding is built in.
func (b Binding) protected() bool {
	return b.Kind == BindConstant || b.Kind == BindNative
}

// Result names hold the last reduced result. They are always bound to
// immediate values and cannot be assigned or deleted.
var resultnames = [...]string{"ans", "_"}

func isresult(name string) bool {
	return name == resultnames[0] || name == resultnames[1]
}

// Env is the set of bindings of a session. It is not safe to use an Env
// concurrently.
type Env struct {
	names map[string]Binding
	// natives is the set of native functions, kept for restoring on Reset.
	natives map[string]Func
}

// EnvOption is an option used when creating an environment.
type EnvOption interface {
	envOption()
}

type (
	envvar struct {
		name string
		val  float64
	}
	envvars  map[string]float64
	envfuncs map[string]Func
)

func (envvar) envOption()   {}
func (envvars) envOption()  {}
func (envfuncs) envOption() {}

// SetVar sets an immediate variable in the environment.
func SetVar(name string, val float64) EnvOption {
	return envvar{name, val}
}

// SetVars sets any number of immediate variables in the environment.
func SetVars(vars map[string]float64) EnvOption {
	return envvars(vars)
}

// WithFuncs adds native functions to the environment. A nil Func removes
// the default function with that name.
func WithFuncs(fns map[string]Func) EnvOption {
	return envfuncs(fns)
}

// NewEnv creates an environment holding the built-in constants, the native
// functions, and ans and _ set to 0. Options are applied in order.
func NewEnv(opts ...EnvOption) *Env {
	env := Env{
		names:   make(map[string]Binding, len(globalconsts)+len(globalfuncs)+2),
		natives: make(map[string]Func, len(globalfuncs)),
	}
	for k, v := range globalfuncs {
		env.natives[k] = v
	}
	for _, opt := range opts {
		if fns, ok := opt.(envfuncs); ok {
			for k, v := range fns {
				if v == nil {
					delete(env.natives, k)
					continue
				}
				env.natives[k] = v
			}
		}
	}
	env.Reset()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case envvar:
			env.names[opt.name] = Binding{Kind: BindImmediate, Value: opt.val}
		case envvars:
			for k, v := range opt {
				env.names[k] = Binding{Kind: BindImmediate, Value: v}
			}
		case envfuncs:
			// Already done. Do nothing.
		default:
			panic("beek: unknown option type")
		}
	}
	return &env
}

// Reset removes all user bindings, leaving constants, natives, and ans and _
// set to 0.
func (env *Env) Reset() {
	env.names = make(map[string]Binding, len(env.names))
	for k, v := range globalconsts {
		env.names[k] = Binding{Kind: BindConstant, Value: v}
	}
	for k, v := range env.natives {
		env.names[k] = Binding{Kind: BindNative, Fn: v}
	}
	for _, k := range resultnames {
		env.names[k] = Binding{Kind: BindImmediate}
	}
	log.Debugf("environment reset")
}

// Lookup returns the binding of a name.
func (env *Env) Lookup(name string) (Binding, bool) {
	b, ok := env.names[name]
	return b, ok
}

// Natives returns the native functions of the environment, suitable for
// ParseFuncs.
func (env *Env) Natives() map[string]Func {
	m := make(map[string]Func, len(env.natives))
	for k, v := range env.natives {
		m[k] = v
	}
	// Defaults removed by WithFuncs are no longer checked.
	for k := range globalfuncs {
		if _, ok := m[k]; !ok {
			m[k] = nil
		}
	}
	return m
}

// checkAssign returns an error if name may not be rebound.
func (env *Env) checkAssign(name, op string) error {
	if b, ok := env.names[name]; ok && b.protected() {
		return &ProtectedNameError{Name: name, Kind: b.Kind, Op: op}
	}
	if isresult(name) {
		return &ProtectedNameError{Name: name, Kind: BindImmediate, Op: op}
	}
	return nil
}

// SetImmediate binds name to a fixed value, replacing any other binding of
// the name.
func (env *Env) SetImmediate(name string, val float64) error {
	if err := env.checkAssign(name, "assign"); err != nil {
		return err
	}
	env.names[name] = Binding{Kind: BindImmediate, Value: val}
	log.Debugf("bind %s := %s", name, FormatNumber(val))
	return nil
}

// SetLazy binds name to an expression which is resolved whenever the name is
// used, replacing any other binding of the name.
func (env *Env) SetLazy(name string, e *Expr) error {
	if err := env.checkAssign(name, "assign"); err != nil {
		return err
	}
	env.names[name] = Binding{Kind: BindLazy, Expr: e}
	log.Debugf("bind %s = %v", name, e)
	return nil
}

// Define binds name to a function, replacing any other binding of the name.
// Parameter names must be distinct.
func (env *Env) Define(name string, params []string, body *Expr) error {
	if err := env.checkAssign(name, "define"); err != nil {
		return err
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			return &ParamError{Func: name, Param: p}
		}
		seen[p] = true
	}
	env.names[name] = Binding{Kind: BindFunction, Expr: body, Params: append([]string(nil), params...)}
	log.Debugf("define %s = %v", signature(name, params), body)
	return nil
}

// Delete removes a user binding.
func (env *Env) Delete(name string) error {
	b, ok := env.names[name]
	switch {
	case !ok:
		return &NotFoundError{Name: name, Suggest: env.suggest(name)}
	case b.protected():
		return &ProtectedNameError{Name: name, Kind: b.Kind, Op: "delete"}
	case isresult(name):
		return &ProtectedNameError{Name: name, Kind: BindImmediate, Op: "delete"}
	}
	delete(env.names, name)
	log.Debugf("delete %s", name)
	return nil
}

// setResult records the last reduced value in ans and _.
func (env *Env) setResult(val float64) {
	for _, k := range resultnames {
		env.names[k] = Binding{Kind: BindImmediate, Value: val}
	}
}

// Names returns every bound name in sorted order.
func (env *Env) Names() []string {
	v := make([]string, 0, len(env.names))
	for k := range env.names {
		v = append(v, k)
	}
	sortstrs(v)
	return v
}

// UserNames returns the names of user bindings, i.e. everything other than
// constants, natives, and the result names, in sorted order.
func (env *Env) UserNames() []string {
	var v []string
	for k, b := range env.names {
		if b.protected() || isresult(k) {
			continue
		}
		v = append(v, k)
	}
	sortstrs(v)
	return v
}

// suggest finds the user name closest to a misspelled one, or the empty
// string if none is close.
func (env *Env) suggest(name string) string {
	ranks := fuzzy.RankFindFold(name, env.UserNames())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// Describe renders the definition of a user binding the way list shows it.
func (env *Env) Describe(name string) string {
	b, ok := env.names[name]
	if !ok {
		return ""
	}
	switch b.Kind {
	case BindConstant, BindImmediate:
		return name + " := " + FormatNumber(b.Value)
	case BindLazy:
		return name + " = " + b.Expr.String()
	case BindFunction:
		return signature(name, b.Params) + " = " + b.Expr.String()
	case BindNative:
		return name + "(...)"
	default:
		panic("beek: invalid binding kind " + b.Kind.String())
	}
}

// ProtectedNameError is an error from an attempt to delete or rebind a
// constant, a native function, or a result name.
type ProtectedNameError struct {
	Name string
	Kind BindingKind
	// Op is the attempted operation: "assign", "define", or "delete".
	Op string
}

func (err *ProtectedNameError) Error() string {
	what := err.Kind.String()
	if isresult(err.Name) {
		what = "result"
	}
	return "cannot " + err.Op + " " + what + " " + strconv.Quote(err.Name)
}

// NotFoundError is an error from deleting a name that is not bound.
type NotFoundError struct {
	Name string
	// Suggest is a similar bound name, if any.
	Suggest string
}

func (err *NotFoundError) Error() string {
	r := "no binding named " + strconv.Quote(err.Name)
	if err.Suggest != "" {
		r += "; did you mean " + strconv.Quote(err.Suggest) + "?"
	}
	return r
}
