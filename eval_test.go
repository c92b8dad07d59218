package beek_test

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/zephyrtronium/beek"
)

func TestReduce(t *testing.T) {
	type vv struct {
		n string
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"ident", "x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
			{[]vv{{"x", 6}}, 6},
		}},
		{"plus", "+x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", -5}}, -5},
		}},
		{"neg", "-x", []vc{
			{[]vv{{"x", 4}}, -4},
			{[]vv{{"x", 5}}, -5},
			{[]vv{{"x", 6}}, -6},
		}},
		{"add", "4+5+6", []vc{{nil, 4 + 5 + 6}}},
		{"sub", "4-5-6", []vc{{nil, 4 - 5 - 6}}},
		{"mul", "4*5*6", []vc{{nil, 4 * 5 * 6}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"starstar", "2**10", []vc{{nil, 1024}}},
		{"prec", "2+3*4", []vc{{nil, 14}}},
		{"powright", "2^3^2", []vc{{nil, 512}}},
		{"negpow", "-2^2", []vc{{nil, -4}}},
		{"negbase", "(-2)^2", []vc{{nil, 4}}},
		{"implicit", "5x", []vc{
			{[]vv{{"x", 2}}, 10},
			{[]vv{{"x", -1}}, -5},
		}},
		{"implicitdiv", "1/2x", []vc{{[]vv{{"x", 2}}, 0.25}}},
		{"implicitparen", "3(2+1)", []vc{{nil, 9}}},
		{"mod", "7 % 3", []vc{{nil, 1}}},
		{"modneg", "-7 % 3", []vc{{nil, -1}}},
		{"modnegdivisor", "7 % -3", []vc{{nil, 1}}},
		{"modfrac", "5.5 % 2", []vc{{nil, 1.5}}},
		{"modmul", "2 * 7 % 3", []vc{{nil, 2}}},
		{"fact0", "0!", []vc{{nil, 1}}},
		{"fact1", "1!", []vc{{nil, 1}}},
		{"fact5", "5!", []vc{{nil, 120}}},
		{"fact20", "20!", []vc{{nil, 2432902008176640000}}},
		{"factvar", "x!", []vc{
			{[]vv{{"x", 3}}, 6},
			{[]vv{{"x", 4}}, 24},
		}},
		{"negfact", "-3!", []vc{{nil, -6}}},
		{"pi", "pi", []vc{{nil, math.Pi}}},
		{"π", "π", []vc{{nil, math.Pi}}},
		{"tau", "tau", []vc{{nil, 2 * math.Pi}}},
		{"e", "e", []vc{{nil, math.E}}},
		{"inf1", "inf", []vc{{nil, math.Inf(0)}}},
		{"inf2", "Inf", []vc{{nil, math.Inf(0)}}},
		{"inf3", "∞", []vc{{nil, math.Inf(0)}}},
		{"divzero", "1/0", []vc{{nil, math.Inf(1)}}},
		{"negdivzero", "-1/0", []vc{{nil, math.Inf(-1)}}},
		{"sqrt", "sqrt(16)", []vc{{nil, 4}}},
		{"abs", "abs(-3)", []vc{{nil, 3}}},
		{"floor", "floor(-2.5)", []vc{{nil, -3}}},
		{"ceil", "ceil(2.1)", []vc{{nil, 3}}},
		{"round", "round(2.5)", []vc{{nil, 3}}},
		{"trunc", "trunc(-2.5)", []vc{{nil, -2}}},
		{"fract", "fract(2.25)", []vc{{nil, 0.25}}},
		{"exp0", "exp(0)", []vc{{nil, 1}}},
		{"ln1", "ln(1)", []vc{{nil, 0}}},
		{"ln0", "ln(0)", []vc{{nil, math.Inf(-1)}}},
		{"expinf", "exp(-inf)", []vc{{nil, 0}}},
		{"log2", "log2(1024)", []vc{{nil, 10}}},
		{"log10", "log10(1000)", []vc{{nil, 3}}},
		{"hypot", "hypot(3, 4)", []vc{{nil, 5}}},
		{"min", "min(3, 1, 2)", []vc{{nil, 1}}},
		{"max", "max(3, 1, 2)", []vc{{nil, 3}}},
		{"min1", "min(7)", []vc{{nil, 7}}},
		{"callexpr", "sqrt(x^2)", []vc{{[]vv{{"x", -3}}, 3}}},
		{"nested", "max(abs(-4), sqrt(9))", []vc{{nil, 4}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := beek.Parse(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				vars := make(map[string]float64, len(v.vars))
				for _, x := range v.vars {
					vars[x.n] = x.v
				}
				env := beek.NewEnv(beek.SetVars(vars))
				r, err := env.Reduce(a)
				if err != nil {
					t.Errorf("reducing %q with %v: %v", c.src, vars, err)
					continue
				}
				if r != v.r && !(math.IsNaN(r) && math.IsNaN(v.r)) {
					t.Errorf("wrong result for %q with %v: want %g, got %g\n%s", c.src, vars, v.r, r, spew.Sdump(a))
				}
			}
		})
	}
}

func TestReduceApprox(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    float64
	}{
		{"exp1", "exp(1)", math.E},
		{"expneg", "exp(-2.5)", math.Exp(-2.5)},
		{"exp100", "exp(100)", math.Exp(100)},
		{"lne", "ln(e)", 1},
		{"log", "log(10)", math.Ln10},
		{"ln2", "ln(2)", math.Ln2},
		{"sin", "sin(pi/2)", 1},
		{"cos", "cos(pi)", -1},
		{"atan2", "atan2(1, 1)", math.Pi / 4},
		{"gamma", "gamma(5)", 24},
		{"gammahalf", "gamma(0.5)^2", math.Pi},
	}
	env := beek.NewEnv()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := beek.Parse(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			r, err := env.Reduce(a)
			if err != nil {
				t.Fatalf("reducing %q: %v", c.src, err)
			}
			if math.Abs(r-c.r) > 1e-14*math.Max(1, math.Abs(c.r)) {
				t.Errorf("wrong result for %q: want %g, got %g", c.src, c.r, r)
			}
		})
	}
}

func TestReduceNaN(t *testing.T) {
	for _, src := range []string{"0/0", "inf/inf", "inf-inf", "(-1)^0.5", "0 % 0"} {
		a, err := beek.Parse(src)
		if err != nil {
			t.Fatal(src, "failed to parse:", err)
		}
		r, err := beek.NewEnv().Reduce(a)
		if err != nil {
			t.Errorf("reducing %q gave error %v", src, err)
		}
		if !math.IsNaN(r) {
			t.Errorf("reducing %q gave %g, want NaN", src, r)
		}
	}
}

func TestReduceUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []string
	}{
		{"x", "x", []string{"x"}},
		{"plus", "+x", []string{"x"}},
		{"neg", "-x", []string{"x"}},
		{"fact", "x!", []string{"x"}},
		{"add-lhs", "x+1", []string{"x"}},
		{"add-rhs", "1+x", []string{"x"}},
		{"sub-lhs", "x-1", []string{"x"}},
		{"sub-rhs", "1-x", []string{"x"}},
		{"mul-lhs", "x*1", []string{"x"}},
		{"mul-rhs", "1*x", []string{"x"}},
		{"div-lhs", "x/1", []string{"x"}},
		{"div-rhs", "1/x", []string{"x"}},
		{"mod-rhs", "1%x", []string{"x"}},
		{"pow-lhs", "x^1", []string{"x"}},
		{"pow-rhs", "1^x", []string{"x"}},
		{"call", "exp(x)", []string{"x"}},
		{"xy", "xy", []string{"xy"}},
		{"func", "f(1)", []string{"f"}},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	env := beek.NewEnv(beek.SetVar("y", 2), beek.SetVar("z", 3))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := beek.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			e := env
			if c.name == "xy" {
				// Binding x and y must not make xy their product.
				e = beek.NewEnv(beek.SetVar("x", 1), beek.SetVar("y", 2))
			}
			r, err := e.Reduce(a)
			if err == nil {
				t.Fatalf("reducing %q gave no error but %g", c.src, r)
			}
			if !beek.Unresolved(err) {
				t.Errorf("%v is not unresolved", err)
			}
			u, ok := err.(*beek.NameError)
			if !ok {
				t.Fatalf("error was %#v, not NameError", err)
			}
			msg := err.Error()
			if !ure.MatchString(msg) {
				t.Errorf(`%q doesn't mention "undef"`, msg)
			}
			if !vre.MatchString(msg) {
				t.Errorf(`%q doesn't mention "var"`, msg)
			}
			for _, v := range c.r {
				if v == u.Name {
					xre := regexp.MustCompile(`\b` + v + `\b`)
					if !xre.MatchString(msg) {
						t.Errorf(`%q doesn't mention %q`, msg, v)
					}
					return
				}
			}
			t.Errorf("NameError on %q, not in %q", u.Name, c.r)
		})
	}
}

func TestReduceDomainError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		fn   string
	}{
		{"factneg", "(-1)!", "!"},
		{"factfrac", "2.5!", "!"},
		{"factbig", "171!", "!"},
		{"factinf", "inf!", "!"},
		{"factnan", "(0/0)!", "!"},
		{"sqrt", "sqrt(-1)", "sqrt"},
		{"ln", "ln(-1)", "ln"},
		{"log", "log(-1)", "log"},
		{"acos", "acos(2)", "acos"},
	}
	env := beek.NewEnv()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := beek.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			r, err := env.Reduce(a)
			if err == nil {
				t.Fatalf("reducing %q gave no error but %g", c.src, r)
			}
			var de *beek.DomainError
			if !errors.As(err, &de) {
				t.Fatalf("%#v is not *beek.DomainError", err)
			}
			if de.Func != c.fn {
				t.Errorf("error %v is for %q, want %q", err, de.Func, c.fn)
			}
			if beek.Unresolved(err) {
				t.Errorf("%v is unresolved", err)
			}
		})
	}
}

func TestReduceArity(t *testing.T) {
	// Without arity checks at parse time, reduction still rejects bad calls.
	a, err := beek.Parse("sqrt(1, 2)", beek.DisableDefaultFuncs())
	if err != nil {
		t.Fatal(err)
	}
	_, err = beek.NewEnv().Reduce(a)
	var de *beek.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("%#v is not *beek.DomainError", err)
	}
	if de.Func != "sqrt" || !regexp.MustCompile(`\b2 arguments\b`).MatchString(err.Error()) {
		t.Errorf("wrong error for sqrt(1, 2): %v", err)
	}
}

func TestReduceKindError(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"native-as-var", "sqrt + 1"},
		{"var-as-func", "x(2)"},
		{"const-as-func", "pi(2)"},
	}
	env := beek.NewEnv(beek.SetVar("x", 1))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := beek.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			_, err = env.Reduce(a)
			var ke *beek.KindError
			if !errors.As(err, &ke) {
				t.Errorf("%q gave %#v, not *beek.KindError", c.src, err)
			}
		})
	}
}

func TestReduceWithFuncs(t *testing.T) {
	double := beek.Monadic(func(x float64) float64 { return 2 * x })
	env := beek.NewEnv(beek.WithFuncs(map[string]beek.Func{"double": double, "sqrt": nil}))
	a, err := beek.Parse("double(21)", beek.ParseFuncs(env.Natives()))
	if err != nil {
		t.Fatal(err)
	}
	r, err := env.Reduce(a)
	if err != nil || r != 42 {
		t.Errorf("double(21) gave %g, %v", r, err)
	}
	a, err = beek.Parse("sqrt(4)", beek.ParseFuncs(env.Natives()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reduce(a); !beek.Unresolved(err) {
		t.Errorf("removed sqrt gave %v", err)
	}
}

func BenchmarkReduce(b *testing.B) {
	vars := map[string]float64{
		"x": 2,
		"y": 3,
		"z": 4,
	}
	b.Run("nums", func(b *testing.B) {
		b.ReportAllocs()
		env := beek.NewEnv()
		a, err := beek.Parse("2+3+4")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			env.Reduce(a)
		}
	})
	b.Run("vars", func(b *testing.B) {
		b.ReportAllocs()
		env := beek.NewEnv(beek.SetVars(vars))
		a, err := beek.Parse("x+y+z")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			env.Reduce(a)
		}
	})
	b.Run("fact", func(b *testing.B) {
		b.ReportAllocs()
		env := beek.NewEnv()
		a, err := beek.Parse("170!")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			env.Reduce(a)
		}
	})
}
