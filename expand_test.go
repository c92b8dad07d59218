package beek

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// testEnv creates an environment from a list of statements.
func testEnv(t *testing.T, stmts ...string) *Env {
	t.Helper()
	s := NewSession()
	for _, stmt := range stmts {
		r := s.Evaluate(stmt)
		if len(r.Message) > 6 && r.Message[:6] == "error:" {
			t.Fatalf("%q: %s", stmt, r.Message)
		}
	}
	return s.Env()
}

func TestExpand(t *testing.T) {
	cases := []struct {
		name string
		env  []string
		src  string
		want string
	}{
		{"num", nil, "2.5", "2.5"},
		{"unbound", nil, "x + 1", "x + 1"},
		{"const", nil, "2pi", "2 × 3.141592653589793"},
		{"immediate", []string{"x := 4"}, "x + 1", "4 + 1"},
		{"negimmediate", []string{"x := -4"}, "x ^ 2", "(-4) ^ 2"},
		{"lazy", []string{"y = x + 1"}, "2y", "2 × (x + 1)"},
		{"lazyonelevel", []string{"a = 1", "b = a + 1", "c = b * 2"}, "c + b", "(b × 2) + (a + 1)"},
		{"lazyunbound", []string{"f = 5x + 1"}, "f + 3", "((5 × x) + 1) + 3"},
		{"native", []string{"x := 9"}, "sqrt(x)", "sqrt(9)"},
		{"nativelazy", []string{"y = x"}, "sqrt(y)", "sqrt(x)"},
		{"func", []string{"sq(x) = x^2"}, "sq(3)", "3 ^ 2"},
		{"funcargs", []string{"a := 2", "add(x, y) = x + y"}, "add(a, b)", "2 + b"},
		{"funcfree", []string{"k := 3", "f(x) = k x"}, "f(2)", "k × 2"},
		{"funcshadow", []string{"x := 10", "f(x) = x + 1"}, "f(2)", "2 + 1"},
		{"funcnested", []string{"f(x) = 2x", "g(x) = f(x) + 1"}, "g(3)", "f(3) + 1"},
		{"funcexprarg", []string{"f(x) = x!"}, "f(2 + 1)", "(2 + 1)!"},
		{"funcarity", []string{"f(x) = x"}, "f(1, 2)", "f(1, 2)"},
		{"unboundcall", nil, "g(1)", "g(1)"},
		{"binomial", []string{"binomial(n, k) = n!/k!/(n-k)!"}, "binomial(5, 3)", "(5! / 3!) / (5 - 3)!"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := testEnv(t, c.env...)
			a, err := Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			x := env.Expand(a)
			if got := x.String(); got != c.want {
				t.Errorf("%q expands to %q, want %q\n%s", c.src, got, c.want, spew.Sdump(x.n))
			}
		})
	}
}

func TestExpandLiteral(t *testing.T) {
	env := NewEnv()
	for _, v := range []float64{0, 1, -1, 2.5, 1e300, math.Inf(1), math.NaN()} {
		n := &node{kind: nodeNum, num: v}
		x := env.Expand(&Expr{n: n})
		if d, e := x.n.diff(n); d != nil || e != nil {
			t.Errorf("%v expanded to %v", n, x.n)
		}
	}
}

func TestExpandDoesNotModify(t *testing.T) {
	env := testEnv(t, "x := 2", "y = x + 1", "f(a) = a y")
	a, err := Parse("f(x) + y")
	if err != nil {
		t.Fatal(err)
	}
	before := a.String()
	body, _ := env.Lookup("f")
	bodybefore := body.Expr.String()
	x := env.Expand(a)
	if a.String() != before {
		t.Errorf("expression changed from %q to %q", before, a.String())
	}
	if body.Expr.String() != bodybefore {
		t.Errorf("function body changed from %q to %q", bodybefore, body.Expr.String())
	}
	if got, want := x.String(), "(2 × y) + (x + 1)"; got != want {
		t.Errorf("wrong expansion: want %q, got %q", want, got)
	}
	if got, want := x.Vars(), []string{"x", "y"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("wrong vars: want %q, got %q", want, got)
	}
}

func TestExpandSelfReference(t *testing.T) {
	env := testEnv(t)
	if err := env.SetLazy("x", mustParse(t, "x + 1")); err != nil {
		t.Fatal(err)
	}
	if err := env.Define("f", []string{"n"}, mustParse(t, "f(n)")); err != nil {
		t.Fatal(err)
	}
	// Expansion stops after one level regardless of cycles.
	if got := env.Expand(mustParse(t, "x")).String(); got != "x + 1" {
		t.Errorf("x expands to %q", got)
	}
	if got := env.Expand(mustParse(t, "f(1)")).String(); got != "f(1)" {
		t.Errorf("f(1) expands to %q", got)
	}
}

func mustParse(t *testing.T, src string) *Expr {
	t.Helper()
	a, err := Parse(src)
	if err != nil {
		t.Fatalf("%q failed to parse: %v", src, err)
	}
	return a
}
