package main

import (
	"testing"

	"github.com/zephyrtronium/beek"
)

func TestParseGiven(t *testing.T) {
	cases := []struct {
		src  string
		name string
		val  float64
		err  bool
	}{
		{"x=2", "x", 2, false},
		{" rate = 3 * 4 ", "rate", 12, false},
		{"half=sqrt(4)/4", "half", 0.5, false},
		{"x", "", 0, true},
		{"=2", "", 0, true},
		{"f(x)=2", "", 0, true},
		{"pi=3", "", 0, true},
		{"ans=3", "", 0, true},
		{"x=y", "", 0, true},
		{"x=2+", "", 0, true},
	}
	for _, c := range cases {
		opt, err := parseGiven(c.src)
		if c.err {
			if err == nil {
				t.Errorf("%q: expected error", c.src)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.src, err)
			continue
		}
		b, ok := beek.NewEnv(opt).Lookup(c.name)
		if !ok || b.Kind != beek.BindImmediate || b.Value != c.val {
			t.Errorf("%q: %s is %#v, %t", c.src, c.name, b, ok)
		}
	}
}

func TestGivenSession(t *testing.T) {
	opt, err := parseGiven("x=4")
	if err != nil {
		t.Fatal(err)
	}
	s := beek.NewSession(opt)
	if got := s.Evaluate("5x").Message; got != "5 × 4 = 20" {
		t.Errorf("wrong message %q", got)
	}
}
