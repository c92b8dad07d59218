package beek

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"fortio.org/log"
)

// version is the release of the engine reported by Version.
const version = "0.3.0"

// Version returns the build identifier of the engine.
func Version() string {
	return "beek " + version
}

// ResponseKind tells a host what to do with a Response beyond printing it.
type ResponseKind int8

const (
	// Normal responses are only printed.
	Normal ResponseKind = iota
	// ClearScreen asks the host to clear its display.
	ClearScreen
	// ResetEnvironment reports that the environment was reset. The host may
	// clear its own display state as well.
	ResetEnvironment
)

func (k ResponseKind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case ClearScreen:
		return "ClearScreen"
	case ResetEnvironment:
		return "ResetEnvironment"
	default:
		return "ResponseKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Response is the result of evaluating one line of input.
type Response struct {
	Kind ResponseKind
	// Message is the text to show, one line per statement that produced
	// output. It may be empty.
	Message string
}

// Session evaluates lines of input against one environment. A Session is
// not safe for concurrent use; hosts must serialize calls.
type Session struct {
	env *Env
	// preset holds the parse options for the environment's natives.
	preset ParseOption
	done   bool
}

// NewSession creates a session with a new environment built from opts.
func NewSession(opts ...EnvOption) *Session {
	env := NewEnv(opts...)
	return &Session{
		env:    env,
		preset: ParsingPreset(ParseFuncs(env.Natives())),
	}
}

// Env returns the session's environment.
func (s *Session) Env() *Env {
	return s.env
}

// Done reports whether a quit or exit command has been evaluated.
func (s *Session) Done() bool {
	return s.done
}

// CompletionCandidates returns every name currently bound in the session,
// including constants, natives, and user bindings, in sorted order.
func (s *Session) CompletionCandidates() []string {
	return s.env.Names()
}

// Evaluate runs a line of input. The line is split into statements at
// semicolons, and anything after a # is ignored. Each statement is a command,
// an assignment, a function definition, or an expression, and produces at most
// one line of the response. An error in one statement is reported on its line
// and does not prevent the following statements from running. Statements after
// a quit command are ignored.
func (s *Session) Evaluate(input string) Response {
	if i := strings.IndexRune(input, Comment); i >= 0 {
		input = input[:i]
	}
	var (
		r     Response
		lines []string
	)
	col := 1
	for _, stmt := range strings.Split(input, ";") {
		start := col
		col += utf8.RuneCountInString(stmt) + 1
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		var (
			line string
			err  error
		)
		if cmd, args, ok := command(stmt); ok {
			var kind ResponseKind
			line, kind = s.exec(cmd, args)
			if kind != Normal {
				r.Kind = kind
			}
		} else {
			line, err = s.statement(stmt, start)
		}
		if err != nil {
			log.LogVf("statement %q: %v", stmt, err)
			line = "error: " + err.Error()
		}
		if line != "" {
			lines = append(lines, line)
		}
		if s.done {
			break
		}
	}
	r.Message = strings.Join(lines, "\n")
	return r
}

// statement parses and runs a single statement. col is the column of the
// statement within the input line.
func (s *Session) statement(src string, col int) (string, error) {
	stmt, err := ParseStatement(src, s.preset, StartCol(col))
	if err != nil {
		return "", err
	}
	switch stmt.Kind {
	case StmtExpr:
		return s.render(s.env.Expand(stmt.Expr), stmt.Expr)
	case StmtImmediate:
		if err := s.env.checkAssign(stmt.Name, "assign"); err != nil {
			return "", err
		}
		// Expand before binding so that x := x + 1 shows the old x.
		x := s.env.Expand(stmt.Expr)
		v, err := s.env.Reduce(stmt.Expr)
		if err != nil {
			var ne *NameError
			if errors.As(err, &ne) {
				return "", &AssignError{Name: stmt.Name, Err: ne}
			}
			return "", err
		}
		if err := s.env.SetImmediate(stmt.Name, v); err != nil {
			return "", err
		}
		s.env.setResult(v)
		return s.line(x, v), nil
	case StmtLazy:
		x := s.env.Expand(stmt.Expr)
		if err := s.env.SetLazy(stmt.Name, stmt.Expr); err != nil {
			return "", err
		}
		r, err := s.render(x, stmt.Expr)
		if err != nil {
			return "", &BoundError{Name: stmt.Name, Err: err}
		}
		return r, nil
	case StmtFunc:
		if err := s.env.Define(stmt.Name, stmt.Params, stmt.Expr); err != nil {
			return "", err
		}
		return s.env.Describe(stmt.Name), nil
	default:
		panic("beek: invalid statement kind " + stmt.String())
	}
}

// render reduces e and formats the result line with its expansion x. An
// unresolved expression renders as its expansion alone.
func (s *Session) render(x, e *Expr) (string, error) {
	v, err := s.env.Reduce(e)
	if err != nil {
		if Unresolved(err) {
			return x.String(), nil
		}
		return "", err
	}
	s.env.setResult(v)
	return s.line(x, v), nil
}

// line formats an expansion and its value. When the expansion is the value
// itself, only the value is shown. When the expansion still needs names
// resolved to produce the value, the intermediate steps are elided.
func (s *Session) line(x *Expr, v float64) string {
	f, val := x.String(), FormatNumber(v)
	switch {
	case f == val:
		return "= " + val
	case x.n.refs(s.env):
		return f + " = ... = " + val
	default:
		return f + " = " + val
	}
}

// AssignError is an error from an immediate assignment whose right-hand side
// depends on an unbound name.
type AssignError struct {
	Name string
	Err  *NameError
}

func (err *AssignError) Error() string {
	return "cannot assign " + err.Name + ": " + err.Err.Error()
}

func (err *AssignError) Unwrap() error {
	return err.Err
}

// BoundError is an error from evaluating the right-hand side of a lazy
// assignment. The binding is stored regardless.
type BoundError struct {
	Name string
	Err  error
}

func (err *BoundError) Error() string {
	return err.Name + " is bound but cannot be evaluated: " + err.Err.Error()
}

func (err *BoundError) Unwrap() error {
	return err.Err
}
