package beek

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Statement = name ( ":=" | "=" ) Expr | name Params ( ":=" | "=" ) Expr | Expr
// Params = '(' [ name { ',' name } ] ')'
// Expr = num | name | Call | Neg | Fact | Add | Sub | Mul | Div | Mod | Pow | Term | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = name ArgList, with no space before the bracket
// ArgList = '(' [ Expr { ',' Expr } ] ')' | '[' ... ']' | '{' ... '}'
// Neg = '-' Expr
// Fact = Expr '!'
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr | Expr '·' Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Mod = Expr '%' Expr
// Pow = Expr '^' Expr | Expr '**' Expr
// Term = Expr Expr

// Expr is a parsed expression that can be expanded and reduced with an
// environment. An Expr is immutable.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the list of variable names used in the expression.
	names []string
}

// StatementKind is the form of a statement.
type StatementKind int8

const (
	// StmtExpr is a bare expression.
	StmtExpr StatementKind = iota
	// StmtLazy is a lazy assignment, name = expr.
	StmtLazy
	// StmtImmediate is an immediate assignment, name := expr.
	StmtImmediate
	// StmtFunc is a function definition, name(params) = expr or
	// name(params) := expr.
	StmtFunc
)

// Statement is a single parsed statement.
type Statement struct {
	Kind StatementKind
	// Name is the assigned or defined name. It is empty for StmtExpr.
	Name string
	// Params is the list of parameter names for StmtFunc.
	Params []string
	// Expr is the expression, right-hand side, or function body.
	Expr *Expr
}

func (s *Statement) String() string {
	switch s.Kind {
	case StmtExpr:
		return s.Expr.String()
	case StmtLazy:
		return s.Name + " = " + s.Expr.String()
	case StmtImmediate:
		return s.Name + " := " + s.Expr.String()
	case StmtFunc:
		return signature(s.Name, s.Params) + " = " + s.Expr.String()
	default:
		panic("beek: invalid statement kind " + strconv.Itoa(int(s.Kind)))
	}
}

// signature formats a function name with its parameter list.
func signature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// scanner walks a token list. The final token is always EOF, which next
// returns repeatedly once reached.
type scanner struct {
	toks   []lexToken
	i      int
	pushed bool
}

// next scans the next token.
func (s *scanner) next() lexToken {
	s.pushed = false
	if s.i >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	tok := s.toks[s.i]
	s.i++
	return tok
}

// push unreads the last token so that it is the next token returned from
// next.
func (s *scanner) push() {
	if s.pushed {
		panic("beek: double push")
	}
	s.i--
	s.pushed = true
}

// must scans the pushed token. Panics if there is no pushed token.
func (s *scanner) must() lexToken {
	if !s.pushed {
		panic("beek: no pushed token")
	}
	return s.next()
}

// peek returns the token k places after the cursor without scanning it.
func (s *scanner) peek(k int) lexToken {
	if s.i+k >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+k]
}

func newparsectx(opts []ParseOption) parsectx {
	p := parsectx{
		names: make(map[string]bool),
	}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs == nil {
		p.funcs = globalfuncs
	} else if !p.nodefaults {
		// Only set default functions that aren't already set.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
	}
	return p
}

// Parse parses an expression so it can be evaluated with an environment. The
// given options are applied in order. Assignments are not expressions; use
// ParseStatement to parse them.
func Parse(src string, opts ...ParseOption) (*Expr, error) {
	p := newparsectx(opts)
	toks, err := tokenize(src, p.col)
	if err != nil {
		return nil, err
	}
	return parseexpr(&scanner{toks: toks}, &p)
}

// ParseStatement parses an assignment, function definition, or bare
// expression.
func ParseStatement(src string, opts ...ParseOption) (*Statement, error) {
	p := newparsectx(opts)
	toks, err := tokenize(src, p.col)
	if err != nil {
		return nil, err
	}
	scan := &scanner{toks: toks}
	stmt := Statement{Kind: StmtExpr}
	if name := scan.peek(0); name.kind == tokenIdent {
		switch op := scan.peek(1); op.kind {
		case tokenAssign, tokenAssignNow:
			stmt.Kind = StmtLazy
			if op.kind == tokenAssignNow {
				stmt.Kind = StmtImmediate
			}
			stmt.Name = name.text
			scan.i += 2
		case tokenOpen:
			params, k, err := parseparams(scan, name, op)
			if err != nil {
				return nil, err
			}
			if k > 0 {
				stmt.Kind = StmtFunc
				stmt.Name = name.text
				stmt.Params = params
				scan.i += k
			}
		}
	}
	ex, err := parseexpr(scan, &p)
	if err != nil {
		return nil, err
	}
	stmt.Expr = ex
	return &stmt, nil
}

// parseparams checks whether the tokens following a name form a parameter list
// followed by an assignment operator. If they do, the result is the parameters
// and the number of tokens through the assignment operator. If they don't, k
// is zero and the statement is an expression.
func parseparams(scan *scanner, name, open lexToken) (params []string, k int, err error) {
	if open.pos != name.end() {
		return nil, 0, nil
	}
	match := rightbracket(open.text)
	seen := make(map[string]bool)
	k = 2
	if tok := scan.peek(k); tok.kind == tokenClose && tok.text == closebrackets[match] {
		k++
	} else {
		for {
			tok := scan.peek(k)
			if tok.kind != tokenIdent {
				return nil, 0, nil
			}
			if seen[tok.text] {
				err = &ParamError{Col: tok.pos, Func: name.text, Param: tok.text}
			}
			seen[tok.text] = true
			params = append(params, tok.text)
			k++
			tok = scan.peek(k)
			k++
			if tok.kind == tokenClose {
				if tok.text != closebrackets[match] {
					return nil, 0, nil
				}
				break
			}
			if tok.kind != tokenComma {
				return nil, 0, nil
			}
		}
	}
	switch scan.peek(k).kind {
	case tokenAssign, tokenAssignNow:
	default:
		return nil, 0, nil
	}
	// Only report duplicates once we know this is a definition.
	if err != nil {
		return nil, 0, err
	}
	return params, k + 1, nil
}

// parseexpr parses an entire expression which must run to the end of input.
func parseexpr(scan *scanner, p *parsectx) (*Expr, error) {
	n, err := parseterm(scan, p, exprprec)
	if err != nil {
		return nil, err
	}
	tok := scan.must()
	if n == nil {
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	if tok.kind != tokenEOF {
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	ex := Expr{
		n:     n,
		names: make([]string, 0, len(p.names)),
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	sortstrs(ex.names)
	return &ex, nil
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal.
func parseterm(scan *scanner, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok := scan.next()
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen:
			// (parsed) x -> (parsed) * (x)
			// (parsed) x^(expr) -> (parsed) * (x^(expr))
			// (parsed) (expr) -> (parsed) * (expr)
			scan.push()
			if !termprec.moreBinding(until) {
				return n, nil
			}
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenOp:
			// Binary operator.
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push()
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenClose, tokenComma, tokenSemi, tokenEOF, tokenAssign, tokenAssignNow:
			// End of expression.
			scan.push()
			return n, nil
		default:
			panic("beek: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary
// and any encountered token must be valid as the start of a subexpression.
// Postfix factorials are applied here so that they bind to the primary.
func parselhs(scan *scanner, p *parsectx, until operator) (*node, error) {
	tok := scan.next()
	var n *node
	switch tok.kind {
	case tokenNum:
		n = &node{kind: nodeNum, num: parsenum(tok.text)}
	case tokenIdent:
		open := scan.next()
		if open.kind != tokenOpen || open.pos != tok.end() {
			// A name followed by anything else, including a bracket after
			// a space, is a variable.
			scan.push()
			p.names[tok.text] = true
			n = &node{kind: nodeName, name: tok.text}
			break
		}
		args, k, err := parsearglist(scan, p, open)
		if err != nil {
			return nil, err
		}
		if fn := p.funcs[tok.text]; fn != nil && !fn.CanCall(k) {
			return nil, &CallError{Col: open.pos, Func: tok.text, Len: k}
		}
		n = &node{kind: nodeCall, name: tok.text, right: args}
	case tokenOp:
		// unary operator
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		if prec.op == nodeNop {
			return rhs, nil
		}
		return &node{kind: prec.op, left: rhs}, nil
	case tokenOpen:
		match := rightbracket(tok.text)
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = rhs
	case tokenClose:
		// This might be the end of an empty argument list, so just let the
		// caller decide what to do.
		scan.push()
		return nil, nil
	case tokenComma, tokenSemi:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenAssign, tokenAssignNow:
		return nil, &TokenError{Col: tok.pos, Expected: "expression", Found: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("beek: unknown token: " + tok.String())
	}
	for {
		tok := scan.next()
		if tok.kind != tokenOp || tok.text != "!" {
			scan.push()
			return n, nil
		}
		n = &node{kind: nodeFact, left: n}
	}
}

// parsenum converts the text of a number token.
func parsenum(s string) float64 {
	switch s {
	case "inf", "Inf", "∞":
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		panic("beek: invalid number: " + s + " (" + err.Error() + ")")
	}
	return v
}

// parsearglist parses a bracketed list of zero or more args after the open
// bracket has been scanned. It returns the first arg link and the number of
// args.
func parsearglist(scan *scanner, p *parsectx, open lexToken) (*node, int, error) {
	match := rightbracket(open.text)
	var n node
	l := &n
	len := 0
	for {
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			// As a special case, reporting mismatched brackets is more helpful
			// than empty expression, if that's what we'd do here.
			if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open.text}
			}
			return nil, 0, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			if end.text != closebrackets[match] {
				return nil, 0, &BracketError{Col: end.pos, Left: open.text, Right: end.text}
			}
			if rhs == nil {
				// No expression parsed.
				// func() is allowed, but func(a,) isn't.
				if len != 0 {
					return nil, 0, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, 0, nil
			}
			l.right = &node{kind: nodeArg, left: rhs}
			return n.right, len + 1, nil
		case tokenComma:
			if rhs == nil {
				return nil, 0, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			len++
			l.right = &node{kind: nodeArg, left: rhs}
			l = l.right
		case tokenEOF:
			return nil, 0, &BracketError{Col: end.pos, Left: open.text, Right: ""}
		case tokenSemi:
			return nil, 0, &SeparatorError{Col: end.pos, Sep: end.text}
		case tokenAssign, tokenAssignNow:
			return nil, 0, &TokenError{Col: end.pos, Expected: "argument", Found: end.text}
		default:
			panic("beek: parseterm ended on non-end token " + end.String())
		}
	}
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	for i, b := range openbrackets {
		if b == left {
			return i
		}
	}
	panic("beek: invalid bracket " + strconv.Quote(left))
}

var (
	openbrackets  = strings.Split(OpenBrackets, "")
	closebrackets = strings.Split(CloseBrackets, "")
)

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket index that
// the expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenComma, tokenSemi:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenAssign, tokenAssignNow:
		return &TokenError{Col: tok.pos, Expected: "end of expression", Found: tok.text}
	default:
		panic("beek: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the variable names used in the expression.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// String formats the expression in canonical form, with binary
// subexpressions parenthesized.
func (e *Expr) String() string {
	return e.n.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×", "·":
		return operator{3, false, nodeMul}
	case "/", "÷":
		return operator{3, false, nodeDiv}
	case "%":
		return operator{5, false, nodeMod}
	case "^", "**":
		return operator{11, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{9, true, nodeNop}
	case "-":
		return operator{9, true, nodeNeg}
	default:
		return operator{}
	}
}

var (
	// termprec is the precedence of implicit multiplication, which binds
	// more tightly than any explicit multiplicative operator.
	termprec = operator{7, false, nodeMul}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone}
)
