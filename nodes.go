package beek

import (
	"math"
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. Nodes are
// never modified after parsing; expansion builds new trees.
type node struct {
	kind nodeKind

	name string
	num  float64

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // num
	nodeName // lookup(name)

	nodeCall // name is the function to call, right is link to nodeArg unless niladic
	nodeArg  // left is the argument, right is link to next arg

	nodeNeg  // negate left
	nodeFact // factorial of left
	nodeAdd  // left + right
	nodeSub  // left - right
	nodeMul  // left * right
	nodeDiv  // left / right
	nodeMod  // left % right, truncated
	nodePow  // left ^ right
	nodeNop  // unary plus; only used while parsing
)

func (k nodeKind) String() string {
	switch k {
	case nodeNone:
		return "None"
	case nodeNum:
		return "Num"
	case nodeName:
		return "Name"
	case nodeCall:
		return "Call"
	case nodeArg:
		return "Arg"
	case nodeNeg:
		return "Neg"
	case nodeFact:
		return "Fact"
	case nodeAdd:
		return "Add"
	case nodeSub:
		return "Sub"
	case nodeMul:
		return "Mul"
	case nodeDiv:
		return "Div"
	case nodeMod:
		return "Mod"
	case nodePow:
		return "Pow"
	case nodeNop:
		return "Nop"
	default:
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// binary reports whether the node is a binary operation.
func (n *node) binary() bool {
	switch n.kind {
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		return true
	}
	return false
}

// unary reports whether the node is a unary operation.
func (n *node) unary() bool {
	return n.kind == nodeNeg || n.kind == nodeFact
}

// signed reports whether the node renders with a leading minus sign.
func (n *node) signed() bool {
	return n.kind == nodeNeg || n.kind == nodeNum && math.Signbit(n.num) && !math.IsNaN(n.num)
}

// args collects the argument nodes of a call.
func (n *node) args() []*node {
	var v []*node
	for l := n.right; l != nil; l = l.right {
		v = append(v, l.left)
	}
	return v
}

// call creates a call node from a list of arguments.
func call(name string, args []*node) *node {
	n := &node{kind: nodeCall, name: name}
	l := n
	for _, a := range args {
		l.right = &node{kind: nodeArg, left: a}
		l = l.right
	}
	return n
}

// opsym gives the rendered symbol for a binary node kind.
func opsym(k nodeKind) string {
	switch k {
	case nodeAdd:
		return "+"
	case nodeSub:
		return "-"
	case nodeMul:
		return "×"
	case nodeDiv:
		return "/"
	case nodeMod:
		return "%"
	case nodePow:
		return "^"
	default:
		panic("beek: no symbol for node kind " + k.String())
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

// fmt writes the canonical form of the node. Binary operands that are
// themselves binary operations are parenthesized, so the result parses back
// to the same tree.
func (n *node) fmt(b *strings.Builder) {
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$#$")
	case nodeNum:
		b.WriteString(FormatNumber(n.num))
	case nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		b.WriteByte('(')
		for l := n.right; l != nil; l = l.right {
			if l != n.right {
				b.WriteString(", ")
			}
			l.left.fmt(b)
		}
		b.WriteByte(')')
	case nodeArg:
		// Args only appear inside calls.
		b.WriteString("$:")
		n.left.fmt(b)
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmtsub(b, n.left.unary() || n.left.binary() || n.left.signed())
	case nodeFact:
		n.left.fmtsub(b, n.left.unary() || n.left.binary() || n.left.signed())
		b.WriteByte('!')
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		// -x^y would read back as -(x^y).
		n.left.fmtsub(b, n.left.binary() || n.kind == nodePow && n.left.signed())
		b.WriteByte(' ')
		b.WriteString(opsym(n.kind))
		b.WriteByte(' ')
		n.right.fmtsub(b, n.right.binary())
	default:
		panic("beek: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) fmtsub(b *strings.Builder, paren bool) {
	if !paren {
		n.fmt(b)
		return
	}
	b.WriteByte('(')
	n.fmt(b)
	b.WriteByte(')')
}

// refs reports whether the tree references any name other than through a
// native function call, i.e. whether reducing it needs more than arithmetic.
func (n *node) refs(env *Env) bool {
	if n == nil {
		return false
	}
	switch n.kind {
	case nodeName:
		return true
	case nodeCall:
		if b, ok := env.Lookup(n.name); !ok || b.Kind != BindNative {
			return true
		}
	}
	return n.left.refs(env) || n.right.refs(env)
}

// FormatNumber renders a value the way results are displayed. Integers and
// moderately sized values are written without an exponent.
func FormatNumber(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "∞"
	case math.IsInf(x, -1):
		return "-∞"
	}
	a := math.Abs(x)
	if a == 0 || a >= 1e-5 && a < 1e21 {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
