package beek

import "fortio.org/log"

// Expand substitutes the bindings of the names in an expression one level
// deep, producing the formula shown for it. Immediate variables and constants
// become their values, lazy variables become their stored expressions with
// their own names left as they are, and calls to user functions become the
// function body with the expanded arguments in place of the parameters.
// Unbound names and calls to native functions remain.
func (env *Env) Expand(e *Expr) *Expr {
	n := e.n.expand(env)
	seen := make(map[string]bool)
	n.vars(seen)
	r := &Expr{n: n, names: make([]string, 0, len(seen))}
	for k := range seen {
		r.names = append(r.names, k)
	}
	sortstrs(r.names)
	log.LogVf("expand %v -> %v", e, r)
	return r
}

func (n *node) expand(env *Env) *node {
	switch n.kind {
	case nodeNum:
		return n
	case nodeName:
		b, ok := env.names[n.name]
		if !ok {
			return n
		}
		switch b.Kind {
		case BindConstant, BindImmediate:
			return &node{kind: nodeNum, num: b.Value}
		case BindLazy:
			// Stored trees are never modified, so sharing is safe.
			return b.Expr.n
		case BindFunction, BindNative:
			// Reduction reports the misuse.
			return n
		default:
			panic("beek: invalid binding kind " + b.Kind.String())
		}
	case nodeCall:
		args := n.args()
		for i, a := range args {
			args[i] = a.expand(env)
		}
		b, ok := env.names[n.name]
		if !ok || b.Kind != BindFunction || len(args) != len(b.Params) {
			return call(n.name, args)
		}
		sub := make(map[string]*node, len(args))
		for i, p := range b.Params {
			sub[p] = args[i]
		}
		return b.Expr.n.subst(sub)
	case nodeNeg, nodeFact:
		return &node{kind: n.kind, left: n.left.expand(env)}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		return &node{kind: n.kind, left: n.left.expand(env), right: n.right.expand(env)}
	default:
		panic("beek: invalid AST node " + n.kind.String())
	}
}

// subst copies a tree, replacing names in sub with their nodes.
func (n *node) subst(sub map[string]*node) *node {
	if n == nil {
		return nil
	}
	if n.kind == nodeName {
		if r, ok := sub[n.name]; ok {
			return r
		}
		return n
	}
	if n.kind == nodeNum {
		return n
	}
	return &node{
		kind:  n.kind,
		name:  n.name,
		num:   n.num,
		left:  n.left.subst(sub),
		right: n.right.subst(sub),
	}
}

// vars adds the variable names in the tree to m.
func (n *node) vars(m map[string]bool) {
	if n == nil {
		return
	}
	if n.kind == nodeName {
		m[n.name] = true
		return
	}
	n.left.vars(m)
	n.right.vars(m)
}
