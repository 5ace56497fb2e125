package rca

import (
	"fmt"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// Selector picks one of a callable's up to four specializations by the
// functors applied to reach it. The zero value selects the body.
type Selector struct {
	Adjoint    bool
	Controlled bool
}

// WithAdjoint flips the adjoint bit.
func (s Selector) WithAdjoint() Selector {
	return Selector{Adjoint: !s.Adjoint, Controlled: s.Controlled}
}

// WithControlled sets the controlled bit. Once set it stays set no
// matter how many further Controlled applications occur.
func (s Selector) WithControlled() Selector {
	return Selector{Adjoint: s.Adjoint, Controlled: true}
}

// SpecKind names the four specializations.
type SpecKind int

const (
	BodySpec SpecKind = iota
	AdjSpec
	CtlSpec
	CtlAdjSpec
)

func (s Selector) Kind() SpecKind {
	switch {
	case !s.Adjoint && !s.Controlled:
		return BodySpec
	case s.Adjoint && !s.Controlled:
		return AdjSpec
	case !s.Adjoint && s.Controlled:
		return CtlSpec
	default:
		return CtlAdjSpec
	}
}

func (k SpecKind) Selector() Selector {
	switch k {
	case BodySpec:
		return Selector{}
	case AdjSpec:
		return Selector{Adjoint: true}
	case CtlSpec:
		return Selector{Controlled: true}
	case CtlAdjSpec:
		return Selector{Adjoint: true, Controlled: true}
	default:
		panic(fmt.Sprintf("impossible specialization kind: %d", int(k)))
	}
}

func (k SpecKind) String() string {
	switch k {
	case BodySpec:
		return "body"
	case AdjSpec:
		return "adj"
	case CtlSpec:
		return "ctl"
	case CtlAdjSpec:
		return "ctl-adj"
	default:
		panic(fmt.Sprintf("impossible specialization kind: %d", int(k)))
	}
}

// SpecSelector identifies one concrete specialization of one callable.
// It is comparable and used as a graph-node key.
type SpecSelector struct {
	Callable fir.LocalItemID
	Sel      Selector
}

// specDecl returns the declaration the selector picks from impl. A
// selected specialization that does not exist is a contract violation.
func specDecl(impl *fir.SpecImpl, sel Selector) *fir.SpecDecl {
	switch sel.Kind() {
	case BodySpec:
		if impl.Body == nil {
			panic("body specialization must exist")
		}
		return impl.Body
	case AdjSpec:
		if impl.Adj == nil {
			panic("adj specialization must exist")
		}
		return impl.Adj
	case CtlSpec:
		if impl.Ctl == nil {
			panic("ctl specialization must exist")
		}
		return impl.Ctl
	default:
		if impl.CtlAdj == nil {
			panic("ctl-adj specialization must exist")
		}
		return impl.CtlAdj
	}
}

// inputParam is one formal parameter of a specialization, in order.
type inputParam struct {
	index int
	pat   fir.PatID
	node  fir.NodeID // noNode for discards
	ty    fir.Ty
}

const noNode fir.NodeID = -1

// callableParams derives the ordered input parameters from a callable's
// formal pattern: a single binding contributes one parameter, a tuple
// contributes one per element. Any other top-level shape is a contract
// violation.
func callableParams(pkg *fir.Package, decl *fir.CallableDecl) []inputParam {
	pat := pkg.Pat(decl.Input)
	switch kind := pat.Kind.(type) {
	case *fir.BindPat:
		return []inputParam{{index: 0, pat: pat.ID, node: kind.Node, ty: pat.Ty}}
	case *fir.TuplePat:
		params := make([]inputParam, 0, len(kind.Pats))
		for _, elemID := range kind.Pats {
			elem := pkg.Pat(elemID)
			node := noNode
			if bind, ok := elem.Kind.(*fir.BindPat); ok {
				node = bind.Node
			}
			params = append(params, inputParam{
				index: len(params),
				pat:   elem.ID,
				node:  node,
				ty:    elem.Ty,
			})
		}
		return params
	default:
		panic(fmt.Sprintf("unexpected callable input pattern: %T", pat.Kind))
	}
}

// specParams is callableParams plus the specialization's own controls
// parameter, if it has one. The controls parameter comes first.
func specParams(pkg *fir.Package, decl *fir.CallableDecl, spec *fir.SpecDecl) []inputParam {
	params := callableParams(pkg, decl)
	if spec.Input == fir.NoPat {
		return params
	}
	ctls := pkg.Pat(spec.Input)
	bind, ok := ctls.Kind.(*fir.BindPat)
	if !ok {
		panic(fmt.Sprintf("unexpected controls pattern: %T", ctls.Kind))
	}
	all := make([]inputParam, 0, len(params)+1)
	all = append(all, inputParam{index: 0, pat: ctls.ID, node: bind.Node, ty: ctls.Ty})
	for _, p := range params {
		p.index = len(all)
		all = append(all, p)
	}
	return all
}

// nodeMap tracks what each local binding of a specialization stands
// for while that specialization is being walked: an input parameter
// index or the expression it was bound to.
type nodeMap struct {
	params map[fir.NodeID]int
	locals map[fir.NodeID]fir.ExprID
}

func newNodeMap(params []inputParam) *nodeMap {
	m := &nodeMap{
		params: make(map[fir.NodeID]int),
		locals: make(map[fir.NodeID]fir.ExprID),
	}
	for _, p := range params {
		if p.node != noNode {
			m.params[p.node] = p.index
		}
	}
	return m
}

// bindLocal records a pattern bound to an expression. Tuple patterns
// destructure matching tuple literals element-wise; other shapes are
// not tracked, so the affected locals cannot later resolve as callees.
func (m *nodeMap) bindLocal(pkg *fir.Package, patID fir.PatID, exprID fir.ExprID) {
	pat := pkg.Pat(patID)
	switch kind := pat.Kind.(type) {
	case *fir.BindPat:
		m.locals[kind.Node] = exprID
	case *fir.TuplePat:
		expr := pkg.Expr(exprID)
		if tuple, ok := expr.Kind.(*fir.TupleExpr); ok {
			for i, elemPat := range kind.Pats {
				if i < len(tuple.Exprs) {
					m.bindLocal(pkg, elemPat, tuple.Exprs[i])
				}
			}
		}
	case *fir.DiscardPat:
	}
}

// resolveCallee resolves a callee expression to a concrete callable
// specialization and the package it lives in. Expression shapes that
// would require evaluation report ok=false: the call is invisible to
// the analysis, a loss of precision rather than an error.
func resolveCallee(pkgID fir.PackageID, pkg *fir.Package, nodes *nodeMap, exprID fir.ExprID) (fir.PackageID, SpecSelector, bool) {
	expr := pkg.Expr(exprID)
	switch kind := expr.Kind.(type) {
	case *fir.BlockExpr:
		// A block callee resolves through its tail expression.
		block := pkg.Block(kind.Block)
		if len(block.Stmts) == 0 {
			return 0, SpecSelector{}, false
		}
		last := pkg.Stmt(block.Stmts[len(block.Stmts)-1])
		tail, ok := last.Kind.(*fir.ExprStmt)
		if !ok {
			return 0, SpecSelector{}, false
		}
		return resolveCallee(pkgID, pkg, nodes, tail.Expr)
	case *fir.ClosureExpr:
		return pkgID, SpecSelector{Callable: kind.Callable}, true
	case *fir.UnExpr:
		if kind.Op != fir.FunctorAdj && kind.Op != fir.FunctorCtl {
			panic("unary operator on a callee expression must be a functor")
		}
		calleePkg, callee, ok := resolveCallee(pkgID, pkg, nodes, kind.Expr)
		if !ok {
			return 0, SpecSelector{}, false
		}
		if kind.Op == fir.FunctorAdj {
			callee.Sel = callee.Sel.WithAdjoint()
		} else {
			callee.Sel = callee.Sel.WithControlled()
		}
		return calleePkg, callee, true
	case *fir.VarExpr:
		switch res := kind.Res.(type) {
		case *fir.ItemRes:
			target := res.Item.Package
			if target == fir.NoPackage {
				target = pkgID
			}
			return target, SpecSelector{Callable: res.Item.Item}, true
		case *fir.LocalRes:
			if _, ok := nodes.params[res.Node]; ok {
				// An input parameter callee cannot be determined
				// statically.
				return 0, SpecSelector{}, false
			}
			bound, ok := nodes.locals[res.Node]
			if !ok {
				panic("cannot determine callee from resolution")
			}
			return resolveCallee(pkgID, pkg, nodes, bound)
		default:
			panic(fmt.Sprintf("impossible resolution: %T", kind.Res))
		}
	default:
		// More complex callee expressions would require evaluation.
		return 0, SpecSelector{}, false
	}
}
