package rca

import (
	"fmt"
	"sort"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// SpecCycle is the cycle flag for one specialization kind. Exists
// distinguishes "exists, not cycled" from "not applicable".
type SpecCycle struct {
	Exists bool
	Cycled bool
}

// CycledCallable reports, per specialization, whether some path of
// functor applications puts that specialization on its own call stack.
// Cycles can only happen within a package, so a local item id is
// enough to identify the callable.
type CycledCallable struct {
	ID    fir.LocalItemID
	Specs [4]SpecCycle // indexed by SpecKind
}

// Cycled reports whether the given specialization is cycled.
func (c *CycledCallable) Cycled(k SpecKind) bool { return c.Specs[k].Cycled }

// DetectCycles walks every non-intrinsic callable of the package and
// returns one entry per callable with at least one cycled
// specialization, ordered by item id.
func DetectCycles(pkgID fir.PackageID, pkg *fir.Package) []*CycledCallable {
	cycled := detectCycledSpecs(pkgID, pkg)

	byCallable := make(map[fir.LocalItemID]*CycledCallable)
	for sel := range cycled {
		info := byCallable[sel.Callable]
		if info == nil {
			info = newCycledCallable(pkg, sel.Callable)
			byCallable[sel.Callable] = info
		}
		kind := sel.Sel.Kind()
		if !info.Specs[kind].Exists {
			panic(fmt.Sprintf("%s specialization was expected to exist", kind))
		}
		info.Specs[kind].Cycled = true
	}

	infos := make([]*CycledCallable, 0, len(byCallable))
	for _, info := range byCallable {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func newCycledCallable(pkg *fir.Package, id fir.LocalItemID) *CycledCallable {
	decl, ok := pkg.Item(id).Kind.(*fir.CallableDecl)
	if !ok {
		panic("item must be a callable")
	}
	impl, ok := decl.Impl.(*fir.SpecImpl)
	if !ok {
		panic("callable must have a specialized implementation")
	}
	info := &CycledCallable{ID: id}
	info.Specs[BodySpec].Exists = true
	info.Specs[AdjSpec].Exists = impl.Adj != nil
	info.Specs[CtlSpec].Exists = impl.Ctl != nil
	info.Specs[CtlAdjSpec].Exists = impl.CtlAdj != nil
	return info
}

// detectCycledSpecs returns the set of specializations that appear on
// their own call stack during traversal.
func detectCycledSpecs(pkgID fir.PackageID, pkg *fir.Package) map[SpecSelector]bool {
	d := &cycleDetector{
		pkgID:    pkgID,
		pkg:      pkg,
		onStack:  make(map[SpecSelector]bool),
		nodeMaps: make(map[SpecSelector]*nodeMap),
		cycled:   make(map[SpecSelector]bool),
	}
	for _, item := range pkg.Items {
		if item != nil {
			d.visitItem(item)
		}
	}
	return d.cycled
}

type cycleDetector struct {
	pkgID fir.PackageID
	pkg   *fir.Package

	// stack and onStack together form the explicit call stack: push
	// before recursing into a specialization, pop after returning.
	stack   []SpecSelector
	onStack map[SpecSelector]bool

	nodeMaps map[SpecSelector]*nodeMap
	cycled   map[SpecSelector]bool
}

func (d *cycleDetector) top() SpecSelector {
	if len(d.stack) == 0 {
		panic("call stack must not be empty")
	}
	return d.stack[len(d.stack)-1]
}

func (d *cycleDetector) push(sel SpecSelector) {
	d.stack = append(d.stack, sel)
	d.onStack[sel] = true
}

func (d *cycleDetector) pop() {
	sel := d.top()
	d.stack = d.stack[:len(d.stack)-1]
	delete(d.onStack, sel)
}

func (d *cycleDetector) visitItem(item *fir.Item) {
	// Only non-intrinsic callables can participate in cycles.
	decl, ok := item.Kind.(*fir.CallableDecl)
	if !ok {
		return
	}
	impl, ok := decl.Impl.(*fir.SpecImpl)
	if !ok {
		return
	}
	d.walkSpec(SpecSelector{Callable: item.ID, Sel: BodySpec.Selector()}, decl, impl.Body)
	if impl.Adj != nil {
		d.walkSpec(SpecSelector{Callable: item.ID, Sel: AdjSpec.Selector()}, decl, impl.Adj)
	}
	if impl.Ctl != nil {
		d.walkSpec(SpecSelector{Callable: item.ID, Sel: CtlSpec.Selector()}, decl, impl.Ctl)
	}
	if impl.CtlAdj != nil {
		d.walkSpec(SpecSelector{Callable: item.ID, Sel: CtlAdjSpec.Selector()}, decl, impl.CtlAdj)
	}
}

func (d *cycleDetector) walkSpec(sel SpecSelector, decl *fir.CallableDecl, spec *fir.SpecDecl) {
	// A specialization already on the stack has a cycle; do not recurse
	// into it again.
	if d.onStack[sel] {
		d.cycled[sel] = true
		return
	}
	if d.nodeMaps[sel] == nil {
		d.nodeMaps[sel] = newNodeMap(specParams(d.pkg, decl, spec))
	}
	d.push(sel)
	d.visitBlock(spec.Block)
	d.pop()
}

func (d *cycleDetector) visitBlock(id fir.BlockID) {
	for _, stmt := range d.pkg.Block(id).Stmts {
		d.visitStmt(stmt)
	}
}

func (d *cycleDetector) visitStmt(id fir.StmtID) {
	switch kind := d.pkg.Stmt(id).Kind.(type) {
	case *fir.ItemStmt:
		// Items are visited at the top level only.
	case *fir.ExprStmt:
		d.visitExpr(kind.Expr)
	case *fir.SemiStmt:
		d.visitExpr(kind.Expr)
	case *fir.LocalStmt:
		d.nodeMaps[d.top()].bindLocal(d.pkg, kind.Pat, kind.Expr)
		d.visitExpr(kind.Expr)
	default:
		panic(fmt.Sprintf("impossible statement: %T", kind))
	}
}

func (d *cycleDetector) visitExpr(id fir.ExprID) {
	switch kind := d.pkg.Expr(id).Kind.(type) {
	case *fir.ArrayExpr:
		for _, e := range kind.Exprs {
			d.visitExpr(e)
		}
	case *fir.ArrayRepeatExpr:
		d.visitExpr(kind.Value)
		d.visitExpr(kind.Size)
	case *fir.AssignExpr:
		d.visitExpr(kind.LHS)
		d.visitExpr(kind.RHS)
	case *fir.AssignOpExpr:
		d.visitExpr(kind.LHS)
		d.visitExpr(kind.RHS)
	case *fir.AssignFieldExpr:
		d.visitExpr(kind.Record)
		d.visitExpr(kind.Value)
	case *fir.AssignIndexExpr:
		d.visitExpr(kind.Array)
		d.visitExpr(kind.Index)
		d.visitExpr(kind.Value)
	case *fir.BinExpr:
		d.visitExpr(kind.LHS)
		d.visitExpr(kind.RHS)
	case *fir.BlockExpr:
		d.visitBlock(kind.Block)
	case *fir.CallExpr:
		d.walkCall(kind.Callee, kind.Args)
	case *fir.FailExpr:
		d.visitExpr(kind.Message)
	case *fir.FieldExpr:
		d.visitExpr(kind.Record)
	case *fir.IfExpr:
		d.visitExpr(kind.Cond)
		d.visitExpr(kind.Then)
		if kind.Else != fir.NoExpr {
			d.visitExpr(kind.Else)
		}
	case *fir.IndexExpr:
		d.visitExpr(kind.Array)
		d.visitExpr(kind.Index)
	case *fir.RangeExpr:
		for _, e := range []fir.ExprID{kind.Start, kind.Step, kind.End} {
			if e != fir.NoExpr {
				d.visitExpr(e)
			}
		}
	case *fir.ReturnExpr:
		d.visitExpr(kind.Expr)
	case *fir.StringExpr:
		for _, c := range kind.Components {
			if c.Expr != fir.NoExpr {
				d.visitExpr(c.Expr)
			}
		}
	case *fir.TupleExpr:
		for _, e := range kind.Exprs {
			d.visitExpr(e)
		}
	case *fir.UnExpr:
		d.visitExpr(kind.Expr)
	case *fir.UpdateFieldExpr:
		d.visitExpr(kind.Record)
		d.visitExpr(kind.Value)
	case *fir.UpdateIndexExpr:
		d.visitExpr(kind.Array)
		d.visitExpr(kind.Index)
		d.visitExpr(kind.Value)
	case *fir.WhileExpr:
		d.visitExpr(kind.Cond)
		d.visitBlock(kind.Block)
	case *fir.ClosureExpr, *fir.HoleExpr, *fir.LitExpr, *fir.VarExpr:
	default:
		panic(fmt.Sprintf("impossible expression: %T", kind))
	}
}

func (d *cycleDetector) walkCall(callee, args fir.ExprID) {
	// Argument evaluation happens inside the caller: a call embedded in
	// the argument list is tested against the current stack first.
	d.visitExpr(args)

	calleePkg, sel, ok := resolveCallee(d.pkgID, d.pkg, d.nodeMaps[d.top()], callee)
	if !ok || calleePkg != d.pkgID {
		// Unresolvable and cross-package callees contribute nothing.
		return
	}
	switch kind := d.pkg.Item(sel.Callable).Kind.(type) {
	case *fir.CallableDecl:
		if impl, ok := kind.Impl.(*fir.SpecImpl); ok {
			d.walkSpec(sel, kind, specDecl(impl, sel.Sel))
		}
	case *fir.Namespace:
		panic("calls to namespaces are invalid")
	case *fir.TyDef:
		// A "call" to a type constructs a value.
	default:
		panic(fmt.Sprintf("impossible item: %T", kind))
	}
}
