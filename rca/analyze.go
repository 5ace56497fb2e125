package rca

import (
	"fmt"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// ItemProps is the analysis result for one item: NonCallableProps for
// namespaces and type declarations, CallableProps for callables.
type ItemProps interface {
	isItemProps()
}

type NonCallableProps struct{}

// CallableProps holds one applications table per specialization the
// callable has. Absent specializations are nil.
type CallableProps struct {
	Body   *AppsTable
	Adj    *AppsTable
	Ctl    *AppsTable
	CtlAdj *AppsTable
}

func (*NonCallableProps) isItemProps() {}
func (*CallableProps) isItemProps()    {}

// Spec returns the table for the given specialization kind, or nil if
// the callable does not have it.
func (c *CallableProps) Spec(k SpecKind) *AppsTable {
	switch k {
	case BodySpec:
		return c.Body
	case AdjSpec:
		return c.Adj
	case CtlSpec:
		return c.Ctl
	case CtlAdjSpec:
		return c.CtlAdj
	default:
		panic(fmt.Sprintf("impossible specialization kind: %d", int(k)))
	}
}

// PatProps classifies a pattern: a callable input parameter or a
// local binding.
type PatProps interface {
	isPatProps()
}

type LocalPat struct{}

type ParamPat struct {
	Item  fir.ItemID
	Index int
}

func (*LocalPat) isPatProps() {}
func (*ParamPat) isPatProps() {}

// PackageProps is the per-package analysis result: item tables plus
// the finer-grained application-dependent detail retained for blocks,
// statements, and patterns.
type PackageProps struct {
	Items  map[fir.LocalItemID]ItemProps
	Blocks map[fir.BlockID]*AppsTable
	Stmts  map[fir.StmtID]*AppsTable
	Exprs  map[fir.ExprID]*AppsTable
	Pats   map[fir.PatID]PatProps
	Cycles []*CycledCallable
}

func newPackageProps() *PackageProps {
	return &PackageProps{
		Items:  make(map[fir.LocalItemID]ItemProps),
		Blocks: make(map[fir.BlockID]*AppsTable),
		Stmts:  make(map[fir.StmtID]*AppsTable),
		Exprs:  make(map[fir.ExprID]*AppsTable),
		Pats:   make(map[fir.PatID]PatProps),
	}
}

// Store is the queryable result of one analysis run. It is built once
// and only read afterwards.
type Store struct {
	packages map[fir.PackageID]*PackageProps
}

func (s *Store) HasItem(pkgID fir.PackageID, itemID fir.LocalItemID) bool {
	pkg, ok := s.packages[pkgID]
	if !ok {
		return false
	}
	_, ok = pkg.Items[itemID]
	return ok
}

// Item returns the analysis result for the given item. The item must
// have been analyzed.
func (s *Store) Item(pkgID fir.PackageID, itemID fir.LocalItemID) ItemProps {
	pkg, ok := s.packages[pkgID]
	if !ok {
		panic(fmt.Sprintf("no analysis results for package %d", pkgID))
	}
	props, ok := pkg.Items[itemID]
	if !ok {
		panic(fmt.Sprintf("no analysis results for item %d in package %d", itemID, pkgID))
	}
	return props
}

// Package returns the per-package results, or nil if the package was
// not part of the analyzed store.
func (s *Store) Package(pkgID fir.PackageID) *PackageProps {
	return s.packages[pkgID]
}

// globalSpec keys a specialization across the whole package store.
type globalSpec struct {
	pkg fir.PackageID
	sel SpecSelector
}

// Analyze runs cycle detection and compute-properties propagation over
// every package of the store and returns the accumulated results.
// Every item is analyzed at most once.
func Analyze(store *fir.PackageStore) *Store {
	a := &analyzer{
		store:  store,
		props:  &Store{packages: make(map[fir.PackageID]*PackageProps)},
		tables: make(map[globalSpec]*AppsTable),
	}
	for pkgID, pkg := range store.Packages {
		if pkg == nil {
			continue
		}
		id := fir.PackageID(pkgID)
		a.packageProps(id).Cycles = DetectCycles(id, pkg)
	}
	for pkgID, pkg := range store.Packages {
		if pkg == nil {
			continue
		}
		id := fir.PackageID(pkgID)
		for _, item := range pkg.Items {
			if item != nil && !a.props.HasItem(id, item.ID) {
				a.analyzeItem(id, item)
			}
		}
	}
	return a.props
}

type analyzer struct {
	store *fir.PackageStore
	props *Store

	// tables memoizes one applications table per specialization. A
	// table is registered before its block is evaluated, so evaluation
	// that re-enters a cycled specialization reads the partially
	// accumulated entries instead of recursing. Capability sets only
	// grow and are bounded, so a single pass is enough.
	tables map[globalSpec]*AppsTable
}

func (a *analyzer) packageProps(pkgID fir.PackageID) *PackageProps {
	props, ok := a.props.packages[pkgID]
	if !ok {
		props = newPackageProps()
		a.props.packages[pkgID] = props
	}
	return props
}

func (a *analyzer) analyzeItem(pkgID fir.PackageID, item *fir.Item) {
	props := a.packageProps(pkgID)
	switch kind := item.Kind.(type) {
	case *fir.Namespace, *fir.TyDef:
		props.Items[item.ID] = &NonCallableProps{}
	case *fir.CallableDecl:
		props.Items[item.ID] = a.analyzeCallable(pkgID, item.ID, kind)
	default:
		panic(fmt.Sprintf("impossible item: %T", kind))
	}
}

func (a *analyzer) analyzeCallable(pkgID fir.PackageID, itemID fir.LocalItemID, decl *fir.CallableDecl) *CallableProps {
	switch impl := decl.Impl.(type) {
	case *fir.Intrinsic:
		return &CallableProps{
			Body: a.specTable(pkgID, SpecSelector{Callable: itemID}),
		}
	case *fir.SpecImpl:
		props := &CallableProps{
			Body: a.specTable(pkgID, SpecSelector{Callable: itemID, Sel: BodySpec.Selector()}),
		}
		if impl.Adj != nil {
			props.Adj = a.specTable(pkgID, SpecSelector{Callable: itemID, Sel: AdjSpec.Selector()})
		}
		if impl.Ctl != nil {
			props.Ctl = a.specTable(pkgID, SpecSelector{Callable: itemID, Sel: CtlSpec.Selector()})
		}
		if impl.CtlAdj != nil {
			props.CtlAdj = a.specTable(pkgID, SpecSelector{Callable: itemID, Sel: CtlAdjSpec.Selector()})
		}
		return props
	default:
		panic(fmt.Sprintf("impossible callable implementation: %T", impl))
	}
}

// specTable returns the applications table for one specialization,
// computing and memoizing it on first use. During evaluation of a
// cycled specialization the registered table is partial; callers read
// whatever has been accumulated so far.
func (a *analyzer) specTable(pkgID fir.PackageID, sel SpecSelector) *AppsTable {
	gs := globalSpec{pkg: pkgID, sel: sel}
	if tbl, ok := a.tables[gs]; ok {
		return tbl
	}
	pkg := a.store.Package(pkgID)
	decl, ok := pkg.Item(sel.Callable).Kind.(*fir.CallableDecl)
	if !ok {
		panic("item must be a callable")
	}
	switch impl := decl.Impl.(type) {
	case *fir.Intrinsic:
		// Intrinsic callables have no per-functor bodies; every
		// selector shares the body table.
		body := globalSpec{pkg: pkgID, sel: SpecSelector{Callable: sel.Callable}}
		tbl, ok := a.tables[body]
		if !ok {
			tbl = a.intrinsicTable(pkgID, pkg, sel.Callable, decl)
			a.tables[body] = tbl
		}
		a.tables[gs] = tbl
		return tbl
	case *fir.SpecImpl:
		return a.evalSpec(pkgID, pkg, sel, decl, specDecl(impl, sel.Sel))
	default:
		panic(fmt.Sprintf("impossible callable implementation: %T", impl))
	}
}

// intrinsicTable builds the table of an intrinsic callable directly
// from the foundational mapping: one entry per combination of dynamic
// parameters.
func (a *analyzer) intrinsicTable(pkgID fir.PackageID, pkg *fir.Package, itemID fir.LocalItemID, decl *fir.CallableDecl) *AppsTable {
	params := callableParams(pkg, decl)
	a.recordParams(pkgID, itemID, decl, params)
	tbl := NewAppsTable(len(params))
	for idx := AppIdx(0); int(idx) < tbl.Len(); idx++ {
		*tbl.App(idx) = intrinsicApp(decl, params, idx)
	}
	return tbl
}

func intrinsicApp(decl *fir.CallableDecl, params []inputParam, idx AppIdx) ComputeProps {
	var props ComputeProps
	for i, p := range params {
		if !idx.ParamDynamic(i) {
			continue
		}
		props.Caps = props.Caps.Union(TypeCaps(p.ty))
		if containsQubit(p.ty) {
			props.UsesDynamicQubit = true
		}
	}
	// Handling a dynamic input also means handling a dynamic output
	// from this call.
	if idx != 0 {
		props.Caps = props.Caps.Union(TypeCaps(decl.Output))
	}
	switch decl.Kind {
	case fir.Function:
		// A function evaluated on static inputs folds away; otherwise
		// a non-unit result comes from intrinsic evaluation.
		if idx != 0 && !fir.IsUnit(decl.Output) {
			props.addSource(IntrinsicSource)
		}
	case fir.Operation:
		// An operation with a classical result sources quantumness in
		// every application: operations model physical actions, and a
		// qubit-only result carries no classical value.
		if classicalOutput(decl.Output) {
			props.addSource(IntrinsicSource)
			// The output alone forces its capabilities even in the
			// fully-static application, except for Result, which
			// measurement produces natively.
			if idx == 0 && decl.Output != fir.Result {
				props.Caps = props.Caps.Union(TypeCaps(decl.Output))
			}
		}
	default:
		panic(fmt.Sprintf("impossible callable kind: %d", int(decl.Kind)))
	}
	return props
}

func classicalOutput(t fir.Ty) bool {
	return !fir.IsUnit(t) && !qubitOnly(t)
}

// evalSpec builds the table of a non-intrinsic specialization by
// abstractly evaluating its block once per application.
func (a *analyzer) evalSpec(pkgID fir.PackageID, pkg *fir.Package, sel SpecSelector, decl *fir.CallableDecl, spec *fir.SpecDecl) *AppsTable {
	params := specParams(pkg, decl, spec)
	a.recordParams(pkgID, sel.Callable, decl, params)
	tbl := NewAppsTable(len(params))
	// Register before evaluating so re-entry through a cycle reads the
	// partial table.
	a.tables[globalSpec{pkg: pkgID, sel: sel}] = tbl
	for idx := AppIdx(0); int(idx) < tbl.Len(); idx++ {
		ev := &evaluator{
			a:     a,
			pkgID: pkgID,
			pkg:   pkg,
			idx:   idx,
			acc:   tbl.App(idx),
			nodes: newNodeMap(params),
			vars:  make(map[fir.NodeID]value),
		}
		for i, p := range params {
			if p.node != noNode {
				ev.vars[p.node] = value{dynamic: idx.ParamDynamic(i)}
			}
		}
		ev.evalBlock(spec.Block)
		ev.record(idx, tbl.ParamCount)
	}
	return tbl
}

func (a *analyzer) recordParams(pkgID fir.PackageID, itemID fir.LocalItemID, decl *fir.CallableDecl, params []inputParam) {
	props := a.packageProps(pkgID)
	props.Pats[decl.Input] = &LocalPat{}
	for _, p := range params {
		props.Pats[p.pat] = &ParamPat{
			Item:  fir.ItemID{Package: pkgID, Item: itemID},
			Index: p.index,
		}
	}
}

// value is the abstract result of evaluating one expression under one
// application: its compute properties plus whether the value itself is
// dynamic (derived, transitively, from a dynamic parameter or a
// quantum source).
type value struct {
	props   ComputeProps
	dynamic bool
}

func (v value) merge(o value) value {
	v.props.merge(o.props)
	v.dynamic = v.dynamic || o.dynamic
	return v
}

type evaluator struct {
	a     *analyzer
	pkgID fir.PackageID
	pkg   *fir.Package
	idx   AppIdx
	acc   *ComputeProps

	nodes *nodeMap
	vars  map[fir.NodeID]value

	blockProps map[fir.BlockID]ComputeProps
	stmtProps  map[fir.StmtID]ComputeProps
	exprProps  map[fir.ExprID]ComputeProps
}

// record merges the per-block and per-statement detail gathered during
// one application into the package-level tables.
func (ev *evaluator) record(idx AppIdx, paramCount int) {
	props := ev.a.packageProps(ev.pkgID)
	for id, p := range ev.blockProps {
		tbl := props.Blocks[id]
		if tbl == nil {
			tbl = NewAppsTable(paramCount)
			props.Blocks[id] = tbl
		}
		tbl.App(idx).merge(p)
	}
	for id, p := range ev.stmtProps {
		tbl := props.Stmts[id]
		if tbl == nil {
			tbl = NewAppsTable(paramCount)
			props.Stmts[id] = tbl
		}
		tbl.App(idx).merge(p)
	}
	for id, p := range ev.exprProps {
		tbl := props.Exprs[id]
		if tbl == nil {
			tbl = NewAppsTable(paramCount)
			props.Exprs[id] = tbl
		}
		tbl.App(idx).merge(p)
	}
}

func (ev *evaluator) evalBlock(id fir.BlockID) value {
	var all ComputeProps
	var last value
	var lastIsExpr bool
	for _, stmtID := range ev.pkg.Block(id).Stmts {
		v := ev.evalStmt(stmtID)
		all.merge(v.props)
		_, lastIsExpr = ev.pkg.Stmt(stmtID).Kind.(*fir.ExprStmt)
		last = v
	}
	if ev.blockProps == nil {
		ev.blockProps = make(map[fir.BlockID]ComputeProps)
	}
	p := ev.blockProps[id]
	p.merge(all)
	ev.blockProps[id] = p
	if lastIsExpr {
		// The block's value is its tail expression.
		return last
	}
	return value{}
}

func (ev *evaluator) evalStmt(id fir.StmtID) value {
	var v value
	switch kind := ev.pkg.Stmt(id).Kind.(type) {
	case *fir.ItemStmt:
		// Items are analyzed at the top level only.
	case *fir.ExprStmt:
		v = ev.evalExpr(kind.Expr)
	case *fir.SemiStmt:
		v = ev.evalExpr(kind.Expr)
	case *fir.LocalStmt:
		bound := ev.evalExpr(kind.Expr)
		ev.nodes.bindLocal(ev.pkg, kind.Pat, kind.Expr)
		ev.bindVars(kind.Pat, bound)
		props := ev.a.packageProps(ev.pkgID)
		if _, ok := props.Pats[kind.Pat]; !ok {
			props.Pats[kind.Pat] = &LocalPat{}
		}
		v = value{props: bound.props}
	default:
		panic(fmt.Sprintf("impossible statement: %T", kind))
	}
	if ev.stmtProps == nil {
		ev.stmtProps = make(map[fir.StmtID]ComputeProps)
	}
	p := ev.stmtProps[id]
	p.merge(v.props)
	ev.stmtProps[id] = p
	return v
}

// bindVars gives every binding introduced by the pattern the dynamism
// of the bound expression. Tuple destructuring is deliberately coarse:
// each element inherits the whole value.
func (ev *evaluator) bindVars(patID fir.PatID, v value) {
	pat := ev.pkg.Pat(patID)
	switch kind := pat.Kind.(type) {
	case *fir.BindPat:
		ev.vars[kind.Node] = v
	case *fir.TuplePat:
		for _, elem := range kind.Pats {
			ev.bindVars(elem, v)
		}
	case *fir.DiscardPat:
	default:
		panic(fmt.Sprintf("impossible pattern: %T", kind))
	}
}

// touch is the foundational contribution of a dynamic sub-expression:
// the operation touching it needs the capabilities of its type.
func (ev *evaluator) touch(id fir.ExprID, v value) value {
	if v.dynamic {
		v.props.Caps = v.props.Caps.Union(TypeCaps(ev.pkg.Expr(id).Ty))
		if containsQubit(ev.pkg.Expr(id).Ty) {
			v.props.UsesDynamicQubit = true
		}
	}
	return v
}

// combine evaluates sub-expressions and merges their values, adding
// the foundational capabilities of every dynamic one.
func (ev *evaluator) combine(ids ...fir.ExprID) value {
	var v value
	for _, id := range ids {
		if id == fir.NoExpr {
			continue
		}
		v = v.merge(ev.touch(id, ev.evalExpr(id)))
	}
	return v
}

func (ev *evaluator) evalExpr(id fir.ExprID) value {
	var v value
	switch kind := ev.pkg.Expr(id).Kind.(type) {
	case *fir.ArrayExpr:
		v = ev.combine(kind.Exprs...)
	case *fir.ArrayRepeatExpr:
		v = ev.combine(kind.Value, kind.Size)
	case *fir.AssignExpr:
		rhs := ev.combine(kind.RHS)
		ev.assignLocals(kind.LHS, rhs)
		v = value{props: rhs.props}
	case *fir.AssignOpExpr:
		rhs := ev.combine(kind.LHS, kind.RHS)
		ev.assignLocals(kind.LHS, rhs)
		v = value{props: rhs.props}
	case *fir.AssignFieldExpr:
		rhs := ev.combine(kind.Record, kind.Value)
		ev.assignLocals(kind.Record, rhs)
		v = value{props: rhs.props}
	case *fir.AssignIndexExpr:
		rhs := ev.combine(kind.Array, kind.Index, kind.Value)
		ev.assignLocals(kind.Array, rhs)
		v = value{props: rhs.props}
	case *fir.BinExpr:
		v = ev.combine(kind.LHS, kind.RHS)
	case *fir.BlockExpr:
		v = ev.evalBlock(kind.Block)
	case *fir.CallExpr:
		v = ev.evalCall(kind.Callee, kind.Args)
	case *fir.FailExpr:
		msg := ev.combine(kind.Message)
		v = value{props: msg.props}
	case *fir.FieldExpr:
		v = ev.combine(kind.Record)
	case *fir.IfExpr:
		v = ev.combine(kind.Cond, kind.Then, kind.Else)
	case *fir.IndexExpr:
		v = ev.combine(kind.Array, kind.Index)
	case *fir.RangeExpr:
		v = ev.combine(kind.Start, kind.Step, kind.End)
	case *fir.ReturnExpr:
		inner := ev.combine(kind.Expr)
		v = value{props: inner.props}
	case *fir.StringExpr:
		for _, c := range kind.Components {
			if c.Expr != fir.NoExpr {
				v = v.merge(ev.touch(c.Expr, ev.evalExpr(c.Expr)))
			}
		}
	case *fir.TupleExpr:
		v = ev.combine(kind.Exprs...)
	case *fir.UnExpr:
		if kind.Op == fir.FunctorAdj || kind.Op == fir.FunctorCtl {
			// A functor application is a compile-time value.
			v = value{}
		} else {
			v = ev.combine(kind.Expr)
		}
	case *fir.UpdateFieldExpr:
		v = ev.combine(kind.Record, kind.Value)
	case *fir.UpdateIndexExpr:
		v = ev.combine(kind.Array, kind.Index, kind.Value)
	case *fir.VarExpr:
		v = ev.evalVar(kind.Res)
	case *fir.WhileExpr:
		cond := ev.touch(kind.Cond, ev.evalExpr(kind.Cond))
		body := ev.evalBlock(kind.Block)
		v = value{props: cond.merge(body).props}
	case *fir.ClosureExpr, *fir.HoleExpr, *fir.LitExpr:
		v = value{}
	default:
		panic(fmt.Sprintf("impossible expression: %T", kind))
	}
	ev.acc.merge(v.props)
	if ev.exprProps == nil {
		ev.exprProps = make(map[fir.ExprID]ComputeProps)
	}
	p := ev.exprProps[id]
	p.merge(v.props)
	ev.exprProps[id] = p
	return v
}

func (ev *evaluator) evalVar(res fir.Res) value {
	switch res := res.(type) {
	case *fir.ItemRes:
		// A reference to a top-level item is a compile-time value.
		return value{}
	case *fir.LocalRes:
		v, ok := ev.vars[res.Node]
		if !ok {
			panic(fmt.Sprintf("no binding for local node %d", res.Node))
		}
		return v
	default:
		panic(fmt.Sprintf("impossible resolution: %T", res))
	}
}

// assignLocals makes every local referenced on the left-hand side of
// an assignment at least as dynamic as the assigned value.
func (ev *evaluator) assignLocals(lhs fir.ExprID, v value) {
	switch kind := ev.pkg.Expr(lhs).Kind.(type) {
	case *fir.VarExpr:
		if res, ok := kind.Res.(*fir.LocalRes); ok {
			ev.vars[res.Node] = ev.vars[res.Node].merge(v)
		}
	case *fir.TupleExpr:
		for _, e := range kind.Exprs {
			ev.assignLocals(e, v)
		}
	case *fir.IndexExpr:
		ev.assignLocals(kind.Array, v)
	case *fir.FieldExpr:
		ev.assignLocals(kind.Record, v)
	}
}

func (ev *evaluator) evalCall(callee, args fir.ExprID) value {
	// Arguments are evaluated inside the caller; their dynamism picks
	// the application of the callee.
	var argVals []value
	var all value
	if tuple, ok := ev.pkg.Expr(args).Kind.(*fir.TupleExpr); ok {
		argVals = make([]value, len(tuple.Exprs))
		for i, e := range tuple.Exprs {
			argVals[i] = ev.touch(e, ev.evalExpr(e))
			all = all.merge(argVals[i])
		}
	} else {
		v := ev.touch(args, ev.evalExpr(args))
		argVals = []value{v}
		all = v
	}

	calleePkg, sel, ok := resolveCallee(ev.pkgID, ev.pkg, ev.nodes, callee)
	if !ok {
		// The callee cannot be determined statically; its contribution
		// is simply omitted.
		return value{props: all.props, dynamic: all.dynamic}
	}
	switch ev.a.store.Package(calleePkg).Item(sel.Callable).Kind.(type) {
	case *fir.CallableDecl:
	case *fir.Namespace:
		panic("calls to namespaces are invalid")
	case *fir.TyDef:
		// Constructing a user-defined type from a dynamic argument
		// needs the constructed type's capabilities.
		v := value{props: all.props, dynamic: all.dynamic}
		if v.dynamic {
			v.props.Caps = v.props.Caps.Union(TypeCaps(ev.pkg.Expr(args).Ty))
			v.props.Caps = v.props.Caps.Union(NewCapSet(HigherLevelConstructs))
		}
		ev.acc.merge(v.props)
		return v
	}

	tbl := ev.a.specTable(calleePkg, sel)
	calleeIdx := AppIdx(0)
	for i, arg := range argVals {
		if arg.dynamic || arg.props.IsQuantumSource() {
			calleeIdx |= 1 << i
		}
	}
	// The callee's own table bounds the index: extra dynamism beyond
	// its parameter count (functor arity mismatches) is masked off.
	calleeIdx &= AppIdx(tbl.Len() - 1)
	entry := *tbl.App(calleeIdx)

	v := value{props: all.props, dynamic: all.dynamic}
	v.props.merge(entry)
	if entry.Kind() == Dynamic || entry.IsQuantumSource() {
		v.dynamic = true
	}
	ev.acc.merge(v.props)
	return v
}
