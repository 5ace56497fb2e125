package rca

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

var diffOpts = cmp.Options{cmp.AllowUnexported(AppsTable{})}

// callableTable runs the analysis over the builder's package and
// returns the requested specialization table of the given item.
func callableTable(t *testing.T, b *pkgBuilder, item fir.LocalItemID, kind SpecKind) *AppsTable {
	t.Helper()
	props, ok := Analyze(b.store()).Item(0, item).(*CallableProps)
	if !ok {
		t.Fatalf("item %d is not a callable", item)
	}
	tbl := props.Spec(kind)
	if tbl == nil {
		t.Fatalf("item %d has no %s specialization", item, kind)
	}
	return tbl
}

func TestIntrinsicAllocationIsStatic(t *testing.T) {
	b := newPkgBuilder()
	alloc := b.intrinsic("__quantum__rt__qubit_allocate", fir.Operation, b.unitInput(), fir.Qubit)

	tbl := callableTable(t, b, alloc, BodySpec)
	want := NewAppsTable(0)
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestIntrinsicReleaseFlagsDynamicQubit(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("q", fir.Qubit)
	release := b.intrinsic("__quantum__rt__qubit_release", fir.Operation, input, fir.UnitTy())

	tbl := callableTable(t, b, release, BodySpec)
	want := NewAppsTable(1)
	want.App(1).UsesDynamicQubit = true
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
	// A dynamic qubit on its own forces no capability.
	if tbl.App(1).Kind() != Static {
		t.Errorf("release of a dynamic qubit has kind %s, want Static", tbl.App(1).Kind())
	}
}

func TestIntrinsicMeasurement(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("q", fir.Qubit)
	m := b.intrinsic("__quantum__qis__m__body", fir.Operation, input, fir.Result)

	tbl := callableTable(t, b, m, BodySpec)
	want := NewAppsTable(1)
	// Measurement sources quantumness even on a static qubit. Result is
	// what measurement produces natively, so the inherent application
	// needs no capability for it.
	want.App(0).Sources = []QuantumSource{IntrinsicSource}
	*want.App(1) = ComputeProps{
		Caps:             NewCapSet(ConditionalForwardBranching),
		Sources:          []QuantumSource{IntrinsicSource},
		UsesDynamicQubit: true,
	}
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestIntrinsicBoolOutputOperation(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("q", fir.Qubit)
	check := b.intrinsic("CheckZero", fir.Operation, input, fir.Bool)

	tbl := callableTable(t, b, check, BodySpec)
	want := NewAppsTable(1)
	// Unlike Result, a Bool output needs branching support even in the
	// inherent application.
	*want.App(0) = ComputeProps{
		Caps:    NewCapSet(ConditionalForwardBranching),
		Sources: []QuantumSource{IntrinsicSource},
	}
	*want.App(1) = ComputeProps{
		Caps:             NewCapSet(ConditionalForwardBranching),
		Sources:          []QuantumSource{IntrinsicSource},
		UsesDynamicQubit: true,
	}
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestIntrinsicFunction(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("i", fir.Int)
	conv := b.intrinsic("IntAsDouble", fir.Function, input, fir.Double)

	tbl := callableTable(t, b, conv, BodySpec)
	want := NewAppsTable(1)
	// Static inputs fold at compile time: no capabilities, no source.
	*want.App(1) = ComputeProps{
		Caps:    NewCapSet(IntegerComputations, FloatingPointComputation),
		Sources: []QuantumSource{IntrinsicSource},
	}
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestIntrinsicFunctionArrayParam(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("xs", &fir.ArrayTy{Elem: fir.Int})
	length := b.intrinsic("Length", fir.Function, input, fir.Int)

	tbl := callableTable(t, b, length, BodySpec)
	want := NewAppsTable(1)
	*want.App(1) = ComputeProps{
		Caps:    NewCapSet(IntegerComputations, HigherLevelConstructs),
		Sources: []QuantumSource{IntrinsicSource},
	}
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestBodyPropagatesParamUse(t *testing.T) {
	b := newPkgBuilder()
	input, x := b.bind("x", fir.Int)
	product := b.expr(fir.Int, &fir.BinExpr{
		Op:  fir.Mul,
		LHS: b.localVar(fir.Int, x),
		RHS: b.localVar(fir.Int, x),
	})
	block := b.block(fir.Int, b.stmt(&fir.ExprStmt{Expr: product}))
	square := b.callable("Square", fir.Function, input, fir.Int, bodyOnly(block))

	tbl := callableTable(t, b, square, BodySpec)
	want := NewAppsTable(1)
	want.App(1).Caps = NewCapSet(IntegerComputations)
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

func TestCallPicksCalleeApplication(t *testing.T) {
	b := newPkgBuilder()
	convInput, _ := b.bind("i", fir.Int)
	conv := b.intrinsic("IntAsDouble", fir.Function, convInput, fir.Double)

	arrow := &fir.ArrowTy{Kind: fir.Function, Input: fir.Int, Output: fir.Double}
	callerInput, x := b.bind("x", fir.Int)
	call := b.call(fir.Double, b.itemVar(arrow, conv), b.localVar(fir.Int, x))
	block := b.block(fir.Double, b.stmt(&fir.ExprStmt{Expr: call}))
	caller := b.callable("AsDouble", fir.Function, callerInput, fir.Double, bodyOnly(block))

	tbl := callableTable(t, b, caller, BodySpec)
	want := NewAppsTable(1)
	// A static argument selects the callee's inherent application, which
	// is empty; a dynamic one selects the dynamic entry.
	*want.App(1) = ComputeProps{
		Caps:    NewCapSet(IntegerComputations, FloatingPointComputation),
		Sources: []QuantumSource{IntrinsicSource},
	}
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

// A caller that allocates and measures carries the measurement's
// source in its inherent application, with no parameter involved.
func TestMeasurementInherentSource(t *testing.T) {
	b := newPkgBuilder()
	mInput, _ := b.bind("q", fir.Qubit)
	m := b.intrinsic("M", fir.Operation, mInput, fir.Result)
	allocate := b.intrinsic("Allocate", fir.Operation, b.unitInput(), fir.Qubit)

	qArrow := &fir.ArrowTy{Kind: fir.Operation, Input: fir.UnitTy(), Output: fir.Qubit}
	mArrow := &fir.ArrowTy{Kind: fir.Operation, Input: fir.Qubit, Output: fir.Result}

	qPat, qNode := b.bind("q", fir.Qubit)
	allocCall := b.call(fir.Qubit, b.itemVar(qArrow, allocate), b.unitExpr())
	let := b.stmt(&fir.LocalStmt{Pat: qPat, Expr: allocCall})
	measure := b.call(fir.Result, b.itemVar(mArrow, m), b.localVar(fir.Qubit, qNode))
	block := b.block(fir.Result, let, b.stmt(&fir.ExprStmt{Expr: measure}))
	main := b.callable("Main", fir.Operation, b.unitInput(), fir.Result, bodyOnly(block))

	tbl := callableTable(t, b, main, BodySpec)
	// Even the inherent application measures. The result is returned
	// without being branched on, so the source surfaces but no
	// capability does.
	got := tbl.App(0)
	if !got.IsQuantumSource() {
		t.Error("inherent application is not a quantum source, want Intrinsic")
	}
	if !got.Caps.Empty() {
		t.Errorf("inherent capabilities are %s, want none", got.Caps)
	}
}

// A value produced by a quantum source is dynamic: branching on it
// later requires forward branching even though every parameter is
// static.
func TestSourceDrivenBranching(t *testing.T) {
	b := newPkgBuilder()
	checkInput, _ := b.bind("q", fir.Qubit)
	check := b.intrinsic("CheckZero", fir.Operation, checkInput, fir.Bool)
	alloc := b.intrinsic("Allocate", fir.Operation, b.unitInput(), fir.Qubit)

	qArrow := &fir.ArrowTy{Kind: fir.Operation, Input: fir.UnitTy(), Output: fir.Qubit}
	checkArrow := &fir.ArrowTy{Kind: fir.Operation, Input: fir.Qubit, Output: fir.Bool}

	qPat, qNode := b.bind("q", fir.Qubit)
	allocCall := b.call(fir.Qubit, b.itemVar(qArrow, alloc), b.unitExpr())
	letQ := b.stmt(&fir.LocalStmt{Pat: qPat, Expr: allocCall})

	rPat, rNode := b.bind("isZero", fir.Bool)
	checkCall := b.call(fir.Bool, b.itemVar(checkArrow, check), b.localVar(fir.Qubit, qNode))
	letR := b.stmt(&fir.LocalStmt{Pat: rPat, Expr: checkCall})

	one := b.lit(fir.Int, "1")
	two := b.lit(fir.Int, "2")
	branch := b.expr(fir.Int, &fir.IfExpr{
		Cond: b.localVar(fir.Bool, rNode),
		Then: one,
		Else: two,
	})
	block := b.block(fir.Int, letQ, letR, b.stmt(&fir.ExprStmt{Expr: branch}))
	main := b.callable("Main", fir.Operation, b.unitInput(), fir.Int, bodyOnly(block))

	tbl := callableTable(t, b, main, BodySpec)
	got := tbl.App(0)
	if !got.Caps.Contains(ConditionalForwardBranching) {
		t.Errorf("inherent capabilities are %s, want ConditionalForwardBranching", got.Caps)
	}
	if !got.IsQuantumSource() {
		t.Error("inherent application is not a quantum source, want Intrinsic")
	}
}

func TestDynamicIfCondition(t *testing.T) {
	b := newPkgBuilder()
	input, cond := b.bind("cond", fir.Bool)
	one := b.lit(fir.Int, "1")
	two := b.lit(fir.Int, "2")
	ifExpr := b.expr(fir.Int, &fir.IfExpr{
		Cond: b.localVar(fir.Bool, cond),
		Then: one,
		Else: two,
	})
	block := b.block(fir.Int, b.stmt(&fir.ExprStmt{Expr: ifExpr}))
	pick := b.callable("Pick", fir.Function, input, fir.Int, bodyOnly(block))

	tbl := callableTable(t, b, pick, BodySpec)
	want := NewAppsTable(1)
	// Branching on the condition is the only dynamic act; the literal
	// branches themselves stay static.
	want.App(1).Caps = NewCapSet(ConditionalForwardBranching)
	if diff := cmp.Diff(want, tbl, diffOpts); diff != "" {
		t.Error(diff)
	}
}

// A self-recursive callable still gets a table: re-entry reads the
// partially accumulated entries instead of recursing forever.
func TestRecursiveCallableTerminates(t *testing.T) {
	b := newPkgBuilder()
	arrow := &fir.ArrowTy{Kind: fir.Function, Input: fir.Int, Output: fir.UnitTy()}
	input, n := b.bind("n", fir.Int)
	call := b.call(fir.UnitTy(), b.itemVar(arrow, 0), b.localVar(fir.Int, n))
	block := b.block(fir.UnitTy(), b.stmt(&fir.SemiStmt{Expr: call}))
	countdown := b.callable("Countdown", fir.Function, input, fir.UnitTy(), bodyOnly(block))

	store := Analyze(b.store())
	tbl := store.Item(0, countdown).(*CallableProps).Body
	if tbl.ParamCount != 1 {
		t.Fatalf("table has %d parameters, want 1", tbl.ParamCount)
	}
	if !tbl.App(1).Caps.Contains(IntegerComputations) {
		t.Errorf("dynamic application capabilities are %s, want IntegerComputations", tbl.App(1).Caps)
	}
	cycles := store.Package(0).Cycles
	if len(cycles) != 1 || !cycles[0].Cycled(BodySpec) {
		t.Errorf("got cycles %v, want Countdown's body cycled", cycles)
	}
}

func TestNonCallableItems(t *testing.T) {
	b := newPkgBuilder()
	ns := b.item(&fir.Namespace{Name: "Microsoft.Quantum.Core"})
	udt := b.item(&fir.TyDef{Name: "Complex"})

	store := Analyze(b.store())
	for _, id := range []fir.LocalItemID{ns, udt} {
		if _, ok := store.Item(0, id).(*NonCallableProps); !ok {
			t.Errorf("item %d is %T, want NonCallableProps", id, store.Item(0, id))
		}
	}
}

func TestUnresolvableCalleeLosesPrecision(t *testing.T) {
	b := newPkgBuilder()
	arrow := &fir.ArrowTy{Kind: fir.Function, Input: fir.Int, Output: fir.Int}
	fPat, fNode := b.bind("f", arrow)
	xPat, xNode := b.bind("x", fir.Int)
	input := b.pat(&fir.TupleTy{Items: []fir.Ty{arrow, fir.Int}}, &fir.TuplePat{Pats: []fir.PatID{fPat, xPat}})
	call := b.call(fir.Int, b.localVar(arrow, fNode), b.localVar(fir.Int, xNode))
	block := b.block(fir.Int, b.stmt(&fir.ExprStmt{Expr: call}))
	apply := b.callable("Apply", fir.Function, input, fir.Int, bodyOnly(block))

	tbl := callableTable(t, b, apply, BodySpec)
	if tbl.ParamCount != 2 {
		t.Fatalf("table has %d parameters, want 2", tbl.ParamCount)
	}
	// The unknown callee contributes nothing; only the dynamic argument
	// itself surfaces.
	if got := tbl.App(2).Caps; got != NewCapSet(IntegerComputations) {
		t.Errorf("capabilities with dynamic x are %s, want {IntegerComputations}", got)
	}
	if tbl.App(2).IsQuantumSource() {
		t.Error("unknown callee must not introduce a quantum source")
	}
}

func TestControlledSpecializationAddsControlsParam(t *testing.T) {
	b := newPkgBuilder()
	input, _ := b.bind("q", fir.Qubit)
	bodyBlock := b.block(fir.UnitTy())
	ctlBlock := b.block(fir.UnitTy())
	ctls, _ := b.bind("ctls", &fir.ArrayTy{Elem: fir.Qubit})
	op := b.callable("Gate", fir.Operation, input, fir.UnitTy(), &fir.SpecImpl{
		Body: &fir.SpecDecl{Block: bodyBlock, Input: fir.NoPat},
		Ctl:  &fir.SpecDecl{Block: ctlBlock, Input: ctls},
	})

	props := Analyze(b.store()).Item(0, op).(*CallableProps)
	if props.Body.ParamCount != 1 {
		t.Errorf("body has %d parameters, want 1", props.Body.ParamCount)
	}
	if props.Ctl.ParamCount != 2 {
		t.Errorf("ctl has %d parameters, want 2", props.Ctl.ParamCount)
	}
	if props.Adj != nil || props.CtlAdj != nil {
		t.Error("absent specializations must have no table")
	}
}

// Analysis retains application-dependent detail for the elements of an
// analyzed body, not just the callable-level table.
func TestPerElementDetail(t *testing.T) {
	b := newPkgBuilder()
	input, x := b.bind("x", fir.Int)
	use := b.localVar(fir.Int, x)
	stmt := b.stmt(&fir.ExprStmt{Expr: use})
	block := b.block(fir.Int, stmt)
	b.callable("Id", fir.Function, input, fir.Int, bodyOnly(block))

	props := Analyze(b.store()).Package(0)

	blockTbl := props.Blocks[block]
	if blockTbl == nil || blockTbl.ParamCount != 1 {
		t.Fatalf("block table is %v, want a 1-parameter table", blockTbl)
	}
	if got := blockTbl.App(0).Kind(); got != Static {
		t.Errorf("block inherent kind is %s, want Static", got)
	}

	stmtTbl := props.Stmts[stmt]
	if stmtTbl == nil {
		t.Fatal("no table retained for the body statement")
	}
	exprTbl := props.Exprs[use]
	if exprTbl == nil {
		t.Fatal("no table retained for the parameter use")
	}

	if got, ok := props.Pats[input].(*ParamPat); !ok || got.Index != 0 {
		t.Errorf("input pattern classified as %T %v, want parameter 0", props.Pats[input], props.Pats[input])
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	build := func() *pkgBuilder {
		b := newPkgBuilder()
		mInput, _ := b.bind("q", fir.Qubit)
		b.intrinsic("M", fir.Operation, mInput, fir.Result)
		convInput, _ := b.bind("i", fir.Int)
		b.intrinsic("IntAsDouble", fir.Function, convInput, fir.Double)
		return b
	}
	first := Analyze(build().store()).String()
	for i := 0; i < 10; i++ {
		if got := Analyze(build().store()).String(); got != first {
			t.Fatalf("run %d differs:\ngot:\n%s\nwant:\n%s", i, got, first)
		}
	}
}
