// Package firyaml decodes a FIR package store from a YAML document.
// It exists so fixtures and debugging tools can build a store without
// the upstream lowering passes; it is not part of the analysis
// contract. The expressible grammar covers the expression forms the
// analysis distinguishes; compound-assignment and copy-update forms
// are spelled as plain assignments.
package firyaml

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// Load reads and decodes the YAML document at path.
func Load(path string) (*fir.PackageStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	store, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return store, nil
}

// Decode decodes a package store from YAML.
func Decode(r io.Reader) (*fir.PackageStore, error) {
	var doc storeDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	store := &fir.PackageStore{}
	for i, pkgDoc := range doc.Packages {
		pkg, err := buildPackage(&pkgDoc)
		if err != nil {
			return nil, fmt.Errorf("package %d: %v", i, err)
		}
		store.Packages = append(store.Packages, pkg)
	}
	return store, nil
}

type storeDoc struct {
	Packages []packageDoc `yaml:"packages"`
}

type packageDoc struct {
	Items  []itemDoc  `yaml:"items"`
	Blocks []blockDoc `yaml:"blocks"`
	Stmts  []stmtDoc  `yaml:"stmts"`
	Exprs  []exprDoc  `yaml:"exprs"`
	Pats   []patDoc   `yaml:"pats"`
}

type itemDoc struct {
	ID        int          `yaml:"id"`
	Namespace string       `yaml:"namespace,omitempty"`
	TyDef     string       `yaml:"tydef,omitempty"`
	Callable  *callableDoc `yaml:"callable,omitempty"`
}

type callableDoc struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Input     int      `yaml:"input"`
	Output    *tyDoc   `yaml:"output"`
	Intrinsic bool     `yaml:"intrinsic,omitempty"`
	Body      *specDoc `yaml:"body,omitempty"`
	Adj       *specDoc `yaml:"adj,omitempty"`
	Ctl       *specDoc `yaml:"ctl,omitempty"`
	CtlAdj    *specDoc `yaml:"ctl_adj,omitempty"`
}

type specDoc struct {
	Block int  `yaml:"block"`
	Input *int `yaml:"input,omitempty"`
}

type tyDoc struct {
	Prim  string    `yaml:"prim,omitempty"`
	Array *tyDoc    `yaml:"array,omitempty"`
	Arrow *arrowDoc `yaml:"arrow,omitempty"`
	Tuple *[]tyDoc  `yaml:"tuple,omitempty"`
	Udt   string    `yaml:"udt,omitempty"`
	Unit  bool      `yaml:"unit,omitempty"`
}

type arrowDoc struct {
	Kind   string `yaml:"kind"`
	Input  *tyDoc `yaml:"input"`
	Output *tyDoc `yaml:"output"`
}

type blockDoc struct {
	ID    int    `yaml:"id"`
	Ty    *tyDoc `yaml:"ty,omitempty"`
	Stmts []int  `yaml:"stmts"`
}

type stmtDoc struct {
	ID    int       `yaml:"id"`
	Expr  *int      `yaml:"expr,omitempty"`
	Semi  *int      `yaml:"semi,omitempty"`
	Local *localDoc `yaml:"local,omitempty"`
	Item  *int      `yaml:"item,omitempty"`
}

type localDoc struct {
	Pat  int `yaml:"pat"`
	Expr int `yaml:"expr"`
}

type exprDoc struct {
	ID      int         `yaml:"id"`
	Ty      *tyDoc      `yaml:"ty,omitempty"`
	Lit     *string     `yaml:"lit,omitempty"`
	Var     *varDoc     `yaml:"var,omitempty"`
	Call    *callDoc    `yaml:"call,omitempty"`
	UnOp    *unOpDoc    `yaml:"unop,omitempty"`
	BinOp   *binOpDoc   `yaml:"binop,omitempty"`
	Tuple   *[]int      `yaml:"tuple,omitempty"`
	Array   *[]int      `yaml:"array,omitempty"`
	Repeat  *repeatDoc  `yaml:"repeat,omitempty"`
	If      *ifDoc      `yaml:"if,omitempty"`
	Block   *int        `yaml:"block,omitempty"`
	While   *whileDoc   `yaml:"while,omitempty"`
	Return  *int        `yaml:"return,omitempty"`
	Assign  *assignDoc  `yaml:"assign,omitempty"`
	Index   *indexDoc   `yaml:"index,omitempty"`
	Field   *fieldDoc   `yaml:"field,omitempty"`
	Fail    *int        `yaml:"fail,omitempty"`
	Range   *rangeDoc   `yaml:"range,omitempty"`
	String  *[]partDoc  `yaml:"string,omitempty"`
	Closure *closureDoc `yaml:"closure,omitempty"`
	Hole    bool        `yaml:"hole,omitempty"`
}

type varDoc struct {
	Local *int     `yaml:"local,omitempty"`
	Item  *itemRef `yaml:"item,omitempty"`
}

type itemRef struct {
	Package *int `yaml:"package,omitempty"`
	Item    int  `yaml:"item"`
}

type callDoc struct {
	Callee int `yaml:"callee"`
	Args   int `yaml:"args"`
}

type unOpDoc struct {
	Op   string `yaml:"op"`
	Expr int    `yaml:"expr"`
}

type binOpDoc struct {
	Op  string `yaml:"op"`
	LHS int    `yaml:"lhs"`
	RHS int    `yaml:"rhs"`
}

type repeatDoc struct {
	Value int `yaml:"value"`
	Size  int `yaml:"size"`
}

type ifDoc struct {
	Cond int  `yaml:"cond"`
	Then int  `yaml:"then"`
	Else *int `yaml:"else,omitempty"`
}

type whileDoc struct {
	Cond  int `yaml:"cond"`
	Block int `yaml:"block"`
}

type assignDoc struct {
	LHS int `yaml:"lhs"`
	RHS int `yaml:"rhs"`
}

type indexDoc struct {
	Array int `yaml:"array"`
	Index int `yaml:"index"`
}

type fieldDoc struct {
	Record int    `yaml:"record"`
	Name   string `yaml:"name"`
}

type rangeDoc struct {
	Start *int `yaml:"start,omitempty"`
	Step  *int `yaml:"step,omitempty"`
	End   *int `yaml:"end,omitempty"`
}

type partDoc struct {
	Lit  string `yaml:"lit,omitempty"`
	Expr *int   `yaml:"expr,omitempty"`
}

type closureDoc struct {
	Callable int   `yaml:"callable"`
	Captures []int `yaml:"captures,omitempty"`
}

type patDoc struct {
	ID      int      `yaml:"id"`
	Ty      *tyDoc   `yaml:"ty,omitempty"`
	Bind    *bindDoc `yaml:"bind,omitempty"`
	Tuple   *[]int   `yaml:"tuple,omitempty"`
	Discard bool     `yaml:"discard,omitempty"`
}

type bindDoc struct {
	Name string `yaml:"name"`
	Node int    `yaml:"node"`
}

func buildPackage(doc *packageDoc) (*fir.Package, error) {
	pkg := &fir.Package{}
	for i := range doc.Items {
		item, err := buildItem(&doc.Items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %v", doc.Items[i].ID, err)
		}
		placeItem(pkg, item)
	}
	for i := range doc.Blocks {
		d := &doc.Blocks[i]
		ty, err := buildOptTy(d.Ty)
		if err != nil {
			return nil, fmt.Errorf("block %d: %v", d.ID, err)
		}
		block := &fir.Block{ID: fir.BlockID(d.ID), Ty: ty}
		for _, s := range d.Stmts {
			block.Stmts = append(block.Stmts, fir.StmtID(s))
		}
		for len(pkg.Blocks) <= d.ID {
			pkg.Blocks = append(pkg.Blocks, nil)
		}
		pkg.Blocks[d.ID] = block
	}
	for i := range doc.Stmts {
		stmt, err := buildStmt(&doc.Stmts[i])
		if err != nil {
			return nil, fmt.Errorf("stmt %d: %v", doc.Stmts[i].ID, err)
		}
		for len(pkg.Stmts) <= int(stmt.ID) {
			pkg.Stmts = append(pkg.Stmts, nil)
		}
		pkg.Stmts[stmt.ID] = stmt
	}
	for i := range doc.Exprs {
		expr, err := buildExpr(&doc.Exprs[i])
		if err != nil {
			return nil, fmt.Errorf("expr %d: %v", doc.Exprs[i].ID, err)
		}
		for len(pkg.Exprs) <= int(expr.ID) {
			pkg.Exprs = append(pkg.Exprs, nil)
		}
		pkg.Exprs[expr.ID] = expr
	}
	for i := range doc.Pats {
		pat, err := buildPat(&doc.Pats[i])
		if err != nil {
			return nil, fmt.Errorf("pat %d: %v", doc.Pats[i].ID, err)
		}
		for len(pkg.Pats) <= int(pat.ID) {
			pkg.Pats = append(pkg.Pats, nil)
		}
		pkg.Pats[pat.ID] = pat
	}
	return pkg, nil
}

func placeItem(pkg *fir.Package, item *fir.Item) {
	for len(pkg.Items) <= int(item.ID) {
		pkg.Items = append(pkg.Items, nil)
	}
	pkg.Items[item.ID] = item
}

func buildItem(doc *itemDoc) (*fir.Item, error) {
	item := &fir.Item{ID: fir.LocalItemID(doc.ID)}
	switch {
	case doc.Namespace != "":
		item.Kind = &fir.Namespace{Name: doc.Namespace}
	case doc.TyDef != "":
		item.Kind = &fir.TyDef{Name: doc.TyDef}
	case doc.Callable != nil:
		decl, err := buildCallable(doc.Callable)
		if err != nil {
			return nil, err
		}
		item.Kind = decl
	default:
		return nil, fmt.Errorf("item must be a namespace, tydef, or callable")
	}
	return item, nil
}

func buildCallable(doc *callableDoc) (*fir.CallableDecl, error) {
	decl := &fir.CallableDecl{
		Name:  doc.Name,
		Input: fir.PatID(doc.Input),
	}
	switch doc.Kind {
	case "function":
		decl.Kind = fir.Function
	case "operation":
		decl.Kind = fir.Operation
	default:
		return nil, fmt.Errorf("unknown callable kind %q", doc.Kind)
	}
	output, err := buildOptTy(doc.Output)
	if err != nil {
		return nil, err
	}
	decl.Output = output
	if doc.Intrinsic {
		if doc.Body != nil || doc.Adj != nil || doc.Ctl != nil || doc.CtlAdj != nil {
			return nil, fmt.Errorf("intrinsic callable must not have specializations")
		}
		decl.Impl = &fir.Intrinsic{}
		return decl, nil
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("non-intrinsic callable must have a body")
	}
	decl.Impl = &fir.SpecImpl{
		Body:   buildSpec(doc.Body),
		Adj:    buildOptSpec(doc.Adj),
		Ctl:    buildOptSpec(doc.Ctl),
		CtlAdj: buildOptSpec(doc.CtlAdj),
	}
	return decl, nil
}

func buildSpec(doc *specDoc) *fir.SpecDecl {
	spec := &fir.SpecDecl{Block: fir.BlockID(doc.Block), Input: fir.NoPat}
	if doc.Input != nil {
		spec.Input = fir.PatID(*doc.Input)
	}
	return spec
}

func buildOptSpec(doc *specDoc) *fir.SpecDecl {
	if doc == nil {
		return nil
	}
	return buildSpec(doc)
}

func buildStmt(doc *stmtDoc) (*fir.Stmt, error) {
	stmt := &fir.Stmt{ID: fir.StmtID(doc.ID)}
	switch {
	case doc.Expr != nil:
		stmt.Kind = &fir.ExprStmt{Expr: fir.ExprID(*doc.Expr)}
	case doc.Semi != nil:
		stmt.Kind = &fir.SemiStmt{Expr: fir.ExprID(*doc.Semi)}
	case doc.Local != nil:
		stmt.Kind = &fir.LocalStmt{
			Pat:  fir.PatID(doc.Local.Pat),
			Expr: fir.ExprID(doc.Local.Expr),
		}
	case doc.Item != nil:
		stmt.Kind = &fir.ItemStmt{Item: fir.LocalItemID(*doc.Item)}
	default:
		return nil, fmt.Errorf("statement must have a kind")
	}
	return stmt, nil
}

func buildExpr(doc *exprDoc) (*fir.Expr, error) {
	expr := &fir.Expr{ID: fir.ExprID(doc.ID)}
	ty, err := buildOptTy(doc.Ty)
	if err != nil {
		return nil, err
	}
	expr.Ty = ty
	switch {
	case doc.Lit != nil:
		expr.Kind = &fir.LitExpr{Value: *doc.Lit}
	case doc.Var != nil:
		res, err := buildRes(doc.Var)
		if err != nil {
			return nil, err
		}
		expr.Kind = &fir.VarExpr{Res: res}
	case doc.Call != nil:
		expr.Kind = &fir.CallExpr{
			Callee: fir.ExprID(doc.Call.Callee),
			Args:   fir.ExprID(doc.Call.Args),
		}
	case doc.UnOp != nil:
		op, err := buildUnOp(doc.UnOp.Op)
		if err != nil {
			return nil, err
		}
		expr.Kind = &fir.UnExpr{Op: op, Expr: fir.ExprID(doc.UnOp.Expr)}
	case doc.BinOp != nil:
		op, err := buildBinOp(doc.BinOp.Op)
		if err != nil {
			return nil, err
		}
		expr.Kind = &fir.BinExpr{
			Op:  op,
			LHS: fir.ExprID(doc.BinOp.LHS),
			RHS: fir.ExprID(doc.BinOp.RHS),
		}
	case doc.Tuple != nil:
		expr.Kind = &fir.TupleExpr{Exprs: exprIDs(*doc.Tuple)}
	case doc.Array != nil:
		expr.Kind = &fir.ArrayExpr{Exprs: exprIDs(*doc.Array)}
	case doc.Repeat != nil:
		expr.Kind = &fir.ArrayRepeatExpr{
			Value: fir.ExprID(doc.Repeat.Value),
			Size:  fir.ExprID(doc.Repeat.Size),
		}
	case doc.If != nil:
		kind := &fir.IfExpr{
			Cond: fir.ExprID(doc.If.Cond),
			Then: fir.ExprID(doc.If.Then),
			Else: fir.NoExpr,
		}
		if doc.If.Else != nil {
			kind.Else = fir.ExprID(*doc.If.Else)
		}
		expr.Kind = kind
	case doc.Block != nil:
		expr.Kind = &fir.BlockExpr{Block: fir.BlockID(*doc.Block)}
	case doc.While != nil:
		expr.Kind = &fir.WhileExpr{
			Cond:  fir.ExprID(doc.While.Cond),
			Block: fir.BlockID(doc.While.Block),
		}
	case doc.Return != nil:
		expr.Kind = &fir.ReturnExpr{Expr: fir.ExprID(*doc.Return)}
	case doc.Assign != nil:
		expr.Kind = &fir.AssignExpr{
			LHS: fir.ExprID(doc.Assign.LHS),
			RHS: fir.ExprID(doc.Assign.RHS),
		}
	case doc.Index != nil:
		expr.Kind = &fir.IndexExpr{
			Array: fir.ExprID(doc.Index.Array),
			Index: fir.ExprID(doc.Index.Index),
		}
	case doc.Field != nil:
		expr.Kind = &fir.FieldExpr{
			Record: fir.ExprID(doc.Field.Record),
			Field:  doc.Field.Name,
		}
	case doc.Fail != nil:
		expr.Kind = &fir.FailExpr{Message: fir.ExprID(*doc.Fail)}
	case doc.Range != nil:
		kind := &fir.RangeExpr{Start: fir.NoExpr, Step: fir.NoExpr, End: fir.NoExpr}
		if doc.Range.Start != nil {
			kind.Start = fir.ExprID(*doc.Range.Start)
		}
		if doc.Range.Step != nil {
			kind.Step = fir.ExprID(*doc.Range.Step)
		}
		if doc.Range.End != nil {
			kind.End = fir.ExprID(*doc.Range.End)
		}
		expr.Kind = kind
	case doc.String != nil:
		kind := &fir.StringExpr{}
		for _, part := range *doc.String {
			c := fir.StringComponent{Lit: part.Lit, Expr: fir.NoExpr}
			if part.Expr != nil {
				c.Expr = fir.ExprID(*part.Expr)
			}
			kind.Components = append(kind.Components, c)
		}
		expr.Kind = kind
	case doc.Closure != nil:
		kind := &fir.ClosureExpr{Callable: fir.LocalItemID(doc.Closure.Callable)}
		for _, n := range doc.Closure.Captures {
			kind.Captures = append(kind.Captures, fir.NodeID(n))
		}
		expr.Kind = kind
	case doc.Hole:
		expr.Kind = &fir.HoleExpr{}
	default:
		return nil, fmt.Errorf("expression must have a kind")
	}
	return expr, nil
}

func exprIDs(ids []int) []fir.ExprID {
	out := make([]fir.ExprID, len(ids))
	for i, id := range ids {
		out[i] = fir.ExprID(id)
	}
	return out
}

func buildRes(doc *varDoc) (fir.Res, error) {
	switch {
	case doc.Local != nil:
		return &fir.LocalRes{Node: fir.NodeID(*doc.Local)}, nil
	case doc.Item != nil:
		id := fir.ItemID{Package: fir.NoPackage, Item: fir.LocalItemID(doc.Item.Item)}
		if doc.Item.Package != nil {
			id.Package = fir.PackageID(*doc.Item.Package)
		}
		return &fir.ItemRes{Item: id}, nil
	default:
		return nil, fmt.Errorf("variable must reference a local or an item")
	}
}

func buildUnOp(name string) (fir.UnOp, error) {
	switch name {
	case "adjoint":
		return fir.FunctorAdj, nil
	case "controlled":
		return fir.FunctorCtl, nil
	case "neg":
		return fir.Neg, nil
	case "pos":
		return fir.Pos, nil
	case "not":
		return fir.NotL, nil
	case "bnot":
		return fir.NotB, nil
	case "unwrap":
		return fir.Unwrap, nil
	default:
		return 0, fmt.Errorf("unknown unary operator %q", name)
	}
}

func buildBinOp(name string) (fir.BinOp, error) {
	ops := map[string]fir.BinOp{
		"add": fir.Add, "sub": fir.Sub, "mul": fir.Mul, "div": fir.Div,
		"mod": fir.Mod, "exp": fir.Exp, "band": fir.AndB, "bor": fir.OrB,
		"bxor": fir.XorB, "shl": fir.Shl, "shr": fir.Shr, "and": fir.AndL,
		"or": fir.OrL, "eq": fir.Eq, "neq": fir.Neq, "gt": fir.Gt,
		"gte": fir.Gte, "lt": fir.Lt, "lte": fir.Lte,
	}
	op, ok := ops[name]
	if !ok {
		return 0, fmt.Errorf("unknown binary operator %q", name)
	}
	return op, nil
}

func buildPat(doc *patDoc) (*fir.Pat, error) {
	pat := &fir.Pat{ID: fir.PatID(doc.ID)}
	ty, err := buildOptTy(doc.Ty)
	if err != nil {
		return nil, err
	}
	pat.Ty = ty
	switch {
	case doc.Bind != nil:
		pat.Kind = &fir.BindPat{Name: doc.Bind.Name, Node: fir.NodeID(doc.Bind.Node)}
	case doc.Tuple != nil:
		kind := &fir.TuplePat{}
		for _, p := range *doc.Tuple {
			kind.Pats = append(kind.Pats, fir.PatID(p))
		}
		pat.Kind = kind
	case doc.Discard:
		pat.Kind = &fir.DiscardPat{}
	default:
		return nil, fmt.Errorf("pattern must have a kind")
	}
	return pat, nil
}

func buildOptTy(doc *tyDoc) (fir.Ty, error) {
	if doc == nil {
		return fir.UnitTy(), nil
	}
	return buildTy(doc)
}

func buildTy(doc *tyDoc) (fir.Ty, error) {
	switch {
	case doc.Prim != "":
		return buildPrim(doc.Prim)
	case doc.Array != nil:
		elem, err := buildTy(doc.Array)
		if err != nil {
			return nil, err
		}
		return &fir.ArrayTy{Elem: elem}, nil
	case doc.Arrow != nil:
		input, err := buildOptTy(doc.Arrow.Input)
		if err != nil {
			return nil, err
		}
		output, err := buildOptTy(doc.Arrow.Output)
		if err != nil {
			return nil, err
		}
		kind := fir.Function
		switch doc.Arrow.Kind {
		case "function", "":
		case "operation":
			kind = fir.Operation
		default:
			return nil, fmt.Errorf("unknown arrow kind %q", doc.Arrow.Kind)
		}
		return &fir.ArrowTy{Kind: kind, Input: input, Output: output}, nil
	case doc.Tuple != nil:
		tuple := &fir.TupleTy{}
		for i := range *doc.Tuple {
			item, err := buildTy(&(*doc.Tuple)[i])
			if err != nil {
				return nil, err
			}
			tuple.Items = append(tuple.Items, item)
		}
		return tuple, nil
	case doc.Udt != "":
		return &fir.UdtTy{Name: doc.Udt}, nil
	case doc.Unit:
		return fir.UnitTy(), nil
	default:
		return nil, fmt.Errorf("type must have a shape")
	}
}

func buildPrim(name string) (fir.Ty, error) {
	prims := map[string]fir.Prim{
		"bigint": fir.BigInt, "bool": fir.Bool, "double": fir.Double,
		"int": fir.Int, "pauli": fir.Pauli, "qubit": fir.Qubit,
		"range": fir.Range, "rangefrom": fir.RangeFrom,
		"rangeto": fir.RangeTo, "rangefull": fir.RangeFull,
		"result": fir.Result, "string": fir.StringTy,
	}
	prim, ok := prims[name]
	if !ok {
		return nil, fmt.Errorf("unknown primitive type %q", name)
	}
	return prim, nil
}
