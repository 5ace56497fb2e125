package rca

import "github.com/johnnyboystargaze031/qsharp/fir"

// pkgBuilder appends FIR nodes to a package's arenas, handing back the
// ids so tests can wire small programs together by hand.
type pkgBuilder struct {
	pkg      *fir.Package
	nextNode fir.NodeID
}

func newPkgBuilder() *pkgBuilder { return &pkgBuilder{pkg: &fir.Package{}} }

func (b *pkgBuilder) store() *fir.PackageStore {
	return &fir.PackageStore{Packages: []*fir.Package{b.pkg}}
}

func (b *pkgBuilder) node() fir.NodeID {
	b.nextNode++
	return b.nextNode
}

func (b *pkgBuilder) pat(ty fir.Ty, kind fir.PatKind) fir.PatID {
	id := fir.PatID(len(b.pkg.Pats))
	b.pkg.Pats = append(b.pkg.Pats, &fir.Pat{ID: id, Ty: ty, Kind: kind})
	return id
}

func (b *pkgBuilder) bind(name string, ty fir.Ty) (fir.PatID, fir.NodeID) {
	n := b.node()
	return b.pat(ty, &fir.BindPat{Name: name, Node: n}), n
}

func (b *pkgBuilder) unitInput() fir.PatID {
	return b.pat(fir.UnitTy(), &fir.TuplePat{})
}

func (b *pkgBuilder) expr(ty fir.Ty, kind fir.ExprKind) fir.ExprID {
	id := fir.ExprID(len(b.pkg.Exprs))
	b.pkg.Exprs = append(b.pkg.Exprs, &fir.Expr{ID: id, Ty: ty, Kind: kind})
	return id
}

func (b *pkgBuilder) lit(ty fir.Ty, value string) fir.ExprID {
	return b.expr(ty, &fir.LitExpr{Value: value})
}

func (b *pkgBuilder) unitExpr() fir.ExprID {
	return b.expr(fir.UnitTy(), &fir.TupleExpr{})
}

func (b *pkgBuilder) localVar(ty fir.Ty, node fir.NodeID) fir.ExprID {
	return b.expr(ty, &fir.VarExpr{Res: &fir.LocalRes{Node: node}})
}

func (b *pkgBuilder) itemVar(ty fir.Ty, item fir.LocalItemID) fir.ExprID {
	return b.expr(ty, &fir.VarExpr{Res: &fir.ItemRes{
		Item: fir.ItemID{Package: fir.NoPackage, Item: item},
	}})
}

func (b *pkgBuilder) call(ty fir.Ty, callee, args fir.ExprID) fir.ExprID {
	return b.expr(ty, &fir.CallExpr{Callee: callee, Args: args})
}

func (b *pkgBuilder) stmt(kind fir.StmtKind) fir.StmtID {
	id := fir.StmtID(len(b.pkg.Stmts))
	b.pkg.Stmts = append(b.pkg.Stmts, &fir.Stmt{ID: id, Kind: kind})
	return id
}

func (b *pkgBuilder) block(ty fir.Ty, stmts ...fir.StmtID) fir.BlockID {
	id := fir.BlockID(len(b.pkg.Blocks))
	b.pkg.Blocks = append(b.pkg.Blocks, &fir.Block{ID: id, Ty: ty, Stmts: stmts})
	return id
}

func (b *pkgBuilder) item(kind fir.ItemKind) fir.LocalItemID {
	id := fir.LocalItemID(len(b.pkg.Items))
	b.pkg.Items = append(b.pkg.Items, &fir.Item{ID: id, Kind: kind})
	return id
}

func (b *pkgBuilder) intrinsic(name string, kind fir.CallableKind, input fir.PatID, output fir.Ty) fir.LocalItemID {
	return b.item(&fir.CallableDecl{
		Name:   name,
		Kind:   kind,
		Input:  input,
		Output: output,
		Impl:   &fir.Intrinsic{},
	})
}

func (b *pkgBuilder) callable(name string, kind fir.CallableKind, input fir.PatID, output fir.Ty, impl *fir.SpecImpl) fir.LocalItemID {
	return b.item(&fir.CallableDecl{
		Name:   name,
		Kind:   kind,
		Input:  input,
		Output: output,
		Impl:   impl,
	})
}

func bodyOnly(block fir.BlockID) *fir.SpecImpl {
	return &fir.SpecImpl{Body: &fir.SpecDecl{Block: block, Input: fir.NoPat}}
}
