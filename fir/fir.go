// Package fir defines the flattened intermediate representation read by
// the runtime capability analysis. Packages own dense arenas of items,
// blocks, statements, expressions, and patterns, each addressed by an
// integer id. The FIR is produced by earlier compiler stages and is
// never mutated here.
package fir

import "fmt"

type (
	PackageID   int
	LocalItemID int
	NodeID      int
	BlockID     int
	StmtID      int
	ExprID      int
	PatID       int
)

const (
	// NoPackage marks an item reference that stays in the referring package.
	NoPackage PackageID = -1
	// NoExpr marks an absent optional expression (else branch, range part).
	NoExpr ExprID = -1
	// NoPat marks an absent optional pattern (specialization input).
	NoPat PatID = -1
)

// ItemID globally identifies an item within a package store.
type ItemID struct {
	Package PackageID
	Item    LocalItemID
}

type PackageStore struct {
	Packages []*Package
}

func (s *PackageStore) Package(id PackageID) *Package {
	if int(id) < 0 || int(id) >= len(s.Packages) || s.Packages[id] == nil {
		panic(fmt.Sprintf("no package %d in FIR store", id))
	}
	return s.Packages[id]
}

type Package struct {
	Items  []*Item
	Blocks []*Block
	Stmts  []*Stmt
	Exprs  []*Expr
	Pats   []*Pat
}

func (p *Package) Item(id LocalItemID) *Item {
	if int(id) < 0 || int(id) >= len(p.Items) || p.Items[id] == nil {
		panic(fmt.Sprintf("no item %d in FIR package", id))
	}
	return p.Items[id]
}

func (p *Package) Block(id BlockID) *Block {
	if int(id) < 0 || int(id) >= len(p.Blocks) || p.Blocks[id] == nil {
		panic(fmt.Sprintf("no block %d in FIR package", id))
	}
	return p.Blocks[id]
}

func (p *Package) Stmt(id StmtID) *Stmt {
	if int(id) < 0 || int(id) >= len(p.Stmts) || p.Stmts[id] == nil {
		panic(fmt.Sprintf("no statement %d in FIR package", id))
	}
	return p.Stmts[id]
}

func (p *Package) Expr(id ExprID) *Expr {
	if int(id) < 0 || int(id) >= len(p.Exprs) || p.Exprs[id] == nil {
		panic(fmt.Sprintf("no expression %d in FIR package", id))
	}
	return p.Exprs[id]
}

func (p *Package) Pat(id PatID) *Pat {
	if int(id) < 0 || int(id) >= len(p.Pats) || p.Pats[id] == nil {
		panic(fmt.Sprintf("no pattern %d in FIR package", id))
	}
	return p.Pats[id]
}

type Item struct {
	ID   LocalItemID
	Kind ItemKind
}

type ItemKind interface {
	isItemKind()
}

type Namespace struct {
	Name string
}

type TyDef struct {
	Name string
}

func (*Namespace) isItemKind()    {}
func (*TyDef) isItemKind()        {}
func (*CallableDecl) isItemKind() {}

type CallableKind int

const (
	Function CallableKind = iota
	Operation
)

func (k CallableKind) String() string {
	switch k {
	case Function:
		return "function"
	case Operation:
		return "operation"
	default:
		panic(fmt.Sprintf("impossible callable kind: %d", int(k)))
	}
}

// CallableDecl is a function or operation declaration. Input is the
// formal parameter pattern; Impl is either Intrinsic or a SpecImpl
// with up to four specializations.
type CallableDecl struct {
	Name   string
	Kind   CallableKind
	Input  PatID
	Output Ty
	Impl   CallableImpl
}

type CallableImpl interface {
	isCallableImpl()
}

// Intrinsic marks a callable with no compiler-visible body.
type Intrinsic struct{}

type SpecImpl struct {
	Body   *SpecDecl
	Adj    *SpecDecl
	Ctl    *SpecDecl
	CtlAdj *SpecDecl
}

func (*Intrinsic) isCallableImpl() {}
func (*SpecImpl) isCallableImpl()  {}

// SpecDecl is one concrete specialization. Input is the controls
// pattern for controlled specializations, NoPat otherwise.
type SpecDecl struct {
	Block BlockID
	Input PatID
}

type Block struct {
	ID    BlockID
	Ty    Ty
	Stmts []StmtID
}

type Stmt struct {
	ID   StmtID
	Kind StmtKind
}

type StmtKind interface {
	isStmtKind()
}

// ExprStmt is a bare expression statement; when last in a block it is
// the block's value (tail position).
type ExprStmt struct {
	Expr ExprID
}

// SemiStmt is an expression statement whose value is discarded.
type SemiStmt struct {
	Expr ExprID
}

// LocalStmt binds a pattern to an expression.
type LocalStmt struct {
	Pat  PatID
	Expr ExprID
}

// ItemStmt declares a nested item; the item is visited at the top
// level only.
type ItemStmt struct {
	Item LocalItemID
}

func (*ExprStmt) isStmtKind()  {}
func (*SemiStmt) isStmtKind()  {}
func (*LocalStmt) isStmtKind() {}
func (*ItemStmt) isStmtKind()  {}

type Expr struct {
	ID   ExprID
	Ty   Ty
	Kind ExprKind
}

type ExprKind interface {
	isExprKind()
}

type ArrayExpr struct {
	Exprs []ExprID
}

type ArrayRepeatExpr struct {
	Value ExprID
	Size  ExprID
}

type AssignExpr struct {
	LHS ExprID
	RHS ExprID
}

type AssignOpExpr struct {
	Op  BinOp
	LHS ExprID
	RHS ExprID
}

type AssignFieldExpr struct {
	Record ExprID
	Field  string
	Value  ExprID
}

type AssignIndexExpr struct {
	Array ExprID
	Index ExprID
	Value ExprID
}

type BinExpr struct {
	Op  BinOp
	LHS ExprID
	RHS ExprID
}

type BlockExpr struct {
	Block BlockID
}

type CallExpr struct {
	Callee ExprID
	Args   ExprID
}

type ClosureExpr struct {
	Captures []NodeID
	Callable LocalItemID
}

type FailExpr struct {
	Message ExprID
}

type FieldExpr struct {
	Record ExprID
	Field  string
}

type HoleExpr struct{}

type IfExpr struct {
	Cond ExprID
	Then ExprID
	Else ExprID // NoExpr if absent
}

type IndexExpr struct {
	Array ExprID
	Index ExprID
}

// LitExpr is a literal constant. The analysis only cares that it is
// static, so the value is kept as opaque text.
type LitExpr struct {
	Value string
}

type RangeExpr struct {
	Start ExprID // NoExpr if open
	Step  ExprID // NoExpr if implicit
	End   ExprID // NoExpr if open
}

type ReturnExpr struct {
	Expr ExprID
}

type StringExpr struct {
	Components []StringComponent
}

// StringComponent is a literal segment or an interpolated expression.
// Expr is NoExpr for literal segments.
type StringComponent struct {
	Lit  string
	Expr ExprID
}

type TupleExpr struct {
	Exprs []ExprID
}

type UnExpr struct {
	Op   UnOp
	Expr ExprID
}

type UpdateFieldExpr struct {
	Record ExprID
	Field  string
	Value  ExprID
}

type UpdateIndexExpr struct {
	Array ExprID
	Index ExprID
	Value ExprID
}

type VarExpr struct {
	Res Res
}

type WhileExpr struct {
	Cond  ExprID
	Block BlockID
}

func (*ArrayExpr) isExprKind()       {}
func (*ArrayRepeatExpr) isExprKind() {}
func (*AssignExpr) isExprKind()      {}
func (*AssignOpExpr) isExprKind()    {}
func (*AssignFieldExpr) isExprKind() {}
func (*AssignIndexExpr) isExprKind() {}
func (*BinExpr) isExprKind()         {}
func (*BlockExpr) isExprKind()       {}
func (*CallExpr) isExprKind()        {}
func (*ClosureExpr) isExprKind()     {}
func (*FailExpr) isExprKind()        {}
func (*FieldExpr) isExprKind()       {}
func (*HoleExpr) isExprKind()        {}
func (*IfExpr) isExprKind()          {}
func (*IndexExpr) isExprKind()       {}
func (*LitExpr) isExprKind()         {}
func (*RangeExpr) isExprKind()       {}
func (*ReturnExpr) isExprKind()      {}
func (*StringExpr) isExprKind()      {}
func (*TupleExpr) isExprKind()       {}
func (*UnExpr) isExprKind()          {}
func (*UpdateFieldExpr) isExprKind() {}
func (*UpdateIndexExpr) isExprKind() {}
func (*VarExpr) isExprKind()         {}
func (*WhileExpr) isExprKind()       {}

type BinOp int

const (
	Add BinOp = iota + 1
	Sub
	Mul
	Div
	Mod
	Exp
	AndB
	OrB
	XorB
	Shl
	Shr
	AndL
	OrL
	Eq
	Neq
	Gt
	Gte
	Lt
	Lte
)

type UnOp int

const (
	Neg UnOp = iota + 1
	Pos
	NotL
	NotB
	Unwrap
	// FunctorAdj and FunctorCtl apply a functor to a callable value.
	FunctorAdj
	FunctorCtl
)

// Res is a resolved variable reference: a top-level item or a local
// binding node.
type Res interface {
	isRes()
}

type ItemRes struct {
	Item ItemID
}

type LocalRes struct {
	Node NodeID
}

func (*ItemRes) isRes()  {}
func (*LocalRes) isRes() {}

type Pat struct {
	ID   PatID
	Ty   Ty
	Kind PatKind
}

type PatKind interface {
	isPatKind()
}

type BindPat struct {
	Name string
	Node NodeID
}

type TuplePat struct {
	Pats []PatID
}

type DiscardPat struct{}

func (*BindPat) isPatKind()    {}
func (*TuplePat) isPatKind()   {}
func (*DiscardPat) isPatKind() {}
