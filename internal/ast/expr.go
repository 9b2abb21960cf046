package ast

// Name is an identifier reference (a Usage key site) or, on the left of
// an assignment, a Definition site — binding construction tells the
// difference from context, not from the node.
type Name struct {
	Base
	Value string
}

func (n *Name) exprNode() {}

type IntLit struct {
	Base
	Value int64
}

func (n *IntLit) exprNode() {}

type StringLit struct {
	Base
	Value string
	// IsForwardRef marks a string literal appearing where a type is
	// expected; the binder reparses its interior as an expression at the
	// string's interior offset (spec §4.2 "Forward references in strings").
	IsForwardRef bool
}

func (n *StringLit) exprNode() {}

type BytesLit struct {
	Base
	Value []byte
}

func (n *BytesLit) exprNode() {}

type BoolLit struct {
	Base
	Value bool
}

func (n *BoolLit) exprNode() {}

type NoneLit struct{ Base }

func (n *NoneLit) exprNode() {}

type EllipsisLit struct{ Base }

func (n *EllipsisLit) exprNode() {}

// Attribute is `X.name`.
type Attribute struct {
	Base
	X    Expr
	Name string
}

func (n *Attribute) exprNode() {}

// Subscript is `X[slice]`; Slices holds one or more comma-separated
// subscript expressions (a single element for `X[i]`, several for
// `X[i, j]` as used by generic specialization and multi-dim indexing).
type Subscript struct {
	Base
	X      Expr
	Slices []Expr
}

func (n *Subscript) exprNode() {}

// SliceExpr is `lower:upper:step` inside a Subscript.
type SliceExpr struct {
	Base
	Lower, Upper, Step Expr
}

func (n *SliceExpr) exprNode() {}

type Keyword struct {
	Name  string // "" for **kwargs spread
	Value Expr
}

// Call is `Func(args..., kw=val...)`.
type Call struct {
	Base
	Func     Expr
	Args     []Expr
	Keywords []Keyword
	// Starred marks which positional Args entries are `*expr` unpacking.
	Starred map[int]bool
}

func (n *Call) exprNode() {}

// BinOp is a binary operator expression, including comparisons (chained
// comparisons are desugared by the parser into nested BoolOp{And}).
type BinOp struct {
	Base
	Op          string
	Left, Right Expr
}

func (n *BinOp) exprNode() {}

type UnaryOp struct {
	Base
	Op string
	X  Expr
}

func (n *UnaryOp) exprNode() {}

// BoolOp is `a and b and c` / `a or b or c`, kept n-ary like the grammar.
type BoolOp struct {
	Base
	Op     string // "and" | "or"
	Values []Expr
}

func (n *BoolOp) exprNode() {}

// Compare is `a OP1 b OP2 c` kept as one node with parallel Ops/Comparators
// so narrowing (spec §4.2) can read the whole chain; `is`, `is not`, `==`,
// `!=`, `in`, `not in` are all represented here.
type Compare struct {
	Base
	Left        Expr
	Ops         []string
	Comparators []Expr
}

func (n *Compare) exprNode() {}

// IfExp is the conditional expression `a if test else b`.
type IfExp struct {
	Base
	Test, Body, Orelse Expr
}

func (n *IfExp) exprNode() {}

type ListExpr struct {
	Base
	Elts []Expr
}

func (n *ListExpr) exprNode() {}

type SetExpr struct {
	Base
	Elts []Expr
}

func (n *SetExpr) exprNode() {}

// TupleExpr is `(a, b, c)`, also used for unpacking targets.
type TupleExpr struct {
	Base
	Elts []Expr
}

func (n *TupleExpr) exprNode() {}

// Starred is `*expr` inside an unpacking target or a call's argument list.
type Starred struct {
	Base
	X Expr
}

func (n *Starred) exprNode() {}

type DictEntry struct {
	Key   Expr // nil for `**expr` spread
	Value Expr
}

type DictExpr struct {
	Base
	Entries []DictEntry
}

func (n *DictExpr) exprNode() {}

// Comprehension is one `for target in iter [if cond]*` clause.
type Comprehension struct {
	Target  Expr
	Iter    Expr
	Ifs     []Expr
	IsAsync bool
}

type CompKind int

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

type Comp struct {
	Base
	Kind       CompKind
	Elt        Expr // element expr for list/set/generator
	Key, Value Expr // for dict comprehensions
	Clauses    []Comprehension
}

func (n *Comp) exprNode() {}

// Lambda is `lambda params: body`.
type Lambda struct {
	Base
	Params []Param
	Body   Expr
}

func (n *Lambda) exprNode() {}

// Yield / YieldFrom / Await.
type Yield struct {
	Base
	Value Expr // nil for bare `yield`
}

func (n *Yield) exprNode() {}

type YieldFrom struct {
	Base
	Value Expr
}

func (n *YieldFrom) exprNode() {}

type Await struct {
	Base
	Value Expr
}

func (n *Await) exprNode() {}

// NamedExpr is the walrus operator `name := expr`.
type NamedExpr struct {
	Base
	Target *Name
	Value  Expr
}

func (n *NamedExpr) exprNode() {}
