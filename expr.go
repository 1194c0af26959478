package sift

// Column identifies a column reference inside a predicate. A non-empty
// Path addresses into a JSON-typed column; path segments are opaque and
// adapters must bind them as query parameters, never splice them into
// query text.
type Column struct {
	Name string
	Path []string
}

// Col builds a plain column reference.
func Col(name string) Column {
	return Column{Name: name}
}

// Expr is an abstract boolean test over a row. The engine composes Expr
// trees from filters; adapters translate them into their native query
// form. The engine itself never renders query text.
type Expr interface {
	isExpr()
}

// TrueExpr matches every row. An empty where clause composes to it.
type TrueExpr struct{}

// FalseExpr matches no row. An empty `inq` operand composes to it.
type FalseExpr struct{}

type EqExpr struct {
	Column Column
	Value  any
}

type NeqExpr struct {
	Column Column
	Value  any
}

type GtExpr struct {
	Column Column
	Value  any
}

type GteExpr struct {
	Column Column
	Value  any
}

type LtExpr struct {
	Column Column
	Value  any
}

type LteExpr struct {
	Column Column
	Value  any
}

// InExpr is membership. Empty Values never reaches adapters; the
// translator collapses it to FalseExpr.
type InExpr struct {
	Column Column
	Values []any
}

// NotInExpr is non-membership. Empty Values is legal and means "every
// row whose column is not NULL", matching SQL NOT IN over an empty set.
type NotInExpr struct {
	Column Column
	Values []any
}

type LikeExpr struct {
	Column Column
	Value  any
}

type ILikeExpr struct {
	Column Column
	Value  any
}

type NotLikeExpr struct {
	Column Column
	Value  any
}

type BetweenExpr struct {
	Column Column
	Low    any
	High   any
}

type NotBetweenExpr struct {
	Column Column
	Low    any
	High   any
}

type IsNullExpr struct {
	Column Column
}

type NotNullExpr struct {
	Column Column
}

// ContainsExpr matches array-typed columns that hold every listed value.
type ContainsExpr struct {
	Column Column
	Values []any
}

// ContainedByExpr matches array-typed columns whose elements are all
// contained in Values.
type ContainedByExpr struct {
	Column Column
	Values []any
}

// OverlapsExpr matches array-typed columns sharing at least one element
// with Values.
type OverlapsExpr struct {
	Column Column
	Values []any
}

type AndExpr struct {
	Operands []Expr
}

type OrExpr struct {
	Operands []Expr
}

func (TrueExpr) isExpr()        {}
func (FalseExpr) isExpr()       {}
func (EqExpr) isExpr()          {}
func (NeqExpr) isExpr()         {}
func (GtExpr) isExpr()          {}
func (GteExpr) isExpr()         {}
func (LtExpr) isExpr()          {}
func (LteExpr) isExpr()         {}
func (InExpr) isExpr()          {}
func (NotInExpr) isExpr()       {}
func (LikeExpr) isExpr()        {}
func (ILikeExpr) isExpr()       {}
func (NotLikeExpr) isExpr()     {}
func (BetweenExpr) isExpr()     {}
func (NotBetweenExpr) isExpr()  {}
func (IsNullExpr) isExpr()      {}
func (NotNullExpr) isExpr()     {}
func (ContainsExpr) isExpr()    {}
func (ContainedByExpr) isExpr() {}
func (OverlapsExpr) isExpr()    {}
func (AndExpr) isExpr()         {}
func (OrExpr) isExpr()          {}
