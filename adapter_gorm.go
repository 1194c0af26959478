package sift

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobeam/stringy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Executor is the engine's downstream collaborator: it receives
// finished descriptors and owns connections, transactions, timeouts and
// retries. The engine itself never touches a database.
type Executor interface {
	Find(ctx context.Context, q *Query, dest any) error
	Count(ctx context.Context, q *Query) (int64, error)
	UpdateAll(ctx context.Context, model *Model, where Expr, values map[string]any) (int64, error)
	DeleteAll(ctx context.Context, model *Model, where Expr) (int64, error)
}

// ToGormExpr converts a predicate tree into a gorm clause.Expression.
// JSON-path columns go through JSON_EXTRACT with the rendered path
// bound as a parameter, so opaque path segments never touch query text.
func ToGormExpr(e Expr) clause.Expression {
	switch x := e.(type) {
	case TrueExpr:
		return clause.Expr{SQL: "1=1"}
	case FalseExpr:
		return clause.Expr{SQL: "1=0"}
	case EqExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "=", x.Value)
		}
		return clause.Eq{Column: x.Column.Name, Value: x.Value}
	case NeqExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "!=", x.Value)
		}
		return clause.Neq{Column: x.Column.Name, Value: x.Value}
	case GtExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, ">", x.Value)
		}
		return clause.Gt{Column: x.Column.Name, Value: x.Value}
	case GteExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, ">=", x.Value)
		}
		return clause.Gte{Column: x.Column.Name, Value: x.Value}
	case LtExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "<", x.Value)
		}
		return clause.Lt{Column: x.Column.Name, Value: x.Value}
	case LteExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "<=", x.Value)
		}
		return clause.Lte{Column: x.Column.Name, Value: x.Value}
	case InExpr:
		if len(x.Column.Path) > 0 {
			ref, vars := gormColRef(x.Column)
			return clause.Expr{
				SQL:  fmt.Sprintf("%s IN (%s)", ref, placeholders(len(x.Values))),
				Vars: append(vars, x.Values...),
			}
		}
		return clause.IN{Column: x.Column.Name, Values: x.Values}
	case NotInExpr:
		ref, vars := gormColRef(x.Column)
		if len(x.Values) == 0 {
			// NOT IN over an empty set keeps every non-NULL row
			return clause.Expr{SQL: fmt.Sprintf("%s IS NOT NULL", ref), Vars: vars}
		}
		if len(x.Column.Path) > 0 {
			return clause.Expr{
				SQL:  fmt.Sprintf("%s NOT IN (%s)", ref, placeholders(len(x.Values))),
				Vars: append(vars, x.Values...),
			}
		}
		return clause.Not(clause.IN{Column: x.Column.Name, Values: x.Values})
	case LikeExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "LIKE", x.Value)
		}
		return clause.Like{Column: x.Column.Name, Value: x.Value}
	case ILikeExpr:
		// no portable ILIKE; lower both sides
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", ref), Vars: append(vars, x.Value)}
	case NotLikeExpr:
		if len(x.Column.Path) > 0 {
			return gormCompare(x.Column, "NOT LIKE", x.Value)
		}
		return clause.Not(clause.Like{Column: x.Column.Name, Value: x.Value})
	case BetweenExpr:
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("%s BETWEEN ? AND ?", ref), Vars: append(vars, x.Low, x.High)}
	case NotBetweenExpr:
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("%s NOT BETWEEN ? AND ?", ref), Vars: append(vars, x.Low, x.High)}
	case IsNullExpr:
		if len(x.Column.Path) > 0 {
			ref, vars := gormColRef(x.Column)
			return clause.Expr{SQL: fmt.Sprintf("%s IS NULL", ref), Vars: vars}
		}
		return clause.Eq{Column: x.Column.Name, Value: nil}
	case NotNullExpr:
		if len(x.Column.Path) > 0 {
			ref, vars := gormColRef(x.Column)
			return clause.Expr{SQL: fmt.Sprintf("%s IS NOT NULL", ref), Vars: vars}
		}
		return clause.Neq{Column: x.Column.Name, Value: nil}
	case ContainsExpr:
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("JSON_CONTAINS(%s, ?)", ref), Vars: append(vars, jsonLiteral(x.Values))}
	case ContainedByExpr:
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("JSON_CONTAINS(?, %s)", ref), Vars: append([]any{jsonLiteral(x.Values)}, vars...)}
	case OverlapsExpr:
		ref, vars := gormColRef(x.Column)
		return clause.Expr{SQL: fmt.Sprintf("JSON_OVERLAPS(%s, ?)", ref), Vars: append(vars, jsonLiteral(x.Values))}
	case AndExpr:
		parts := make([]clause.Expression, 0, len(x.Operands))
		for _, op := range x.Operands {
			if c := ToGormExpr(op); c != nil {
				parts = append(parts, c)
			}
		}
		return clause.And(parts...)
	case OrExpr:
		parts := make([]clause.Expression, 0, len(x.Operands))
		for _, op := range x.Operands {
			if c := ToGormExpr(op); c != nil {
				parts = append(parts, c)
			}
		}
		return clause.Or(parts...)
	default:
		return nil
	}
}

// gormColRef renders a column reference as a SQL fragment plus bind
// variables: plain columns quote through clause.Column, JSON paths wrap
// in JSON_EXTRACT with the path string as an argument.
func gormColRef(c Column) (string, []any) {
	if len(c.Path) == 0 {
		return "?", []any{clause.Column{Name: c.Name}}
	}
	return "JSON_EXTRACT(?, ?)", []any{clause.Column{Name: c.Name}, jsonPathArg(c.Path)}
}

func gormCompare(c Column, op string, value any) clause.Expression {
	ref, vars := gormColRef(c)
	return clause.Expr{SQL: fmt.Sprintf("%s %s ?", ref, op), Vars: append(vars, value)}
}

// ApplyGorm applies a resolved descriptor to a GORM statement:
// pagination, projection, preloads, where clauses and ordering. The
// incoming *gorm.DB may be transaction-scoped; it is threaded through
// unchanged.
func ApplyGorm(q *Query, trx *gorm.DB) *gorm.DB {
	if q.Limit > 0 {
		trx = trx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		trx = trx.Offset(q.Offset)
	}
	if len(q.Fields) > 0 {
		trx = trx.Select(q.Fields)
	}

	trx = applyGormIncludes(trx, "", q.Includes)

	if !matchesAll(q.Where) {
		if c := ToGormExpr(q.Where); c != nil {
			trx = trx.Clauses(c)
		}
	}

	if ob := gormOrderBy(q.Order); ob != nil {
		trx = trx.Clauses(ob)
	}
	return trx
}

func applyGormIncludes(trx *gorm.DB, prefix string, includes []ResolvedInclude) *gorm.DB {
	for _, inc := range includes {
		name := gormPreloadName(prefix, inc.Relation)
		var args []any
		if inc.Query != nil && !matchesAll(inc.Query.Where) {
			if c := ToGormExpr(inc.Query.Where); c != nil {
				args = append(args, c)
			}
		}
		trx = trx.Preload(name, args...)
		if inc.Query != nil {
			trx = applyGormIncludes(trx, name, inc.Query.Includes)
		}
	}
	return trx
}

// gormPreloadName maps a relation name to GORM's association field
// name ("orderItems" -> "OrderItems"), nesting through the prefix.
func gormPreloadName(prefix string, rel Relation) string {
	name := stringy.New(rel.Name).PascalCase("?", "").Get()
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func gormOrderBy(specs []OrderSpec) clause.Expression {
	if len(specs) == 0 {
		return nil
	}
	plain := true
	for _, s := range specs {
		if len(s.Column.Path) > 0 {
			plain = false
			break
		}
	}
	if plain {
		cols := make([]clause.OrderByColumn, 0, len(specs))
		for _, s := range specs {
			cols = append(cols, clause.OrderByColumn{
				Column: clause.Column{Name: s.Column.Name, Table: clause.CurrentTable},
				Desc:   s.Desc,
			})
		}
		return clause.OrderBy{Columns: cols}
	}
	parts := make([]string, 0, len(specs))
	vars := make([]any, 0, len(specs)*2)
	for _, s := range specs {
		ref, v := gormColRef(s.Column)
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, ref+" "+dir)
		vars = append(vars, v...)
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: strings.Join(parts, ", "), Vars: vars}}
}

func matchesAll(e Expr) bool {
	if e == nil {
		return true
	}
	_, ok := e.(TrueExpr)
	return ok
}

// GormExecutor runs descriptors against a GORM connection. To join a
// caller transaction, construct it around the transaction-scoped
// *gorm.DB; the executor never begins or commits on its own.
type GormExecutor struct {
	DB *gorm.DB
}

func (g GormExecutor) Find(ctx context.Context, q *Query, dest any) error {
	trx := g.DB.WithContext(ctx).Table(q.Model.Table)
	return ApplyGorm(q, trx).Find(dest).Error
}

func (g GormExecutor) Count(ctx context.Context, q *Query) (int64, error) {
	trx := g.DB.WithContext(ctx).Table(q.Model.Table)
	if !matchesAll(q.Where) {
		if c := ToGormExpr(q.Where); c != nil {
			trx = trx.Clauses(c)
		}
	}
	var n int64
	err := trx.Count(&n).Error
	return n, err
}

func (g GormExecutor) UpdateAll(ctx context.Context, model *Model, where Expr, values map[string]any) (int64, error) {
	trx := g.DB.WithContext(ctx).Table(model.Table)
	if c := ToGormExpr(where); c != nil {
		trx = trx.Clauses(c)
	}
	res := trx.Updates(values)
	return res.RowsAffected, res.Error
}

func (g GormExecutor) DeleteAll(ctx context.Context, model *Model, where Expr) (int64, error) {
	trx := g.DB.WithContext(ctx).Table(model.Table)
	if c := ToGormExpr(where); c != nil {
		trx = trx.Clauses(c)
	}
	res := trx.Delete(nil)
	return res.RowsAffected, res.Error
}
