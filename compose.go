package sift

import (
	"sort"

	"github.com/gobeam/stringy"
)

// NamingStrategy controls how filter keys map to column names.
type NamingStrategy string

const NAMING_STRATEGY_NO_CHANGE = "no_change"
const NAMING_STRATEGY_SNAKE_CASE = "snake_case"

func normalizeName(name string, strategy NamingStrategy) string {
	switch strategy {
	case NAMING_STRATEGY_NO_CHANGE:
		return name
	case NAMING_STRATEGY_SNAKE_CASE:
		return stringy.New(name).SnakeCase("?", "").ToLower()
	default:
		return name
	}
}

// resolveColumn turns a filter key into a column reference. Keys with
// separators go through ParsePath; the naming strategy applies to the
// column name only, never to path segments.
func resolveColumn(key string, strategy NamingStrategy) Column {
	if hasPathSeparator(key) {
		p := ParsePath(key)
		return Column{Name: normalizeName(p.Column, strategy), Path: p.Path}
	}
	return Column{Name: normalizeName(key, strategy)}
}

// Compose folds a where clause into a single predicate. Field conditions
// and `and` groups join under AND, `or` groups under OR. An empty or nil
// clause composes to TrueExpr. Field and operator keys are visited in
// sorted order so composition is deterministic.
func Compose(w *Where, mode Mode, strategy NamingStrategy) (Expr, error) {
	if w.Empty() {
		return TrueExpr{}, nil
	}

	var operands []Expr

	fields := make([]string, 0, len(w.Conds))
	for k := range w.Conds {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, field := range fields {
		cond := w.Conds[field]
		col := resolveColumn(field, strategy)

		if cond.IsLiteral() {
			if cond.Value == nil {
				operands = append(operands, IsNullExpr{Column: col})
			} else {
				operands = append(operands, EqExpr{Column: col, Value: cond.Value})
			}
			continue
		}

		ops := make([]Operation, 0, len(cond.Ops))
		for op := range cond.Ops {
			ops = append(ops, op)
		}
		sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

		for _, op := range ops {
			e, err := Translate(col, op, cond.Ops[op], mode)
			if err != nil {
				return nil, err
			}
			if e != nil {
				operands = append(operands, e)
			}
		}
	}

	for _, group := range w.And {
		e, err := Compose(&group, mode, strategy)
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}

	if len(w.Or) > 0 {
		alts := make([]Expr, 0, len(w.Or))
		for _, group := range w.Or {
			e, err := Compose(&group, mode, strategy)
			if err != nil {
				return nil, err
			}
			alts = append(alts, e)
		}
		if len(alts) == 1 {
			operands = append(operands, alts[0])
		} else {
			operands = append(operands, OrExpr{Operands: alts})
		}
	}

	switch len(operands) {
	case 0:
		return TrueExpr{}, nil
	case 1:
		return operands[0], nil
	default:
		return AndExpr{Operands: operands}, nil
	}
}
