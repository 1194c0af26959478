package sift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SQLQuery is a rendered statement with '?' placeholders and its args
// in order. Values only ever travel through Args; the engine's opaque
// JSON path segments are bound the same way.
type SQLQuery struct {
	SQL  string
	Args []any
}

// BuildSQLSelect renders a full SELECT for a resolved descriptor.
// Identifiers are backtick-quoted for MySQL-like dialects; JSON paths
// and array operators use the MySQL 8 JSON functions.
func BuildSQLSelect(q *Query) SQLQuery {
	return buildSQLSelect(q, "", nil)
}

// BuildSQLIncludeSelect renders the per-include follow-up SELECT: the
// include scope's conditions plus a foreign-key membership test over
// the parent keys collected from the first query's rows.
func BuildSQLIncludeSelect(inc ResolvedInclude, parentKeys []any) SQLQuery {
	if len(parentKeys) == 0 {
		// no parent rows, no child rows; the scope conditions are moot
		empty := *inc.Query
		empty.Where = FalseExpr{}
		return buildSQLSelect(&empty, "", nil)
	}
	fk := fmt.Sprintf("%s IN (%s)", quoteIdent(inc.Relation.ForeignKey), placeholders(len(parentKeys)))
	return buildSQLSelect(inc.Query, fk, parentKeys)
}

func buildSQLSelect(q *Query, extra string, extraArgs []any) SQLQuery {
	cols := "*"
	if len(q.Fields) > 0 {
		quoted := make([]string, 0, len(q.Fields))
		for _, c := range q.Fields {
			quoted = append(quoted, quoteIdent(c))
		}
		cols = strings.Join(quoted, ", ")
	}

	where, whereArgs := BuildSQLWhere(q.Where)
	switch {
	case extra != "" && where != "":
		where = extra + " AND (" + where + ")"
		whereArgs = append(append([]any{}, extraArgs...), whereArgs...)
	case extra != "":
		where, whereArgs = extra, extraArgs
	}
	orderBy, orderArgs := buildSQLOrderBy(q.Order)
	limitOffset := buildSQLLimitOffset(q.Limit, q.Offset)

	stmt := fmt.Sprintf("SELECT %s FROM %s", cols, quoteIdent(q.Model.Table))
	args := make([]any, 0, len(whereArgs)+len(orderArgs))
	if where != "" {
		stmt += " WHERE " + where
		args = append(args, whereArgs...)
	}
	if orderBy != "" {
		stmt += " " + orderBy
		args = append(args, orderArgs...)
	}
	if limitOffset != "" {
		stmt += " " + limitOffset
	}
	return SQLQuery{SQL: stmt, Args: args}
}

// BuildSQLWhere renders a predicate as a WHERE fragment (without the
// keyword) and its args. An always-true predicate renders empty.
func BuildSQLWhere(e Expr) (string, []any) {
	if matchesAll(e) {
		return "", nil
	}
	return exprToSQL(e)
}

func exprToSQL(e Expr) (string, []any) {
	switch x := e.(type) {
	case TrueExpr:
		return "1=1", nil
	case FalseExpr:
		return "1=0", nil
	case EqExpr:
		return sqlCompare(x.Column, "=", x.Value)
	case NeqExpr:
		return sqlCompare(x.Column, "!=", x.Value)
	case GtExpr:
		return sqlCompare(x.Column, ">", x.Value)
	case GteExpr:
		return sqlCompare(x.Column, ">=", x.Value)
	case LtExpr:
		return sqlCompare(x.Column, "<", x.Value)
	case LteExpr:
		return sqlCompare(x.Column, "<=", x.Value)
	case InExpr:
		if len(x.Values) == 0 {
			return "1=0", nil
		}
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("%s IN (%s)", ref, placeholders(len(x.Values))), append(args, x.Values...)
	case NotInExpr:
		ref, args := sqlColRef(x.Column)
		if len(x.Values) == 0 {
			return fmt.Sprintf("%s IS NOT NULL", ref), args
		}
		return fmt.Sprintf("%s NOT IN (%s)", ref, placeholders(len(x.Values))), append(args, x.Values...)
	case LikeExpr:
		return sqlCompare(x.Column, "LIKE", x.Value)
	case ILikeExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", ref), append(args, x.Value)
	case NotLikeExpr:
		return sqlCompare(x.Column, "NOT LIKE", x.Value)
	case BetweenExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("%s BETWEEN ? AND ?", ref), append(args, x.Low, x.High)
	case NotBetweenExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("%s NOT BETWEEN ? AND ?", ref), append(args, x.Low, x.High)
	case IsNullExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("%s IS NULL", ref), args
	case NotNullExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("%s IS NOT NULL", ref), args
	case ContainsExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("JSON_CONTAINS(%s, ?)", ref), append(args, jsonLiteral(x.Values))
	case ContainedByExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("JSON_CONTAINS(?, %s)", ref), append([]any{jsonLiteral(x.Values)}, args...)
	case OverlapsExpr:
		ref, args := sqlColRef(x.Column)
		return fmt.Sprintf("JSON_OVERLAPS(%s, ?)", ref), append(args, jsonLiteral(x.Values))
	case AndExpr:
		return sqlJoinGroup("AND", x.Operands)
	case OrExpr:
		return sqlJoinGroup("OR", x.Operands)
	default:
		return "", nil
	}
}

func sqlJoinGroup(op string, operands []Expr) (string, []any) {
	parts := make([]string, 0, len(operands))
	args := make([]any, 0)
	for _, e := range operands {
		if e == nil {
			continue
		}
		p, a := exprToSQL(e)
		if p != "" {
			parts = append(parts, p)
			args = append(args, a...)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	if len(parts) == 1 {
		return parts[0], args
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", args
}

// sqlColRef renders a column reference and its args. JSON paths go
// through JSON_EXTRACT with the path bound as a parameter; the
// extraction is type-preserving, so a numeric comparison against a
// JSON string value matches nothing rather than comparing lexically.
func sqlColRef(c Column) (string, []any) {
	if len(c.Path) == 0 {
		return quoteIdent(c.Name), nil
	}
	return fmt.Sprintf("JSON_EXTRACT(%s, ?)", quoteIdent(c.Name)), []any{jsonPathArg(c.Path)}
}

func sqlCompare(c Column, op string, value any) (string, []any) {
	ref, args := sqlColRef(c)
	return fmt.Sprintf("%s %s ?", ref, op), append(args, value)
}

func buildSQLOrderBy(specs []OrderSpec) (string, []any) {
	if len(specs) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(specs))
	args := make([]any, 0)
	for _, s := range specs {
		ref, a := sqlColRef(s.Column)
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		cols = append(cols, ref+" "+dir)
		args = append(args, a...)
	}
	return "ORDER BY " + strings.Join(cols, ", "), args
}

func buildSQLLimitOffset(limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if limit > 0 && offset > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
	if limit > 0 {
		return fmt.Sprintf("LIMIT %d", limit)
	}
	return fmt.Sprintf("OFFSET %d", offset)
}

func quoteIdent(ident string) string {
	// basic quoting; assumes ident does not contain backticks
	return "`" + ident + "`"
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	s := strings.Repeat("?,", n)
	return s[:len(s)-1]
}

// jsonPathArg renders opaque path segments as one JSON path string,
// e.g. ["0","name"] -> "$[0].name". The result is always bound as a
// single query parameter.
func jsonPathArg(path []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range path {
		if isIndexSegment(seg) {
			b.WriteString("[" + seg + "]")
		} else {
			b.WriteString("." + seg)
		}
	}
	return b.String()
}

func isIndexSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

func jsonLiteral(values []any) string {
	b, _ := json.Marshal(values)
	return string(b)
}

// ExplainSQL replaces '?' placeholders with SQL literals derived from
// args, for debugging and log output only. Never execute its result.
func ExplainSQL(stmt string, args []any) string {
	if len(args) == 0 {
		return stmt
	}
	var b strings.Builder
	b.Grow(len(stmt) + len(args)*4)

	idx := 0
	inSingle := false
	inDouble := false
	for i := 0; i < len(stmt); i++ {
		ch := stmt[i]
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			b.WriteByte(ch)
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			b.WriteByte(ch)
			continue
		}
		if ch == '?' && !inSingle && !inDouble && idx < len(args) {
			b.WriteString(toSQLLiteral(args[idx]))
			idx++
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func toSQLLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%v", x)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", x)
	case float32, float64:
		return fmt.Sprintf("%v", x)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return fmt.Sprintf("\"%s\"", escapeSQLString(x))
	default:
		return fmt.Sprintf("\"%s\"", escapeSQLString(fmt.Sprintf("%v", x)))
	}
}

func escapeSQLString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
