package sift

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveJSON(t *testing.T, e Engine, entity, raw string) *Query {
	t.Helper()
	var f Filter
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	q, err := e.Resolve(entity, &f)
	require.NoError(t, err)
	return q
}

func TestBuildSQLSelect(t *testing.T) {
	e := New(testRegistry())
	q := resolveJSON(t, e, "order",
		`{"where":{"status":"paid","total":{"gte":50}},"order":["total DESC"],"limit":5,"offset":10}`)

	got := BuildSQLSelect(q)
	assert.Equal(t,
		"SELECT `id`, `customer_id`, `total`, `status` FROM `orders` "+
			"WHERE (`status` = ? AND `total` >= ?) ORDER BY `total` DESC LIMIT 5 OFFSET 10",
		got.SQL)
	assert.Equal(t, []any{"paid", float64(50)}, got.Args)
}

func TestBuildSQLSelectNoConditions(t *testing.T) {
	reg := NewRegistry(&Model{Name: "event", Table: "events"})
	q, err := New(reg).Resolve("event", nil)
	require.NoError(t, err)

	got := BuildSQLSelect(q)
	assert.Equal(t, "SELECT * FROM `events`", got.SQL)
	assert.Empty(t, got.Args)
}

func TestBuildSQLWhereGroups(t *testing.T) {
	e := New(NewRegistry(&Model{Name: "event", Table: "events"}))
	q := resolveJSON(t, e, "event",
		`{"where":{"and":[{"kind":"click"}],"or":[{"region":"eu"},{"region":"us"}]}}`)

	sql, args := BuildSQLWhere(q.Where)
	assert.Equal(t, "(`kind` = ? AND (`region` = ? OR `region` = ?))", sql)
	assert.Equal(t, []any{"click", "eu", "us"}, args)
}

func TestBuildSQLWhereEmptyMembership(t *testing.T) {
	sql, args := BuildSQLWhere(InExpr{Column: Col("id")})
	assert.Equal(t, "1=0", sql)
	assert.Empty(t, args)

	sql, args = BuildSQLWhere(NotInExpr{Column: Col("id")})
	assert.Equal(t, "`id` IS NOT NULL", sql)
	assert.Empty(t, args)
}

func TestBuildSQLWhereJSONPath(t *testing.T) {
	sql, args := BuildSQLWhere(EqExpr{
		Column: Column{Name: "metadata", Path: []string{"tier"}},
		Value:  "gold",
	})
	assert.Equal(t, "JSON_EXTRACT(`metadata`, ?) = ?", sql)
	assert.Equal(t, []any{"$.tier", "gold"}, args)

	// a hostile path segment stays inside the bound parameter
	sql, args = BuildSQLWhere(EqExpr{
		Column: Column{Name: "metadata", Path: []string{"a'); DROP TABLE x;--"}},
		Value:  1,
	})
	assert.Equal(t, "JSON_EXTRACT(`metadata`, ?) = ?", sql)
	assert.Equal(t, "$.a'); DROP TABLE x;--", args[0])
}

func TestBuildSQLWhereArrayOperators(t *testing.T) {
	sql, args := BuildSQLWhere(ContainsExpr{Column: Col("tags"), Values: []any{"a", "b"}})
	assert.Equal(t, "JSON_CONTAINS(`tags`, ?)", sql)
	assert.Equal(t, []any{`["a","b"]`}, args)

	sql, args = BuildSQLWhere(ContainedByExpr{Column: Col("tags"), Values: []any{"a", "b"}})
	assert.Equal(t, "JSON_CONTAINS(?, `tags`)", sql)
	assert.Equal(t, []any{`["a","b"]`}, args)

	sql, args = BuildSQLWhere(OverlapsExpr{Column: Col("tags"), Values: []any{"a"}})
	assert.Equal(t, "JSON_OVERLAPS(`tags`, ?)", sql)
	assert.Equal(t, []any{`["a"]`}, args)
}

func TestBuildSQLWhereRanges(t *testing.T) {
	sql, args := BuildSQLWhere(BetweenExpr{Column: Col("price"), Low: 10, High: 20})
	assert.Equal(t, "`price` BETWEEN ? AND ?", sql)
	assert.Equal(t, []any{10, 20}, args)

	sql, _ = BuildSQLWhere(NotBetweenExpr{Column: Col("price"), Low: 10, High: 20})
	assert.Equal(t, "`price` NOT BETWEEN ? AND ?", sql)
}

func TestBuildSQLIncludeSelect(t *testing.T) {
	e := New(testRegistry())
	q := resolveJSON(t, e, "customer",
		`{"include":[{"relation":"orders","scope":{"where":{"status":"paid"}}}]}`)
	require.Len(t, q.Includes, 1)

	got := BuildSQLIncludeSelect(q.Includes[0], []any{1, 2, 3})
	assert.Equal(t,
		"SELECT `id`, `customer_id`, `total`, `status` FROM `orders` "+
			"WHERE `customer_id` IN (?,?,?) AND (`status` = ?)",
		got.SQL)
	assert.Equal(t, []any{1, 2, 3, "paid"}, got.Args)

	// no parent rows means no child rows
	got = BuildSQLIncludeSelect(q.Includes[0], nil)
	assert.Equal(t,
		"SELECT `id`, `customer_id`, `total`, `status` FROM `orders` WHERE 1=0",
		got.SQL)
	assert.Empty(t, got.Args)
}

func TestBuildSQLOrderByJSONPath(t *testing.T) {
	orderBy, args := buildSQLOrderBy([]OrderSpec{
		{Column: Column{Name: "metadata", Path: []string{"rank"}}, Desc: true},
		{Column: Col("id")},
	})
	assert.Equal(t, "ORDER BY JSON_EXTRACT(`metadata`, ?) DESC, `id` ASC", orderBy)
	assert.Equal(t, []any{"$.rank"}, args)
}

func TestExplainSQL(t *testing.T) {
	out := ExplainSQL("SELECT * FROM `t` WHERE `a` = ? AND `b` IN (?,?) AND `c` = ?",
		[]any{"x", 1, 2, nil})
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = \"x\" AND `b` IN (1,2) AND `c` = NULL", out)

	// a literal '?' inside a string stays untouched
	out = ExplainSQL("SELECT * FROM `t` WHERE `a` = '?' AND `b` = ?", []any{true})
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = '?' AND `b` = TRUE", out)

	out = ExplainSQL("SELECT * FROM `t` WHERE `a` = ?", []any{`he said "hi"`})
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = \"he said \\\"hi\\\"\"", out)
}
