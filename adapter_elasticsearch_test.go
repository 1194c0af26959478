package sift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildElasticsearchQuery(t *testing.T) {
	e := New(testRegistry())
	q := resolveJSON(t, e, "order",
		`{"where":{"status":"paid","total":{"gte":50}},"order":["total DESC"],"limit":5,"offset":10}`)

	body := BuildElasticsearchQuery(q)
	assert.Equal(t, map[string]any{"bool": map[string]any{"must": []map[string]any{
		{"term": map[string]any{"status": "paid"}},
		{"range": map[string]any{"total": map[string]any{"gte": float64(50)}}},
	}}}, body.Query)
	assert.Equal(t, []map[string]any{
		{"total": map[string]string{"order": "desc"}},
	}, body.Sort)
	assert.Equal(t, 5, body.Size)
	assert.Equal(t, 10, body.From)
	assert.Equal(t, []string{"id", "customer_id", "total", "status"}, body.Source)
}

func TestElasticsearchExprShapes(t *testing.T) {
	assert.Equal(t,
		map[string]any{"match_all": map[string]any{}},
		esExpr(TrueExpr{}))
	assert.Equal(t,
		map[string]any{"bool": map[string]any{"must_not": map[string]any{"match_all": map[string]any{}}}},
		esExpr(FalseExpr{}))

	assert.Equal(t,
		map[string]any{"terms": map[string]any{"status": []any{"a", "b"}}},
		esExpr(InExpr{Column: Col("status"), Values: []any{"a", "b"}}))

	assert.Equal(t,
		map[string]any{"bool": map[string]any{
			"must":     map[string]any{"exists": map[string]any{"field": "status"}},
			"must_not": map[string]any{"terms": map[string]any{"status": []any(nil)}},
		}},
		esExpr(NotInExpr{Column: Col("status")}))

	assert.Equal(t,
		map[string]any{"bool": map[string]any{"must_not": map[string]any{"exists": map[string]any{"field": "deleted_at"}}}},
		esExpr(IsNullExpr{Column: Col("deleted_at")}))

	assert.Equal(t,
		map[string]any{"range": map[string]any{"price": map[string]any{"gte": 10, "lte": 20}}},
		esExpr(BetweenExpr{Column: Col("price"), Low: 10, High: 20}))
}

func TestElasticsearchWildcard(t *testing.T) {
	assert.Equal(t,
		map[string]any{"wildcard": map[string]any{"name": "ab*x?z"}},
		esExpr(LikeExpr{Column: Col("name"), Value: "ab%x_z"}))

	assert.Equal(t,
		map[string]any{"wildcard": map[string]any{"name": map[string]any{
			"value":            "a*",
			"case_insensitive": true,
		}}},
		esExpr(ILikeExpr{Column: Col("name"), Value: "a%"}))
}

func TestElasticsearchArrayOperators(t *testing.T) {
	assert.Equal(t,
		map[string]any{"bool": map[string]any{"must": []map[string]any{
			{"term": map[string]any{"tags": "a"}},
			{"term": map[string]any{"tags": "b"}},
		}}},
		esExpr(ContainsExpr{Column: Col("tags"), Values: []any{"a", "b"}}))

	assert.Equal(t,
		map[string]any{"terms_set": map[string]any{"tags": map[string]any{
			"terms": []any{"a", "b"},
			"minimum_should_match_script": map[string]any{
				"source": "doc[params.field].size()",
				"params": map[string]any{"field": "tags"},
			},
		}}},
		esExpr(ContainedByExpr{Column: Col("tags"), Values: []any{"a", "b"}}))
}

func TestElasticsearchScriptFieldStaysInParams(t *testing.T) {
	// a hostile path segment must end up in script params, not in the
	// executable source string
	out := esExpr(ContainedByExpr{
		Column: Column{Name: "tags", Path: []string{"a']; return 1; //"}},
		Values: []any{"x"},
	})
	inner := out["terms_set"].(map[string]any)["tags.a']; return 1; //"].(map[string]any)
	script := inner["minimum_should_match_script"].(map[string]any)
	assert.Equal(t, "doc[params.field].size()", script["source"])
	assert.Equal(t, map[string]any{"field": "tags.a']; return 1; //"}, script["params"])
}

func TestElasticsearchNestedFieldPath(t *testing.T) {
	assert.Equal(t,
		map[string]any{"term": map[string]any{"metadata.tier": "gold"}},
		esExpr(EqExpr{Column: Column{Name: "metadata", Path: []string{"tier"}}, Value: "gold"}))
}

func TestElasticsearchQueryJSON(t *testing.T) {
	e := New(NewRegistry(&Model{Name: "event", Table: "events"}))
	q := resolveJSON(t, e, "event", `{"where":{"kind":"click"},"limit":3}`)

	raw, err := ElasticsearchQueryJSON(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"term":{"kind":"click"}},"size":3}`, raw)
}
