package sift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ElasticsearchQuery is the request-body shape of a search: query,
// sort, pagination and source filtering.
type ElasticsearchQuery struct {
	Query  map[string]any   `json:"query"`
	Sort   []map[string]any `json:"sort,omitempty"`
	From   int              `json:"from,omitempty"`
	Size   int              `json:"size,omitempty"`
	Source []string         `json:"_source,omitempty"`
}

// BuildElasticsearchQuery converts a resolved descriptor into an
// Elasticsearch search body. Includes do not translate: documents are
// expected to be denormalized, so descriptors with includes should go
// to a relational executor instead.
func BuildElasticsearchQuery(q *Query) ElasticsearchQuery {
	out := ElasticsearchQuery{Query: esExpr(q.Where)}
	if q.Offset > 0 {
		out.From = q.Offset
	}
	if q.Limit > 0 {
		out.Size = q.Limit
	}
	for _, s := range q.Order {
		order := "asc"
		if s.Desc {
			order = "desc"
		}
		out.Sort = append(out.Sort, map[string]any{
			esField(s.Column): map[string]string{"order": order},
		})
	}
	if len(q.Fields) > 0 {
		out.Source = append(out.Source, q.Fields...)
	}
	return out
}

// ElasticsearchQueryJSON renders the search body as compact JSON.
func ElasticsearchQueryJSON(q *Query) (string, error) {
	body := BuildElasticsearchQuery(q)
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal elasticsearch query: %w", err)
	}
	return string(raw), nil
}

func esField(c Column) string {
	if len(c.Path) == 0 {
		return c.Name
	}
	return c.Name + "." + strings.Join(c.Path, ".")
}

func esExpr(e Expr) map[string]any {
	switch x := e.(type) {
	case TrueExpr:
		return map[string]any{"match_all": map[string]any{}}
	case FalseExpr:
		return map[string]any{"bool": map[string]any{
			"must_not": map[string]any{"match_all": map[string]any{}},
		}}
	case EqExpr:
		return map[string]any{"term": map[string]any{esField(x.Column): x.Value}}
	case NeqExpr:
		return mustNot(map[string]any{"term": map[string]any{esField(x.Column): x.Value}})
	case GtExpr:
		return esRange(x.Column, "gt", x.Value)
	case GteExpr:
		return esRange(x.Column, "gte", x.Value)
	case LtExpr:
		return esRange(x.Column, "lt", x.Value)
	case LteExpr:
		return esRange(x.Column, "lte", x.Value)
	case InExpr:
		return map[string]any{"terms": map[string]any{esField(x.Column): x.Values}}
	case NotInExpr:
		// the exists clause mirrors SQL NOT IN dropping NULL rows
		return map[string]any{"bool": map[string]any{
			"must": map[string]any{"exists": map[string]any{"field": esField(x.Column)}},
			"must_not": map[string]any{
				"terms": map[string]any{esField(x.Column): x.Values},
			},
		}}
	case LikeExpr:
		return map[string]any{"wildcard": map[string]any{esField(x.Column): esWildcard(x.Value)}}
	case ILikeExpr:
		return map[string]any{"wildcard": map[string]any{esField(x.Column): map[string]any{
			"value":            esWildcard(x.Value),
			"case_insensitive": true,
		}}}
	case NotLikeExpr:
		return mustNot(map[string]any{"wildcard": map[string]any{esField(x.Column): esWildcard(x.Value)}})
	case BetweenExpr:
		return map[string]any{"range": map[string]any{esField(x.Column): map[string]any{
			"gte": x.Low,
			"lte": x.High,
		}}}
	case NotBetweenExpr:
		return mustNot(map[string]any{"range": map[string]any{esField(x.Column): map[string]any{
			"gte": x.Low,
			"lte": x.High,
		}}})
	case IsNullExpr:
		return mustNot(map[string]any{"exists": map[string]any{"field": esField(x.Column)}})
	case NotNullExpr:
		return map[string]any{"exists": map[string]any{"field": esField(x.Column)}}
	case ContainsExpr:
		// arrays index as multi-valued fields; all listed values must hit
		musts := make([]map[string]any, 0, len(x.Values))
		for _, v := range x.Values {
			musts = append(musts, map[string]any{"term": map[string]any{esField(x.Column): v}})
		}
		return map[string]any{"bool": map[string]any{"must": musts}}
	case ContainedByExpr:
		// every stored element must appear in the candidate terms; the
		// field name reaches the script through params, never source
		field := esField(x.Column)
		return map[string]any{"terms_set": map[string]any{field: map[string]any{
			"terms": x.Values,
			"minimum_should_match_script": map[string]any{
				"source": "doc[params.field].size()",
				"params": map[string]any{"field": field},
			},
		}}}
	case OverlapsExpr:
		return map[string]any{"terms": map[string]any{esField(x.Column): x.Values}}
	case AndExpr:
		musts := make([]map[string]any, 0, len(x.Operands))
		for _, op := range x.Operands {
			musts = append(musts, esExpr(op))
		}
		return map[string]any{"bool": map[string]any{"must": musts}}
	case OrExpr:
		shoulds := make([]map[string]any, 0, len(x.Operands))
		for _, op := range x.Operands {
			shoulds = append(shoulds, esExpr(op))
		}
		return map[string]any{"bool": map[string]any{
			"should":               shoulds,
			"minimum_should_match": 1,
		}}
	default:
		return map[string]any{"match_all": map[string]any{}}
	}
}

func esRange(c Column, op string, v any) map[string]any {
	return map[string]any{"range": map[string]any{esField(c): map[string]any{op: v}}}
}

func mustNot(inner map[string]any) map[string]any {
	return map[string]any{"bool": map[string]any{"must_not": inner}}
}

// esWildcard converts SQL LIKE wildcards to Elasticsearch ones.
func esWildcard(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	s = strings.ReplaceAll(s, "%", "*")
	return strings.ReplaceAll(s, "_", "?")
}
