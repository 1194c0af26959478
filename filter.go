package sift

import "encoding/json"

// Filter is the wire-level query description: where conditions, field
// projection, pagination, ordering and relation includes. Pointer and
// nil-slice fields distinguish "absent" from "explicitly empty", which
// is what default-filter merging keys on.
type Filter struct {
	Where   *Where    `json:"where,omitempty"`
	Fields  Fields    `json:"fields,omitempty"`
	Limit   *int      `json:"limit,omitempty"`
	Offset  *int      `json:"offset,omitempty"`
	Order   []string  `json:"order,omitempty"`
	Include []Include `json:"include,omitempty"`
}

// UnmarshalJSON accepts "skip" as an alias for "offset".
func (f *Filter) UnmarshalJSON(data []byte) error {
	type alias Filter
	aux := struct {
		*alias
		Skip *int `json:"skip"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.Offset == nil && aux.Skip != nil {
		f.Offset = aux.Skip
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with f.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return &Filter{}
	}
	out := &Filter{Where: f.Where.Clone()}
	if f.Fields != nil {
		out.Fields = make(Fields, len(f.Fields))
		for k, v := range f.Fields {
			out.Fields[k] = v
		}
	}
	if f.Limit != nil {
		v := *f.Limit
		out.Limit = &v
	}
	if f.Offset != nil {
		v := *f.Offset
		out.Offset = &v
	}
	if f.Order != nil {
		out.Order = append([]string{}, f.Order...)
	}
	if f.Include != nil {
		out.Include = make([]Include, len(f.Include))
		for i, inc := range f.Include {
			out.Include[i] = Include{Relation: inc.Relation}
			if inc.Scope != nil {
				out.Include[i].Scope = inc.Scope.Clone()
			}
		}
	}
	return out
}

// Fields is a projection map. It must be consistently all-inclusion
// (every value true) or all-exclusion (every value false); a mix is a
// StructuralError at resolve time.
type Fields map[string]bool

// Where is one level of a where clause: field conditions combined with
// implicit AND, plus optional and/or groups of nested clauses.
type Where struct {
	Conds map[string]Cond
	And   []Where
	Or    []Where
}

// Empty reports whether w constrains nothing.
func (w *Where) Empty() bool {
	return w == nil || (len(w.Conds) == 0 && len(w.And) == 0 && len(w.Or) == 0)
}

// Clone returns a deep copy of w, or nil for nil.
func (w *Where) Clone() *Where {
	if w == nil {
		return nil
	}
	out := &Where{}
	if w.Conds != nil {
		out.Conds = make(map[string]Cond, len(w.Conds))
		for k, c := range w.Conds {
			out.Conds[k] = c.clone()
		}
	}
	for _, g := range w.And {
		out.And = append(out.And, *g.Clone())
	}
	for _, g := range w.Or {
		out.Or = append(out.Or, *g.Clone())
	}
	return out
}

// UnmarshalJSON lifts "and"/"or" keys into groups; every other key is a
// field (or JSON path) condition.
func (w *Where) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch k {
		case "and":
			if err := json.Unmarshal(v, &w.And); err != nil {
				return err
			}
		case "or":
			if err := json.Unmarshal(v, &w.Or); err != nil {
				return err
			}
		default:
			var c Cond
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if w.Conds == nil {
				w.Conds = make(map[string]Cond)
			}
			w.Conds[k] = c
		}
	}
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (w Where) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(w.Conds)+2)
	for k, c := range w.Conds {
		out[k] = c
	}
	if len(w.And) > 0 {
		out["and"] = w.And
	}
	if len(w.Or) > 0 {
		out["or"] = w.Or
	}
	return json.Marshal(out)
}

// Cond is the predicate attached to a single field key: either a bare
// literal (implicit equality) or an operator map. Never both.
type Cond struct {
	Value any
	Ops   OperatorMap

	lit bool
}

// Lit builds a literal (implicit equality) condition. Lit(nil) means
// IS NULL.
func Lit(v any) Cond {
	return Cond{Value: v, lit: true}
}

// OpMap builds an operator-map condition.
func OpMap(m OperatorMap) Cond {
	return Cond{Ops: m}
}

// IsLiteral reports whether the condition is a bare literal.
func (c Cond) IsLiteral() bool {
	return c.lit
}

func (c Cond) clone() Cond {
	if c.lit {
		return c
	}
	ops := make(OperatorMap, len(c.Ops))
	for op, v := range c.Ops {
		ops[op] = v
	}
	return Cond{Ops: ops}
}

// UnmarshalJSON treats a JSON object as an operator map when at least
// one key is a recognized operator name; anything else is a literal.
// A literal object is legal: it compares a JSON-typed column for
// equality.
func (c *Cond) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if m, ok := v.(map[string]any); ok {
		for k := range m {
			if _, known := operatorNames[Operation(k)]; known {
				ops := make(OperatorMap, len(m))
				for mk, mv := range m {
					ops[Operation(mk)] = mv
				}
				*c = Cond{Ops: ops}
				return nil
			}
		}
	}
	*c = Cond{Value: v, lit: true}
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (c Cond) MarshalJSON() ([]byte, error) {
	if c.lit {
		return json.Marshal(c.Value)
	}
	return json.Marshal(c.Ops)
}

// Include requests associated rows via a named relation, optionally
// filtered by a nested scope.
type Include struct {
	Relation string  `json:"relation"`
	Scope    *Filter `json:"scope,omitempty"`
}

// UnmarshalJSON accepts either a bare relation name string or the full
// object form.
func (i *Include) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Relation)
	}
	type alias Include
	return json.Unmarshal(data, (*alias)(i))
}
