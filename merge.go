package sift

// Merge deep-merges an entity's default filter with a caller filter.
// With skip set, the default is never consulted and the caller filter
// comes back as-is (cloned; nil becomes an empty filter).
//
// Otherwise the caller wins per top-level key by presence, not
// truthiness: supplying `order: []` suppresses a default order, while
// omitting the key keeps it. The where clauses deep-merge key-wise:
// overlapping operator maps merge field-wise (so a default gte and a
// caller lte form one range), overlapping literals are replaced by the
// caller's value, and both sides' and/or groups are conjoined rather
// than interleaved.
//
// Merge is total and never mutates its inputs.
func Merge(def, user *Filter, skip bool) *Filter {
	if skip {
		return user.Clone()
	}
	out := def.Clone()
	if user == nil {
		return out
	}
	if user.Where != nil {
		out.Where = mergeWhere(out.Where, user.Where)
	}
	if user.Fields != nil {
		out.Fields = make(Fields, len(user.Fields))
		for k, v := range user.Fields {
			out.Fields[k] = v
		}
	}
	if user.Limit != nil {
		v := *user.Limit
		out.Limit = &v
	}
	if user.Offset != nil {
		v := *user.Offset
		out.Offset = &v
	}
	if user.Order != nil {
		out.Order = append([]string{}, user.Order...)
	}
	if user.Include != nil {
		out.Include = user.Clone().Include
	}
	return out
}

// mergeWhere merges a caller where clause over a cloned default one.
// def may be mutated; it is already a private copy.
func mergeWhere(def, user *Where) *Where {
	if def == nil {
		return user.Clone()
	}
	if user == nil {
		return def
	}
	for field, uc := range user.Conds {
		dc, overlap := def.Conds[field]
		if overlap && !dc.IsLiteral() && !uc.IsLiteral() {
			merged := make(OperatorMap, len(dc.Ops)+len(uc.Ops))
			for op, v := range dc.Ops {
				merged[op] = v
			}
			for op, v := range uc.Ops {
				merged[op] = v
			}
			def.Conds[field] = Cond{Ops: merged}
			continue
		}
		// literal replacement, or a shape change: the caller's
		// condition wins wholesale
		if def.Conds == nil {
			def.Conds = make(map[string]Cond, len(user.Conds))
		}
		def.Conds[field] = uc.clone()
	}
	for _, g := range user.And {
		def.And = append(def.And, *g.Clone())
	}
	for _, g := range user.Or {
		def.Or = append(def.Or, *g.Clone())
	}
	return def
}
