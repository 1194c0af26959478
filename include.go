package sift

// includes resolves include specs against the model's relations. Each
// scope runs through the full pipeline for the target entity, except
// that the target's default filter is not re-applied; its hidden
// columns are still stripped from the nested projection.
//
// Nesting depth is not limited mechanically. Includes more than two
// levels deep resolve fine but tend to fan out expensive queries;
// prefer flattening them.
func (e *engine) includes(model *Model, specs []Include) ([]ResolvedInclude, error) {
	var out []ResolvedInclude
	for _, spec := range specs {
		rel, ok := model.relation(spec.Relation)
		if !ok {
			return nil, &RelationNotFoundError{
				Entity:   model.Name,
				Relation: spec.Relation,
				Known:    model.RelationNames(),
			}
		}
		sub, err := e.resolve(rel.Target, spec.Scope, true)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedInclude{Relation: rel, Query: sub})
	}
	return out, nil
}
