package sift

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm/logger"
)

// OrderSpec is one resolved order entry, highest priority first.
type OrderSpec struct {
	Column Column
	Desc   bool
}

// ResolvedInclude pairs a relation definition with the query fragment
// for its rows.
type ResolvedInclude struct {
	Relation Relation
	Query    *Query
}

// Query is the finished, backend-agnostic descriptor handed to an
// executor adapter. Fields is the final projection with hidden columns
// already stripped; nil means "all columns". Limit 0 means unbounded.
type Query struct {
	Model    *Model
	Where    Expr
	Fields   []string
	Order    []OrderSpec
	Limit    int
	Offset   int
	Includes []ResolvedInclude
}

// Engine resolves caller filters against registered models into query
// descriptors. It is pure and stateless per call; a single Engine is
// safe for concurrent use once configured.
type Engine interface {
	// Resolve merges the entity's default filter into f, composes the
	// where clause, resolves includes and applies projection, order and
	// pagination.
	Resolve(entity string, f *Filter) (*Query, error)
	// ResolveMutation guards and composes the predicate for a bulk
	// update/delete. An empty where clause is rejected unless force is
	// set; a forced empty where is logged as a warning.
	ResolveMutation(entity string, w *Where, force bool) (Expr, error)
	SetMode(m Mode)
	GetMode() Mode
	SetNamingStrategy(strategy NamingStrategy)
	GetNamingStrategy() NamingStrategy
	SetLogger(l logger.Interface)
}

type engine struct {
	registry *Registry
	mode     Mode
	naming   NamingStrategy
	log      logger.Interface
}

func New(registry *Registry) Engine {
	return &engine{
		registry: registry,
		mode:     ModeStrict,
		naming:   NAMING_STRATEGY_SNAKE_CASE,
		log:      logger.Default,
	}
}

func (e *engine) SetMode(m Mode) {
	e.mode = m
}

func (e *engine) GetMode() Mode {
	return e.mode
}

func (e *engine) SetNamingStrategy(strategy NamingStrategy) {
	e.naming = strategy
}

func (e *engine) GetNamingStrategy() NamingStrategy {
	return e.naming
}

func (e *engine) SetLogger(l logger.Interface) {
	e.log = l
}

func (e *engine) Resolve(entity string, f *Filter) (*Query, error) {
	return e.resolve(entity, f, false)
}

// resolve is the shared read path. Include scopes come through with
// skipDefaults set: a default filter applies to top-level access only.
func (e *engine) resolve(entity string, f *Filter, skipDefaults bool) (*Query, error) {
	model, ok := e.registry.Lookup(entity)
	if !ok {
		return nil, &UnknownEntityError{Entity: entity}
	}

	merged := Merge(model.Defaults, f, skipDefaults)

	where, err := Compose(merged.Where, e.mode, e.naming)
	if err != nil {
		return nil, err
	}

	fields, err := e.projection(model, merged.Fields)
	if err != nil {
		return nil, err
	}

	order, err := e.order(merged.Order)
	if err != nil {
		return nil, err
	}

	includes, err := e.includes(model, merged.Include)
	if err != nil {
		return nil, err
	}

	q := &Query{
		Model:    model,
		Where:    where,
		Fields:   fields,
		Order:    order,
		Includes: includes,
	}
	if merged.Limit != nil && *merged.Limit > 0 {
		q.Limit = *merged.Limit
	}
	if merged.Offset != nil && *merged.Offset > 0 {
		q.Offset = *merged.Offset
	}
	return q, nil
}

func (e *engine) ResolveMutation(entity string, w *Where, force bool) (Expr, error) {
	model, ok := e.registry.Lookup(entity)
	if !ok {
		return nil, &UnknownEntityError{Entity: entity}
	}
	if w.Empty() {
		if !force {
			return nil, &UnsafeBulkError{Entity: entity}
		}
		if e.log != nil {
			e.log.Warn(context.Background(), "sift: forced bulk mutation on %s with empty where", entity)
		}
	}
	merged := Merge(model.Defaults, &Filter{Where: w}, false)
	return Compose(merged.Where, e.mode, e.naming)
}

// projection computes the final column list. A nil result means "all
// columns". Hidden columns never survive, no matter what the caller
// asked for.
func (e *engine) projection(model *Model, fields Fields) ([]string, error) {
	if fields == nil {
		if len(model.hidden) == 0 {
			return nil, nil
		}
		return minus(model.Columns, model.hidden), nil
	}

	inclusion, exclusion := false, false
	for _, keep := range fields {
		if keep {
			inclusion = true
		} else {
			exclusion = true
		}
	}
	if inclusion && exclusion {
		return nil, structuralf("fields projection mixes inclusion and exclusion for entity %q", model.Name)
	}

	if inclusion {
		names := make([]string, 0, len(fields))
		for field := range fields {
			names = append(names, normalizeName(field, e.naming))
		}
		out := minus(names, model.hidden)
		sort.Strings(out)
		return out, nil
	}

	// exclusion (or an explicitly empty map, which excludes nothing)
	excluded := make(map[string]bool, len(fields)+len(model.hidden))
	for field := range fields {
		excluded[normalizeName(field, e.naming)] = true
	}
	for h := range model.hidden {
		excluded[h] = true
	}
	if len(excluded) == 0 {
		return nil, nil
	}
	return minus(model.Columns, excluded), nil
}

// order parses "<field> <ASC|DESC>" entries. Direction is optional and
// case-insensitive, defaulting to ASC.
func (e *engine) order(entries []string) ([]OrderSpec, error) {
	var specs []OrderSpec
	for _, entry := range entries {
		parts := strings.Fields(entry)
		if len(parts) == 0 {
			continue
		}
		if len(parts) > 2 {
			return nil, structuralf("malformed order entry %q", entry)
		}
		spec := OrderSpec{Column: resolveColumn(parts[0], e.naming)}
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				spec.Desc = true
			default:
				return nil, structuralf("bad order direction %q in %q", parts[1], entry)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func minus(columns []string, drop map[string]bool) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}
