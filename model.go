package sift

import "sort"

// Cardinality tells whether a relation targets one row or many.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Relation describes a foreign-key association between two registered
// entities. References names the column on the owning entity,
// ForeignKey the column on the target.
type Relation struct {
	Name        string
	Cardinality Cardinality
	Target      string
	ForeignKey  string
	References  string
}

// Model is the static description of one entity: table, columns, hidden
// columns, relations and default filter. Models are registered once at
// startup and read-only afterwards, so concurrent reads need no
// synchronization.
//
// Entities with hidden columns must list Columns, otherwise the engine
// has no universe to subtract the hidden set from.
type Model struct {
	Name      string
	Table     string
	Columns   []string
	Hidden    []string
	Relations []Relation
	Defaults  *Filter

	hidden    map[string]bool
	relations map[string]Relation
}

func (m *Model) index() {
	m.hidden = make(map[string]bool, len(m.Hidden))
	for _, h := range m.Hidden {
		m.hidden[h] = true
	}
	m.relations = make(map[string]Relation, len(m.Relations))
	for _, r := range m.Relations {
		m.relations[r.Name] = r
	}
}

func (m *Model) relation(name string) (Relation, bool) {
	r, ok := m.relations[name]
	return r, ok
}

// RelationNames returns the model's relation names, sorted.
func (m *Model) RelationNames() []string {
	names := make([]string, 0, len(m.relations))
	for name := range m.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry maps entity names to their models. Build it once at startup
// and hand it to New; it is not safe to Register concurrently with
// resolution.
type Registry struct {
	models map[string]*Model
}

func NewRegistry(models ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

func (r *Registry) Register(m *Model) {
	m.index()
	r.models[m.Name] = m
}

func (r *Registry) Lookup(entity string) (*Model, bool) {
	m, ok := r.models[entity]
	return m, ok
}

// LookupRelation resolves a relation name against a registered entity.
func (r *Registry) LookupRelation(entity, name string) (Relation, bool) {
	m, ok := r.models[entity]
	if !ok {
		return Relation{}, false
	}
	return m.relation(name)
}
