package store

// Registry holds the schemas of every known collection. It is used to
// provision tables and to resolve index declarations by table name.
type Registry struct {
	schemas []Schema
	byTable map[string]Schema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: []Schema{},
		byTable: make(map[string]Schema),
	}
}

// Register adds a schema to the registry. Registering the same table twice
// replaces the earlier declaration.
func (r *Registry) Register(s Schema) {
	if _, ok := r.byTable[s.Table]; ok {
		for i := range r.schemas {
			if r.schemas[i].Table == s.Table {
				r.schemas[i] = s
			}
		}
	} else {
		r.schemas = append(r.schemas, s)
	}
	r.byTable[s.Table] = s
}

// Schema returns the schema registered for a table.
func (r *Registry) Schema(table string) (Schema, bool) {
	s, ok := r.byTable[table]
	return s, ok
}

// All returns all registered schemas in registration order.
func (r *Registry) All() []Schema {
	return r.schemas
}

// HasIndex reports whether the table declares the named index.
func (r *Registry) HasIndex(table, index string) bool {
	s, ok := r.byTable[table]
	if !ok {
		return false
	}
	_, ok = s.Index(index)
	return ok
}
