// Package schema describes the entities a sift query runs against:
// tables, typed attributes, and the relationships between them. A
// Registry is built either programmatically with NewRegistry or from CUE
// files with Load, and is what the sqlgen backend resolves query paths
// against.
package schema

import "fmt"

// AttrType is the storage type of an attribute.
type AttrType int

const (
	TypeText AttrType = iota
	TypeInt
	TypeBool
	TypeFloat
	TypeTime
)

var attrTypeNames = map[AttrType]string{
	TypeText:  "text",
	TypeInt:   "int",
	TypeBool:  "bool",
	TypeFloat: "float",
	TypeTime:  "time",
}

func (t AttrType) String() string {
	if s, ok := attrTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("AttrType(%d)", int(t))
}

// ParseAttrType maps the schema-file spelling of a type to its constant.
func ParseAttrType(s string) (AttrType, error) {
	for t, name := range attrTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown attribute type %q", s)
}

// Attr is one scalar attribute of an entity. Name is what query paths
// use; Column is the database column, defaulting to Name.
type Attr struct {
	Name   string
	Column string
	Type   AttrType
}

// RelKind distinguishes to-one from to-many relationships.
type RelKind int

const (
	ToOne RelKind = iota
	ToMany
)

func (k RelKind) String() string {
	if k == ToMany {
		return "many"
	}
	return "one"
}

// Rel is a named relationship to another entity.
//
// For ToOne the foreign key is a column of the owning entity referencing
// the target's primary key. For ToMany it is a column of the target
// entity referencing the owner's primary key. Either way ForeignKey must
// name a declared attribute column of the entity it lives on.
type Rel struct {
	Name       string
	Target     string
	Kind       RelKind
	ForeignKey string
}

// Entity is one queryable entity. Attribute order is meaningful: it
// drives select lists and generated DDL.
type Entity struct {
	Name  string
	Table string
	Key   string
	Attrs []Attr
	Rels  []Rel
}

// Attr looks up a scalar attribute by name.
func (e *Entity) Attr(name string) (Attr, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// Rel looks up a relationship by name.
func (e *Entity) Rel(name string) (Rel, bool) {
	for _, r := range e.Rels {
		if r.Name == name {
			return r, true
		}
	}
	return Rel{}, false
}

// KeyColumn returns the primary key's database column.
func (e *Entity) KeyColumn() string {
	a, _ := e.Attr(e.Key)
	return a.Column
}

// column reports whether name is a declared database column of e.
func (e *Entity) column(name string) bool {
	for _, a := range e.Attrs {
		if a.Column == name {
			return true
		}
	}
	return false
}

// Registry is a validated, immutable set of entities.
type Registry struct {
	byName map[string]*Entity
	order  []*Entity
}

// NewRegistry validates entities and builds a registry. It takes
// ownership of the entities, normalizing empty Table and Column fields to
// their defaults. Entity order is preserved; generated DDL follows it.
func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e.Name == "" {
			return nil, fmt.Errorf("schema: entity with empty name")
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate entity %q", e.Name)
		}
		normalize(e)
		if err := validateEntity(e); err != nil {
			return nil, err
		}
		r.byName[e.Name] = e
		r.order = append(r.order, e)
	}
	for _, e := range r.order {
		if err := r.validateRels(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Entity returns the named entity or an error listing what is known.
func (r *Registry) Entity(name string) (*Entity, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("schema: unknown entity %q", name)
	}
	return e, nil
}

// Entities returns all entities in registration order.
func (r *Registry) Entities() []*Entity {
	return r.order
}

func normalize(e *Entity) {
	if e.Table == "" {
		e.Table = e.Name
	}
	for i := range e.Attrs {
		if e.Attrs[i].Column == "" {
			e.Attrs[i].Column = e.Attrs[i].Name
		}
	}
}

func validateEntity(e *Entity) error {
	if len(e.Attrs) == 0 {
		return fmt.Errorf("schema: entity %q has no attributes", e.Name)
	}
	names := map[string]bool{}
	cols := map[string]bool{}
	for _, a := range e.Attrs {
		if a.Name == "" {
			return fmt.Errorf("schema: entity %q has an attribute with empty name", e.Name)
		}
		if names[a.Name] {
			return fmt.Errorf("schema: entity %q: duplicate attribute %q", e.Name, a.Name)
		}
		if cols[a.Column] {
			return fmt.Errorf("schema: entity %q: duplicate column %q", e.Name, a.Column)
		}
		names[a.Name] = true
		cols[a.Column] = true
	}
	if e.Key == "" {
		return fmt.Errorf("schema: entity %q has no key", e.Name)
	}
	if !names[e.Key] {
		return fmt.Errorf("schema: entity %q: key %q is not a declared attribute", e.Name, e.Key)
	}
	rels := map[string]bool{}
	for _, rel := range e.Rels {
		if rel.Name == "" {
			return fmt.Errorf("schema: entity %q has a relationship with empty name", e.Name)
		}
		if names[rel.Name] {
			return fmt.Errorf("schema: entity %q: relationship %q collides with an attribute", e.Name, rel.Name)
		}
		if rels[rel.Name] {
			return fmt.Errorf("schema: entity %q: duplicate relationship %q", e.Name, rel.Name)
		}
		rels[rel.Name] = true
	}
	return nil
}

// validateRels runs after every entity is registered, so targets resolve
// regardless of declaration order.
func (r *Registry) validateRels(e *Entity) error {
	for _, rel := range e.Rels {
		target, ok := r.byName[rel.Target]
		if !ok {
			return fmt.Errorf("schema: entity %q: relationship %q targets unknown entity %q",
				e.Name, rel.Name, rel.Target)
		}
		switch rel.Kind {
		case ToOne:
			if !e.column(rel.ForeignKey) {
				return fmt.Errorf("schema: entity %q: relationship %q: foreign key %q is not a column of %q",
					e.Name, rel.Name, rel.ForeignKey, e.Name)
			}
		case ToMany:
			if !target.column(rel.ForeignKey) {
				return fmt.Errorf("schema: entity %q: relationship %q: foreign key %q is not a column of %q",
					e.Name, rel.Name, rel.ForeignKey, rel.Target)
			}
		default:
			return fmt.Errorf("schema: entity %q: relationship %q has unknown kind %d",
				e.Name, rel.Name, int(rel.Kind))
		}
	}
	return nil
}
