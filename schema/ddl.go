package schema

import (
	"fmt"
	"strings"
)

// sqliteTypes maps attribute types to SQLite column types.
var sqliteTypes = map[AttrType]string{
	TypeText:  "TEXT",
	TypeInt:   "INTEGER",
	TypeBool:  "INTEGER",
	TypeFloat: "REAL",
	TypeTime:  "TIMESTAMP",
}

// DDL returns one CREATE TABLE statement per entity, in registration
// order, for fixtures and tooling. To-one relationships become REFERENCES
// clauses on their foreign key columns; SQLite resolves forward
// references at runtime, so declaration order never matters.
func (r *Registry) DDL() []string {
	stmts := make([]string, 0, len(r.order))
	for _, e := range r.order {
		stmts = append(stmts, r.createTable(e))
	}
	return stmts
}

func (r *Registry) createTable(e *Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", e.Table)
	for i, a := range e.Attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", a.Column, sqliteTypes[a.Type])
		if a.Name == e.Key {
			b.WriteString(" PRIMARY KEY")
		}
		if ref := r.reference(e, a.Column); ref != "" {
			b.WriteString(" " + ref)
		}
	}
	b.WriteString(")")
	return b.String()
}

// reference returns the REFERENCES clause for col if a to-one
// relationship of e uses it as foreign key.
func (r *Registry) reference(e *Entity, col string) string {
	for _, rel := range e.Rels {
		if rel.Kind != ToOne || rel.ForeignKey != col {
			continue
		}
		target := r.byName[rel.Target]
		return fmt.Sprintf("REFERENCES %s(%s)", target.Table, target.KeyColumn())
	}
	return ""
}
