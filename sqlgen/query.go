// Package sqlgen compiles sift specifications to parameterized SQL over
// a schema registry. A Query is the compilation target: its root node is
// the sift Source, the Query itself implements Criteria and Shape, and
// Build renders the final SELECT with its arguments.
//
// The root entity renders under alias t0 and joins number t1, t2, ... in
// creation order, so the same specification always renders the same SQL.
// Result columns are aliased alias_column (t0_id, t1_name) to keep
// fetched entities from colliding with the root's columns.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/sift"
	"github.com/roach88/sift/schema"
)

// Query assembles one SELECT statement. Create it with Select or Count,
// compile a specification into it, then Build.
type Query struct {
	reg     *schema.Registry
	dialect Dialect
	root    *node
	scalar  bool

	distinct  bool
	where     *frag
	groups    []*colRef
	orders    []orderKey
	joinCount int
	joinSeq   []*node
	fetchSeq  []*node
	err       error
}

type orderKey struct {
	col  *colRef
	desc bool
}

// Option adjusts query construction.
type Option func(*Query)

// WithDialect overrides the default dialect.
func WithDialect(d Dialect) Option {
	return func(q *Query) { q.dialect = d }
}

// Select starts a row query over the named root entity.
func Select(reg *schema.Registry, entity string, opts ...Option) (*Query, error) {
	return newQuery(reg, entity, false, opts)
}

// Count starts a scalar query counting result rows. Fetch directives are
// skipped during compilation, and with distinct on it counts distinct
// root rows rather than raw result rows.
func Count(reg *schema.Registry, entity string, opts ...Option) (*Query, error) {
	return newQuery(reg, entity, true, opts)
}

func newQuery(reg *schema.Registry, entity string, scalar bool, opts []Option) (*Query, error) {
	e, err := reg.Entity(entity)
	if err != nil {
		return nil, err
	}
	q := &Query{reg: reg, dialect: DefaultDialect, scalar: scalar}
	q.root = &node{q: q, entity: e, alias: "t0"}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Root returns the root source node, for assembling a sift.Target by
// hand.
func (q *Query) Root() sift.Source { return q.root }

// Apply compiles spec into this query. It is shorthand for
//
//	spec.Compile(sift.Target{Root: q.Root(), Criteria: q, Query: q})
//
// plus surfacing any query-shape error the compilation provoked.
func (q *Query) Apply(spec *sift.Spec) error {
	if err := spec.Compile(sift.Target{Root: q.root, Criteria: q, Query: q}); err != nil {
		return err
	}
	return q.err
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Distinct implements sift.Shape.
func (q *Query) Distinct(on bool) { q.distinct = on }

// GroupBy implements sift.Shape.
func (q *Query) GroupBy(cols []sift.Attr) {
	for _, a := range cols {
		c, err := q.column(a)
		if err != nil {
			q.fail(fmt.Errorf("group by: %w", err))
			return
		}
		q.groups = append(q.groups, c)
	}
}

// OrderBy implements sift.Shape.
func (q *Query) OrderBy(col sift.Attr, desc bool) {
	c, err := q.column(col)
	if err != nil {
		q.fail(fmt.Errorf("order by: %w", err))
		return
	}
	q.orders = append(q.orders, orderKey{col: c, desc: desc})
}

// Where implements sift.Shape.
func (q *Query) Where(p sift.Predicate) {
	f, err := q.frag(p)
	if err != nil {
		q.fail(err)
		return
	}
	q.where = f
}

// Scalar implements sift.Shape.
func (q *Query) Scalar() bool { return q.scalar }

// Build renders the statement and its bound arguments. It may be called
// repeatedly; the query is not consumed.
func (q *Query) Build() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	q.writeSelectList(&b)

	b.WriteString(" FROM ")
	b.WriteString(q.root.entity.Table)
	b.WriteByte(' ')
	b.WriteString(q.root.alias)
	for _, j := range q.joinSeq {
		if j.kind == sift.InnerJoin {
			b.WriteString(" JOIN ")
		} else {
			b.WriteString(" LEFT JOIN ")
		}
		fmt.Fprintf(&b, "%s %s ON %s", j.entity.Table, j.alias, j.on())
	}

	var args []any
	if q.where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.where.sql)
		args = append(args, q.where.args...)
	}

	if len(q.groups) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range q.groups {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.sql())
		}
	}

	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.orders {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.col.sql())
			// Explicit null placement: nulls sort after values ascending
			// and before them descending, whatever the engine's default.
			if o.desc {
				b.WriteString(" DESC NULLS FIRST")
			} else {
				b.WriteString(" ASC NULLS LAST")
			}
		}
	}

	return b.String(), args, nil
}

func (q *Query) writeSelectList(b *strings.Builder) {
	if q.scalar {
		if q.distinct {
			fmt.Fprintf(b, "COUNT(DISTINCT %s.%s)", q.root.alias, q.root.entity.KeyColumn())
		} else {
			b.WriteString("COUNT(*)")
		}
		return
	}
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	first := true
	entity := func(n *node) {
		for _, a := range n.entity.Attrs {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(b, "%s.%s AS %s_%s", n.alias, a.Column, n.alias, a.Column)
		}
	}
	entity(q.root)
	for _, n := range q.fetchSeq {
		entity(n)
	}
}
