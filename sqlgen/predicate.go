package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/sift"
	"github.com/roach88/sift/schema"
)

// frag is one compiled predicate: a SQL fragment plus its bound
// arguments. Values never interpolate into the SQL text.
type frag struct {
	sql  string
	args []any
}

// column narrows an opaque attribute back to a column of this query.
func (q *Query) column(a sift.Attr) (*colRef, error) {
	c, ok := a.(*colRef)
	if !ok {
		return nil, fmt.Errorf("sqlgen: %T is not a column of this query", a)
	}
	if c.node.q != q {
		return nil, fmt.Errorf("sqlgen: column %s was resolved against another query", c.sql())
	}
	return c, nil
}

func (q *Query) frag(p sift.Predicate) (*frag, error) {
	f, ok := p.(*frag)
	if !ok {
		return nil, fmt.Errorf("sqlgen: %T is not a predicate of this query", p)
	}
	return f, nil
}

// cmp renders a binary comparison. An *colRef right-hand side compares
// column against column; anything else binds as a parameter.
func (q *Query) cmp(op string, col sift.Attr, v any) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	if rhs, ok := v.(*colRef); ok {
		if rhs.node.q != q {
			return nil, fmt.Errorf("sqlgen: column %s was resolved against another query", rhs.sql())
		}
		return &frag{sql: fmt.Sprintf("%s %s %s", c.sql(), op, rhs.sql())}, nil
	}
	return &frag{sql: fmt.Sprintf("%s %s ?", c.sql(), op), args: []any{v}}, nil
}

func (q *Query) Eq(col sift.Attr, v any) (sift.Predicate, error)    { return q.cmp("=", col, v) }
func (q *Query) NotEq(col sift.Attr, v any) (sift.Predicate, error) { return q.cmp("<>", col, v) }
func (q *Query) Gt(col sift.Attr, v any) (sift.Predicate, error)    { return q.cmp(">", col, v) }
func (q *Query) Gte(col sift.Attr, v any) (sift.Predicate, error)   { return q.cmp(">=", col, v) }
func (q *Query) Lt(col sift.Attr, v any) (sift.Predicate, error)    { return q.cmp("<", col, v) }
func (q *Query) Lte(col sift.Attr, v any) (sift.Predicate, error)   { return q.cmp("<=", col, v) }

func (q *Query) IsNull(col sift.Attr) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	return &frag{sql: c.sql() + " IS NULL"}, nil
}

func (q *Query) NotNull(col sift.Attr) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	return &frag{sql: c.sql() + " IS NOT NULL"}, nil
}

func (q *Query) Like(col sift.Attr, pattern string, fold, negate bool) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	if c.attr.Type != schema.TypeText {
		return nil, fmt.Errorf("sqlgen: pattern match needs a text column, %s is %s", c.sql(), c.attr.Type)
	}
	op := "LIKE"
	if negate {
		op = "NOT LIKE"
	}
	if fold {
		lower := q.dialect.Lower
		return &frag{
			sql:  fmt.Sprintf("%s(%s) %s %s(?)", lower, c.sql(), op, lower),
			args: []any{pattern},
		}, nil
	}
	return &frag{sql: fmt.Sprintf("%s %s ?", c.sql(), op), args: []any{pattern}}, nil
}

func (q *Query) In(col sift.Attr, vals []any) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("sqlgen: in on %s with an empty set", c.sql())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	return &frag{
		sql:  fmt.Sprintf("%s IN (%s)", c.sql(), placeholders),
		args: append([]any(nil), vals...),
	}, nil
}

func (q *Query) Between(col sift.Attr, lo, hi any) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	return &frag{sql: c.sql() + " BETWEEN ? AND ?", args: []any{lo, hi}}, nil
}

func (q *Query) IsEmpty(col sift.Attr) (sift.Predicate, error) {
	return q.emptiness(col, true)
}

func (q *Query) NotEmpty(col sift.Attr) (sift.Predicate, error) {
	return q.emptiness(col, false)
}

// emptiness renders a correlated EXISTS over the to-many target table.
// The subquery aliases its table s, which cannot collide with the outer
// tN aliases.
func (q *Query) emptiness(a sift.Attr, empty bool) (sift.Predicate, error) {
	coll, ok := a.(*collectionRef)
	if !ok {
		return nil, fmt.Errorf("sqlgen: emptiness check needs a to-many relationship, got %T", a)
	}
	if coll.node.q != q {
		return nil, fmt.Errorf("sqlgen: relationship %s was resolved against another query", coll.rel.Name)
	}
	target, err := q.reg.Entity(coll.rel.Target)
	if err != nil {
		return nil, err
	}
	kw := "EXISTS"
	if empty {
		kw = "NOT EXISTS"
	}
	return &frag{
		sql: fmt.Sprintf("%s (SELECT 1 FROM %s s WHERE s.%s = %s.%s)",
			kw, target.Table, coll.rel.ForeignKey,
			coll.node.alias, coll.node.entity.KeyColumn()),
	}, nil
}

func (q *Query) IsTrue(col sift.Attr) (sift.Predicate, error) {
	return q.boolean(col, "1")
}

func (q *Query) IsFalse(col sift.Attr) (sift.Predicate, error) {
	return q.boolean(col, "0")
}

func (q *Query) boolean(col sift.Attr, lit string) (sift.Predicate, error) {
	c, err := q.column(col)
	if err != nil {
		return nil, err
	}
	if c.attr.Type != schema.TypeBool {
		return nil, fmt.Errorf("sqlgen: boolean check needs a bool column, %s is %s", c.sql(), c.attr.Type)
	}
	return &frag{sql: c.sql() + " = " + lit}, nil
}

func (q *Query) And(ps []sift.Predicate) (sift.Predicate, error) {
	return q.combine(" AND ", ps)
}

func (q *Query) Or(ps []sift.Predicate) (sift.Predicate, error) {
	return q.combine(" OR ", ps)
}

func (q *Query) combine(sep string, ps []sift.Predicate) (sift.Predicate, error) {
	if len(ps) < 2 {
		return nil, fmt.Errorf("sqlgen: combination needs at least two predicates, got %d", len(ps))
	}
	parts := make([]string, len(ps))
	var args []any
	for i, p := range ps {
		f, err := q.frag(p)
		if err != nil {
			return nil, err
		}
		parts[i] = "(" + f.sql + ")"
		args = append(args, f.args...)
	}
	return &frag{sql: strings.Join(parts, sep), args: args}, nil
}
