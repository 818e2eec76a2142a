package sift

import (
	"fmt"
	"strings"
)

// Compile walks the specification once against t and attaches the
// compiled predicate and query shape to the backend query. Each distinct
// relationship chain is resolved exactly once per call through a fresh
// join cache, so compiling the same Spec against two targets never leaks
// joins between them.
//
// Resolution order is fixed: the filter tree first, then grouping paths,
// then ordering paths. Backends that number their joins get the same
// numbering for the same Spec every time.
//
// A filter that compiles entirely away (all conditions omitted) leaves
// the query unfiltered: Shape.Where is simply never called.
func (s *Spec) Compile(t Target) error {
	if t.Root == nil || t.Criteria == nil || t.Query == nil {
		return fmt.Errorf("sift: incomplete target")
	}
	c := &compiler{t: t, paths: newResolver(t.Root)}

	t.Query.Distinct(s.distinct)

	ps, err := c.nodes("", s.filter)
	if err != nil {
		return err
	}
	pred, err := c.fold(ps, t.Criteria.And)
	if err != nil {
		return err
	}
	if pred != nil {
		t.Query.Where(pred)
	}

	if len(s.groupBy) > 0 {
		cols := make([]Attr, 0, len(s.groupBy))
		for _, p := range s.groupBy {
			col, err := c.paths.attr(p)
			if err != nil {
				return fmt.Errorf("sift: group by %q: %w", p, err)
			}
			cols = append(cols, col)
		}
		t.Query.GroupBy(cols)
	}

	for _, o := range s.orderBy {
		col, err := c.paths.attr(o.By)
		if err != nil {
			return fmt.Errorf("sift: order by %q: %w", o.By, err)
		}
		t.Query.OrderBy(col, o.Dir == Desc)
	}
	return nil
}

type compiler struct {
	t     Target
	paths *resolver
}

// nodes compiles the children of one scope, dropping the ones that
// compile away. prefix is the absolute path of the enclosing join scope,
// empty at the root.
func (c *compiler) nodes(prefix string, children []Node) ([]Predicate, error) {
	var out []Predicate
	for _, n := range children {
		p, err := c.node(prefix, n)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// node compiles one Node, returning a nil Predicate when it elides.
func (c *compiler) node(prefix string, n Node) (Predicate, error) {
	switch n := n.(type) {
	case Cond:
		return c.cond(prefix, n)
	case And:
		ps, err := c.nodes(prefix, n.Children)
		if err != nil {
			return nil, err
		}
		return c.fold(ps, c.t.Criteria.And)
	case Or:
		ps, err := c.nodes(prefix, n.Children)
		if err != nil {
			return nil, err
		}
		return c.fold(ps, c.t.Criteria.Or)
	case Join:
		ps, err := c.nodes(string(rebase(prefix, n.Rel)), n.Children)
		if err != nil {
			return nil, err
		}
		return c.fold(ps, c.t.Criteria.And)
	case Fetch:
		if c.t.Query.Scalar() {
			return nil, nil
		}
		if err := c.paths.fetch(rebase(prefix, n.Rel)); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("sift: unknown node type %T", n)
	}
}

// fold combines the surviving predicates of one group: none elides the
// group, one passes through untouched, more go to the backend combinator.
func (c *compiler) fold(ps []Predicate, combine func([]Predicate) (Predicate, error)) (Predicate, error) {
	switch len(ps) {
	case 0:
		return nil, nil
	case 1:
		return ps[0], nil
	default:
		return combine(ps)
	}
}

// cond compiles one leaf condition. The omission check runs before any
// path resolution, so an omitted condition cannot create a join or error
// on an unknown path.
func (c *compiler) cond(prefix string, n Cond) (Predicate, error) {
	if omitted(n) {
		return nil, nil
	}
	routine, ok := condRoutines[n.Op]
	if !ok {
		return nil, fmt.Errorf("sift: %s on %q: unknown operator", n.Op, n.Col)
	}
	col, err := c.paths.attr(rebase(prefix, n.Col))
	if err != nil {
		return nil, fmt.Errorf("sift: %s on %q: %w", n.Op, n.Col, err)
	}
	return routine(c, prefix, col, n)
}

// omitted applies the tolerant-filter rules: a condition whose operand
// marks it "not provided" vanishes instead of erroring, so optional user
// input can feed the builder directly. Column references never mark a
// condition as omitted.
func omitted(n Cond) bool {
	if n.Arg.IsRef() {
		return false
	}
	switch n.Op {
	case OpEq, OpNotEq:
		return n.Arg.Value() == nil
	case OpLike, OpNotLike, OpILike, OpNotILike:
		if n.Arg.Value() == nil {
			return true
		}
		pat, ok := n.Arg.Value().(string)
		return ok && strings.TrimSpace(pat) == ""
	case OpIn:
		vals, ok := n.Arg.Value().([]any)
		return n.Arg.Value() == nil || (ok && len(vals) == 0)
	}
	return false
}

// rhs materializes a condition's right-hand side: a column reference
// resolves through the shared join cache, a literal passes through.
func (c *compiler) rhs(prefix string, n Cond) (any, error) {
	if n.Arg.IsRef() {
		col, err := c.paths.attr(rebase(prefix, n.Arg.Ref()))
		if err != nil {
			return nil, fmt.Errorf("sift: %s on %q: right operand: %w", n.Op, n.Col, err)
		}
		return col, nil
	}
	return n.Arg.Value(), nil
}

// scalarRhs is rhs plus the non-null requirement of the ordering
// operators, which have no omission semantics.
func (c *compiler) scalarRhs(prefix string, n Cond) (any, error) {
	v, err := c.rhs(prefix, n)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("sift: %s on %q requires a value", n.Op, n.Col)
	}
	return v, nil
}

type condRoutine func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error)

// condRoutines is the single dispatch point from operator to backend
// call. Every Operator constant must have an entry; the completeness test
// keeps the table honest.
var condRoutines = map[Operator]condRoutine{
	OpEq: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.rhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.Eq(col, v)
	},
	OpNotEq: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.rhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.NotEq(col, v)
	},
	OpIsNull: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.IsNull(col)
	},
	OpNotNull: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.NotNull(col)
	},
	OpLike:     likeRoutine(false, false),
	OpNotLike:  likeRoutine(false, true),
	OpILike:    likeRoutine(true, false),
	OpNotILike: likeRoutine(true, true),
	OpIn: func(c *compiler, _ string, col Attr, n Cond) (Predicate, error) {
		vals, ok := n.Arg.Value().([]any)
		if !ok {
			return nil, fmt.Errorf("sift: in on %q needs a value set, got %T", n.Col, n.Arg.Value())
		}
		return c.t.Criteria.In(col, vals)
	},
	OpBetween: func(c *compiler, _ string, col Attr, n Cond) (Predicate, error) {
		r, ok := n.Arg.Value().(Range)
		if !ok {
			return nil, fmt.Errorf("sift: between on %q needs a Range, got %T", n.Col, n.Arg.Value())
		}
		if r.Lo == nil || r.Hi == nil {
			return nil, fmt.Errorf("sift: between on %q: both range ends are required", n.Col)
		}
		return c.t.Criteria.Between(col, r.Lo, r.Hi)
	},
	OpGt: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.scalarRhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.Gt(col, v)
	},
	OpGte: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.scalarRhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.Gte(col, v)
	},
	OpLt: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.scalarRhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.Lt(col, v)
	},
	OpLte: func(c *compiler, prefix string, col Attr, n Cond) (Predicate, error) {
		v, err := c.scalarRhs(prefix, n)
		if err != nil {
			return nil, err
		}
		return c.t.Criteria.Lte(col, v)
	},
	OpIsEmpty: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.IsEmpty(col)
	},
	OpNotEmpty: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.NotEmpty(col)
	},
	OpIsTrue: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.IsTrue(col)
	},
	OpIsFalse: func(c *compiler, _ string, col Attr, _ Cond) (Predicate, error) {
		return c.t.Criteria.IsFalse(col)
	},
}

func likeRoutine(fold, negate bool) condRoutine {
	return func(c *compiler, _ string, col Attr, n Cond) (Predicate, error) {
		pat, ok := n.Arg.Value().(string)
		if !ok {
			return nil, fmt.Errorf("sift: %s on %q needs a string pattern, got %T", n.Op, n.Col, n.Arg.Value())
		}
		return c.t.Criteria.Like(col, pat, fold, negate)
	}
}
