package sift

import "fmt"

// fakeQuery records every backend call a compilation makes, rendering
// predicates as plain strings, so structural tests can assert on join
// creation, fetch marks and the compiled filter without a database.
//
// joins holds one entry per physical join creation (whether a Join or a
// Fetch created it), fetches one entry per eager-load directive. A Fetch
// of an already-created node marks it fetched without a second creation,
// mirroring how a real backend folds the two.
type fakeQuery struct {
	joins    []string
	fetches  []string
	groups   []string
	orders   []string
	where    string
	whereSet bool
	distinct bool
	scalar   bool

	badRel  string // Join/Fetch of this name fails
	badAttr string // Attr of this name fails
}

func (f *fakeQuery) target() Target {
	return Target{Root: &fakeNode{q: f}, Criteria: f, Query: f}
}

type fakeAttr string

type fakeNode struct {
	q        *fakeQuery
	path     string
	children map[string]*fakeNode
}

func (n *fakeNode) Attr(name string) (Attr, error) {
	if n.q.badAttr != "" && name == n.q.badAttr {
		return nil, fmt.Errorf("no attribute %q", name)
	}
	return fakeAttr(child(n.path, name)), nil
}

func (n *fakeNode) Join(name string, kind JoinKind) (Source, error) {
	if n.q.badRel != "" && name == n.q.badRel {
		return nil, fmt.Errorf("no relationship %q", name)
	}
	c, _ := n.child(name)
	return c, nil
}

func (n *fakeNode) Fetch(name string, kind JoinKind) (Source, error) {
	if n.q.badRel != "" && name == n.q.badRel {
		return nil, fmt.Errorf("no relationship %q", name)
	}
	c, _ := n.child(name)
	n.q.fetches = append(n.q.fetches, c.path)
	return c, nil
}

func (n *fakeNode) child(name string) (*fakeNode, bool) {
	if c, ok := n.children[name]; ok {
		return c, false
	}
	if n.children == nil {
		n.children = make(map[string]*fakeNode)
	}
	c := &fakeNode{q: n.q, path: child(n.path, name)}
	n.children[name] = c
	n.q.joins = append(n.q.joins, c.path)
	return c, true
}

func (f *fakeQuery) cmp(op string, col Attr, v any) Predicate {
	if a, ok := v.(fakeAttr); ok {
		return fmt.Sprintf("%s(%s,col(%s))", op, col, a)
	}
	return fmt.Sprintf("%s(%s,%v)", op, col, v)
}

func (f *fakeQuery) Eq(col Attr, v any) (Predicate, error)    { return f.cmp("eq", col, v), nil }
func (f *fakeQuery) NotEq(col Attr, v any) (Predicate, error) { return f.cmp("not-eq", col, v), nil }
func (f *fakeQuery) IsNull(col Attr) (Predicate, error) {
	return fmt.Sprintf("is-null(%s)", col), nil
}
func (f *fakeQuery) NotNull(col Attr) (Predicate, error) {
	return fmt.Sprintf("not-null(%s)", col), nil
}

func (f *fakeQuery) Like(col Attr, pattern string, fold, negate bool) (Predicate, error) {
	name := "like"
	if fold {
		name = "ilike"
	}
	if negate {
		name = "not-" + name
	}
	return fmt.Sprintf("%s(%s,%s)", name, col, pattern), nil
}

func (f *fakeQuery) In(col Attr, vals []any) (Predicate, error) {
	return fmt.Sprintf("in(%s,%v)", col, vals), nil
}

func (f *fakeQuery) Between(col Attr, lo, hi any) (Predicate, error) {
	return fmt.Sprintf("between(%s,%v,%v)", col, lo, hi), nil
}

func (f *fakeQuery) Gt(col Attr, v any) (Predicate, error)  { return f.cmp("gt", col, v), nil }
func (f *fakeQuery) Gte(col Attr, v any) (Predicate, error) { return f.cmp("gte", col, v), nil }
func (f *fakeQuery) Lt(col Attr, v any) (Predicate, error)  { return f.cmp("lt", col, v), nil }
func (f *fakeQuery) Lte(col Attr, v any) (Predicate, error) { return f.cmp("lte", col, v), nil }

func (f *fakeQuery) IsEmpty(col Attr) (Predicate, error) {
	return fmt.Sprintf("is-empty(%s)", col), nil
}
func (f *fakeQuery) NotEmpty(col Attr) (Predicate, error) {
	return fmt.Sprintf("not-empty(%s)", col), nil
}
func (f *fakeQuery) IsTrue(col Attr) (Predicate, error) {
	return fmt.Sprintf("is-true(%s)", col), nil
}
func (f *fakeQuery) IsFalse(col Attr) (Predicate, error) {
	return fmt.Sprintf("is-false(%s)", col), nil
}

func (f *fakeQuery) combine(name string, ps []Predicate) Predicate {
	s := name + "("
	for i, p := range ps {
		if i > 0 {
			s += ","
		}
		s += p.(string)
	}
	return s + ")"
}

func (f *fakeQuery) And(ps []Predicate) (Predicate, error) { return f.combine("and", ps), nil }
func (f *fakeQuery) Or(ps []Predicate) (Predicate, error)  { return f.combine("or", ps), nil }

func (f *fakeQuery) Distinct(on bool) { f.distinct = on }

func (f *fakeQuery) GroupBy(cols []Attr) {
	for _, c := range cols {
		f.groups = append(f.groups, string(c.(fakeAttr)))
	}
}

func (f *fakeQuery) OrderBy(col Attr, desc bool) {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	f.orders = append(f.orders, fmt.Sprintf("%s %s", col, dir))
}

func (f *fakeQuery) Where(p Predicate) {
	f.where = p.(string)
	f.whereSet = true
}

func (f *fakeQuery) Scalar() bool { return f.scalar }
