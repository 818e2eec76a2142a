package sift

import "fmt"

// Root is the builder handed to New's configuration block. It has no
// Column method on purpose: a leaf condition cannot sit bare at the top
// of a filter, it must live inside an And, Or or Join block, which keeps
// every assembled tree in the same normalized shape. Root is also where
// the query shape (distinct, grouping, ordering) is declared.
//
// Builder errors are sticky: the first one is kept and reported by New,
// and later calls still run but cannot overwrite it.
type Root struct {
	nodes    []Node
	distinct bool
	groupBy  []Path
	orderBy  []Ordering
	err      error
}

func (r *Root) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// And opens a conjunction block at the top of the filter.
func (r *Root) And(block func(*Scope)) {
	r.nodes = append(r.nodes, And{Children: r.collect(block)})
}

// Or opens a disjunction block at the top of the filter.
func (r *Root) Or(block func(*Scope)) {
	r.nodes = append(r.nodes, Or{Children: r.collect(block)})
}

// Join opens a block whose conditions apply to the entity reached through
// the relationship at path.
func (r *Root) Join(path string, block func(*Scope)) {
	p, err := ParsePath(path)
	if err != nil {
		r.fail(err)
		return
	}
	r.nodes = append(r.nodes, Join{Rel: p, Children: r.collect(block)})
}

// Fetch marks the relationship at path for eager loading.
func (r *Root) Fetch(path string) {
	p, err := ParsePath(path)
	if err != nil {
		r.fail(err)
		return
	}
	r.nodes = append(r.nodes, Fetch{Rel: p})
}

// Distinct asks for duplicate result rows to be collapsed.
func (r *Root) Distinct() {
	r.distinct = true
}

// GroupBy appends grouping paths, in the given order.
func (r *Root) GroupBy(paths ...string) {
	for _, raw := range paths {
		p, err := ParsePath(raw)
		if err != nil {
			r.fail(err)
			return
		}
		r.groupBy = append(r.groupBy, p)
	}
}

// OrderBy appends one sort key. Earlier keys dominate; later ones break
// ties.
func (r *Root) OrderBy(path string, dir Direction) {
	p, err := ParsePath(path)
	if err != nil {
		r.fail(err)
		return
	}
	if dir != Asc && dir != Desc {
		r.fail(fmt.Errorf("sift: order by %q: unknown direction %d", path, int(dir)))
		return
	}
	r.orderBy = append(r.orderBy, Ordering{By: p, Dir: dir})
}

func (r *Root) collect(block func(*Scope)) []Node {
	s := &Scope{root: r}
	if block != nil {
		block(s)
	}
	return s.nodes
}

// Scope accumulates sibling nodes inside an And, Or or Join block. Unlike
// Root it offers Column, the entry point for leaf conditions. An empty
// Scope is legal and compiles to nothing.
type Scope struct {
	root  *Root
	nodes []Node
}

// Column starts a leaf condition on the column at path. The returned
// handle carries the operator methods; each call appends one condition to
// the enclosing block.
func (s *Scope) Column(path string) *Column {
	p, err := ParsePath(path)
	if err != nil {
		s.root.fail(err)
		return &Column{scope: s}
	}
	return &Column{scope: s, path: p}
}

// And opens a nested conjunction block.
func (s *Scope) And(block func(*Scope)) {
	s.nodes = append(s.nodes, And{Children: s.root.collect(block)})
}

// Or opens a nested disjunction block.
func (s *Scope) Or(block func(*Scope)) {
	s.nodes = append(s.nodes, Or{Children: s.root.collect(block)})
}

// Join opens a nested block scoped to the relationship at path, itself
// relative to this scope's entity.
func (s *Scope) Join(path string, block func(*Scope)) {
	p, err := ParsePath(path)
	if err != nil {
		s.root.fail(err)
		return
	}
	s.nodes = append(s.nodes, Join{Rel: p, Children: s.root.collect(block)})
}

// Fetch marks the relationship at path, relative to this scope's entity,
// for eager loading.
func (s *Scope) Fetch(path string) {
	p, err := ParsePath(path)
	if err != nil {
		s.root.fail(err)
		return
	}
	s.nodes = append(s.nodes, Fetch{Rel: p})
}

// Column is the operator surface for one column path inside a Scope.
type Column struct {
	scope *Scope
	path  Path // empty when the path failed to parse; operators become no-ops
}

func (c *Column) add(op Operator, arg Operand) {
	if c.path == "" {
		return
	}
	if arg.IsRef() {
		if _, err := ParsePath(string(arg.Ref())); err != nil {
			c.scope.root.fail(fmt.Errorf("sift: %s on %q: %w", op, c.path, err))
			return
		}
	}
	c.scope.nodes = append(c.scope.nodes, Cond{Col: c.path, Op: op, Arg: arg})
}

// Eq compares the column for equality with v, which may be a literal or a
// Col reference. A nil literal marks the condition "not provided" and it
// is omitted at compile time.
func (c *Column) Eq(v any) { c.add(OpEq, toOperand(v)) }

// NotEq compares the column for inequality with v. Same nil-literal
// omission rule as Eq.
func (c *Column) NotEq(v any) { c.add(OpNotEq, toOperand(v)) }

// IsNull requires the column to be null. This is the explicit form; Eq
// with a nil literal does not mean this.
func (c *Column) IsNull() { c.add(OpIsNull, Operand{}) }

// NotNull requires the column to be non-null.
func (c *Column) NotNull() { c.add(OpNotNull, Operand{}) }

// Like matches the column against a case-sensitive SQL pattern. A blank
// pattern marks the condition "not provided" and it is omitted at compile
// time.
func (c *Column) Like(pattern string) { c.add(OpLike, Lit(pattern)) }

// NotLike is the negation of Like, with the same blank-pattern omission.
func (c *Column) NotLike(pattern string) { c.add(OpNotLike, Lit(pattern)) }

// ILike matches the column against a case-insensitive SQL pattern, with
// the same blank-pattern omission as Like.
func (c *Column) ILike(pattern string) { c.add(OpILike, Lit(pattern)) }

// NotILike is the negation of ILike.
func (c *Column) NotILike(pattern string) { c.add(OpNotILike, Lit(pattern)) }

// In requires the column's value to be one of vals. An empty set marks
// the condition "not provided" and it is omitted at compile time.
func (c *Column) In(vals ...any) { c.add(OpIn, Lit(vals)) }

// Between requires lo <= column <= hi. Both ends are required; an
// open-ended range fails compilation rather than silently halving.
func (c *Column) Between(lo, hi any) { c.add(OpBetween, Lit(Range{Lo: lo, Hi: hi})) }

// Gt requires column > v. A nil v fails compilation: only eq, not-eq, the
// pattern operators and in have omission semantics.
func (c *Column) Gt(v any) { c.add(OpGt, toOperand(v)) }

// Gte requires column >= v.
func (c *Column) Gte(v any) { c.add(OpGte, toOperand(v)) }

// Lt requires column < v.
func (c *Column) Lt(v any) { c.add(OpLt, toOperand(v)) }

// Lte requires column <= v.
func (c *Column) Lte(v any) { c.add(OpLte, toOperand(v)) }

// IsEmpty requires the to-many relationship at the column's path to have
// no related rows.
func (c *Column) IsEmpty() { c.add(OpIsEmpty, Operand{}) }

// IsNotEmpty requires the to-many relationship to have at least one
// related row.
func (c *Column) IsNotEmpty() { c.add(OpNotEmpty, Operand{}) }

// IsTrue requires a boolean column to be true.
func (c *Column) IsTrue() { c.add(OpIsTrue, Operand{}) }

// IsFalse requires a boolean column to be false.
func (c *Column) IsFalse() { c.add(OpIsFalse, Operand{}) }

func toOperand(v any) Operand {
	if o, ok := v.(Operand); ok {
		return o
	}
	return Operand{lit: v}
}
