package sift

// Attr is an opaque handle to an attribute the backend has resolved:
// a column of the root entity or of a joined one, or a to-many
// relationship for the emptiness operators. The compiler never looks
// inside; it only carries handles from Source.Attr into Criteria calls.
type Attr any

// Predicate is an opaque backend predicate produced by Criteria. The
// compiler combines and passes predicates around without inspecting them.
type Predicate any

// JoinKind selects how a join treats parent rows with no related row.
type JoinKind int

const (
	// LeftJoin keeps parent rows that have no related row. Every join the
	// compiler creates uses it, so filters on optional relationships do
	// not silently drop rows.
	LeftJoin JoinKind = iota
	// InnerJoin drops parent rows without a related row.
	InnerJoin
)

// Source is one entity node in the backend's query under construction:
// the root entity, or the target of a join or fetch.
type Source interface {
	// Attr resolves a terminal name on this entity. The name may identify
	// a scalar attribute or a to-many relationship (for is-empty and
	// not-empty); anything unknown is an error, reported verbatim.
	Attr(name string) (Attr, error)

	// Join creates a relationship join and returns the joined entity's
	// node. The compiler calls Join at most once per relationship name on
	// any given node per compilation; reuse across the tree is handled by
	// the compiler's join cache, not the backend.
	Join(name string, kind JoinKind) (Source, error)

	// Fetch creates an eager-load directive for a relationship and
	// returns the fetched entity's node. When the same relationship was
	// already joined in this compilation the backend must reuse that join
	// rather than add a second one.
	Fetch(name string, kind JoinKind) (Source, error)
}

// Criteria constructs the backend's native predicates. Binary comparisons
// receive either a literal Go value or an Attr from the same compilation;
// a backend recognizes its own attribute type to compare column against
// column.
type Criteria interface {
	Eq(col Attr, v any) (Predicate, error)
	NotEq(col Attr, v any) (Predicate, error)
	IsNull(col Attr) (Predicate, error)
	NotNull(col Attr) (Predicate, error)

	// Like matches col against a SQL-style pattern. fold requests
	// case-insensitive matching, negate inverts the result; the four
	// pattern operators map onto the flag pairs.
	Like(col Attr, pattern string, fold, negate bool) (Predicate, error)

	In(col Attr, vals []any) (Predicate, error)
	Between(col Attr, lo, hi any) (Predicate, error)
	Gt(col Attr, v any) (Predicate, error)
	Gte(col Attr, v any) (Predicate, error)
	Lt(col Attr, v any) (Predicate, error)
	Lte(col Attr, v any) (Predicate, error)

	// IsEmpty and NotEmpty test a to-many relationship for the absence or
	// presence of related rows.
	IsEmpty(col Attr) (Predicate, error)
	NotEmpty(col Attr) (Predicate, error)

	IsTrue(col Attr) (Predicate, error)
	IsFalse(col Attr) (Predicate, error)

	// And and Or combine two or more predicates. The compiler never calls
	// them with fewer: empty groups are elided and single-child groups
	// collapse to the child before the backend is involved.
	And(ps []Predicate) (Predicate, error)
	Or(ps []Predicate) (Predicate, error)
}

// Shape is the backend's query-shape surface: distinctness, grouping,
// ordering, and the final filter predicate.
type Shape interface {
	Distinct(on bool)

	// GroupBy installs the grouping key set, in the given order. The
	// compiler calls it once per compilation, and only when the
	// specification has grouping paths.
	GroupBy(cols []Attr)

	// OrderBy appends one sort key. Keys arrive in specification order;
	// earlier keys dominate.
	OrderBy(col Attr, desc bool)

	// Where installs the compiled filter predicate. Not called at all
	// when the whole filter compiles away, leaving the query unfiltered.
	Where(p Predicate)

	// Scalar reports whether the query produces a scalar result (a count,
	// say) rather than entity rows. Fetch directives are skipped on
	// scalar queries.
	Scalar() bool
}

// Target bundles the three backend surfaces one compilation writes into.
type Target struct {
	Root     Source
	Criteria Criteria
	Query    Shape
}
