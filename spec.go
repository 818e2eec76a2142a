package sift

// Direction orders a sort key.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Ordering pairs a sort path with its direction.
type Ordering struct {
	By  Path
	Dir Direction
}

// Spec is an immutable description of a filtered query: the filter tree
// plus distinctness, grouping and ordering. A Spec holds no backend state
// and may be compiled any number of times, concurrently, against
// independent targets.
type Spec struct {
	filter   []Node
	distinct bool
	groupBy  []Path
	orderBy  []Ordering
}

// New assembles a Spec by running build against a fresh Root. Assembly is
// pure in-memory construction; no backend is involved. Everything that
// can be checked without a backend (path syntax, sort directions) is
// checked here, so a returned Spec only fails to compile for reasons the
// backend alone can know, unknown attributes and relationships chiefly.
//
//	spec, err := sift.New(func(q *sift.Root) {
//		q.And(func(s *sift.Scope) {
//			s.Column("age").Gte(18)
//			s.Column("name").NotNull()
//		})
//		q.OrderBy("age", sift.Desc)
//	})
func New(build func(*Root)) (*Spec, error) {
	r := &Root{}
	if build != nil {
		build(r)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Spec{
		filter:   r.nodes,
		distinct: r.distinct,
		groupBy:  r.groupBy,
		orderBy:  r.orderBy,
	}, nil
}

// Filter returns the top-level filter nodes, which compile as one
// conjunction. The slice is shared; treat it as read-only.
func (s *Spec) Filter() []Node { return s.filter }

// IsDistinct reports whether duplicate result rows are collapsed.
func (s *Spec) IsDistinct() bool { return s.distinct }

// GroupBy returns the grouping paths in declaration order.
func (s *Spec) GroupBy() []Path { return s.groupBy }

// OrderBy returns the sort keys in declaration order.
func (s *Spec) OrderBy() []Ordering { return s.orderBy }
