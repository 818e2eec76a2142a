package sift

// Node is one vertex of a filter tree. The interface is sealed: only
// types in this package implement it, so the compiler's type switch
// covers every case that can exist.
type Node interface {
	filterNode()
}

// Cond is a leaf comparison: one column path, one operator, at most one
// operand. Whether the operand is required, and what shape it must have,
// depends on the operator.
type Cond struct {
	Col Path
	Op  Operator
	Arg Operand
}

// And groups children that must all hold. A group whose children all
// compile away is itself dropped, never replaced by a vacuous predicate.
type And struct {
	Children []Node
}

// Or groups children of which at least one must hold. Same elision rule
// as And.
type Or struct {
	Children []Node
}

// Join scopes its children to the entity reached through Rel; their paths
// are relative to that entity. The backend join itself is created lazily,
// on the first path that actually resolves through the relationship, so a
// Join whose children all compile away costs nothing.
type Join struct {
	Rel      Path
	Children []Node
}

// Fetch marks the relationship at Rel for eager loading. It contributes
// no predicate and is skipped entirely when the target query is scalar.
type Fetch struct {
	Rel Path
}

func (Cond) filterNode()  {}
func (And) filterNode()   {}
func (Or) filterNode()    {}
func (Join) filterNode()  {}
func (Fetch) filterNode() {}
