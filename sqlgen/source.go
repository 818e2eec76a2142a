package sqlgen

import (
	"fmt"

	"github.com/roach88/sift"
	"github.com/roach88/sift/schema"
)

// node is one entity occurrence in the query: the root, or the target of
// a join. Nodes form a tree mirroring the relationship chains the
// compiler resolved; each carries the alias its columns render under.
type node struct {
	q        *Query
	entity   *schema.Entity
	alias    string
	rel      schema.Rel // how this node hangs off its parent; zero at the root
	kind     sift.JoinKind
	parent   *node
	children map[string]*node
	fetched  bool
}

// Attr resolves a terminal name on this node's entity. Scalar attributes
// become column references; to-many relationships resolve too, for the
// emptiness operators. A to-one relationship is not a value and is
// rejected with a hint.
func (n *node) Attr(name string) (sift.Attr, error) {
	if a, ok := n.entity.Attr(name); ok {
		return &colRef{node: n, attr: a}, nil
	}
	if r, ok := n.entity.Rel(name); ok {
		if r.Kind == schema.ToMany {
			return &collectionRef{node: n, rel: r}, nil
		}
		return nil, fmt.Errorf("sqlgen: %s.%s is a to-one relationship, not an attribute; address a column through it instead", n.entity.Name, name)
	}
	return nil, fmt.Errorf("sqlgen: entity %s has no attribute %q", n.entity.Name, name)
}

// Join creates or reuses the join for the named relationship.
func (n *node) Join(name string, kind sift.JoinKind) (sift.Source, error) {
	return n.child(name, kind, false)
}

// Fetch creates or reuses the join for the named relationship and marks
// its entity for inclusion in the select list. A relationship that was
// already joined is upgraded in place; no second join appears.
func (n *node) Fetch(name string, kind sift.JoinKind) (sift.Source, error) {
	return n.child(name, kind, true)
}

func (n *node) child(name string, kind sift.JoinKind, fetch bool) (*node, error) {
	if c, ok := n.children[name]; ok {
		if fetch && !c.fetched {
			c.fetched = true
			n.q.fetchSeq = append(n.q.fetchSeq, c)
		}
		return c, nil
	}
	rel, ok := n.entity.Rel(name)
	if !ok {
		return nil, fmt.Errorf("sqlgen: entity %s has no relationship %q", n.entity.Name, name)
	}
	target, err := n.q.reg.Entity(rel.Target)
	if err != nil {
		return nil, err
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	n.q.joinCount++
	c := &node{
		q:      n.q,
		entity: target,
		alias:  fmt.Sprintf("t%d", n.q.joinCount),
		rel:    rel,
		kind:   kind,
		parent: n,
	}
	n.children[name] = c
	n.q.joinSeq = append(n.q.joinSeq, c)
	if fetch {
		c.fetched = true
		n.q.fetchSeq = append(n.q.fetchSeq, c)
	}
	return c, nil
}

// on renders the join condition tying this node to its parent.
func (n *node) on() string {
	if n.rel.Kind == schema.ToMany {
		return fmt.Sprintf("%s.%s = %s.%s",
			n.alias, n.rel.ForeignKey,
			n.parent.alias, n.parent.entity.KeyColumn())
	}
	return fmt.Sprintf("%s.%s = %s.%s",
		n.alias, n.entity.KeyColumn(),
		n.parent.alias, n.rel.ForeignKey)
}

// colRef is a resolved scalar attribute: one aliased column.
type colRef struct {
	node *node
	attr schema.Attr
}

func (c *colRef) sql() string {
	return c.node.alias + "." + c.attr.Column
}

// collectionRef is a resolved to-many relationship, the operand of the
// emptiness operators.
type collectionRef struct {
	node *node
	rel  schema.Rel
}
