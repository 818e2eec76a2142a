package sift

import "fmt"

// resolver walks dotted paths against the backend, creating each
// relationship join at most once per compilation. The cache is keyed by
// absolute path prefix, so "department.name" and "department.id" share
// one join while "manager.department" gets its own. A resolver lives for
// exactly one Compile call and is never shared.
type resolver struct {
	root    Source
	joins   map[string]Source
	fetched map[string]bool
}

func newResolver(root Source) *resolver {
	return &resolver{
		root:    root,
		joins:   make(map[string]Source),
		fetched: make(map[string]bool),
	}
}

// attr resolves the absolute path p to an attribute handle, creating or
// reusing one join per relationship segment along the way. Only the final
// segment resolves as an attribute; it never creates a join.
func (r *resolver) attr(p Path) (Attr, error) {
	segs := p.Segments()
	src := r.root
	prefix := ""
	for _, seg := range segs[:len(segs)-1] {
		prefix = child(prefix, seg)
		next, err := r.join(src, prefix, seg)
		if err != nil {
			return nil, err
		}
		src = next
	}
	return src.Attr(segs[len(segs)-1])
}

// join returns the node at prefix, calling the backend only on first use.
func (r *resolver) join(parent Source, prefix, name string) (Source, error) {
	if src, ok := r.joins[prefix]; ok {
		return src, nil
	}
	src, err := parent.Join(name, LeftJoin)
	if err != nil {
		return nil, fmt.Errorf("join %q: %w", prefix, err)
	}
	r.joins[prefix] = src
	return src, nil
}

// fetch records an eager-load directive for every relationship along the
// absolute path p. Prefixes already fetched are skipped; prefixes already
// joined go through Source.Fetch anyway, and the backend folds the two
// into one physical join per its contract.
func (r *resolver) fetch(p Path) error {
	src := r.root
	prefix := ""
	for _, seg := range p.Segments() {
		prefix = child(prefix, seg)
		if r.fetched[prefix] {
			src = r.joins[prefix]
			continue
		}
		next, err := src.Fetch(seg, LeftJoin)
		if err != nil {
			return fmt.Errorf("fetch %q: %w", prefix, err)
		}
		r.fetched[prefix] = true
		r.joins[prefix] = next
		src = next
	}
	return nil
}
