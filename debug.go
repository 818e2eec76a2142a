package sift

import (
	"fmt"
	"strings"
)

// String renders the specification in a compact s-expression form for
// logs and test failures. Children appear in assembly order. The
// rendering is stable for a given Spec but carries no compile-time
// meaning; backends never see it.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString("spec(")
	first := true
	sep := func() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
	}
	if s.distinct {
		sep()
		b.WriteString("distinct")
	}
	for _, n := range s.filter {
		sep()
		writeNode(&b, n)
	}
	if len(s.groupBy) > 0 {
		sep()
		b.WriteString("group(")
		for i, p := range s.groupBy {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(string(p))
		}
		b.WriteByte(')')
	}
	for _, o := range s.orderBy {
		sep()
		fmt.Fprintf(&b, "order(%s %s)", o.By, o.Dir)
	}
	b.WriteByte(')')
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case Cond:
		writeCond(b, n)
	case And:
		writeGroup(b, "and", n.Children)
	case Or:
		writeGroup(b, "or", n.Children)
	case Join:
		b.WriteString("join(")
		b.WriteString(string(n.Rel))
		for _, ch := range n.Children {
			b.WriteByte(' ')
			writeNode(b, ch)
		}
		b.WriteByte(')')
	case Fetch:
		fmt.Fprintf(b, "fetch(%s)", n.Rel)
	default:
		fmt.Fprintf(b, "?%T", n)
	}
}

func writeGroup(b *strings.Builder, name string, children []Node) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, ch := range children {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeNode(b, ch)
	}
	b.WriteByte(')')
}

func writeCond(b *strings.Builder, n Cond) {
	b.WriteString(n.Op.String())
	b.WriteByte('(')
	b.WriteString(string(n.Col))
	switch {
	case n.Arg.IsRef():
		fmt.Fprintf(b, " col(%s)", n.Arg.Ref())
	case opInfo[n.Op].kind == operandNone:
	case n.Op == OpBetween:
		if r, ok := n.Arg.Value().(Range); ok {
			b.WriteByte(' ')
			writeValue(b, r.Lo)
			b.WriteByte(' ')
			writeValue(b, r.Hi)
		}
	case n.Op == OpIn:
		if vals, ok := n.Arg.Value().([]any); ok {
			for _, v := range vals {
				b.WriteByte(' ')
				writeValue(b, v)
			}
		}
	default:
		b.WriteByte(' ')
		writeValue(b, n.Arg.Value())
	}
	b.WriteByte(')')
}

func writeValue(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case string:
		fmt.Fprintf(b, "%q", v)
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
